// Package drive provides a high-level Google Drive client: listing
// with query building, content download with Google Docs export,
// upload, folders, and sharing.
package drive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// fileFields is the field projection requested on every file read.
const fileFields = "id, name, mimeType, size, createdTime, modifiedTime, parents, webViewLink, webContentLink"

// exportFormats maps Google Workspace document types to the format
// used when downloading their content.
var exportFormats = map[string]string{
	MIMETypeDocument:    "text/plain",
	MIMETypeSpreadsheet: "text/csv",
	"application/vnd.google-apps.presentation": "application/pdf",
	"application/vnd.google-apps.drawing":      "image/png",
}

// Client is a high-level Drive client.
type Client struct {
	svc     *driveapi.Service
	timeout time.Duration
	limiter *google.RateLimiter
	policy  google.RetryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy google.RetryPolicy) ClientOption {
	return func(c *Client) { c.policy = policy }
}

// WithRequestTimeout caps each HTTP request against the API. Effective
// only for clients built with NewClient.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// NewClient creates a Drive client drawing tokens from the provider.
func NewClient(ctx context.Context, provider driven.TokenProvider, opts ...ClientOption) (*Client, error) {
	c := newClient(opts...)
	svc, err := google.NewDriveService(ctx,
		google.NewHTTPClient(ctx, google.NewTokenSource(ctx, provider), c.timeout))
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return c, nil
}

// NewClientFromService wraps an existing Drive API service.
func NewClientFromService(svc *driveapi.Service, opts ...ClientOption) *Client {
	c := newClient(opts...)
	c.svc = svc
	return c
}

func newClient(opts ...ClientOption) *Client {
	c := &Client{
		limiter: google.NewRateLimiter(google.ServiceDrive),
		policy:  google.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) callInfo(operation, resourceID string) google.CallInfo {
	return google.CallInfo{
		Service:      string(google.ServiceDrive),
		Operation:    operation,
		ResourceType: "file",
		ResourceID:   resourceID,
	}
}

func (c *Client) bind(file *File) *File {
	file.client = c
	return file
}

// escapeQueryValue escapes single quotes for Drive query literals.
func escapeQueryValue(value string) string {
	return strings.ReplaceAll(value, `'`, `\'`)
}

// ListOptions filters a file listing.
type ListOptions struct {
	// Query is a raw Drive API query expression, combined with the
	// other filters by AND.
	Query string
	// ParentID restricts to direct children of a folder.
	ParentID string
	// MIMEType restricts to one MIME type.
	MIMEType string
	// MaxResults caps the listing (default 100, max 1000).
	MaxResults int64
	// OrderBy is the sort order (default "modifiedTime desc").
	OrderBy string
	// IncludeTrashed includes trashed files.
	IncludeTrashed bool
}

func (o ListOptions) buildQuery() string {
	var parts []string
	if o.Query != "" {
		parts = append(parts, o.Query)
	}
	if o.ParentID != "" {
		parts = append(parts, fmt.Sprintf("'%s' in parents", escapeQueryValue(o.ParentID)))
	}
	if o.MIMEType != "" {
		parts = append(parts, fmt.Sprintf("mimeType='%s'", o.MIMEType))
	}
	if !o.IncludeTrashed {
		parts = append(parts, "trashed=false")
	}
	return strings.Join(parts, " and ")
}

func (o ListOptions) pageSize() int64 {
	if o.MaxResults <= 0 {
		return 100
	}
	return min(o.MaxResults, 1000)
}

func (o ListOptions) orderBy() string {
	if o.OrderBy == "" {
		return "modifiedTime desc"
	}
	return o.OrderBy
}

// ListFiles returns files matching the options.
func (c *Client) ListFiles(ctx context.Context, opts ListOptions) ([]*File, error) {
	listing, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("list files", ""),
		func() (*driveapi.FileList, error) {
			return c.svc.Files.List().
				Q(opts.buildQuery()).
				PageSize(opts.pageSize()).
				OrderBy(opts.orderBy()).
				Fields(googleapi.Field("files(" + fileFields + ")")).
				Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}

	files := make([]*File, 0, len(listing.Files))
	for _, item := range listing.Files {
		files = append(files, c.bind(ParseFile(item)))
	}
	return files, nil
}

// ListFolders returns folders, optionally under one parent.
func (c *Client) ListFolders(ctx context.Context, parentID string) ([]*File, error) {
	return c.ListFiles(ctx, ListOptions{ParentID: parentID, MIMEType: MIMETypeFolder})
}

// SearchByName returns files whose name matches. With exact=false the
// match is a substring search.
func (c *Client) SearchByName(ctx context.Context, name string, exact bool) ([]*File, error) {
	escaped := escapeQueryValue(name)
	query := fmt.Sprintf("name contains '%s'", escaped)
	if exact {
		query = fmt.Sprintf("name='%s'", escaped)
	}
	return c.ListFiles(ctx, ListOptions{Query: query})
}

// GetFile fetches file metadata by ID. Returns found=false when the
// file does not exist.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, bool, error) {
	raw, found, err := google.CallOptional(ctx, c.limiter, c.policy,
		c.callInfo("get file", fileID),
		func() (*driveapi.File, error) {
			return c.svc.Files.Get(fileID).Fields(googleapi.Field(fileFields)).Context(ctx).Do()
		})
	if err != nil || !found {
		return nil, false, err
	}
	return c.bind(ParseFile(raw)), true, nil
}

// GetContent downloads file content. Google Workspace documents
// cannot be downloaded directly; they are exported to a portable
// format instead (Docs to text, Sheets to CSV, Slides to PDF).
func (c *Client) GetContent(ctx context.Context, fileID string) ([]byte, error) {
	file, found, err := c.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.NewNotFoundError(string(google.ServiceDrive), "file", fileID)
	}

	if file.IsGoogleDoc() {
		return c.exportContent(ctx, file)
	}

	return google.Call(ctx, c.limiter, c.policy, c.callInfo("download file", fileID),
		func() ([]byte, error) {
			resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
			if err != nil {
				return nil, err
			}
			return readBody(resp)
		})
}

func (c *Client) exportContent(ctx context.Context, file *File) ([]byte, error) {
	format, ok := exportFormats[file.MIMEType]
	if !ok {
		format = "application/pdf"
	}
	logger.Debug("exporting %s as %s", file.ID, format)

	return google.Call(ctx, c.limiter, c.policy, c.callInfo("export file", file.ID),
		func() ([]byte, error) {
			resp, err := c.svc.Files.Export(file.ID, format).Context(ctx).Download()
			if err != nil {
				return nil, err
			}
			return readBody(resp)
		})
}

func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// Download writes file content to a local path and returns the path.
func (c *Client) Download(ctx context.Context, fileID, path string) (string, error) {
	content, err := c.GetContent(ctx, fileID)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// UploadOptions describes an upload destination.
type UploadOptions struct {
	// Name is the name in Drive; for path uploads it defaults to the
	// local file name.
	Name string
	// ParentID places the file in a folder.
	ParentID string
	// MIMEType is detected server-side when empty.
	MIMEType string
}

// Upload uploads a local file.
func (c *Client) Upload(ctx context.Context, path string, opts UploadOptions) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if opts.Name == "" {
		opts.Name = filepath.Base(path)
	}
	return c.upload(ctx, f, opts)
}

// UploadContent uploads in-memory content.
func (c *Client) UploadContent(ctx context.Context, content []byte, opts UploadOptions) (*File, error) {
	if opts.Name == "" {
		return nil, &domain.ValidationError{Field: "name", Message: "required"}
	}
	return c.upload(ctx, bytes.NewReader(content), opts)
}

func (c *Client) upload(ctx context.Context, content io.Reader, opts UploadOptions) (*File, error) {
	metadata := &driveapi.File{Name: opts.Name}
	if opts.ParentID != "" {
		metadata.Parents = []string{opts.ParentID}
	}

	var mediaOpts []googleapi.MediaOption
	if opts.MIMEType != "" {
		mediaOpts = append(mediaOpts, googleapi.ContentType(opts.MIMEType))
	}

	// No retry wrapper: the reader cannot be rewound after a partial
	// attempt.
	created, err := c.svc.Files.Create(metadata).
		Media(content, mediaOpts...).
		Fields(googleapi.Field(fileFields)).
		Context(ctx).Do()
	if err != nil {
		return nil, c.callInfo("upload file", opts.Name).MapError(err)
	}
	return c.bind(ParseFile(created)), nil
}

// CreateFolder creates a folder.
func (c *Client) CreateFolder(ctx context.Context, name, parentID string) (*File, error) {
	metadata := &driveapi.File{Name: name, MimeType: MIMETypeFolder}
	if parentID != "" {
		metadata.Parents = []string{parentID}
	}

	created, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("create folder", name),
		func() (*driveapi.File, error) {
			return c.svc.Files.Create(metadata).
				Fields(googleapi.Field(fileFields)).
				Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return c.bind(ParseFile(created)), nil
}

// Trash moves a file to the trash. Reports false without error when
// the file does not exist.
func (c *Client) Trash(ctx context.Context, fileID string) (bool, error) {
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("trash file", fileID),
		func() (*driveapi.File, error) {
			return c.svc.Files.Update(fileID, &driveapi.File{Trashed: true}).Context(ctx).Do()
		})
	return absentOK(err)
}

// Delete permanently deletes a file. Reports false without error when
// the file does not exist.
func (c *Client) Delete(ctx context.Context, fileID string) (bool, error) {
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("delete file", fileID),
		func() (struct{}, error) {
			return struct{}{}, c.svc.Files.Delete(fileID).Context(ctx).Do()
		})
	return absentOK(err)
}

func absentOK(err error) (bool, error) {
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ShareOptions describes a permission grant.
type ShareOptions struct {
	Email string
	// Role is reader, writer, or commenter (default reader).
	Role   string
	Notify bool
}

// Share grants a user access to a file.
func (c *Client) Share(ctx context.Context, fileID string, opts ShareOptions) error {
	if opts.Email == "" {
		return &domain.ValidationError{Field: "email", Message: "required"}
	}
	role := opts.Role
	if role == "" {
		role = "reader"
	}

	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("share file", fileID),
		func() (*driveapi.Permission, error) {
			return c.svc.Permissions.Create(fileID, &driveapi.Permission{
				Type:         "user",
				Role:         role,
				EmailAddress: opts.Email,
			}).SendNotificationEmail(opts.Notify).Context(ctx).Do()
		})
	return err
}

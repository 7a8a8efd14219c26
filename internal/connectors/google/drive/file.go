package drive

import (
	"context"
	"strings"
	"time"
)

// MIME types with special meaning in Drive.
const (
	MIMETypeFolder      = "application/vnd.google-apps.folder"
	MIMETypeSpreadsheet = "application/vnd.google-apps.spreadsheet"
	MIMETypeDocument    = "application/vnd.google-apps.document"

	googleAppsPrefix = "application/vnd.google-apps."
)

// File is a Google Drive file or folder. Files returned by a Client
// are bound to it, so the content and management methods work
// directly.
type File struct {
	ID             string
	Name           string
	MIMEType       string
	Size           int64
	CreatedTime    time.Time
	ModifiedTime   time.Time
	Parents        []string
	WebViewLink    string
	WebContentLink string

	client *Client
}

// IsFolder reports whether the file is a folder.
func (f *File) IsFolder() bool {
	return f.MIMEType == MIMETypeFolder
}

// IsGoogleDoc reports whether the file is a Google Workspace document
// (Docs, Sheets, Slides, ...) rather than a binary blob.
func (f *File) IsGoogleDoc() bool {
	return strings.HasPrefix(f.MIMEType, googleAppsPrefix)
}

// Content downloads the file content. Google Workspace documents are
// exported to a portable format first.
func (f *File) Content(ctx context.Context) ([]byte, error) {
	return f.client.GetContent(ctx, f.ID)
}

// Download writes the file content to path. An empty path uses the
// file's name in the current directory.
func (f *File) Download(ctx context.Context, path string) (string, error) {
	if path == "" {
		path = f.Name
	}
	return f.client.Download(ctx, f.ID, path)
}

// ListFiles lists the folder's direct children.
func (f *File) ListFiles(ctx context.Context) ([]*File, error) {
	return f.client.ListFiles(ctx, ListOptions{ParentID: f.ID})
}

// Trash moves the file to the trash.
func (f *File) Trash(ctx context.Context) (bool, error) {
	return f.client.Trash(ctx, f.ID)
}

// Delete permanently deletes the file.
func (f *File) Delete(ctx context.Context) (bool, error) {
	return f.client.Delete(ctx, f.ID)
}

// Share grants a user access to the file.
func (f *File) Share(ctx context.Context, email, role string) error {
	return f.client.Share(ctx, f.ID, ShareOptions{Email: email, Role: role, Notify: true})
}

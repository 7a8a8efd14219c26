// Package sheets provides a high-level Google Sheets client with a
// worksheet abstraction for range reads, writes, and appends. Opening
// a spreadsheet by title and sharing go through the Drive API.
package sheets

import (
	"context"
	"fmt"
	"regexp"
	"time"

	driveapi "google.golang.org/api/drive/v3"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
)

// spreadsheetFields is the projection requested when opening a
// spreadsheet. Cell data is fetched separately through the values API.
const spreadsheetFields = "spreadsheetId,properties,sheets.properties"

// spreadsheetKeyPattern extracts the spreadsheet key from a Sheets URL.
var spreadsheetKeyPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

// SpreadsheetRef is a lightweight listing entry, resolved to a full
// Spreadsheet with OpenByKey.
type SpreadsheetRef struct {
	ID   string
	Name string
}

// Client is a high-level Google Sheets client. All calls go through
// the shared rate limiter and retry policy.
type Client struct {
	svc     *sheetsapi.Service
	drive   *driveapi.Service
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

// NewClient creates a Sheets client drawing tokens from the provider.
func NewClient(ctx context.Context, provider driven.TokenProvider, opts ...ClientOption) (*Client, error) {
	c := newClient(opts...)
	httpClient := google.NewHTTPClient(ctx, google.NewTokenSource(ctx, provider), c.timeout)
	svc, err := google.NewSheetsService(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	driveSvc, err := google.NewDriveService(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	c.svc = svc
	c.drive = driveSvc
	return c, nil
}

// NewClientFromServices wraps existing Sheets and Drive API services.
// Tests use this with services pointed at a fake endpoint.
func NewClientFromServices(svc *sheetsapi.Service, drive *driveapi.Service, opts ...ClientOption) *Client {
	c := newClient(opts...)
	c.svc = svc
	c.drive = drive
	return c
}

func newClient(opts ...ClientOption) *Client {
	c := &Client{
		limiter: google.NewRateLimiter(google.ServiceSheets),
		policy:  google.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) callInfo(operation, resourceID string) google.CallInfo {
	return google.CallInfo{
		Service:      string(google.ServiceSheets),
		Operation:    operation,
		ResourceType: "spreadsheet",
		ResourceID:   resourceID,
	}
}

// bind links a parsed spreadsheet and its worksheets to this client.
func (c *Client) bind(s *Spreadsheet) *Spreadsheet {
	s.client = c
	for _, ws := range s.Worksheets {
		ws.spreadsheet = s
	}
	return s
}

// ExtractKey returns the spreadsheet key embedded in a Sheets URL.
func ExtractKey(url string) (string, error) {
	m := spreadsheetKeyPattern.FindStringSubmatch(url)
	if m == nil {
		return "", &domain.ValidationError{Field: "url", Message: fmt.Sprintf("no spreadsheet key in %q", url)}
	}
	return m[1], nil
}

// Open finds a spreadsheet by exact title. The lookup goes through
// Drive because the Sheets API has no listing endpoint.
func (c *Client) Open(ctx context.Context, title string) (*Spreadsheet, error) {
	query := fmt.Sprintf("name='%s' and mimeType='application/vnd.google-apps.spreadsheet' and trashed=false",
		escapeQueryValue(title))
	list, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("open spreadsheet", title),
		func() (*driveapi.FileList, error) {
			return c.drive.Files.List().Q(query).PageSize(1).Fields("files(id, name)").Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	if len(list.Files) == 0 {
		return nil, domain.NewNotFoundError(string(google.ServiceSheets), "spreadsheet", title)
	}
	return c.OpenByKey(ctx, list.Files[0].Id)
}

// OpenByKey opens a spreadsheet by its key (the ID from its URL).
func (c *Client) OpenByKey(ctx context.Context, key string) (*Spreadsheet, error) {
	data, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("open spreadsheet", key),
		func() (*sheetsapi.Spreadsheet, error) {
			return c.svc.Spreadsheets.Get(key).Fields(spreadsheetFields).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return c.bind(ParseSpreadsheet(data)), nil
}

// OpenByURL opens a spreadsheet from its full Sheets URL.
func (c *Client) OpenByURL(ctx context.Context, url string) (*Spreadsheet, error) {
	key, err := ExtractKey(url)
	if err != nil {
		return nil, err
	}
	return c.OpenByKey(ctx, key)
}

// Create creates a new spreadsheet with a single default worksheet.
func (c *Client) Create(ctx context.Context, title string) (*Spreadsheet, error) {
	if title == "" {
		return nil, &domain.ValidationError{Field: "title", Message: "must not be empty"}
	}
	data, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("create spreadsheet", title),
		func() (*sheetsapi.Spreadsheet, error) {
			return c.svc.Spreadsheets.Create(&sheetsapi.Spreadsheet{
				Properties: &sheetsapi.SpreadsheetProperties{Title: title},
				Sheets: []*sheetsapi.Sheet{
					{Properties: &sheetsapi.SheetProperties{Title: "Sheet1"}},
				},
			}).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return c.bind(ParseSpreadsheet(data)), nil
}

// ListSpreadsheets lists spreadsheets visible to the account, newest
// modified first.
func (c *Client) ListSpreadsheets(ctx context.Context, maxResults int64) ([]SpreadsheetRef, error) {
	if maxResults <= 0 {
		maxResults = 100
	}
	list, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("list spreadsheets", ""),
		func() (*driveapi.FileList, error) {
			return c.drive.Files.List().
				Q("mimeType='application/vnd.google-apps.spreadsheet' and trashed=false").
				PageSize(maxResults).
				OrderBy("modifiedTime desc").
				Fields("files(id, name)").
				Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	refs := make([]SpreadsheetRef, 0, len(list.Files))
	for _, f := range list.Files {
		refs = append(refs, SpreadsheetRef{ID: f.Id, Name: f.Name})
	}
	return refs, nil
}

// GetValues reads values from an A1 range.
func (c *Client) GetValues(ctx context.Context, spreadsheetID, a1 string) ([][]any, error) {
	vr, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("get values", spreadsheetID),
		func() (*sheetsapi.ValueRange, error) {
			return c.svc.Spreadsheets.Values.Get(spreadsheetID, a1).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return vr.Values, nil
}

// UpdateValues writes values into an A1 range. Values are interpreted
// as if typed by a user, so formulas and dates are parsed.
func (c *Client) UpdateValues(ctx context.Context, spreadsheetID, a1 string, values [][]any) error {
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("update values", spreadsheetID),
		func() (*sheetsapi.UpdateValuesResponse, error) {
			return c.svc.Spreadsheets.Values.
				Update(spreadsheetID, a1, &sheetsapi.ValueRange{Values: values}).
				ValueInputOption("USER_ENTERED").
				Context(ctx).Do()
		})
	return err
}

// AppendValues appends rows after the last row with data in the range.
func (c *Client) AppendValues(ctx context.Context, spreadsheetID, a1 string, values [][]any) error {
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("append values", spreadsheetID),
		func() (*sheetsapi.AppendValuesResponse, error) {
			return c.svc.Spreadsheets.Values.
				Append(spreadsheetID, a1, &sheetsapi.ValueRange{Values: values}).
				ValueInputOption("USER_ENTERED").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).Do()
		})
	return err
}

// ClearValues clears an A1 range. Formatting is kept.
func (c *Client) ClearValues(ctx context.Context, spreadsheetID, a1 string) error {
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("clear values", spreadsheetID),
		func() (*sheetsapi.ClearValuesResponse, error) {
			return c.svc.Spreadsheets.Values.
				Clear(spreadsheetID, a1, &sheetsapi.ClearValuesRequest{}).
				Context(ctx).Do()
		})
	return err
}

// RangeData pairs an A1 range with the values to write there.
type RangeData struct {
	Range  string
	Values [][]any
}

// BatchUpdateValues writes multiple ranges in one request.
func (c *Client) BatchUpdateValues(ctx context.Context, spreadsheetID string, data []RangeData) error {
	if len(data) == 0 {
		return nil
	}
	ranges := make([]*sheetsapi.ValueRange, 0, len(data))
	for _, d := range data {
		ranges = append(ranges, &sheetsapi.ValueRange{Range: d.Range, Values: d.Values})
	}
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("batch update values", spreadsheetID),
		func() (*sheetsapi.BatchUpdateValuesResponse, error) {
			return c.svc.Spreadsheets.Values.
				BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateValuesRequest{
					ValueInputOption: "USER_ENTERED",
					Data:             ranges,
				}).
				Context(ctx).Do()
		})
	return err
}

// AddWorksheet appends a new worksheet to a spreadsheet. Zero rows or
// cols fall back to the API defaults.
func (c *Client) AddWorksheet(ctx context.Context, spreadsheetID, title string, rows, cols int64) (*Worksheet, error) {
	if title == "" {
		return nil, &domain.ValidationError{Field: "title", Message: "must not be empty"}
	}
	props := &sheetsapi.SheetProperties{Title: title}
	if rows > 0 || cols > 0 {
		props.GridProperties = &sheetsapi.GridProperties{RowCount: rows, ColumnCount: cols}
	}
	resp, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("add worksheet", spreadsheetID),
		func() (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
			return c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
				Requests: []*sheetsapi.Request{
					{AddSheet: &sheetsapi.AddSheetRequest{Properties: props}},
				},
			}).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil || resp.Replies[0].AddSheet.Properties == nil {
		return nil, &domain.APIError{Service: string(google.ServiceSheets), Message: "addSheet reply missing properties"}
	}
	return ParseWorksheet(resp.Replies[0].AddSheet.Properties), nil
}

// DeleteWorksheet deletes a worksheet by its sheet ID.
func (c *Client) DeleteWorksheet(ctx context.Context, spreadsheetID string, sheetID int64) error {
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("delete worksheet", spreadsheetID),
		func() (*sheetsapi.BatchUpdateSpreadsheetResponse, error) {
			return c.svc.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
				Requests: []*sheetsapi.Request{
					{DeleteSheet: &sheetsapi.DeleteSheetRequest{SheetId: sheetID}},
				},
			}).Context(ctx).Do()
		})
	return err
}

// Share grants a user access to a spreadsheet. Role is one of reader,
// commenter, or writer.
func (c *Client) Share(ctx context.Context, spreadsheetID, email, role string) error {
	if role == "" {
		role = "reader"
	}
	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("share spreadsheet", spreadsheetID),
		func() (*driveapi.Permission, error) {
			return c.drive.Permissions.Create(spreadsheetID, &driveapi.Permission{
				Type:         "user",
				Role:         role,
				EmailAddress: email,
			}).SendNotificationEmail(true).Context(ctx).Do()
		})
	return err
}

// escapeQueryValue escapes single quotes for Drive query literals.
func escapeQueryValue(value string) string {
	out := make([]byte, 0, len(value))
	for i := 0; i < len(value); i++ {
		if value[i] == '\'' {
			out = append(out, '\\')
		}
		out = append(out, value[i])
	}
	return string(out)
}

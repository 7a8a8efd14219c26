package sheets

import (
	"context"
	"fmt"
	"strconv"
)

// Spreadsheet is a Google Sheets document. Spreadsheets returned by a
// Client are bound to it, so their worksheets read and write through
// the live document.
type Spreadsheet struct {
	ID         string
	Title      string
	URL        string
	Locale     string
	TimeZone   string
	Worksheets []*Worksheet

	client *Client
}

// Sheet1 returns the first worksheet, or nil for an empty document.
func (s *Spreadsheet) Sheet1() *Worksheet {
	if len(s.Worksheets) == 0 {
		return nil
	}
	return s.Worksheets[0]
}

// Worksheet returns a worksheet by title.
func (s *Spreadsheet) Worksheet(title string) (*Worksheet, bool) {
	for _, ws := range s.Worksheets {
		if ws.Title == title {
			return ws, true
		}
	}
	return nil, false
}

// AddWorksheet appends a new worksheet to the document.
func (s *Spreadsheet) AddWorksheet(ctx context.Context, title string, rows, cols int64) (*Worksheet, error) {
	ws, err := s.client.AddWorksheet(ctx, s.ID, title, rows, cols)
	if err != nil {
		return nil, err
	}
	ws.spreadsheet = s
	s.Worksheets = append(s.Worksheets, ws)
	return ws, nil
}

// Share grants a user access to the document.
func (s *Spreadsheet) Share(ctx context.Context, email, role string) error {
	return s.client.Share(ctx, s.ID, email, role)
}

// Worksheet is a single tab within a spreadsheet.
type Worksheet struct {
	ID          int64
	Title       string
	Index       int64
	RowCount    int64
	ColumnCount int64

	spreadsheet *Spreadsheet
}

// URL returns the direct link to this worksheet.
func (w *Worksheet) URL() string {
	if w.spreadsheet == nil {
		return ""
	}
	return fmt.Sprintf("%s#gid=%d", w.spreadsheet.URL, w.ID)
}

// rangeRef qualifies an A1 range with the worksheet title.
func (w *Worksheet) rangeRef(a1 string) string {
	if a1 == "" {
		return w.Title
	}
	return w.Title + "!" + a1
}

// Get returns values from an A1 range.
func (w *Worksheet) Get(ctx context.Context, a1 string) ([][]any, error) {
	return w.spreadsheet.client.GetValues(ctx, w.spreadsheet.ID, w.rangeRef(a1))
}

// AllValues returns every value in the worksheet.
func (w *Worksheet) AllValues(ctx context.Context) ([][]any, error) {
	return w.Get(ctx, "A1:ZZ")
}

// AllRecords returns all rows as maps keyed by the first row's values.
// Short rows are padded with empty strings.
func (w *Worksheet) AllRecords(ctx context.Context) ([]map[string]any, error) {
	values, err := w.AllValues(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) < 1 {
		return nil, nil
	}

	headers := make([]string, len(values[0]))
	for i, h := range values[0] {
		headers[i] = fmt.Sprint(h)
	}

	records := make([]map[string]any, 0, len(values)-1)
	for _, row := range values[1:] {
		record := make(map[string]any, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// RowValues returns all values in a row (1-indexed).
func (w *Worksheet) RowValues(ctx context.Context, row int) ([]any, error) {
	ref := strconv.Itoa(row)
	values, err := w.Get(ctx, ref+":"+ref)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values[0], nil
}

// ColValues returns all values in a column (1-indexed).
func (w *Worksheet) ColValues(ctx context.Context, col int) ([]any, error) {
	letter := colToLetter(col)
	values, err := w.Get(ctx, letter+":"+letter)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(values))
	for i, row := range values {
		if len(row) > 0 {
			out[i] = row[0]
		} else {
			out[i] = ""
		}
	}
	return out, nil
}

// Cell returns a single cell value (1-indexed).
func (w *Worksheet) Cell(ctx context.Context, row, col int) (any, error) {
	values, err := w.Get(ctx, fmt.Sprintf("%s%d", colToLetter(col), row))
	if err != nil {
		return nil, err
	}
	if len(values) > 0 && len(values[0]) > 0 {
		return values[0][0], nil
	}
	return "", nil
}

// Update writes values into an A1 range.
func (w *Worksheet) Update(ctx context.Context, a1 string, values [][]any) error {
	return w.spreadsheet.client.UpdateValues(ctx, w.spreadsheet.ID, w.rangeRef(a1), values)
}

// UpdateCell writes a single cell (1-indexed).
func (w *Worksheet) UpdateCell(ctx context.Context, row, col int, value any) error {
	return w.Update(ctx, fmt.Sprintf("%s%d", colToLetter(col), row), [][]any{{value}})
}

// AppendRow appends one row after the worksheet's data.
func (w *Worksheet) AppendRow(ctx context.Context, values []any) error {
	return w.AppendRows(ctx, [][]any{values})
}

// AppendRows appends multiple rows after the worksheet's data.
func (w *Worksheet) AppendRows(ctx context.Context, rows [][]any) error {
	return w.spreadsheet.client.AppendValues(ctx, w.spreadsheet.ID, w.rangeRef("A1"), rows)
}

// Clear clears an A1 range, or the whole worksheet when a1 is empty.
func (w *Worksheet) Clear(ctx context.Context, a1 string) error {
	return w.spreadsheet.client.ClearValues(ctx, w.spreadsheet.ID, w.rangeRef(a1))
}

// Find returns the 1-indexed position of the first cell whose string
// form equals query, or ok=false when absent.
func (w *Worksheet) Find(ctx context.Context, query string) (row, col int, ok bool, err error) {
	values, err := w.AllValues(ctx)
	if err != nil {
		return 0, 0, false, err
	}
	for r, rowValues := range values {
		for c, cell := range rowValues {
			if fmt.Sprint(cell) == query {
				return r + 1, c + 1, true, nil
			}
		}
	}
	return 0, 0, false, nil
}

// colToLetter converts a 1-indexed column number to its letter form
// (1=A, 27=AA).
func colToLetter(col int) string {
	var out []byte
	for col > 0 {
		col--
		out = append([]byte{byte('A' + col%26)}, out...)
		col /= 26
	}
	return string(out)
}

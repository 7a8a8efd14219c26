package sheets

import (
	sheetsapi "google.golang.org/api/sheets/v4"
)

// ParseSpreadsheet converts a raw API spreadsheet into a Spreadsheet.
func ParseSpreadsheet(data *sheetsapi.Spreadsheet) *Spreadsheet {
	s := &Spreadsheet{
		ID:       data.SpreadsheetId,
		URL:      "https://docs.google.com/spreadsheets/d/" + data.SpreadsheetId,
		Locale:   "en_US",
		TimeZone: "",
	}
	if data.Properties != nil {
		s.Title = data.Properties.Title
		if data.Properties.Locale != "" {
			s.Locale = data.Properties.Locale
		}
		s.TimeZone = data.Properties.TimeZone
	}
	for _, sheet := range data.Sheets {
		if sheet.Properties == nil {
			continue
		}
		ws := ParseWorksheet(sheet.Properties)
		ws.spreadsheet = s
		s.Worksheets = append(s.Worksheets, ws)
	}
	return s
}

// ParseWorksheet converts raw sheet properties into a Worksheet.
func ParseWorksheet(props *sheetsapi.SheetProperties) *Worksheet {
	ws := &Worksheet{
		ID:          props.SheetId,
		Title:       props.Title,
		Index:       props.Index,
		RowCount:    1000,
		ColumnCount: 26,
	}
	if grid := props.GridProperties; grid != nil {
		if grid.RowCount > 0 {
			ws.RowCount = grid.RowCount
		}
		if grid.ColumnCount > 0 {
			ws.ColumnCount = grid.ColumnCount
		}
	}
	return ws
}

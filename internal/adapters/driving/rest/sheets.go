package rest

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/sheets"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

func (s *Server) sheetsRoutes(r chi.Router) {
	r.Get("/", s.handleSheetsList)
	r.Post("/", s.handleSheetsCreate)
	r.Get("/{id}", s.handleSheetsGet)
	r.Get("/{id}/values", s.handleSheetsValues)
	r.Put("/{id}/values", s.handleSheetsUpdate)
	r.Post("/{id}/values/append", s.handleSheetsAppend)
	r.Post("/{id}/values/clear", s.handleSheetsClear)
	r.Post("/{id}/worksheets", s.handleSheetsAddWorksheet)
	r.Delete("/{id}/worksheets/{sheetID}", s.handleSheetsDeleteWorksheet)
	r.Post("/{id}/share", s.handleSheetsShare)
}

type worksheetResponse struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Index       int64  `json:"index"`
	RowCount    int64  `json:"row_count"`
	ColumnCount int64  `json:"column_count"`
}

type spreadsheetResponse struct {
	ID         string              `json:"id"`
	Title      string              `json:"title"`
	URL        string              `json:"url"`
	Locale     string              `json:"locale"`
	TimeZone   string              `json:"time_zone,omitempty"`
	Worksheets []worksheetResponse `json:"worksheets"`
}

func toWorksheetResponse(ws *sheets.Worksheet) worksheetResponse {
	return worksheetResponse{
		ID:          ws.ID,
		Title:       ws.Title,
		Index:       ws.Index,
		RowCount:    ws.RowCount,
		ColumnCount: ws.ColumnCount,
	}
}

func toSpreadsheetResponse(sp *sheets.Spreadsheet) spreadsheetResponse {
	resp := spreadsheetResponse{
		ID:         sp.ID,
		Title:      sp.Title,
		URL:        sp.URL,
		Locale:     sp.Locale,
		TimeZone:   sp.TimeZone,
		Worksheets: make([]worksheetResponse, 0, len(sp.Worksheets)),
	}
	for _, ws := range sp.Worksheets {
		resp.Worksheets = append(resp.Worksheets, toWorksheetResponse(ws))
	}
	return resp
}

func (s *Server) handleSheetsList(w http.ResponseWriter, r *http.Request) {
	refs, err := s.clients.Sheets.ListSpreadsheets(r.Context(), queryInt64(r, "max"))
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]map[string]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, map[string]string{"id": ref.ID, "name": ref.Name})
	}
	respond(w, http.StatusOK, map[string]any{"spreadsheets": out})
}

type createSpreadsheetRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleSheetsCreate(w http.ResponseWriter, r *http.Request) {
	var req createSpreadsheetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	sp, err := s.clients.Sheets.Create(r.Context(), req.Title)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toSpreadsheetResponse(sp))
}

func (s *Server) handleSheetsGet(w http.ResponseWriter, r *http.Request) {
	sp, err := s.clients.Sheets.OpenByKey(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, toSpreadsheetResponse(sp))
}

// requireRange reads the range from the query string or body field.
func requireRange(value string) (string, error) {
	if value == "" {
		return "", &domain.ValidationError{Field: "range", Message: "required"}
	}
	return value, nil
}

func (s *Server) handleSheetsValues(w http.ResponseWriter, r *http.Request) {
	a1, err := requireRange(r.URL.Query().Get("range"))
	if err != nil {
		respondError(w, err)
		return
	}

	values, err := s.clients.Sheets.GetValues(r.Context(), chi.URLParam(r, "id"), a1)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"range": a1, "values": values})
}

type valuesRequest struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

func (s *Server) handleSheetsUpdate(w http.ResponseWriter, r *http.Request) {
	var req valuesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	a1, err := requireRange(req.Range)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.clients.Sheets.UpdateValues(r.Context(), chi.URLParam(r, "id"), a1, req.Values); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleSheetsAppend(w http.ResponseWriter, r *http.Request) {
	var req valuesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	a1, err := requireRange(req.Range)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.clients.Sheets.AppendValues(r.Context(), chi.URLParam(r, "id"), a1, req.Values); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleSheetsClear(w http.ResponseWriter, r *http.Request) {
	var req valuesRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	a1, err := requireRange(req.Range)
	if err != nil {
		respondError(w, err)
		return
	}

	if err := s.clients.Sheets.ClearValues(r.Context(), chi.URLParam(r, "id"), a1); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

type addWorksheetRequest struct {
	Title string `json:"title"`
	Rows  int64  `json:"rows"`
	Cols  int64  `json:"cols"`
}

func (s *Server) handleSheetsAddWorksheet(w http.ResponseWriter, r *http.Request) {
	var req addWorksheetRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	ws, err := s.clients.Sheets.AddWorksheet(r.Context(), chi.URLParam(r, "id"), req.Title, req.Rows, req.Cols)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toWorksheetResponse(ws))
}

func (s *Server) handleSheetsDeleteWorksheet(w http.ResponseWriter, r *http.Request) {
	sheetID, err := strconv.ParseInt(chi.URLParam(r, "sheetID"), 10, 64)
	if err != nil {
		respondError(w, &domain.ValidationError{Field: "sheetID", Message: "must be an integer"})
		return
	}

	if err := s.clients.Sheets.DeleteWorksheet(r.Context(), chi.URLParam(r, "id"), sheetID); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleSheetsShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Email == "" {
		respondError(w, &domain.ValidationError{Field: "email", Message: "required"})
		return
	}

	if err := s.clients.Sheets.Share(r.Context(), chi.URLParam(r, "id"), req.Email, req.Role); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

package rest

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/drive"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

func (s *Server) driveRoutes(r chi.Router) {
	r.Get("/files", s.handleDriveList)
	r.Post("/files", s.handleDriveUpload)
	r.Get("/files/{id}", s.handleDriveGet)
	r.Get("/files/{id}/content", s.handleDriveContent)
	r.Post("/files/{id}/share", s.handleDriveShare)
	r.Delete("/files/{id}", s.handleDriveDelete)
	r.Post("/folders", s.handleDriveCreateFolder)
}

type fileResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	CreatedTime  time.Time `json:"created_time,omitempty"`
	ModifiedTime time.Time `json:"modified_time,omitempty"`
	Folder       bool      `json:"folder"`
	WebViewLink  string    `json:"web_view_link,omitempty"`
}

func toFileResponse(f *drive.File) fileResponse {
	return fileResponse{
		ID:           f.ID,
		Name:         f.Name,
		MIMEType:     f.MIMEType,
		Size:         f.Size,
		CreatedTime:  f.CreatedTime,
		ModifiedTime: f.ModifiedTime,
		Folder:       f.IsFolder(),
		WebViewLink:  f.WebViewLink,
	}
}

func toFileResponses(files []*drive.File) []fileResponse {
	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, toFileResponse(f))
	}
	return out
}

func (s *Server) handleDriveList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := drive.ListOptions{
		Query:      q.Get("q"),
		ParentID:   q.Get("parent"),
		MIMEType:   q.Get("mime"),
		MaxResults: queryInt64(r, "max"),
	}
	if q.Get("folders") == "true" {
		opts.MIMEType = drive.MIMETypeFolder
	}

	files, err := s.clients.Drive.ListFiles(r.Context(), opts)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"files": toFileResponses(files)})
}

func (s *Server) handleDriveGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file, found, err := s.clients.Drive.GetFile(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !found {
		respondNotFound(w, "file", id)
		return
	}
	respond(w, http.StatusOK, toFileResponse(file))
}

func (s *Server) handleDriveContent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	file, found, err := s.clients.Drive.GetFile(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !found {
		respondNotFound(w, "file", id)
		return
	}

	content, err := s.clients.Drive.GetContent(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

type uploadRequest struct {
	Name     string `json:"name"`
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
	MIMEType string `json:"mime_type"`
}

func (s *Server) handleDriveUpload(w http.ResponseWriter, r *http.Request) {
	var req uploadRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Name == "" {
		respondError(w, &domain.ValidationError{Field: "name", Message: "required"})
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.Content)
	if err != nil {
		respondError(w, &domain.ValidationError{Field: "content", Message: "must be base64"})
		return
	}

	file, err := s.clients.Drive.UploadContent(r.Context(), content, drive.UploadOptions{
		Name:     req.Name,
		ParentID: req.ParentID,
		MIMEType: req.MIMEType,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toFileResponse(file))
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

func (s *Server) handleDriveCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	folder, err := s.clients.Drive.CreateFolder(r.Context(), req.Name, req.ParentID)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toFileResponse(folder))
}

type shareRequest struct {
	Email  string `json:"email"`
	Role   string `json:"role"`
	Notify bool   `json:"notify"`
}

func (s *Server) handleDriveShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	err := s.clients.Drive.Share(r.Context(), chi.URLParam(r, "id"), drive.ShareOptions{
		Email:  req.Email,
		Role:   req.Role,
		Notify: req.Notify,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleDriveDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var found bool
	var err error
	if r.URL.Query().Get("permanent") == "true" {
		found, err = s.clients.Drive.Delete(r.Context(), id)
	} else {
		found, err = s.clients.Drive.Trash(r.Context(), id)
	}
	if err != nil {
		respondError(w, err)
		return
	}
	if !found {
		respondNotFound(w, "file", id)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/gmail"
)

func (s *Server) gmailRoutes(r chi.Router) {
	r.Get("/messages", s.handleGmailList)
	r.Post("/messages", s.handleGmailSend)
	r.Get("/messages/{id}", s.handleGmailGet)
	r.Post("/messages/{id}/modify", s.handleGmailModify)
	r.Delete("/messages/{id}", s.handleGmailTrash)
	r.Get("/labels", s.handleGmailLabels)
	r.Get("/profile", s.handleGmailProfile)
}

type attachmentResponse struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MIMEType string `json:"mime_type"`
	Size     int64  `json:"size"`
}

type messageResponse struct {
	ID          string               `json:"id"`
	ThreadID    string               `json:"thread_id"`
	Subject     string               `json:"subject"`
	From        string               `json:"from"`
	To          string               `json:"to"`
	CC          []string             `json:"cc,omitempty"`
	Date        time.Time            `json:"date"`
	Snippet     string               `json:"snippet"`
	Body        string               `json:"body,omitempty"`
	Labels      []string             `json:"labels"`
	Unread      bool                 `json:"unread"`
	Attachments []attachmentResponse `json:"attachments,omitempty"`
}

func toMessageResponse(m *gmail.Message) messageResponse {
	resp := messageResponse{
		ID:       m.ID,
		ThreadID: m.ThreadID,
		Subject:  m.Subject,
		From:     m.From,
		To:       m.To,
		CC:       m.CC,
		Date:     m.Date,
		Snippet:  m.Snippet,
		Body:     m.Body(),
		Labels:   m.Labels,
		Unread:   m.IsUnread(),
	}
	for _, a := range m.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse{
			ID:       a.ID,
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Size:     a.Size,
		})
	}
	return resp
}

func toMessageResponses(messages []*gmail.Message) []messageResponse {
	out := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toMessageResponse(m))
	}
	return out
}

func (s *Server) handleGmailList(w http.ResponseWriter, r *http.Request) {
	query := gmail.Raw(r.URL.Query().Get("q"))
	if r.URL.Query().Get("unread") == "true" {
		query = query.And(gmail.IsUnread())
	}

	opts := gmail.ListOptions{
		Query:        query,
		MaxResults:   queryInt64(r, "max"),
		MetadataOnly: r.URL.Query().Get("metadata") == "true",
	}
	if label := r.URL.Query().Get("label"); label != "" {
		id, found, err := s.clients.Gmail.LabelID(r.Context(), label)
		if err != nil {
			respondError(w, err)
			return
		}
		if !found {
			respondNotFound(w, "label", label)
			return
		}
		opts.LabelIDs = []string{id}
	}

	messages, err := s.clients.Gmail.ListMessages(r.Context(), opts)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"messages": toMessageResponses(messages)})
}

func (s *Server) handleGmailGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	msg, found, err := s.clients.Gmail.GetMessage(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	if !found {
		respondNotFound(w, "message", id)
		return
	}
	respond(w, http.StatusOK, toMessageResponse(msg))
}

type sendRequest struct {
	To        []string `json:"to"`
	CC        []string `json:"cc"`
	BCC       []string `json:"bcc"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	HTML      bool     `json:"html"`
	ThreadID  string   `json:"thread_id"`
	InReplyTo string   `json:"in_reply_to"`
}

func (s *Server) handleGmailSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	msg, err := s.clients.Gmail.Send(r.Context(), gmail.SendOptions{
		To:        req.To,
		CC:        req.CC,
		BCC:       req.BCC,
		Subject:   req.Subject,
		Body:      req.Body,
		HTML:      req.HTML,
		ThreadID:  req.ThreadID,
		InReplyTo: req.InReplyTo,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toMessageResponse(msg))
}

type modifyRequest struct {
	AddLabels    []string `json:"add_labels"`
	RemoveLabels []string `json:"remove_labels"`
}

func (s *Server) handleGmailModify(w http.ResponseWriter, r *http.Request) {
	var req modifyRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.clients.Gmail.ModifyLabels(r.Context(), id, req.AddLabels, req.RemoveLabels); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleGmailTrash(w http.ResponseWriter, r *http.Request) {
	if err := s.clients.Gmail.TrashMessage(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

type labelResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	System         bool   `json:"system"`
	MessagesTotal  int64  `json:"messages_total"`
	MessagesUnread int64  `json:"messages_unread"`
}

func (s *Server) handleGmailLabels(w http.ResponseWriter, r *http.Request) {
	labels, err := s.clients.Gmail.Labels(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]labelResponse, 0, len(labels))
	for _, l := range labels {
		out = append(out, labelResponse{
			ID:             l.ID,
			Name:           l.Name,
			System:         l.System,
			MessagesTotal:  l.MessagesTotal,
			MessagesUnread: l.MessagesUnread,
		})
	}
	respond(w, http.StatusOK, map[string]any{"labels": out})
}

func (s *Server) handleGmailProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.clients.Gmail.Profile(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{
		"email_address":  profile.EmailAddress,
		"messages_total": profile.MessagesTotal,
		"threads_total":  profile.ThreadsTotal,
	})
}

// queryInt64 parses an integer query parameter, zero when absent or
// malformed.
func queryInt64(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google/calendar"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
)

func (s *Server) calendarRoutes(r chi.Router) {
	r.Get("/events", s.handleCalendarList)
	r.Post("/events", s.handleCalendarCreate)
	r.Get("/events/today", s.handleCalendarToday)
	r.Get("/events/{id}", s.handleCalendarGet)
	r.Delete("/events/{id}", s.handleCalendarDelete)
	r.Get("/calendars", s.handleCalendarCalendars)
}

type attendeeResponse struct {
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	ResponseStatus string `json:"response_status"`
	Organizer      bool   `json:"organizer,omitempty"`
}

type eventResponse struct {
	ID          string             `json:"id"`
	Summary     string             `json:"summary"`
	Description string             `json:"description,omitempty"`
	Location    string             `json:"location,omitempty"`
	Start       time.Time          `json:"start"`
	End         time.Time          `json:"end"`
	AllDay      bool               `json:"all_day"`
	Recurring   bool               `json:"recurring"`
	Attendees   []attendeeResponse `json:"attendees,omitempty"`
	Organizer   string             `json:"organizer,omitempty"`
	CalendarID  string             `json:"calendar_id"`
	HTMLLink    string             `json:"html_link,omitempty"`
	Status      string             `json:"status"`
}

func toEventResponse(e *calendar.Event) eventResponse {
	resp := eventResponse{
		ID:          e.ID,
		Summary:     e.Summary,
		Description: e.Description,
		Location:    e.Location,
		Start:       e.Start,
		End:         e.End,
		AllDay:      e.AllDay,
		Recurring:   e.Recurring,
		Organizer:   e.Organizer,
		CalendarID:  e.CalendarID,
		HTMLLink:    e.HTMLLink,
		Status:      e.Status,
	}
	for _, a := range e.Attendees {
		resp.Attendees = append(resp.Attendees, attendeeResponse{
			Email:          a.Email,
			Name:           a.Name,
			ResponseStatus: a.ResponseStatus,
			Organizer:      a.Organizer,
		})
	}
	return resp
}

func toEventResponses(events []*calendar.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	return out
}

func (s *Server) handleCalendarList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if days := queryInt64(r, "days"); days > 0 {
		events, err := s.clients.Calendar.Upcoming(r.Context(), int(days), queryInt64(r, "max"))
		if err != nil {
			respondError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
		return
	}

	opts := calendar.ListOptions{
		CalendarID: q.Get("calendar"),
		Query:      q.Get("q"),
		MaxResults: queryInt64(r, "max"),
	}
	var err error
	if opts.TimeMin, err = queryTime(r, "time_min"); err != nil {
		respondError(w, err)
		return
	}
	if opts.TimeMax, err = queryTime(r, "time_max"); err != nil {
		respondError(w, err)
		return
	}

	events, err := s.clients.Calendar.ListEvents(r.Context(), opts)
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}

func (s *Server) handleCalendarToday(w http.ResponseWriter, r *http.Request) {
	events, err := s.clients.Calendar.Today(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusOK, map[string]any{"events": toEventResponses(events)})
}

func (s *Server) handleCalendarGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event, found, err := s.clients.Calendar.GetEvent(r.Context(), id, r.URL.Query().Get("calendar"))
	if err != nil {
		respondError(w, err)
		return
	}
	if !found {
		respondNotFound(w, "event", id)
		return
	}
	respond(w, http.StatusOK, toEventResponse(event))
}

type createEventRequest struct {
	Summary     string   `json:"summary"`
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	AllDay      bool     `json:"all_day"`
	Attendees   []string `json:"attendees"`
	CalendarID  string   `json:"calendar_id"`
}

func (s *Server) handleCalendarCreate(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, err)
		return
	}

	start, err := parseEventTime(req.Start, "start")
	if err != nil {
		respondError(w, err)
		return
	}
	var end time.Time
	if req.End != "" {
		if end, err = parseEventTime(req.End, "end"); err != nil {
			respondError(w, err)
			return
		}
	}

	event, err := s.clients.Calendar.CreateEvent(r.Context(), calendar.CreateEventOptions{
		Summary:     req.Summary,
		Description: req.Description,
		Location:    req.Location,
		Start:       start,
		End:         end,
		AllDay:      req.AllDay,
		Attendees:   req.Attendees,
		CalendarID:  req.CalendarID,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respond(w, http.StatusCreated, toEventResponse(event))
}

func (s *Server) handleCalendarDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	found, err := s.clients.Calendar.DeleteEvent(r.Context(), id, r.URL.Query().Get("calendar"))
	if err != nil {
		respondError(w, err)
		return
	}
	if !found {
		respondNotFound(w, "event", id)
		return
	}
	respond(w, http.StatusNoContent, nil)
}

func (s *Server) handleCalendarCalendars(w http.ResponseWriter, r *http.Request) {
	calendars, err := s.clients.Calendar.Calendars(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	out := make([]map[string]any, 0, len(calendars))
	for _, c := range calendars {
		out = append(out, map[string]any{
			"id":          c.ID,
			"summary":     c.Summary,
			"time_zone":   c.TimeZone,
			"primary":     c.Primary,
			"access_role": c.AccessRole,
		})
	}
	respond(w, http.StatusOK, map[string]any{"calendars": out})
}

// queryTime parses an RFC3339 query parameter, zero when absent.
func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Field: name, Message: "must be RFC3339"}
	}
	return t, nil
}

// parseEventTime accepts RFC3339 timestamps and bare dates.
func parseEventTime(raw, field string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, &domain.ValidationError{Field: field, Message: "required"}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, &domain.ValidationError{Field: field, Message: "must be RFC3339 or YYYY-MM-DD"}
}

package calendar

import (
	"context"
	"time"
)

// Attendee is an event participant.
type Attendee struct {
	Email          string
	Name           string
	ResponseStatus string
	Organizer      bool
	Self           bool
}

// Event is a calendar event. Events returned by a Client are bound to
// it, so Delete acts on the live calendar.
type Event struct {
	ID          string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Recurring   bool
	Recurrence  []string
	Attendees   []*Attendee
	Organizer   string
	CalendarID  string
	HTMLLink    string
	Status      string

	client *Client
}

// Duration returns the event length, zero when either bound is unset.
func (e *Event) Duration() time.Duration {
	if e.Start.IsZero() || e.End.IsZero() {
		return 0
	}
	return e.End.Sub(e.Start)
}

// IsPast reports whether the event has already ended.
func (e *Event) IsPast() bool {
	return !e.End.IsZero() && e.End.Before(time.Now())
}

// Delete removes the event from its calendar.
func (e *Event) Delete(ctx context.Context) (bool, error) {
	return e.client.DeleteEvent(ctx, e.ID, e.CalendarID)
}

// Info describes a calendar in the user's calendar list.
type Info struct {
	ID              string
	Summary         string
	Description     string
	TimeZone        string
	Primary         bool
	AccessRole      string
	BackgroundColor string
	ForegroundColor string
}

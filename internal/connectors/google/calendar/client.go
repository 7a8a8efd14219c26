// Package calendar provides a high-level Google Calendar client:
// time-window event listing, event creation, and calendar discovery.
package calendar

import (
	"context"
	"errors"
	"time"

	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/custodia-labs/gsuite-cli/internal/connectors/google"
	"github.com/custodia-labs/gsuite-cli/internal/core/domain"
	"github.com/custodia-labs/gsuite-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gsuite-cli/internal/logger"
)

// PrimaryCalendarID addresses the user's main calendar.
const PrimaryCalendarID = "primary"

// Client is a high-level Calendar client.
type Client struct {
	svc        *calendarapi.Service
	calendarID string
	timezone   string
	timeout    time.Duration
	limiter    *google.RateLimiter
	policy     google.RetryPolicy
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCalendarID sets the default calendar (default "primary").
func WithCalendarID(calendarID string) ClientOption {
	return func(c *Client) { c.calendarID = calendarID }
}

// WithTimezone sets the IANA timezone used for timed events.
func WithTimezone(tz string) ClientOption {
	return func(c *Client) {
		if tz != "" {
			c.timezone = tz
		}
	}
}

// WithRetryPolicy overrides the default retry policy.
func WithRetryPolicy(policy google.RetryPolicy) ClientOption {
	return func(c *Client) { c.policy = policy }
}

// WithRequestTimeout caps each HTTP request against the API. Effective
// only for clients built with NewClient.
func WithRequestTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) { c.timeout = timeout }
}

// NewClient creates a Calendar client drawing tokens from the provider.
func NewClient(ctx context.Context, provider driven.TokenProvider, opts ...ClientOption) (*Client, error) {
	c := newClient(opts...)
	svc, err := google.NewCalendarService(ctx,
		google.NewHTTPClient(ctx, google.NewTokenSource(ctx, provider), c.timeout))
	if err != nil {
		return nil, err
	}
	c.svc = svc
	return c, nil
}

// NewClientFromService wraps an existing Calendar API service.
func NewClientFromService(svc *calendarapi.Service, opts ...ClientOption) *Client {
	c := newClient(opts...)
	c.svc = svc
	return c
}

func newClient(opts ...ClientOption) *Client {
	c := &Client{
		calendarID: PrimaryCalendarID,
		timezone:   "UTC",
		limiter:    google.NewRateLimiter(google.ServiceCalendar),
		policy:     google.DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) callInfo(operation, resourceID string) google.CallInfo {
	return google.CallInfo{
		Service:      string(google.ServiceCalendar),
		Operation:    operation,
		ResourceType: "event",
		ResourceID:   resourceID,
	}
}

func (c *Client) calendarOrDefault(calendarID string) string {
	if calendarID == "" {
		return c.calendarID
	}
	return calendarID
}

func (c *Client) bind(event *Event) *Event {
	event.client = c
	return event
}

// ListOptions filters an event listing.
type ListOptions struct {
	// TimeMin is the start of the window (default: now).
	TimeMin time.Time
	// TimeMax is the end of the window; zero means unbounded.
	TimeMax time.Time
	// CalendarID overrides the client default.
	CalendarID string
	// Query is a free-text search over event fields.
	Query string
	// MaxResults caps the listing (default 250).
	MaxResults int64
	// KeepRecurringCollapsed returns recurring events as single items
	// instead of expanding each occurrence.
	KeepRecurringCollapsed bool
}

// ListEvents returns events in a time window, ordered by start time.
func (c *Client) ListEvents(ctx context.Context, opts ListOptions) ([]*Event, error) {
	calendarID := c.calendarOrDefault(opts.CalendarID)

	timeMin := opts.TimeMin
	if timeMin.IsZero() {
		timeMin = time.Now().UTC()
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 250
	}

	call := c.svc.Events.List(calendarID).
		TimeMin(timeMin.Format(time.RFC3339)).
		MaxResults(maxResults).
		SingleEvents(!opts.KeepRecurringCollapsed)
	if !opts.KeepRecurringCollapsed {
		call = call.OrderBy("startTime")
	}
	if !opts.TimeMax.IsZero() {
		call = call.TimeMax(opts.TimeMax.Format(time.RFC3339))
	}
	if opts.Query != "" {
		call = call.Q(opts.Query)
	}

	listing, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("list events", ""),
		func() (*calendarapi.Events, error) {
			return call.Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}

	events := make([]*Event, 0, len(listing.Items))
	for _, item := range listing.Items {
		events = append(events, c.bind(ParseEvent(item, calendarID)))
	}
	return events, nil
}

// Upcoming returns events in the next n days.
func (c *Client) Upcoming(ctx context.Context, days int, maxResults int64) ([]*Event, error) {
	now := time.Now().UTC()
	return c.ListEvents(ctx, ListOptions{
		TimeMin:    now,
		TimeMax:    now.AddDate(0, 0, days),
		MaxResults: maxResults,
	})
}

// Today returns today's events.
func (c *Client) Today(ctx context.Context) ([]*Event, error) {
	now := time.Now().UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return c.ListEvents(ctx, ListOptions{
		TimeMin: start,
		TimeMax: start.AddDate(0, 0, 1),
	})
}

// GetEvent fetches an event by ID. Returns found=false when the event
// does not exist.
func (c *Client) GetEvent(ctx context.Context, eventID, calendarID string) (*Event, bool, error) {
	calendarID = c.calendarOrDefault(calendarID)

	raw, found, err := google.CallOptional(ctx, c.limiter, c.policy,
		c.callInfo("get event", eventID),
		func() (*calendarapi.Event, error) {
			return c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
		})
	if err != nil || !found {
		return nil, false, err
	}
	return c.bind(ParseEvent(raw, calendarID)), true, nil
}

// Calendars returns all calendars the user can access.
func (c *Client) Calendars(ctx context.Context) ([]*Info, error) {
	listing, err := google.Call(ctx, c.limiter, c.policy,
		google.CallInfo{Service: string(google.ServiceCalendar), Operation: "list calendars", ResourceType: "calendar"},
		func() (*calendarapi.CalendarList, error) {
			return c.svc.CalendarList.List().Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}

	calendars := make([]*Info, 0, len(listing.Items))
	for _, item := range listing.Items {
		calendars = append(calendars, ParseCalendar(item))
	}
	return calendars, nil
}

// CreateEventOptions describes a new event.
type CreateEventOptions struct {
	Summary     string
	Description string
	Location    string
	// Start is required. For all-day events only the date part is used.
	Start time.Time
	// End defaults to Start + 1 hour for timed events, Start for
	// all-day events.
	End        time.Time
	AllDay     bool
	Attendees  []string
	CalendarID string
}

// CreateEvent creates an event and returns it as stored.
func (c *Client) CreateEvent(ctx context.Context, opts CreateEventOptions) (*Event, error) {
	if opts.Summary == "" {
		return nil, &domain.ValidationError{Field: "summary", Message: "required"}
	}
	if opts.Start.IsZero() {
		return nil, &domain.ValidationError{Field: "start", Message: "required"}
	}

	calendarID := c.calendarOrDefault(opts.CalendarID)
	body := &calendarapi.Event{
		Summary:     opts.Summary,
		Description: opts.Description,
		Location:    opts.Location,
	}

	if opts.AllDay {
		start := opts.Start
		end := opts.End
		if end.IsZero() {
			end = start
		}
		// The API treats the end date as exclusive.
		body.Start = &calendarapi.EventDateTime{Date: start.Format("2006-01-02")}
		body.End = &calendarapi.EventDateTime{Date: end.AddDate(0, 0, 1).Format("2006-01-02")}
	} else {
		end := opts.End
		if end.IsZero() {
			end = opts.Start.Add(time.Hour)
		}
		body.Start = &calendarapi.EventDateTime{
			DateTime: opts.Start.Format(time.RFC3339),
			TimeZone: c.timezone,
		}
		body.End = &calendarapi.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: c.timezone,
		}
	}

	for _, email := range opts.Attendees {
		body.Attendees = append(body.Attendees, &calendarapi.EventAttendee{Email: email})
	}

	created, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("create event", ""),
		func() (*calendarapi.Event, error) {
			return c.svc.Events.Insert(calendarID, body).Context(ctx).Do()
		})
	if err != nil {
		return nil, err
	}
	return c.bind(ParseEvent(created, calendarID)), nil
}

// DeleteEvent deletes an event. Reports false without error when the
// event does not exist.
func (c *Client) DeleteEvent(ctx context.Context, eventID, calendarID string) (bool, error) {
	calendarID = c.calendarOrDefault(calendarID)

	_, err := google.Call(ctx, c.limiter, c.policy, c.callInfo("delete event", eventID),
		func() (struct{}, error) {
			return struct{}{}, c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do()
		})
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			logger.Debug("event %s already absent from %s", eventID, calendarID)
			return false, nil
		}
		return false, err
	}
	return true, nil
}

package calendar

import (
	"time"

	calendarapi "google.golang.org/api/calendar/v3"
)

// ParseEvent converts a raw API event into an Event. All-day events
// carry date-only bounds; timed events carry RFC 3339 timestamps.
func ParseEvent(data *calendarapi.Event, calendarID string) *Event {
	event := &Event{
		ID:          data.Id,
		Summary:     data.Summary,
		Description: data.Description,
		Location:    data.Location,
		Recurring:   data.RecurringEventId != "",
		Recurrence:  data.Recurrence,
		CalendarID:  calendarID,
		HTMLLink:    data.HtmlLink,
		Status:      data.Status,
	}
	if event.Status == "" {
		event.Status = "confirmed"
	}

	if data.Start != nil {
		if data.Start.Date != "" {
			event.AllDay = true
			event.Start = parseDate(data.Start.Date)
		} else {
			event.Start = parseDateTime(data.Start.DateTime)
		}
	}
	if data.End != nil {
		if data.End.Date != "" {
			event.End = parseDate(data.End.Date)
		} else {
			event.End = parseDateTime(data.End.DateTime)
		}
	}

	if data.Organizer != nil {
		event.Organizer = data.Organizer.Email
	}
	for _, raw := range data.Attendees {
		event.Attendees = append(event.Attendees, ParseAttendee(raw))
	}

	return event
}

// ParseAttendee converts a raw API attendee into an Attendee.
func ParseAttendee(data *calendarapi.EventAttendee) *Attendee {
	status := data.ResponseStatus
	if status == "" {
		status = "needsAction"
	}
	return &Attendee{
		Email:          data.Email,
		Name:           data.DisplayName,
		ResponseStatus: status,
		Organizer:      data.Organizer,
		Self:           data.Self,
	}
}

// ParseCalendar converts a calendar list entry into an Info.
func ParseCalendar(data *calendarapi.CalendarListEntry) *Info {
	accessRole := data.AccessRole
	if accessRole == "" {
		accessRole = "reader"
	}
	return &Info{
		ID:              data.Id,
		Summary:         data.Summary,
		Description:     data.Description,
		TimeZone:        data.TimeZone,
		Primary:         data.Primary,
		AccessRole:      accessRole,
		BackgroundColor: data.BackgroundColor,
		ForegroundColor: data.ForegroundColor,
	}
}

func parseDateTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}
	}
	return t
}

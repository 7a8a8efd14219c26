package domain

// Google API OAuth scopes, grouped by service and access level.
// Scope sets are pure configuration data: defined once, referenced by
// value when requesting authentication.
const (
	// Gmail.
	ScopeGmailReadonly = "https://www.googleapis.com/auth/gmail.readonly"
	ScopeGmailSend     = "https://www.googleapis.com/auth/gmail.send"
	ScopeGmailModify   = "https://www.googleapis.com/auth/gmail.modify"
	ScopeGmailLabels   = "https://www.googleapis.com/auth/gmail.labels"
	ScopeGmailFull     = "https://mail.google.com/"

	// Calendar.
	ScopeCalendarFull     = "https://www.googleapis.com/auth/calendar"
	ScopeCalendarEvents   = "https://www.googleapis.com/auth/calendar.events"
	ScopeCalendarReadonly = "https://www.googleapis.com/auth/calendar.readonly"

	// Drive.
	ScopeDriveFull     = "https://www.googleapis.com/auth/drive"
	ScopeDriveFile     = "https://www.googleapis.com/auth/drive.file"
	ScopeDriveReadonly = "https://www.googleapis.com/auth/drive.readonly"
	ScopeDriveMetadata = "https://www.googleapis.com/auth/drive.metadata.readonly"

	// Sheets.
	ScopeSheetsFull     = "https://www.googleapis.com/auth/spreadsheets"
	ScopeSheetsReadonly = "https://www.googleapis.com/auth/spreadsheets.readonly"

	// User info.
	ScopeUserinfoEmail   = "https://www.googleapis.com/auth/userinfo.email"
	ScopeUserinfoProfile = "https://www.googleapis.com/auth/userinfo.profile"
)

// GmailScopes returns the standard Gmail scopes for read, send, modify.
func GmailScopes() []string {
	return []string{
		ScopeGmailReadonly,
		ScopeGmailSend,
		ScopeGmailModify,
		ScopeGmailLabels,
	}
}

// CalendarScopes returns the standard Calendar scopes.
func CalendarScopes() []string {
	return []string{
		ScopeCalendarFull,
		ScopeCalendarEvents,
	}
}

// DriveScopes returns the standard Drive scopes.
func DriveScopes() []string {
	return []string{ScopeDriveFull}
}

// SheetsScopes returns the standard Sheets scopes.
func SheetsScopes() []string {
	return []string{ScopeSheetsFull}
}

// AllScopes returns all standard scopes for full access.
func AllScopes() []string {
	scopes := GmailScopes()
	scopes = append(scopes, CalendarScopes()...)
	scopes = append(scopes, DriveScopes()...)
	scopes = append(scopes, SheetsScopes()...)
	return scopes
}

// DefaultScopes returns the default scope set (Gmail + Calendar).
func DefaultScopes() []string {
	return append(GmailScopes(), CalendarScopes()...)
}

// ScopesByName resolves a named scope set as accepted by the CLI
// --scopes flag. Returns false for unknown names.
func ScopesByName(name string) ([]string, bool) {
	switch name {
	case "default", "":
		return DefaultScopes(), true
	case "gmail":
		return GmailScopes(), true
	case "calendar":
		return CalendarScopes(), true
	case "drive":
		return DriveScopes(), true
	case "sheets":
		return SheetsScopes(), true
	case "all":
		return AllScopes(), true
	default:
		return nil, false
	}
}

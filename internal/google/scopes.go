package google

import calendar "google.golang.org/api/calendar/v3"

// DefaultOAuthScopes are the scopes requested during authorization. Luna
// only creates, updates and deletes events it owns.
var DefaultOAuthScopes = []string{
	calendar.CalendarEventsScope,
}

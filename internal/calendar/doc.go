// Package calendar provides a client for the Google Calendar API.
//
// Luna only needs a small slice of the API: creating, updating, reading and
// deleting the events that mirror its own todos, reminders and calendar
// events. That slice is captured by the Provider interface so that the sync
// layer can be exercised against calendartest.Fake.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, auth, "primary")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	evt, err := client.CreateEvent(ctx, calendar.EventInput{
//	    Summary: "TODO: Buy milk",
//	    Start:   time.Now(),
//	    End:     time.Now().Add(time.Hour),
//	})
package calendar

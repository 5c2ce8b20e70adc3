package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// fakeAPI is a minimal Calendar v3 events endpoint.
type fakeAPI struct {
	mu     sync.Mutex
	events map[string]*calendar.Event
	next   int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	const prefix = "/calendars/primary/events"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")

	notFound := func() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"Not Found"}}`)
	}

	switch {
	case r.Method == http.MethodPost && id == "":
		var e calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&e)
		f.next++
		e.Id = "remote-" + string(rune('0'+f.next))
		e.Status = "confirmed"
		f.events[e.Id] = &e
		_ = json.NewEncoder(w).Encode(&e)
	case r.Method == http.MethodGet:
		e, ok := f.events[id]
		if !ok {
			notFound()
			return
		}
		_ = json.NewEncoder(w).Encode(e)
	case r.Method == http.MethodPut:
		if _, ok := f.events[id]; !ok {
			notFound()
			return
		}
		var e calendar.Event
		_ = json.NewDecoder(r.Body).Decode(&e)
		e.Id = id
		f.events[id] = &e
		_ = json.NewEncoder(w).Encode(&e)
	case r.Method == http.MethodDelete:
		if _, ok := f.events[id]; !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusGone)
			_, _ = io.WriteString(w, `{"error":{"code":410,"message":"Resource has been deleted"}}`)
			return
		}
		delete(f.events, id)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T) (*Client, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{events: make(map[string]*calendar.Event)}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	c, err := NewClientWithOptions(context.Background(), "",
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return c, api
}

func TestClient_Lifecycle(t *testing.T) {
	c, api := newTestClient(t)
	ctx := context.Background()
	assert.Equal(t, DefaultCalendarID, c.CalendarID())

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	created, err := c.CreateEvent(ctx, EventInput{
		Summary:     "TODO: Buy milk",
		Description: "Priority: high",
		Start:       start,
		End:         start.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, "remote-1", created.ID)
	assert.True(t, start.Equal(created.Start))
	assert.Equal(t, "UTC", api.events["remote-1"].Start.TimeZone)

	updated, err := c.UpdateEvent(ctx, created.ID, EventInput{Summary: "COMPLETED: Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED: Buy milk", updated.Summary)
	assert.True(t, start.Equal(updated.Start), "zero times keep the remote times")

	got, err := c.GetEvent(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED: Buy milk", got.Summary)

	require.NoError(t, c.DeleteEvent(ctx, created.ID))
	assert.Empty(t, api.events)
}

func TestClient_NotFound(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.GetEvent(ctx, "missing")
	assert.True(t, IsNotFound(err), "got %v", err)

	_, err = c.UpdateEvent(ctx, "missing", EventInput{Summary: "x"})
	assert.True(t, IsNotFound(err), "got %v", err)

	err = c.DeleteEvent(ctx, "missing")
	assert.True(t, errors.Is(err, ErrEventNotFound), "410 should map to not found, got %v", err)
}

func TestToEventSummary(t *testing.T) {
	assert.Equal(t, EventSummary{}, toEventSummary(nil))

	s := toEventSummary(&calendar.Event{
		Id:    "abc",
		Start: &calendar.EventDateTime{Date: "2025-06-01"},
		End:   &calendar.EventDateTime{DateTime: "2025-06-01T11:00:00Z"},
	})
	assert.Equal(t, "abc", s.ID)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), s.Start)
	assert.Equal(t, time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC), s.End.UTC())
}

func TestNewClient_RequiresProvider(t *testing.T) {
	_, err := NewClient(context.Background(), nil, "primary")
	assert.Error(t, err)
}

package calendar

import (
	"context"
	"fmt"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/lgch/luna/internal/google"
)

// DefaultCalendarID is the authenticated user's primary calendar.
const DefaultCalendarID = "primary"

// Client wraps the Google Calendar service for a single calendar
type Client struct {
	svc        *calendar.Service
	calendarID string
}

// NewClient creates a Calendar client authenticated by provider.
func NewClient(ctx context.Context, provider google.TokenProvider, calendarID string) (*Client, error) {
	if provider == nil {
		return nil, fmt.Errorf("token provider cannot be nil")
	}
	if !provider.HasToken() {
		return nil, fmt.Errorf("%w: %s", google.ErrNoToken, google.AuthenticationErrorMessage())
	}

	httpClient, err := google.HTTPClient(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to get Google OAuth token: %w", err)
	}
	return NewClientWithOptions(ctx, calendarID, option.WithHTTPClient(httpClient))
}

// NewClientWithOptions creates a Calendar client from raw API options. Tests
// use it to point the client at a local server.
func NewClientWithOptions(ctx context.Context, calendarID string, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &Client{svc: svc, calendarID: calendarID}, nil
}

// CalendarID returns the calendar events are written to
func (c *Client) CalendarID() string {
	return c.calendarID
}

// CreateEvent creates a new calendar event
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*EventSummary, error) {
	created, err := c.svc.Events.Insert(c.calendarID, toEvent(input)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", classify(err))
	}
	summary := toEventSummary(created)
	return &summary, nil
}

// UpdateEvent replaces the title, description and times of an existing
// event. Other fields set on the remote side are preserved.
func (c *Client) UpdateEvent(ctx context.Context, eventID string, input EventInput) (*EventSummary, error) {
	existing, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get existing event: %w", classify(err))
	}
	if existing.Status == "cancelled" {
		return nil, fmt.Errorf("failed to get existing event: %w", ErrEventNotFound)
	}

	patch := toEvent(input)
	existing.Summary = patch.Summary
	existing.Description = patch.Description
	if !input.Start.IsZero() {
		existing.Start = patch.Start
	}
	if !input.End.IsZero() {
		existing.End = patch.End
	}

	updated, err := c.svc.Events.Update(c.calendarID, eventID, existing).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", classify(err))
	}
	summary := toEventSummary(updated)
	return &summary, nil
}

// GetEvent retrieves a specific event by ID. Cancelled events are reported
// as ErrEventNotFound.
func (c *Client) GetEvent(ctx context.Context, eventID string) (*EventSummary, error) {
	event, err := c.svc.Events.Get(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", classify(err))
	}
	if event.Status == "cancelled" {
		return nil, fmt.Errorf("failed to get event: %w", ErrEventNotFound)
	}
	summary := toEventSummary(event)
	return &summary, nil
}

// DeleteEvent deletes a calendar event
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete event: %w", classify(err))
	}
	return nil
}

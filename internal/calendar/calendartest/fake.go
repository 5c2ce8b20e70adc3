// Package calendartest provides an in-memory calendar.Provider for tests.
package calendartest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lgch/luna/internal/calendar"
)

// ErrInjected is the default error returned by a failing Fake.
var ErrInjected = errors.New("injected calendar failure")

// Fake is a concurrency safe in-memory calendar.
type Fake struct {
	mu     sync.Mutex
	events map[string]calendar.EventSummary
	nextID int

	// Err, when non-nil, is returned by every call before any state changes.
	Err error
	// FailOps limits Err to the named operations: "create", "update", "get", "delete".
	FailOps map[string]bool
	// Block makes every call wait until its context is done.
	Block bool

	Calls map[string]int
}

var _ calendar.Provider = (*Fake)(nil)

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		events: make(map[string]calendar.EventSummary),
		Calls:  make(map[string]int),
	}
}

// Fail makes the named operations (all when none are given) return err.
func (f *Fake) Fail(err error, ops ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	f.Err = err
	f.FailOps = nil
	if len(ops) > 0 {
		f.FailOps = make(map[string]bool, len(ops))
		for _, op := range ops {
			f.FailOps[op] = true
		}
	}
}

// Recover clears any injected failure.
func (f *Fake) Recover() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = nil
	f.FailOps = nil
	f.Block = false
}

// Remove deletes an event behind the caller's back, as if it was removed
// in the calendar UI.
func (f *Fake) Remove(eventID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.events, eventID)
}

// Events returns a snapshot of all events ordered by id.
func (f *Fake) Events() []calendar.EventSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]calendar.EventSummary, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Event returns the event with the given id.
func (f *Fake) Event(eventID string) (calendar.EventSummary, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	return e, ok
}

// CallCount returns how often op was invoked.
func (f *Fake) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

func (f *Fake) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.Calls[op]++
	block := f.Block
	var err error
	if f.Err != nil && (len(f.FailOps) == 0 || f.FailOps[op]) {
		err = f.Err
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// CreateEvent stores a new event.
func (f *Fake) CreateEvent(ctx context.Context, input calendar.EventInput) (*calendar.EventSummary, error) {
	if err := f.enter(ctx, "create"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	e := calendar.EventSummary{
		ID:          fmt.Sprintf("evt-%d", f.nextID),
		Summary:     input.Summary,
		Description: input.Description,
		Start:       input.Start,
		End:         input.End,
		Status:      "confirmed",
	}
	f.events[e.ID] = e
	return &e, nil
}

// UpdateEvent replaces an existing event.
func (f *Fake) UpdateEvent(ctx context.Context, eventID string, input calendar.EventInput) (*calendar.EventSummary, error) {
	if err := f.enter(ctx, "update"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return nil, calendar.ErrEventNotFound
	}
	e.Summary = input.Summary
	e.Description = input.Description
	if !input.Start.IsZero() {
		e.Start = input.Start
	}
	if !input.End.IsZero() {
		e.End = input.End
	}
	f.events[eventID] = e
	return &e, nil
}

// GetEvent returns a stored event.
func (f *Fake) GetEvent(ctx context.Context, eventID string) (*calendar.EventSummary, error) {
	if err := f.enter(ctx, "get"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.events[eventID]
	if !ok {
		return nil, calendar.ErrEventNotFound
	}
	return &e, nil
}

// DeleteEvent removes a stored event.
func (f *Fake) DeleteEvent(ctx context.Context, eventID string) error {
	if err := f.enter(ctx, "delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.events[eventID]; !ok {
		return calendar.ErrEventNotFound
	}
	delete(f.events, eventID)
	return nil
}

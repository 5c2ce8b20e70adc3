package calendar

import (
	"context"
	"errors"
	"net/http"

	"google.golang.org/api/googleapi"
)

// ErrEventNotFound is returned when the remote event does not exist or was
// deleted.
var ErrEventNotFound = errors.New("calendar event not found")

// Provider is the subset of a remote calendar that Luna pushes to.
type Provider interface {
	CreateEvent(ctx context.Context, input EventInput) (*EventSummary, error)
	UpdateEvent(ctx context.Context, eventID string, input EventInput) (*EventSummary, error)
	GetEvent(ctx context.Context, eventID string) (*EventSummary, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

var _ Provider = (*Client)(nil)

// IsNotFound reports whether err means the remote event is gone.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound)
}

// classify maps 404 and 410 API responses to ErrEventNotFound.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone {
			return errors.Join(ErrEventNotFound, err)
		}
	}
	return err
}

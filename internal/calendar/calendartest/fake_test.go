package calendartest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lgch/luna/internal/calendar"
)

func TestFake(t *testing.T) {
	f := New()
	ctx := context.Background()

	e, err := f.CreateEvent(ctx, calendar.EventInput{Summary: "a"})
	require.NoError(t, err)
	assert.Equal(t, "evt-1", e.ID)

	f.Fail(nil, "update")
	_, err = f.UpdateEvent(ctx, e.ID, calendar.EventInput{Summary: "b"})
	assert.ErrorIs(t, err, ErrInjected)

	_, err = f.GetEvent(ctx, e.ID)
	require.NoError(t, err, "only update is failing")

	f.Recover()
	f.Remove(e.ID)
	_, err = f.UpdateEvent(ctx, e.ID, calendar.EventInput{Summary: "b"})
	assert.True(t, calendar.IsNotFound(err))
	assert.Equal(t, 2, f.CallCount("update"))
}

func TestFake_Block(t *testing.T) {
	f := New()
	f.Block = true

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.CreateEvent(ctx, calendar.EventInput{Summary: "a"})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Empty(t, f.Events())
}

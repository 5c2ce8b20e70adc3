package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	when := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	r := &Reminder{ReminderText: "Take vitamins", ReminderDate: &when}
	require.NoError(t, db.CreateReminder(ctx, r))
	assert.Equal(t, LevelMedium, r.Importance)

	got, err := db.GetReminder(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Take vitamins", got.ReminderText)
	require.NotNil(t, got.ReminderDate)
	assert.True(t, when.Equal(*got.ReminderDate))

	require.NoError(t, db.SetReminderCalendarEventID(ctx, r.ID, "evt-r"))
	linked, err := db.ListReminders(ctx, ReminderFilter{})
	require.NoError(t, err)
	require.Len(t, linked, 1)
	assert.Equal(t, "evt-r", linked[0].GoogleCalendarEventID)

	unlinked, err := db.ListReminders(ctx, ReminderFilter{Unlinked: true})
	require.NoError(t, err)
	assert.Empty(t, unlinked)

	require.NoError(t, db.DeleteReminder(ctx, r.ID))
	_, err = db.GetReminder(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateReminder_Validation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.CreateReminder(ctx, &Reminder{ReminderText: "x", Importance: "extreme"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ConstraintReminderImportance, ve.Constraint)

	err = db.CreateReminder(ctx, &Reminder{ReminderText: ""})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, ConstraintReminderText, ve.Constraint)

	for _, l := range Levels {
		assert.NoError(t, db.CreateReminder(ctx, &Reminder{ReminderText: "ok", Importance: l}))
	}
}

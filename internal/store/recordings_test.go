package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCallRecording(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rec := &CallRecording{
		CallSID:         "CA123",
		FromNumber:      "+15551234567",
		RecordingPath:   "recordings/call_CA123.wav",
		DurationSeconds: Int64(42),
		FileSizeBytes:   Int64(672044),
	}
	require.NoError(t, db.CreateCallRecording(ctx, rec))
	assert.Equal(t, RecordingCompleted, rec.Status)

	got, err := db.GetCallRecording(ctx, "CA123")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "+15551234567", got.FromNumber)
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, int64(42), *got.DurationSeconds)
	assert.Empty(t, got.Transcription)
}

func TestCreateCallRecording_DuplicateCallSID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCallRecording(ctx, &CallRecording{CallSID: "CA1", RecordingPath: "a.wav"}))

	err := db.CreateCallRecording(ctx, &CallRecording{CallSID: "CA1", RecordingPath: "b.wav"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateCallSID))

	var ce *ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ConstraintUnique, ce.Kind)

	recs, err := db.ListCallRecordings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a.wav", recs[0].RecordingPath)
}

func TestCreateCallRecording_Validation(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		rec        CallRecording
		constraint string
	}{
		{name: "missing sid", rec: CallRecording{RecordingPath: "a.wav"}, constraint: ConstraintRecordingCallSID},
		{name: "missing path", rec: CallRecording{CallSID: "CA1"}, constraint: ConstraintRecordingPath},
		{name: "negative duration", rec: CallRecording{CallSID: "CA2", RecordingPath: "a.wav", DurationSeconds: Int64(-1)}, constraint: ConstraintRecordingDuration},
		{name: "negative size", rec: CallRecording{CallSID: "CA3", RecordingPath: "a.wav", FileSizeBytes: Int64(-5)}, constraint: ConstraintRecordingFileSize},
		{name: "unknown status", rec: CallRecording{CallSID: "CA4", RecordingPath: "a.wav", Status: "lost"}, constraint: ConstraintRecordingStatus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateCallRecording(ctx, &tt.rec)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.constraint, ve.Constraint)
		})
	}

	// Null duration and size are accepted, as is zero.
	require.NoError(t, db.CreateCallRecording(ctx, &CallRecording{CallSID: "CA5", RecordingPath: "a.wav"}))
	require.NoError(t, db.CreateCallRecording(ctx, &CallRecording{
		CallSID: "CA6", RecordingPath: "a.wav", DurationSeconds: Int64(0), FileSizeBytes: Int64(0),
	}))
}

func TestUpdateCallRecording(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateCallRecording(ctx, &CallRecording{
		CallSID: "CA9", RecordingPath: "a.wav", Status: RecordingProcessing,
	}))

	text := "add a todo to buy milk"
	status := RecordingCompleted
	got, err := db.UpdateCallRecording(ctx, "CA9", RecordingUpdate{
		Transcription:   &text,
		Status:          &status,
		DurationSeconds: Int64(12),
	})
	require.NoError(t, err)
	assert.Equal(t, text, got.Transcription)
	assert.Equal(t, RecordingCompleted, got.Status)
	assert.Equal(t, "a.wav", got.RecordingPath)
	require.NotNil(t, got.DurationSeconds)
	assert.Equal(t, int64(12), *got.DurationSeconds)
	assert.Nil(t, got.FileSizeBytes)

	_, err = db.UpdateCallRecording(ctx, "CA9", RecordingUpdate{FileSizeBytes: Int64(-1)})
	assert.ErrorIs(t, err, ErrConstraint)

	_, err = db.UpdateCallRecording(ctx, "missing", RecordingUpdate{Transcription: &text})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListAndDeleteCallRecordings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, sid := range []string{"CA1", "CA2", "CA3"} {
		require.NoError(t, db.CreateCallRecording(ctx, &CallRecording{CallSID: sid, RecordingPath: sid + ".wav"}))
	}

	recs, err := db.ListCallRecordings(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "CA3", recs[0].CallSID, "newest first")

	recs, err = db.ListCallRecordings(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	require.NoError(t, db.DeleteCallRecording(ctx, "CA2"))
	assert.ErrorIs(t, db.DeleteCallRecording(ctx, "CA2"), ErrNotFound)
	_, err = db.GetCallRecording(ctx, "CA2")
	assert.ErrorIs(t, err, ErrNotFound)
}

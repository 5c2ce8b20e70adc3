package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const recordingColumns = `id, created_at, updated_at, call_sid, from_number, to_number, recording_path, duration_seconds, file_size_bytes, transcription, status`

// CreateCallRecording inserts c. A second recording for the same call sid
// fails with an error matching ErrDuplicateCallSID.
func (d *DB) CreateCallRecording(ctx context.Context, c *CallRecording) error {
	if c.Status == "" {
		c.Status = RecordingCompleted
	}
	if err := c.Validate(); err != nil {
		return err
	}

	now := d.timestamp()
	c.ID = newID()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := d.exec(ctx,
		`INSERT INTO call_recordings (`+recordingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CreatedAt, c.UpdatedAt, c.CallSID, nullString(c.FromNumber), nullString(c.ToNumber),
		c.RecordingPath, nullInt64(c.DurationSeconds), nullInt64(c.FileSizeBytes),
		nullString(c.Transcription), string(c.Status),
	)
	if err != nil {
		return fmt.Errorf("insert call recording: %w", err)
	}
	return nil
}

// GetCallRecording returns the recording for callSID.
func (d *DB) GetCallRecording(ctx context.Context, callSID string) (*CallRecording, error) {
	c, err := scanRecording(d.queryRow(ctx,
		`SELECT `+recordingColumns+` FROM call_recordings WHERE call_sid = ?`, strings.TrimSpace(callSID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get call recording: %w", err)
	}
	return c, nil
}

// ListCallRecordings returns recordings newest first. A limit of zero
// returns all of them.
func (d *DB) ListCallRecordings(ctx context.Context, limit int) ([]CallRecording, error) {
	q := `SELECT ` + recordingColumns + ` FROM call_recordings ORDER BY created_at DESC, id`
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list call recordings: %w", err)
	}
	defer rows.Close()

	recordings := []CallRecording{}
	for rows.Next() {
		c, err := scanRecording(rows)
		if err != nil {
			return nil, fmt.Errorf("scan call recording: %w", err)
		}
		recordings = append(recordings, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list call recordings: %w", err)
	}
	return recordings, nil
}

// UpdateCallRecording applies the non-nil fields of u and returns the
// updated row.
func (d *DB) UpdateCallRecording(ctx context.Context, callSID string, u RecordingUpdate) (*CallRecording, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}

	sets := []string{"updated_at = ?"}
	args := []any{d.timestamp()}
	if u.RecordingPath != nil {
		sets = append(sets, "recording_path = ?")
		args = append(args, *u.RecordingPath)
	}
	if u.DurationSeconds != nil {
		sets = append(sets, "duration_seconds = ?")
		args = append(args, *u.DurationSeconds)
	}
	if u.FileSizeBytes != nil {
		sets = append(sets, "file_size_bytes = ?")
		args = append(args, *u.FileSizeBytes)
	}
	if u.Transcription != nil {
		sets = append(sets, "transcription = ?")
		args = append(args, nullString(*u.Transcription))
	}
	if u.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*u.Status))
	}
	callSID = strings.TrimSpace(callSID)
	args = append(args, callSID)

	res, err := d.exec(ctx, `UPDATE call_recordings SET `+strings.Join(sets, ", ")+` WHERE call_sid = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("update call recording: %w", err)
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return d.GetCallRecording(ctx, callSID)
}

// DeleteCallRecording removes the recording row for callSID. The audio file
// is left for the caller to remove.
func (d *DB) DeleteCallRecording(ctx context.Context, callSID string) error {
	res, err := d.exec(ctx, `DELETE FROM call_recordings WHERE call_sid = ?`, strings.TrimSpace(callSID))
	if err != nil {
		return fmt.Errorf("delete call recording: %w", err)
	}
	return expectOne(res)
}

func scanRecording(s scanner) (*CallRecording, error) {
	var (
		c             CallRecording
		from, to      sql.NullString
		duration      sql.NullInt64
		size          sql.NullInt64
		transcription sql.NullString
		status        string
	)
	if err := s.Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt, &c.CallSID, &from, &to, &c.RecordingPath,
		&duration, &size, &transcription, &status); err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	c.FromNumber = from.String
	c.ToNumber = to.String
	c.DurationSeconds = int64Ptr(duration)
	c.FileSizeBytes = int64Ptr(size)
	c.Transcription = transcription.String
	c.Status = RecordingStatus(status)
	return &c, nil
}

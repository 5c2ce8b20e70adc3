package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/lgch/luna/internal/logging"
	"github.com/lgch/luna/internal/store"
)

// CreateCallRecording stores the metadata of a saved call.
func (s *Service) CreateCallRecording(ctx context.Context, c *store.CallRecording) (*store.CallRecording, error) {
	if err := s.store.CreateCallRecording(ctx, c); err != nil {
		return nil, fmt.Errorf("create call recording: %w", err)
	}
	return c, nil
}

// GetCallRecording returns the recording of a call.
func (s *Service) GetCallRecording(ctx context.Context, callSID string) (*store.CallRecording, error) {
	return s.store.GetCallRecording(ctx, callSID)
}

// ListCallRecordings returns recordings, newest first. A limit <= 0 means
// no limit.
func (s *Service) ListCallRecordings(ctx context.Context, limit int) ([]store.CallRecording, error) {
	return s.store.ListCallRecordings(ctx, limit)
}

// UpdateCallRecording applies a partial update.
func (s *Service) UpdateCallRecording(ctx context.Context, callSID string, u store.RecordingUpdate) (*store.CallRecording, error) {
	c, err := s.store.UpdateCallRecording(ctx, callSID, u)
	if err != nil {
		return nil, fmt.Errorf("update call recording: %w", err)
	}
	return c, nil
}

// DeleteCallRecording removes the recording row and its audio file. Only
// files inside the recording directory are removed. A missing file is not
// an error; other file errors are logged after the row is gone.
func (s *Service) DeleteCallRecording(ctx context.Context, callSID string) (*store.CallRecording, error) {
	c, err := s.store.GetCallRecording(ctx, callSID)
	if err != nil {
		return nil, fmt.Errorf("delete call recording: %w", err)
	}
	if err := s.store.DeleteCallRecording(ctx, callSID); err != nil {
		return nil, fmt.Errorf("delete call recording: %w", err)
	}

	if c.RecordingPath == "" {
		return c, nil
	}
	if !s.inRecordingDir(c.RecordingPath) {
		s.logger.Warn("recording file is outside the recording directory, keeping it",
			logging.CallSID(callSID), "path", c.RecordingPath, "dir", s.recordingDir)
		return c, nil
	}
	if err := os.Remove(c.RecordingPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove recording file",
			logging.CallSID(callSID), "path", c.RecordingPath, logging.Err(err))
	}
	return c, nil
}

// inRecordingDir reports whether path names a file below the recording
// directory.
func (s *Service) inRecordingDir(path string) bool {
	if s.recordingDir == "" {
		return false
	}
	dir, err := filepath.Abs(s.recordingDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// newTestDB opens a migrated in-memory SQLite database whose clock advances
// one second per call, so creation order is deterministic.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := Open(ctx, Config{
		Driver: "sqlite",
		DSN:    "file::memory:",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(ctx)
	require.NoError(t, err)

	var (
		mu   sync.Mutex
		tick int
	)
	db.SetClock(func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick++
		return testBase.Add(time.Duration(tick) * time.Second)
	})
	return db
}

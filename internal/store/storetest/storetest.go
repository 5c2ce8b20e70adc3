// Package storetest opens migrated in-memory databases for tests.
package storetest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lgch/luna/internal/store"
)

// New returns a migrated in-memory SQLite database that is closed when the
// test ends.
func New(t testing.TB) *store.DB {
	t.Helper()

	ctx := context.Background()
	db, err := store.Open(ctx, store.Config{
		Driver: "sqlite",
		DSN:    "file::memory:",
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

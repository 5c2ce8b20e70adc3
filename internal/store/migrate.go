package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// MigrationInfo describes one schema migration.
type MigrationInfo struct {
	Version   int64     `json:"version"`
	Source    string    `json:"source"`
	Applied   bool      `json:"applied"`
	AppliedAt time.Time `json:"applied_at,omitempty"`
}

func (d *DB) migrationProvider() (*goose.Provider, error) {
	var dialect goose.Dialect
	switch d.dialect {
	case DialectPostgres:
		dialect = goose.DialectPostgres
	case DialectSQLite:
		dialect = goose.DialectSQLite3
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", d.dialect)
	}

	sub, err := fs.Sub(migrationsFS, "migrations/"+string(d.dialect))
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	p, err := goose.NewProvider(dialect, d.db, sub, goose.WithSlog(d.logger))
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return p, nil
}

// Migrate applies all pending migrations and returns the number applied.
//
// The provider is not closed because closing it closes the shared *sql.DB.
func (d *DB) Migrate(ctx context.Context) (int, error) {
	p, err := d.migrationProvider()
	if err != nil {
		return 0, err
	}
	results, err := p.Up(ctx)
	if err != nil {
		return 0, fmt.Errorf("apply migrations: %w", err)
	}
	for _, r := range results {
		d.logger.Info("migration applied",
			"version", r.Source.Version,
			"source", r.Source.Path,
			"duration", r.Duration.String())
	}
	return len(results), nil
}

// MigrationStatus reports every known migration and whether it is applied.
func (d *DB) MigrationStatus(ctx context.Context) ([]MigrationInfo, error) {
	p, err := d.migrationProvider()
	if err != nil {
		return nil, err
	}
	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}
	infos := make([]MigrationInfo, 0, len(statuses))
	for _, s := range statuses {
		infos = append(infos, MigrationInfo{
			Version:   s.Source.Version,
			Source:    s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return infos, nil
}

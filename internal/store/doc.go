// Package store persists Luna's four record kinds: todos, reminders,
// calendar events and call recordings.
//
// The tables are flat (no foreign keys). Each row has a UUID primary key
// and creation/update timestamps maintained by the store. Enumerated
// fields, the event time ordering and non-negative recording sizes are
// enforced twice: by Validate before any write, and by named CHECK
// constraints in the schema. Either way a violation surfaces as an error
// naming the violated constraint, never as a coerced value.
//
// Two SQL backends share the same queries:
//
//   - PostgreSQL through pgx (driver "postgres")
//   - SQLite through modernc.org/sqlite (driver "sqlite"), used for local
//     development and tests
//
// Schema changes are goose migrations embedded per dialect.
package store

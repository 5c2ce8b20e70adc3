// Package calsync pushes local todos, reminders and calendar events to a
// remote calendar.
//
// Synchronization is one-way and best effort. Local records are always the
// source of truth: the caller commits the store mutation first and then asks
// the Syncer to mirror it. A failed push is reported in the returned Status
// and never turns into an operation failure.
//
// Pushing a record that already carries a remote event id updates that event
// instead of creating a new one, which makes repeated pushes idempotent. When
// the remote event has disappeared, a fresh one is created and the caller
// relinks the record to the new id.
package calsync

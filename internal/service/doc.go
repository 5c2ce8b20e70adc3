// Package service implements Luna's operations on todos, reminders,
// calendar events and call recordings.
//
// Every mutating operation commits the store write first and then mirrors it
// to the remote calendar through calsync. The store write decides whether the
// operation succeeded; the calendar outcome is reported alongside the record
// as a calsync.Status and is never an operation failure.
package service

// Package ledger is the append-only attendance log. Records are written
// once and never updated or deleted; reads return them in insertion order.
package ledger

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/attendkeeper/internal/server/models"
)

// Ledger appends and lists attendance records.
//
// Append returns only after the record is durable (flushed to stable
// storage or committed). Concurrent appends are serialized, so insertion
// order equals acknowledgement order.
type Ledger interface {
	Append(ctx context.Context, entry models.AttendanceLogEntry) error
	List(ctx context.Context, username string, limit int) ([]models.AttendanceLogEntry, error)
}

// ErrInvalidEntry rejects records missing a username or timestamp.
var ErrInvalidEntry = errors.New("invalid attendance entry")

func validate(entry models.AttendanceLogEntry) error {
	if entry.Username == "" || entry.Timestamp.IsZero() {
		return ErrInvalidEntry
	}
	return nil
}

// tail keeps the last n elements of entries (all of them when n <= 0).
func tail(entries []models.AttendanceLogEntry, n int) []models.AttendanceLogEntry {
	if n <= 0 || len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}

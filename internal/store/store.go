// Package store persists finished lookups as parking records and feeds the
// reminder batch. The lookup core never touches this package; callers hand
// it completed results.
package store

import (
	"context"
	"time"

	"github.com/sells-group/curbside/internal/model"
)

// Store is the persistence gateway for parking records.
type Store interface {
	// SaveLookup stores a fully-resolved lookup for a caller. Records for
	// unresolved lookups must never reach this method.
	SaveLookup(ctx context.Context, rec *model.ParkingRecord) error

	// DueReminders returns the most recent un-notified record per caller
	// whose next sweep date falls on the given civil date.
	DueReminders(ctx context.Context, on time.Time) ([]model.ParkingRecord, error)

	// MarkNotified flags a record after its reminder was delivered.
	MarkNotified(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

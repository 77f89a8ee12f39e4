package snapshot

import (
	"context"
	"time"
)

// Store persists daily snapshot records.
//
// Save without overwrite fails with contracts.ErrSnapshotExists when a
// record for the same calendar day is already present; the check is
// atomic, so concurrent captures cannot both win.
type Store interface {
	Save(ctx context.Context, rec *Record, overwrite bool) error
	// Load returns the record for exactly the given calendar day, or
	// contracts.ErrSnapshotNotFound.
	Load(ctx context.Context, date time.Time) (*Record, error)
	// LoadAsOf returns the newest record dated on or before asOf.
	LoadAsOf(ctx context.Context, asOf time.Time) (*Record, error)
	// List returns every date with a stored record, ascending.
	List(ctx context.Context) ([]time.Time, error)
}

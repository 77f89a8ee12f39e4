package contracts

import "errors"

// Sentinel conditions shared across storage backends. Callers branch with
// errors.Is; implementations wrap these with backend detail.
var (
	// ErrTickerNotFound means a PriceReader has no data for the ticker.
	ErrTickerNotFound = errors.New("ticker not found")

	// ErrSnapshotExists means a snapshot save targeted a date that is
	// already stored and overwrite was not requested.
	ErrSnapshotExists = errors.New("snapshot already exists")

	// ErrSnapshotNotFound means no snapshot is stored for the requested
	// date (or on or before it, for as-of loads).
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

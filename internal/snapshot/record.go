// Package snapshot captures and restores the daily per-ticker indicator
// state the live scoring pipeline consumes. Records are append-only: one
// per calendar day at most, replaced only by an explicit re-save.
package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/wonny/argos/internal/contracts"
)

// SchemaVersion is the payload schema this build reads and writes. Bump
// it when IndicatorSnapshot changes shape incompatibly.
const SchemaVersion = 1

// ErrSchemaTooNew marks records written by a newer build than this one.
var ErrSchemaTooNew = errors.New("snapshot schema version not supported")

// Record is one day's captured indicator state for the whole universe.
type Record struct {
	SchemaVersion int                                     `json:"schema_version"`
	Date          time.Time                               `json:"date"`
	SavedAt       time.Time                               `json:"saved_at"`
	Payload       map[string]*contracts.IndicatorSnapshot `json:"payload"`
}

// NewRecord stamps a payload with the current schema version and time.
// The record date is normalized to midnight UTC.
func NewRecord(date time.Time, payload map[string]*contracts.IndicatorSnapshot) *Record {
	return &Record{
		SchemaVersion: SchemaVersion,
		Date:          midnightUTC(date),
		SavedAt:       time.Now().UTC(),
		Payload:       payload,
	}
}

func checkSchema(version int) error {
	if version > SchemaVersion {
		return fmt.Errorf("%w: record has version %d, this build reads up to %d",
			ErrSchemaTooNew, version, SchemaVersion)
	}
	return nil
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Package jobs holds the scheduled job implementations.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wonny/argos/internal/contracts"
	"github.com/wonny/argos/internal/snapshot"
	"github.com/wonny/argos/pkg/logger"
)

// SnapshotCaptureJob captures the daily indicator snapshot for the
// configured universe. Reruns on a day that already has one are no-ops,
// so cron overlaps and retries never overwrite history.
type SnapshotCaptureJob struct {
	manager  *snapshot.Manager
	universe []string
	schedule string
	logger   *logger.Logger
}

// NewSnapshotCaptureJob creates a new snapshot capture job
func NewSnapshotCaptureJob(manager *snapshot.Manager, universe []string, schedule string, log *logger.Logger) *SnapshotCaptureJob {
	return &SnapshotCaptureJob{
		manager:  manager,
		universe: universe,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SnapshotCaptureJob) Name() string {
	return "snapshot_capture"
}

// Schedule returns the configured cron schedule
func (j *SnapshotCaptureJob) Schedule() string {
	return j.schedule
}

// Run captures today's snapshot
func (j *SnapshotCaptureJob) Run(ctx context.Context) error {
	date := time.Now().UTC()

	rec, err := j.manager.Capture(ctx, j.universe, date, false)
	if err != nil {
		if errors.Is(err, contracts.ErrSnapshotExists) {
			j.logger.WithField("date", date.Format("2006-01-02")).Info("Snapshot already captured, skipping")
			return nil
		}
		return fmt.Errorf("capture snapshot: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"date":    rec.Date.Format("2006-01-02"),
		"tickers": len(rec.Payload),
	}).Info("Scheduled snapshot capture completed")

	return nil
}

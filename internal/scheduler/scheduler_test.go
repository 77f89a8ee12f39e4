package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/argos/pkg/config"
	"github.com/wonny/argos/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "error", LogFormat: "json"})
}

// fakeJob fails its first `failures` runs, then succeeds.
type fakeJob struct {
	name     string
	schedule string
	failures int

	mu   sync.Mutex
	runs int
}

func (j *fakeJob) Name() string     { return j.name }
func (j *fakeJob) Schedule() string { return j.schedule }

func (j *fakeJob) Run(_ context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.runs++
	if j.runs <= j.failures {
		return fmt.Errorf("run %d failed", j.runs)
	}
	return nil
}

func (j *fakeJob) runCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.runs
}

func TestScheduler_AddJob(t *testing.T) {
	s := New(testLogger())

	job := &fakeJob{name: "capture", schedule: "0 0 18 * * MON-FRI"}
	require.NoError(t, s.AddJob(job))
	assert.Contains(t, s.GetAllJobs(), "capture")

	err := s.AddJob(&fakeJob{name: "capture", schedule: "@daily"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestScheduler_AddJob_BadSchedule(t *testing.T) {
	s := New(testLogger())

	err := s.AddJob(&fakeJob{name: "broken", schedule: "not a cron expression"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to schedule")
}

func TestScheduler_RunJobRetriesUntilSuccess(t *testing.T) {
	s := New(testLogger())
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "flaky", schedule: "@daily", failures: 2}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	assert.Equal(t, 3, job.runCount())

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.Equal(t, 0, stats.FailureCount)
	assert.Equal(t, 1.0, stats.SuccessRate)
	require.NotNil(t, stats.LastSuccess)
	assert.Nil(t, stats.LastFailure)
}

func TestScheduler_RunJobExhaustsRetries(t *testing.T) {
	s := New(testLogger())
	s.retryDelay = time.Millisecond

	job := &fakeJob{name: "doomed", schedule: "@daily", failures: 100}
	require.NoError(t, s.AddJob(job))

	s.runJob(job)

	// Initial attempt plus maxRetries.
	assert.Equal(t, 4, job.runCount())

	stats := s.GetJobStats()["doomed"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 0, stats.SuccessCount)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	require.NotNil(t, stats.LastFailure)

	history := s.history["doomed"]
	require.Len(t, history.Results, 1)
	assert.False(t, history.Results[0].Success)
	assert.Contains(t, history.Results[0].Error, "failed")
}

func TestJobHistory_CapsResults(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyCap+20; i++ {
		h.AddResult(JobResult{JobName: "j", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyCap)
}

func TestJobHistory_Stats(t *testing.T) {
	h := &JobHistory{}
	h.AddResult(JobResult{JobName: "j", Success: true})
	h.AddResult(JobResult{JobName: "j", Success: false, Error: "nope"})
	h.AddResult(JobResult{JobName: "j", Success: true})
	h.AddResult(JobResult{JobName: "j", Success: true})

	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-9)

	failed := h.GetFailedResults()
	require.Len(t, failed, 1)
	assert.Equal(t, "nope", failed[0].Error)

	latest := h.GetLatestResults(2)
	require.Len(t, latest, 2)
	assert.True(t, latest[0].Success)
	assert.True(t, latest[1].Success)

	assert.Empty(t, (&JobHistory{}).GetLatestResults(5))
	assert.Equal(t, 0.0, (&JobHistory{}).GetSuccessRate())
}

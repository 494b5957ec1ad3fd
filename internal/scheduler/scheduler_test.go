package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexbi/cortex/pkg/config"
	"github.com/cortexbi/cortex/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "json"})
}

type stubJob struct {
	name     string
	schedule string
	err      error
	runs     atomic.Int32
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	j.runs.Add(1)
	return j.err
}

func TestAddJobRejectsDuplicates(t *testing.T) {
	s := New(testLogger())
	job := &stubJob{name: "recompute", schedule: "0 0 3 * * *"}

	require.NoError(t, s.AddJob(job))
	err := s.AddJob(job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestAddJobRejectsInvalidSchedule(t *testing.T) {
	s := New(testLogger())
	err := s.AddJob(&stubJob{name: "broken", schedule: "not a cron expression"})
	require.Error(t, err)
}

func TestRunJobRecordsHistory(t *testing.T) {
	s := New(testLogger())
	job := &stubJob{name: "recompute", schedule: "0 0 3 * * *"}
	require.NoError(t, s.AddJob(job))

	require.NoError(t, s.RunJob("recompute"))

	require.Eventually(t, func() bool {
		history, err := s.History("recompute")
		if err != nil {
			return false
		}
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(history.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	history, err := s.History("recompute")
	require.NoError(t, err)
	result := history.Results[0]
	assert.Equal(t, "recompute", result.JobName)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, int32(1), job.runs.Load())
}

func TestRunJobRetriesUntilExhausted(t *testing.T) {
	s := New(testLogger())
	s.maxRetries = 2
	s.retryDelay = time.Millisecond

	job := &stubJob{name: "flaky", schedule: "0 0 3 * * *", err: errors.New("warehouse unavailable")}
	require.NoError(t, s.AddJob(job))
	require.NoError(t, s.RunJob("flaky"))

	require.Eventually(t, func() bool {
		return job.runs.Load() == 3
	}, 2*time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		history, err := s.History("flaky")
		if err != nil {
			return false
		}
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(history.Results) == 1
	}, 2*time.Second, 10*time.Millisecond)

	history, _ := s.History("flaky")
	result := history.Results[0]
	assert.False(t, result.Success)
	assert.Equal(t, "warehouse unavailable", result.Error)
}

func TestRunJobUnknownName(t *testing.T) {
	s := New(testLogger())
	require.Error(t, s.RunJob("missing"))
}

func TestJobHistoryRollingWindow(t *testing.T) {
	h := &JobHistory{}
	for i := 0; i < historyLimit+20; i++ {
		h.AddResult(JobResult{JobName: "recompute", Success: i%2 == 0})
	}
	assert.Len(t, h.Results, historyLimit)

	latest := h.LatestResults(5)
	assert.Len(t, latest, 5)
	assert.Equal(t, h.Results[len(h.Results)-1], latest[4])
}

func TestJobHistorySuccessRate(t *testing.T) {
	h := &JobHistory{}
	assert.Zero(t, h.SuccessRate())

	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: true})
	h.AddResult(JobResult{Success: false})
	h.AddResult(JobResult{Success: true})
	assert.InDelta(t, 0.75, h.SuccessRate(), 1e-9)
}

func TestStats(t *testing.T) {
	s := New(testLogger())
	job := &stubJob{name: "recompute", schedule: "0 0 3 * * *"}
	require.NoError(t, s.AddJob(job))

	s.mu.Lock()
	s.history["recompute"].AddResult(JobResult{JobName: "recompute", StartTime: time.Now(), Success: true})
	s.history["recompute"].AddResult(JobResult{JobName: "recompute", StartTime: time.Now(), Success: false})
	s.mu.Unlock()

	stats := s.Stats()
	require.Contains(t, stats, "recompute")
	st := stats["recompute"]
	assert.Equal(t, 2, st.TotalRuns)
	assert.Equal(t, 1, st.SuccessCount)
	assert.Equal(t, 1, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	assert.Equal(t, "0 0 3 * * *", st.Schedule)
	require.NotNil(t, st.LastRun)
}

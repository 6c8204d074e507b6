package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Liszten/kpiComp/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	failures int32 // fail this many times before succeeding
	calls    int32
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.calls, 1)
	if n <= atomic.LoadInt32(&j.failures) {
		return errors.New("transient")
	}
	return nil
}

func newTestScheduler() *Scheduler {
	return New(logger.NewNop(), WithRetry(2, time.Millisecond))
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "b", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "0 */5 * * * *"}))

	assert.Error(t, s.AddJob(&stubJob{name: "a", schedule: "@daily"}), "duplicate")
	assert.Error(t, s.AddJob(&stubJob{name: "c", schedule: "not a schedule"}))

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRunJobSync_RetriesThenSucceeds(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "flaky", schedule: "@hourly", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "flaky")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls))
	assert.Equal(t, 3, result.Attempts)

	stats := s.GetJobStats()["flaky"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.SuccessCount)
	assert.NotNil(t, stats.LastSuccess)
}

func TestRunJobSync_FailsAfterRetries(t *testing.T) {
	s := newTestScheduler()
	job := &stubJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "broken")
	assert.Error(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "transient", result.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&job.calls), "one run plus two retries")

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 0.0, stats.SuccessRate)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobSync_ContextCancelStopsRetries(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(5, time.Hour))
	job := &stubJob{name: "slow", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunJobSync(ctx, "slow")
	assert.Error(t, err)
	assert.Equal(t, context.Canceled.Error(), result.Error)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
}

func TestRunJob_Unknown(t *testing.T) {
	s := newTestScheduler()

	_, err := s.RunJobSync(context.Background(), "missing")
	assert.Error(t, err)
	assert.NotContains(t, s.GetJobStats(), "missing")
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@hourly"}))

	s.Start()
	s.Stop()

	assert.Error(t, s.ctx.Err(), "stop cancels the job context")
}

type blockingJob struct {
	timeout time.Duration
	calls   int32
}

func (j *blockingJob) Name() string           { return "blocking" }
func (j *blockingJob) Schedule() string       { return "@hourly" }
func (j *blockingJob) Timeout() time.Duration { return j.timeout }

func (j *blockingJob) Run(ctx context.Context) error {
	atomic.AddInt32(&j.calls, 1)
	<-ctx.Done()
	return ctx.Err()
}

func TestRunJobSync_AttemptTimeout(t *testing.T) {
	s := New(logger.NewNop(), WithRetry(1, time.Millisecond))
	job := &blockingJob{timeout: 20 * time.Millisecond}
	require.NoError(t, s.AddJob(job))

	start := time.Now()
	result, err := s.RunJobSync(context.Background(), "blocking")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, context.DeadlineExceeded.Error(), result.Error)
	assert.Equal(t, 2, result.Attempts, "each attempt gets a fresh deadline")
	assert.Equal(t, int32(2), atomic.LoadInt32(&job.calls))
}

func TestKVFields(t *testing.T) {
	fields := kvFields([]interface{}{"entry", 3, "dangling"})
	assert.Equal(t, map[string]interface{}{"entry": 3}, fields)
}

func TestJobHistory(t *testing.T) {
	h := &jobHistory{}
	assert.Equal(t, 0.0, h.stats("x", "@hourly").SuccessRate)

	for i := 0; i < historySize+10; i++ {
		r := JobResult{JobName: "x", StartTime: time.Unix(int64(i), 0), Success: i%2 == 0}
		if !r.Success {
			r.Error = "boom"
		}
		h.add(r)
	}

	assert.Len(t, h.snapshot(), historySize)
	assert.Equal(t, time.Unix(10, 0), h.snapshot()[0].StartTime, "oldest runs are dropped first")

	st := h.stats("x", "@hourly")
	assert.Equal(t, historySize, st.TotalRuns)
	assert.Equal(t, historySize/2, st.FailureCount)
	assert.InDelta(t, 0.5, st.SuccessRate, 1e-9)
	assert.Equal(t, "boom", st.LastError)
	require.NotNil(t, st.LastRun)
	assert.Equal(t, time.Unix(int64(historySize+9), 0), *st.LastRun)
}

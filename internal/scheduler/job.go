package scheduler

import (
	"context"
	"time"
)

// Job is a unit of rating pipeline maintenance run on a cron schedule
// ⭐ SSOT: 스케줄 작업 인터페이스는 여기서만 정의
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a cron expression with a seconds field, e.g. "0 0 6 * * *"
	Schedule() string
}

// TimeoutJob is implemented by jobs that bound each attempt
type TimeoutJob interface {
	Timeout() time.Duration
}

// attemptTimeout returns the per-attempt bound for job, zero when unbounded
func attemptTimeout(job Job) time.Duration {
	if tj, ok := job.(TimeoutJob); ok {
		return tj.Timeout()
	}
	return 0
}

// historySize caps the runs kept per job
const historySize = 50

// JobResult is the outcome of one run, retries included
type JobResult struct {
	JobName   string        `json:"job_name"`
	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`
	Attempts  int           `json:"attempts"`
	Success   bool          `json:"success"`
	Error     string        `json:"error,omitempty"`
}

// JobStats summarizes the retained runs of a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// jobHistory keeps the latest runs of one job, oldest first
type jobHistory struct {
	results []JobResult
}

func (h *jobHistory) add(result JobResult) {
	h.results = append(h.results, result)
	if len(h.results) > historySize {
		h.results = h.results[len(h.results)-historySize:]
	}
}

func (h *jobHistory) snapshot() []JobResult {
	out := make([]JobResult, len(h.results))
	copy(out, h.results)
	return out
}

func (h *jobHistory) stats(name, schedule string) JobStats {
	st := JobStats{JobName: name, Schedule: schedule, TotalRuns: len(h.results)}
	for i := range h.results {
		r := &h.results[i]
		st.LastRun = &r.StartTime
		if r.Success {
			st.SuccessCount++
			st.LastSuccess = &r.StartTime
		} else {
			st.FailureCount++
			st.LastFailure = &r.StartTime
			st.LastError = r.Error
		}
	}
	if st.TotalRuns > 0 {
		st.SuccessRate = float64(st.SuccessCount) / float64(st.TotalRuns)
	}
	return st
}

package scheduler

import (
	"context"
	"time"
)

// Job is a unit of scheduled work
// ⭐ SSOT: interfaz de trabajos programados
type Job interface {
	Name() string
	Run(ctx context.Context) error

	// Schedule is a cron expression with a leading seconds field,
	// e.g. "0 0 2 * * *" (02:00 diario) or "@hourly"
	Schedule() string
}

// Run is one execution of a job, retries included
type Run struct {
	Job      string        `json:"job"`
	Trigger  string        `json:"trigger"` // cron | manual
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Attempts int           `json:"attempts"`
	Err      string        `json:"error,omitempty"`
}

// OK reports whether the run ended without error
func (r Run) OK() bool {
	return r.Err == ""
}

const maxHistory = 100

// History keeps the last maxHistory runs of a job, oldest first
type History struct {
	runs []Run
}

func (h *History) record(r Run) {
	h.runs = append(h.runs, r)
	if len(h.runs) > maxHistory {
		h.runs = h.runs[len(h.runs)-maxHistory:]
	}
}

// Runs returns a copy of the recorded runs
func (h *History) Runs() []Run {
	out := make([]Run, len(h.runs))
	copy(out, h.runs)
	return out
}

// Latest returns up to n most recent runs, newest last
func (h *History) Latest(n int) []Run {
	if n > len(h.runs) {
		n = len(h.runs)
	}
	if n <= 0 {
		return []Run{}
	}
	return h.Runs()[len(h.runs)-n:]
}

// Stats summarizes a job's history
type Stats struct {
	Job          string     `json:"job"`
	Schedule     string     `json:"schedule"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"` // 0..1
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

func (h *History) stats(job Job) Stats {
	s := Stats{Job: job.Name(), Schedule: job.Schedule(), TotalRuns: len(h.runs)}

	for i := range h.runs {
		r := h.runs[i]
		started := r.Started
		s.LastRun = &started
		if r.OK() {
			s.SuccessCount++
			s.LastSuccess = &started
		} else {
			s.FailureCount++
			s.LastFailure = &started
			s.LastError = r.Err
		}
	}
	if s.TotalRuns > 0 {
		s.SuccessRate = float64(s.SuccessCount) / float64(s.TotalRuns)
	}
	return s
}

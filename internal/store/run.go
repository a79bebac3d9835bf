// Package store persists optimization run records.
package store

import (
	"time"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Run is the persisted record of one optimization run.
type Run struct {
	ID        string `json:"id"`
	Algorithm string `json:"algorithm"`
	Objective string `json:"objective"`
	// Mode is "iteration" or "time" for annealing runs, empty otherwise.
	Mode   string `json:"mode,omitempty"`
	Status Status `json:"status"`

	Best           []float64 `json:"best,omitempty"`
	BestValue      float64   `json:"best_value"`
	Values         []float64 `json:"values,omitempty"`
	ElapsedSeconds []float64 `json:"elapsed_seconds,omitempty"`
	Iterations     int       `json:"iterations"`
	Evaluations    int       `json:"evaluations"`
	StopReason     string    `json:"stop_reason,omitempty"`
	Error          string    `json:"error,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Complete fills the record from a successful result.
func (r *Run) Complete(res *optimization.Result, at time.Time) {
	r.Status = StatusCompleted
	r.Best = res.Best.Position()
	r.BestValue = res.Best.Value
	r.Values = append([]float64(nil), res.Trace.Values...)
	r.ElapsedSeconds = nil
	for _, e := range res.Trace.Elapsed {
		r.ElapsedSeconds = append(r.ElapsedSeconds, e.Seconds())
	}
	r.Iterations = res.Iterations
	r.Evaluations = res.Evaluations
	r.StopReason = string(res.StopReason)
	r.FinishedAt = at
}

// Fail marks the record as failed or cancelled with err.
func (r *Run) Fail(status Status, err error, at time.Time) {
	r.Status = status
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = at
}

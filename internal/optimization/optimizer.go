// Package optimization holds the types shared by the stochastic optimizers:
// search spaces, evaluated candidates, the incumbent best state, convergence
// traces and run results.
package optimization

import (
	"context"
	"time"
)

// Optimizer defines the interface for optimization algorithms
type Optimizer interface {
	// Name identifies the algorithm family ("annealing", "colony").
	Name() string

	// Optimize runs a complete search against the objective and returns the
	// best candidate found together with its convergence trace.
	Optimize(ctx context.Context, objective ObjectiveFunction) (*Result, error)
}

// ObjectiveFunction defines the function to be minimized. A returned error
// aborts the run.
type ObjectiveFunction func([]float64) (float64, error)

// Objective2D adapts a plain two-variable function.
func Objective2D(f func(x, y float64) float64) ObjectiveFunction {
	return func(p []float64) (float64, error) {
		if len(p) != 2 {
			return 0, NewErrorf("expected 2 coordinates, got %d", len(p)).WithOperation("Objective2D")
		}
		return f(p[0], p[1]), nil
	}
}

// StopReason records which termination policy ended a run.
type StopReason string

const (
	StopTemperature   StopReason = "temperature"
	StopTime          StopReason = "time"
	StopMaxIterations StopReason = "max_iterations"
	StopConverged     StopReason = "converged"
)

// Progress is a snapshot handed to a ProgressFunc while a run is in flight.
type Progress struct {
	Algorithm   string
	Iteration   int
	Best        float64
	Temperature float64
}

// ProgressFunc observes a running optimizer. It is called from the goroutine
// executing the run and must not block for long.
type ProgressFunc func(Progress)

// Result contains the result of an optimization run
type Result struct {
	Algorithm string
	Best      Candidate
	Trace     Trace

	// Iterations is the number of search iterations executed, excluding
	// initialization.
	Iterations  int
	Evaluations int
	Elapsed     time.Duration
	StopReason  StopReason
	Converged   bool

	// Annealing only.
	FinalTemperature float64
	Accepted         int

	// Colony only.
	Abandoned            int
	DegenerateSelections int
}

// Package bench replicates independent optimizer runs concurrently and
// summarizes their outcomes.
package bench

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/copyleftdev/annealhive/internal/optimization"
	"github.com/copyleftdev/annealhive/internal/optimization/annealing"
	"github.com/copyleftdev/annealhive/internal/optimization/colony"
)

// RunFunc performs one complete, independent run seeded with seed. Each call
// must build its own optimizer.
type RunFunc func(ctx context.Context, seed int64) (*optimization.Result, error)

// Summary aggregates the final best values of a set of replicas.
type Summary struct {
	Runs           int
	Mean           float64
	StdDev         float64
	Median         float64
	Min            float64
	Max            float64
	MeanIterations float64
	// Best is the overall best candidate across replicas.
	Best optimization.Candidate
	// Values holds the final best value of each replica in seed order.
	Values []float64
}

type replica struct {
	index  int
	result *optimization.Result
}

// Replicate runs n replicas with at most workers running at once. Replica i
// is seeded with seed+i+1, so a fixed seed reproduces the whole batch. The
// first failing replica cancels the rest and its error is returned.
func Replicate(ctx context.Context, n, workers int, seed int64, run RunFunc) (*Summary, error) {
	if n < 1 {
		return nil, fmt.Errorf("replicas must be at least 1, got %d", n)
	}
	if workers < 1 {
		workers = 1
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	p := pool.NewWithResults[replica]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(workers)
	for i := 0; i < n; i++ {
		i := i
		p.Go(func(ctx context.Context) (replica, error) {
			res, err := run(ctx, seed+int64(i)+1)
			if err != nil {
				return replica{}, fmt.Errorf("replica %d: %w", i, err)
			}
			return replica{index: i, result: res}, nil
		})
	}
	replicas, err := p.Wait()
	if err != nil {
		return nil, err
	}
	if len(replicas) != n {
		return nil, errors.New("replicas missing from pool results")
	}

	// Pool results arrive in completion order.
	sort.Slice(replicas, func(a, b int) bool { return replicas[a].index < replicas[b].index })
	return summarize(replicas), nil
}

func summarize(replicas []replica) *Summary {
	values := make([]float64, len(replicas))
	iterations := make([]float64, len(replicas))
	best := replicas[0].result.Best
	for i, r := range replicas {
		values[i] = r.result.Best.Value
		iterations[i] = float64(r.result.Iterations)
		if r.result.Best.Better(best) {
			best = r.result.Best
		}
	}

	mean, std := stat.MeanStdDev(values, nil)
	if len(values) == 1 {
		std = 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	return &Summary{
		Runs:           len(values),
		Mean:           mean,
		StdDev:         std,
		Median:         stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Min:            floats.Min(values),
		Max:            floats.Max(values),
		MeanIterations: stat.Mean(iterations, nil),
		Best:           best,
		Values:         values,
	}
}

// Annealing returns a RunFunc that anneals objective with cfg, reseeded per
// replica. byTime selects the time-bounded run.
func Annealing(cfg annealing.Config, objective optimization.ObjectiveFunction, byTime bool) RunFunc {
	return func(ctx context.Context, seed int64) (*optimization.Result, error) {
		c := cfg
		c.RandomSeed = seed
		c.Progress = nil
		a, err := annealing.New(c)
		if err != nil {
			return nil, err
		}
		if byTime {
			return a.RunByTime(ctx, objective)
		}
		return a.RunByIteration(ctx, objective)
	}
}

// Colony returns a RunFunc that runs a colony with cfg, reseeded per replica.
func Colony(cfg colony.Config, objective optimization.ObjectiveFunction) RunFunc {
	return func(ctx context.Context, seed int64) (*optimization.Result, error) {
		c := cfg
		c.RandomSeed = seed
		c.Progress = nil
		col, err := colony.New(c)
		if err != nil {
			return nil, err
		}
		return col.Run(ctx, objective)
	}
}

// SuccessRate returns the fraction of replicas whose final value lies within
// tol of target.
func (s *Summary) SuccessRate(target, tol float64) float64 {
	if s == nil || len(s.Values) == 0 {
		return 0
	}
	hits := 0
	for _, v := range s.Values {
		if math.Abs(v-target) <= tol {
			hits++
		}
	}
	return float64(hits) / float64(len(s.Values))
}

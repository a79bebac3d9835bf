package colony

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

var shiftedSphere = optimization.Objective2D(func(x, y float64) float64 {
	return (x-2)*(x-2) + (y+1)*(y+1)
})

func constant(v float64) optimization.ObjectiveFunction {
	return func([]float64) (float64, error) { return v, nil }
}

func assertNonIncreasing(t *testing.T, values []float64) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		require.LessOrEqual(t, values[i], values[i-1], "best value regressed at index %d", i)
	}
}

func TestNewValidatesConfig(t *testing.T) {
	base := DefaultConfig([2]float64{-10, 10}, [2]float64{-10, 10})

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"population too small", func(c *Config) { c.PopulationSize = 1 }},
		{"negative abandonment", func(c *Config) { c.AbandonmentLimit = -1 }},
		{"negative threshold", func(c *Config) { c.ConvergenceThreshold = -1e-3 }},
		{"no stagnation rounds", func(c *Config) { c.StagnationRounds = 0 }},
		{"no iterations", func(c *Config) { c.MaxIterations = 0 }},
		{"negative progress interval", func(c *Config) { c.ProgressInterval = -1 }},
		{"unknown weighting", func(c *Config) { c.Weighting = Weighting(42) }},
		{"no bounds", func(c *Config) { c.Bounds = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			c, err := New(cfg)
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, errors.Is(err, optimization.ErrInvalidConfig), "got %v", err)
		})
	}
}

func TestAgentsAreHalfThePopulation(t *testing.T) {
	cfg := DefaultConfig([2]float64{0, 1})
	cfg.PopulationSize = 7

	c, err := New(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Agents())
	assert.Equal(t, "colony", c.Name())
}

func TestRunShiftedSphereConverges(t *testing.T) {
	cfg := DefaultConfig([2]float64{-10, 10}, [2]float64{-10, 10})
	cfg.ConvergenceThreshold = 1e-6
	cfg.StagnationRounds = 20
	cfg.RandomSeed = 7

	c, err := New(cfg)
	require.NoError(t, err)

	res, err := c.Run(context.Background(), shiftedSphere)
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, optimization.StopConverged, res.StopReason)
	assert.Less(t, res.Iterations, cfg.MaxIterations)
	assert.Less(t, res.Best.Value, 0.05)
	assert.InDelta(t, 2, res.Best.At(0), 0.25)
	assert.InDelta(t, -1, res.Best.At(1), 0.25)

	assert.Equal(t, res.Iterations+1, res.Trace.Len())
	assertNonIncreasing(t, res.Trace.Values)
	assert.Equal(t, res.Best.Value, res.Trace.Final())
	assert.Zero(t, res.DegenerateSelections)
	// Initialization plus at least one exploitation move per agent and iteration.
	assert.GreaterOrEqual(t, res.Evaluations, c.Agents()*(res.Iterations+1))
}

func TestRunStaysInsideBounds(t *testing.T) {
	cfg := DefaultConfig([2]float64{1, 4}, [2]float64{-2, -1})
	cfg.MaxIterations = 200
	cfg.ConvergenceThreshold = 0
	cfg.RandomSeed = 13

	space, err := optimization.NewSearchSpace(cfg.Bounds...)
	require.NoError(t, err)

	var outside [][]float64
	objective := func(p []float64) (float64, error) {
		if !space.Contains(p) {
			outside = append(outside, append([]float64(nil), p...))
		}
		return shiftedSphere(p)
	}

	c, err := New(cfg)
	require.NoError(t, err)
	res, err := c.Run(context.Background(), objective)
	require.NoError(t, err)

	assert.Empty(t, outside)
	assert.Equal(t, cfg.MaxIterations, res.Iterations)
	assert.Equal(t, optimization.StopMaxIterations, res.StopReason)
	assert.False(t, res.Converged)
	// The optimum (2,-1) lies inside this box.
	assert.Less(t, res.Best.Value, 0.05)
}

func TestFlatObjectiveConvergesAfterStagnationRounds(t *testing.T) {
	cfg := DefaultConfig([2]float64{-1, 1}, [2]float64{-1, 1})
	cfg.RandomSeed = 21

	c, err := New(cfg)
	require.NoError(t, err)
	res, err := c.Run(context.Background(), constant(0))
	require.NoError(t, err)

	assert.True(t, res.Converged)
	assert.Equal(t, cfg.StagnationRounds, res.Iterations)
	assert.Zero(t, res.DegenerateSelections)
	assert.Zero(t, res.Abandoned, "trials stay below the default limit")
}

func TestAbandonmentRestartsExhaustedAgents(t *testing.T) {
	cfg := DefaultConfig([2]float64{-1, 1})
	cfg.PopulationSize = 10
	cfg.AbandonmentLimit = 0
	cfg.ConvergenceThreshold = 0
	cfg.MaxIterations = 5
	cfg.RandomSeed = 3

	c, err := New(cfg)
	require.NoError(t, err)
	res, err := c.Run(context.Background(), constant(1))
	require.NoError(t, err)

	// Every move on a flat landscape fails, so every agent is abandoned every
	// iteration.
	assert.Equal(t, c.Agents()*cfg.MaxIterations, res.Abandoned)
}

func TestDegenerateWeightsFallBackToUniform(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)

	// Zero on half of the domain makes inverse weighting degenerate.
	objective := optimization.Objective2D(func(x, y float64) float64 {
		if x < 0 {
			return 0
		}
		return x*x + y*y
	})

	cfg := DefaultConfig([2]float64{-5, 5}, [2]float64{-5, 5})
	cfg.Weighting = InverseWeighting
	cfg.ConvergenceThreshold = 0
	cfg.MaxIterations = 50
	cfg.RandomSeed = 17
	cfg.Logger = zap.New(core)

	c, err := New(cfg)
	require.NoError(t, err)
	res, err := c.Run(context.Background(), objective)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Best.Value)
	assert.Equal(t, cfg.MaxIterations, res.DegenerateSelections)
	assert.Equal(t, cfg.MaxIterations, logs.FilterMessage("Degenerate selection weights, selecting uniformly").Len())
}

func TestConfigureReplaysIdentically(t *testing.T) {
	cfg := DefaultConfig([2]float64{-10, 10}, [2]float64{-10, 10})
	cfg.MaxIterations = 300
	cfg.ConvergenceThreshold = 0
	cfg.Weighting = RankWeighting
	cfg.RandomSeed = 1234

	c, err := New(cfg)
	require.NoError(t, err)
	first, err := c.Run(context.Background(), shiftedSphere)
	require.NoError(t, err)

	require.NoError(t, c.Configure(cfg))
	second, err := c.Run(context.Background(), shiftedSphere)
	require.NoError(t, err)

	assert.Equal(t, first.Trace.Values, second.Trace.Values)
	assert.Equal(t, first.Best.Position(), second.Best.Position())
	assert.Equal(t, first.Evaluations, second.Evaluations)
}

func TestProgressInterval(t *testing.T) {
	cfg := DefaultConfig([2]float64{-10, 10}, [2]float64{-10, 10})
	cfg.MaxIterations = 20
	cfg.ConvergenceThreshold = 0
	cfg.ProgressInterval = 5
	cfg.RandomSeed = 5

	var seen []optimization.Progress
	cfg.Progress = func(p optimization.Progress) { seen = append(seen, p) }

	c, err := New(cfg)
	require.NoError(t, err)
	res, err := c.Run(context.Background(), shiftedSphere)
	require.NoError(t, err)

	require.Len(t, seen, 4)
	for i, p := range seen {
		assert.Equal(t, (i+1)*5, p.Iteration)
		assert.Equal(t, res.Trace.Values[p.Iteration], p.Best)
		assert.Equal(t, "colony", p.Algorithm)
	}
}

func TestObjectiveErrorAbortsRun(t *testing.T) {
	boom := errors.New("objective exploded")
	calls := 0
	objective := func(p []float64) (float64, error) {
		calls++
		if calls == 500 {
			return 0, boom
		}
		return shiftedSphere(p)
	}

	cfg := DefaultConfig([2]float64{-10, 10}, [2]float64{-10, 10})
	cfg.RandomSeed = 9
	c, err := New(cfg)
	require.NoError(t, err)

	res, err := c.Run(context.Background(), objective)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, boom))
	assert.True(t, errors.Is(err, optimization.ErrObjective))
	assert.Equal(t, 500, calls)
}

func TestRunHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	counting := func(p []float64) (float64, error) {
		calls++
		return shiftedSphere(p)
	}

	c, err := New(DefaultConfig([2]float64{-1, 1}, [2]float64{-1, 1}))
	require.NoError(t, err)

	res, err := c.Run(ctx, counting)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, calls, "a cancelled run must not evaluate the objective")

	_, err = c.Run(context.Background(), nil)
	assert.True(t, errors.Is(err, optimization.ErrInvalidConfig))
}

func TestRunErrorCarriesContext(t *testing.T) {
	c, err := New(DefaultConfig([2]float64{-1, 1}))
	require.NoError(t, err)

	// One bound for a two-coordinate objective.
	_, err = c.Run(context.Background(), shiftedSphere)
	e, ok := optimization.IsOptimizationError(err)
	require.True(t, ok)
	assert.Equal(t, "colony", e.Component)
	assert.Equal(t, "Run", e.Op)
	assert.ErrorIs(t, err, optimization.ErrObjective)
	assert.Contains(t, err.Error(), "expected 2 coordinates, got 1")
}

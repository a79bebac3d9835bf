// Package colony implements a bee-colony style population optimizer.
//
// Each iteration runs three phases over a fixed set of agents:
//
//   - exploitation: every agent perturbs its own food source relative to a
//     random point of the domain and keeps the result if it improves;
//   - selection: agents are reselected with a probability that grows with
//     their weight (better agents weigh more) and perturb again with a
//     shrinking step;
//   - abandonment: agents that failed to improve more than AbandonmentLimit
//     times restart from a perturbation of the global best.
//
// The run stops after MaxIterations or once the global best has moved by less
// than ConvergenceThreshold for StagnationRounds consecutive iterations.
package colony

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

const component = "colony"

// Lower bound of the exploitation step factor.
const minStep = 1e-4

// Config holds the colony's parameters.
type Config struct {
	// Bounds for each dimension [min, max]; pair order is not significant.
	Bounds [][2]float64

	// PopulationSize is the colony size; half of it are agents holding a
	// food source.
	PopulationSize   int
	AbandonmentLimit int

	ConvergenceThreshold float64
	StagnationRounds     int
	MaxIterations        int

	Weighting Weighting

	// ProgressInterval is the number of iterations between progress reports;
	// 0 disables them.
	ProgressInterval int

	// RandomSeed seeds the generator; 0 picks a time-based seed.
	RandomSeed int64

	// Verbose logs progress and the run summary at info level.
	Verbose bool

	Logger   *zap.Logger
	Progress optimization.ProgressFunc
}

// DefaultConfig returns the default parameters over the given bounds.
func DefaultConfig(bounds ...[2]float64) Config {
	return Config{
		Bounds:               bounds,
		PopulationSize:       100,
		AbandonmentLimit:     100,
		ConvergenceThreshold: 1e-2,
		StagnationRounds:     10,
		MaxIterations:        100000,
		Weighting:            FitnessWeighting,
		ProgressInterval:     100,
	}
}

// Colony owns all state of one colony run. It is not safe for concurrent
// use; create one Colony per goroutine.
type Colony struct {
	cfg    Config
	space  optimization.SearchSpace
	rng    *rand.Rand
	logger *zap.Logger

	pop  population
	best optimization.BestState
	conv convergence
}

// New validates cfg and returns a configured colony.
func New(cfg Config) (*Colony, error) {
	c := &Colony{}
	if err := c.Configure(cfg); err != nil {
		return nil, err
	}
	return c, nil
}

// Configure validates cfg and resets every piece of run state, including the
// random generator.
func (c *Colony) Configure(cfg Config) error {
	space, err := optimization.NewSearchSpace(cfg.Bounds...)
	if err != nil {
		return err
	}
	if err := validate(cfg); err != nil {
		return err
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	*c = Colony{
		cfg:    cfg,
		space:  space,
		rng:    rand.New(rand.NewSource(seed)),
		logger: logger.Named(component),
		pop:    make(population, cfg.PopulationSize/2),
		conv:   newConvergence(cfg.ConvergenceThreshold, cfg.StagnationRounds),
	}
	return nil
}

func validate(cfg Config) error {
	switch {
	case cfg.PopulationSize < 2:
		return optimization.ConfigErrorf(component, "population size must be at least 2, got %d", cfg.PopulationSize)
	case cfg.AbandonmentLimit < 0:
		return optimization.ConfigErrorf(component, "abandonment limit must not be negative, got %d", cfg.AbandonmentLimit)
	case math.IsNaN(cfg.ConvergenceThreshold) || cfg.ConvergenceThreshold < 0:
		return optimization.ConfigErrorf(component, "convergence threshold must be non-negative, got %v", cfg.ConvergenceThreshold)
	case cfg.StagnationRounds < 1:
		return optimization.ConfigErrorf(component, "stagnation rounds must be at least 1, got %d", cfg.StagnationRounds)
	case cfg.MaxIterations < 1:
		return optimization.ConfigErrorf(component, "max iterations must be at least 1, got %d", cfg.MaxIterations)
	case cfg.ProgressInterval < 0:
		return optimization.ConfigErrorf(component, "progress interval must not be negative, got %d", cfg.ProgressInterval)
	case cfg.Weighting < FitnessWeighting || cfg.Weighting > InverseWeighting:
		return optimization.ConfigErrorf(component, "unknown weighting %v", cfg.Weighting)
	}
	return nil
}

// Name implements optimization.Optimizer.
func (c *Colony) Name() string { return component }

// Agents returns the number of food-source agents.
func (c *Colony) Agents() int { return len(c.pop) }

// Optimize implements optimization.Optimizer.
func (c *Colony) Optimize(ctx context.Context, objective optimization.ObjectiveFunction) (*optimization.Result, error) {
	return c.Run(ctx, objective)
}

// Run searches until convergence or MaxIterations. The trace holds the global
// best after initialization followed by one value per iteration.
func (c *Colony) Run(ctx context.Context, objective optimization.ObjectiveFunction) (*optimization.Result, error) {
	const op = "Run"

	if objective == nil {
		return nil, optimization.ConfigErrorf(component, "objective function is required")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := &optimization.Result{Algorithm: component}
	if err := c.initialize(objective, res); err != nil {
		return nil, wrap(err, op)
	}

	trace := optimization.NewTrace(1024)
	trace.Record(c.best.Best.Value)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := c.exploit(objective, res); err != nil {
			return nil, wrap(err, op)
		}
		if err := c.recruit(objective, res); err != nil {
			return nil, wrap(err, op)
		}
		if err := c.abandon(objective, res); err != nil {
			return nil, wrap(err, op)
		}

		var delta float64
		if c.best.Offer(c.pop[c.pop.best()].food) {
			delta = c.best.Delta()
		}
		res.Iterations++
		trace.Record(c.best.Best.Value)

		if c.cfg.ProgressInterval > 0 && res.Iterations%c.cfg.ProgressInterval == 0 {
			c.report(res)
		}

		if c.conv.observe(delta) {
			res.StopReason = optimization.StopConverged
			res.Converged = true
			break
		}
		if res.Iterations >= c.cfg.MaxIterations {
			res.StopReason = optimization.StopMaxIterations
			break
		}
	}

	res.Best = c.best.Best
	res.Trace = trace
	res.Elapsed = time.Since(start)

	log := c.logger.Debug
	if c.cfg.Verbose {
		log = c.logger.Info
	}
	log("Colony finished",
		zap.Float64s("best_solution", res.Best.Position()),
		zap.Float64("best_value", res.Best.Value),
		zap.Int("iterations", res.Iterations),
		zap.Int("evaluations", res.Evaluations),
		zap.Int("abandoned", res.Abandoned),
		zap.Int("degenerate_selections", res.DegenerateSelections),
		zap.Duration("elapsed", res.Elapsed),
		zap.String("stop_reason", string(res.StopReason)),
	)
	return res, nil
}

func (c *Colony) initialize(objective optimization.ObjectiveFunction, res *optimization.Result) error {
	for i := range c.pop {
		food, err := optimization.Evaluate(objective, c.space.Sample(c.rng))
		if err != nil {
			return err
		}
		res.Evaluations++
		c.pop[i] = agent{food: food}
	}
	c.best = optimization.NewBestState(c.pop[c.pop.best()].food)
	c.conv.reset()
	return nil
}

// exploit moves every agent relative to a random point of the domain.
func (c *Colony) exploit(objective optimization.ObjectiveFunction, res *optimization.Result) error {
	for i := range c.pop {
		ref := c.space.Sample(c.rng)
		next := c.pop[i].food.Position()
		for d := range next {
			r1 := 2*c.rng.Float64() - 1
			r2 := minStep + c.rng.Float64()*(1-minStep)
			next[d] += r1 * r2 * (next[d] - ref[d])
		}
		food, err := optimization.Evaluate(objective, c.space.Clamp(next))
		if err != nil {
			return err
		}
		res.Evaluations++
		c.pop.offer(i, food)
	}
	return nil
}

// recruit gives better agents a higher chance of a second, finer move. The
// reference point of that move lies between the domain anchor and the agent's
// own coordinate, and the step shrinks by a random power of a uniform draw.
func (c *Colony) recruit(objective optimization.ObjectiveFunction, res *optimization.Result) error {
	w, degenerate := weights(c.cfg.Weighting, c.pop.values())
	if degenerate {
		res.DegenerateSelections++
		c.logger.Warn("Degenerate selection weights, selecting uniformly",
			zap.Error(optimization.ErrDegenerateWeights),
			zap.Int("iteration", res.Iterations+1),
			zap.String("weighting", c.cfg.Weighting.String()),
		)
	}
	q := reselectProbabilities(w)

	for i := range c.pop {
		if c.rng.Float64() >= q[i] {
			continue
		}
		next := c.pop[i].food.Position()
		for d := range next {
			ref := between(anchor(c.space[d]), next[d], c.rng.Float64())
			r1 := 2*c.rng.Float64() - 1
			r2 := c.rng.Float64()
			k := c.rng.Intn(4)
			next[d] += r1 * math.Pow(r2, float64(k)) * (next[d] - ref)
		}
		food, err := optimization.Evaluate(objective, c.space.Clamp(next))
		if err != nil {
			return err
		}
		res.Evaluations++
		c.pop.offer(i, food)
	}
	return nil
}

// abandon restarts exhausted agents around the global best.
func (c *Colony) abandon(objective optimization.ObjectiveFunction, res *optimization.Result) error {
	for i := range c.pop {
		if c.pop[i].trials <= c.cfg.AbandonmentLimit {
			continue
		}
		ref := c.space.Sample(c.rng)
		next := c.best.Best.Position()
		for d := range next {
			r := 2*c.rng.Float64() - 1
			next[d] += r * (next[d] - ref[d])
		}
		food, err := optimization.Evaluate(objective, c.space.Clamp(next))
		if err != nil {
			return err
		}
		res.Evaluations++
		res.Abandoned++
		c.pop.replace(i, food)
	}
	return nil
}

func (c *Colony) report(res *optimization.Result) {
	if c.cfg.Progress != nil {
		c.cfg.Progress(optimization.Progress{
			Algorithm: component,
			Iteration: res.Iterations,
			Best:      c.best.Best.Value,
		})
	}
	log := c.logger.Debug
	if c.cfg.Verbose {
		log = c.logger.Info
	}
	log("Colony progress",
		zap.Int("iteration", res.Iterations),
		zap.Float64s("best_solution", c.best.Best.Position()),
		zap.Float64("best_value", c.best.Best.Value),
		zap.Int("stagnant_rounds", c.conv.streak),
	)
}

func wrap(err error, op string) error {
	// A direct assertion keeps an *Error returned by the objective nested
	// under ErrObjective instead of surfacing it.
	e, ok := err.(*optimization.Error)
	if !ok {
		return optimization.WrapError(err, "run aborted").WithOperation(op).WithComponent(component)
	}
	if e.Op == "" {
		e.WithOperation(op)
	}
	if e.Component == "" {
		e.WithComponent(component)
	}
	return e
}

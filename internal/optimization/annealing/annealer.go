// Package annealing implements a simulated-annealing style optimizer over a
// box-bounded search space.
//
// Every iteration draws a fresh uniform sample over the whole domain rather
// than perturbing the current point. The sample replaces the current point
// when it is better, or otherwise with Metropolis probability
// exp((current-new)/T). Temperature then cools geometrically. The best point
// ever seen is tracked separately and never regresses.
package annealing

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/optimization"
)

const component = "annealing"

// Config holds the annealer's parameters.
type Config struct {
	// Bounds for each dimension [min, max]; pair order is not significant.
	Bounds [][2]float64

	InitialTemp   float64
	FinalTemp     float64
	MaxIterations int

	// MaxTime bounds RunByTime. The cooling rate is still derived from
	// MaxIterations, so the temperature at the deadline depends on how many
	// iterations fit into MaxTime.
	MaxTime time.Duration

	// RandomSeed seeds the generator; 0 picks a time-based seed.
	RandomSeed int64

	// Verbose logs the run summary at info level instead of debug.
	Verbose bool

	Logger   *zap.Logger
	Progress optimization.ProgressFunc

	// Now overrides the clock used by RunByTime. Nil means time.Now.
	Now func() time.Time
}

// DefaultConfig returns the default parameters over the given bounds.
func DefaultConfig(bounds ...[2]float64) Config {
	return Config{
		Bounds:        bounds,
		InitialTemp:   1,
		FinalTemp:     0.1,
		MaxIterations: 1000,
		MaxTime:       100 * time.Second,
	}
}

// Annealer owns all state of one annealing run. It is not safe for
// concurrent use; create one Annealer per goroutine.
type Annealer struct {
	cfg      Config
	space    optimization.SearchSpace
	schedule Schedule
	rng      *rand.Rand
	logger   *zap.Logger
	now      func() time.Time

	temperature float64
	current     optimization.Candidate
	best        optimization.BestState
}

// New validates cfg and returns a configured annealer.
func New(cfg Config) (*Annealer, error) {
	a := &Annealer{}
	if err := a.Configure(cfg); err != nil {
		return nil, err
	}
	return a, nil
}

// Configure validates cfg and resets every piece of run state, including the
// random generator. Configuring twice with the same non-zero seed replays the
// same run.
func (a *Annealer) Configure(cfg Config) error {
	space, err := optimization.NewSearchSpace(cfg.Bounds...)
	if err != nil {
		return err
	}
	schedule, err := NewGeometricSchedule(cfg.InitialTemp, cfg.FinalTemp, cfg.MaxIterations)
	if err != nil {
		return err
	}
	if cfg.MaxTime < 0 {
		return optimization.ConfigErrorf(component, "max time must not be negative, got %v", cfg.MaxTime)
	}

	seed := cfg.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	*a = Annealer{
		cfg:         cfg,
		space:       space,
		schedule:    schedule,
		rng:         rand.New(rand.NewSource(seed)),
		logger:      logger.Named(component),
		now:         now,
		temperature: schedule.Initial,
	}
	return nil
}

// Name implements optimization.Optimizer.
func (a *Annealer) Name() string { return component }

// Optimize implements optimization.Optimizer using the temperature-bounded
// run.
func (a *Annealer) Optimize(ctx context.Context, objective optimization.ObjectiveFunction) (*optimization.Result, error) {
	return a.RunByIteration(ctx, objective)
}

// Schedule returns the cooling schedule derived at configuration time.
func (a *Annealer) Schedule() Schedule { return a.schedule }

// Temperature returns the current temperature.
func (a *Annealer) Temperature() float64 { return a.temperature }

// RunByIteration anneals until the temperature reaches FinalTemp, which takes
// about MaxIterations iterations. The trace holds one value per iteration
// plus the initial one.
func (a *Annealer) RunByIteration(ctx context.Context, objective optimization.ObjectiveFunction) (*optimization.Result, error) {
	const op = "RunByIteration"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.initialize(objective); err != nil {
		return nil, wrap(err, op)
	}

	res := &optimization.Result{Algorithm: component, Evaluations: 1}
	trace := optimization.NewTrace(a.schedule.Steps + 2)
	trace.Record(a.best.Best.Value)

	start := a.now()
	for !a.schedule.Done(a.temperature) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.step(objective, res); err != nil {
			return nil, wrap(err, op)
		}
		trace.Record(a.best.Best.Value)
	}

	a.finish(res, trace, a.now().Sub(start), optimization.StopTemperature)
	return res, nil
}

// RunByTime anneals until MaxTime of wall-clock time has elapsed. The clock is
// polled once per iteration, so a slow objective can overrun the budget by up
// to one iteration. Trace.Elapsed holds one entry per iteration.
func (a *Annealer) RunByTime(ctx context.Context, objective optimization.ObjectiveFunction) (*optimization.Result, error) {
	const op = "RunByTime"

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.initialize(objective); err != nil {
		return nil, wrap(err, op)
	}

	res := &optimization.Result{Algorithm: component, Evaluations: 1}
	trace := optimization.NewTrace(a.schedule.Steps + 2)
	trace.Record(a.best.Best.Value)

	start := a.now()
	var elapsed time.Duration
	for elapsed < a.cfg.MaxTime {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.step(objective, res); err != nil {
			return nil, wrap(err, op)
		}
		elapsed = a.now().Sub(start)
		trace.RecordAt(a.best.Best.Value, elapsed)
	}

	a.finish(res, trace, elapsed, optimization.StopTime)
	return res, nil
}

// initialize evaluates one random starting point and resets the schedule.
func (a *Annealer) initialize(objective optimization.ObjectiveFunction) error {
	if objective == nil {
		return optimization.ConfigErrorf(component, "objective function is required")
	}
	c, err := optimization.Evaluate(objective, a.space.Sample(a.rng))
	if err != nil {
		return err
	}
	a.temperature = a.schedule.Initial
	a.current = c
	a.best = optimization.NewBestState(c)
	return nil
}

// step runs one sample/accept/cool iteration.
func (a *Annealer) step(objective optimization.ObjectiveFunction, res *optimization.Result) error {
	c, err := optimization.Evaluate(objective, a.space.Sample(a.rng))
	if err != nil {
		return err
	}
	res.Evaluations++

	if c.Better(a.current) {
		a.current = c
	} else if accept(a.current.Value, c.Value, a.temperature, a.rng) {
		a.current = c
		res.Accepted++
	}
	a.best.Offer(c)

	a.temperature = a.schedule.Next(a.temperature)
	res.Iterations++

	if a.cfg.Progress != nil {
		a.cfg.Progress(optimization.Progress{
			Algorithm:   component,
			Iteration:   res.Iterations,
			Best:        a.best.Best.Value,
			Temperature: a.temperature,
		})
	}
	return nil
}

// accept applies the Metropolis criterion for a candidate that does not
// improve on the current point. The probability lies in (0, 1].
func accept(current, candidate, temperature float64, rng *rand.Rand) bool {
	r := rng.Float64()
	return r < math.Exp((current-candidate)/temperature)
}

func (a *Annealer) finish(res *optimization.Result, trace optimization.Trace, elapsed time.Duration, reason optimization.StopReason) {
	res.Best = a.best.Best
	res.Trace = trace
	res.Elapsed = elapsed
	res.StopReason = reason
	res.Converged = reason == optimization.StopTemperature
	res.FinalTemperature = a.temperature

	log := a.logger.Debug
	if a.cfg.Verbose {
		log = a.logger.Info
	}
	log("Annealing finished",
		zap.Float64s("best_solution", res.Best.Position()),
		zap.Float64("best_value", res.Best.Value),
		zap.Int("iterations", res.Iterations),
		zap.Int("accepted", res.Accepted),
		zap.Float64("final_temperature", res.FinalTemperature),
		zap.Duration("elapsed", elapsed),
		zap.String("stop_reason", string(reason)),
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

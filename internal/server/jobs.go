package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/objective"
	"github.com/copyleftdev/annealhive/internal/optimization"
	"github.com/copyleftdev/annealhive/internal/optimization/annealing"
	"github.com/copyleftdev/annealhive/internal/optimization/colony"
	"github.com/copyleftdev/annealhive/internal/store"
)

var (
	errNotFound    = errors.New("optimization not found")
	errInvalidArgs = errors.New("invalid parameters")
)

// StartRequest describes a run to start. Zero-valued tuning fields take the
// server defaults.
type StartRequest struct {
	// Algorithm is "annealing" (default) or "colony".
	Algorithm string `json:"algorithm"`
	// Objective names a catalog function.
	Objective string `json:"objective"`
	// Bounds overrides the catalog bounds.
	Bounds [][]float64 `json:"bounds,omitempty"`
	// Mode selects the annealing termination: "iteration" (default) or "time".
	Mode string `json:"mode,omitempty"`
	Seed int64  `json:"seed,omitempty"`

	Annealing *AnnealingParams `json:"annealing,omitempty"`
	Colony    *ColonyParams    `json:"colony,omitempty"`
}

type AnnealingParams struct {
	InitialTemp    float64 `json:"initial_temp,omitempty"`
	FinalTemp      float64 `json:"final_temp,omitempty"`
	MaxIterations  int     `json:"max_iterations,omitempty"`
	MaxTimeSeconds float64 `json:"max_time_seconds,omitempty"`
}

type ColonyParams struct {
	PopulationSize       int      `json:"population_size,omitempty"`
	AbandonmentLimit     int      `json:"abandonment_limit,omitempty"`
	ConvergenceThreshold *float64 `json:"convergence_threshold,omitempty"`
	StagnationRounds     int      `json:"stagnation_rounds,omitempty"`
	MaxIterations        int      `json:"max_iterations,omitempty"`
	Weighting            string   `json:"weighting,omitempty"`
}

// job is the in-memory state of one run. The persisted record is written on
// submission and again when the run ends.
type job struct {
	mu       sync.RWMutex
	run      store.Run
	progress optimization.Progress
	seen     bool

	cancel context.CancelFunc
	done   chan struct{}
}

func (j *job) snapshot() (store.Run, optimization.Progress, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.run, j.progress, j.seen
}

func (j *job) observe(p optimization.Progress) {
	j.mu.Lock()
	j.progress = p
	j.seen = true
	j.mu.Unlock()
}

type runner func(ctx context.Context) (*optimization.Result, error)

// start validates req, registers a job and launches it. Configuration errors
// are returned before anything runs.
func (s *Server) start(req StartRequest) (store.Run, error) {
	fn, err := objective.Lookup(req.Objective)
	if err != nil {
		return store.Run{}, fmt.Errorf("%w: %v", errInvalidArgs, err)
	}

	bounds := fn.Bounds
	if len(req.Bounds) > 0 {
		bounds = make([][2]float64, len(req.Bounds))
		for i, b := range req.Bounds {
			if len(b) != 2 {
				return store.Run{}, fmt.Errorf("%w: invalid bounds format, expected [[min1, max1], [min2, max2]]", errInvalidArgs)
			}
			bounds[i] = [2]float64{b[0], b[1]}
		}
	}
	if len(bounds) != 2 {
		return store.Run{}, fmt.Errorf("%w: objective %s takes 2 dimensions, got %d bounds", errInvalidArgs, fn.Name, len(bounds))
	}

	j := &job{done: make(chan struct{})}
	exec, err := s.newRunner(req, bounds, fn.Objective(), j.observe)
	if err != nil {
		msg := err.Error()
		if e, ok := optimization.IsOptimizationError(err); ok && errors.Is(e, optimization.ErrInvalidConfig) {
			msg = e.Message
		}
		return store.Run{}, fmt.Errorf("%w: %s", errInvalidArgs, msg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	j.cancel = cancel
	j.run = store.Run{
		ID:        uuid.NewString(),
		Algorithm: algorithmName(req.Algorithm),
		Objective: fn.Name,
		Mode:      annealingMode(req),
		Status:    store.StatusPending,
		StartedAt: s.now().UTC(),
	}
	// The goroutine below owns j.run from here on.
	run := j.run

	s.jobsMu.Lock()
	s.jobs[run.ID] = j
	s.jobsMu.Unlock()

	s.persist(run)
	s.metrics.RunStarted(run.Algorithm)

	ticket := s.admit.enqueue()
	s.logger.Debug("Optimization queued",
		zap.String("optimization_id", run.ID),
		zap.Int("waiting", s.admit.queued()),
	)

	s.wg.Add(1)
	go s.execute(ctx, j, ticket, exec)

	return run, nil
}

func algorithmName(name string) string {
	if name == "" {
		return "annealing"
	}
	return strings.ToLower(name)
}

func annealingMode(req StartRequest) string {
	if algorithmName(req.Algorithm) != "annealing" {
		return ""
	}
	if req.Mode == "" {
		return "iteration"
	}
	return strings.ToLower(req.Mode)
}

// newRunner builds and validates the optimizer for req.
func (s *Server) newRunner(req StartRequest, bounds [][2]float64, f optimization.ObjectiveFunction, progress optimization.ProgressFunc) (runner, error) {
	defaults := s.cfg.Optimization
	logger := s.logger.With(zap.String("objective", req.Objective))

	switch algorithmName(req.Algorithm) {
	case "annealing":
		cfg := annealing.DefaultConfig(bounds...)
		cfg.InitialTemp = defaults.Anneal.InitialTemp
		cfg.FinalTemp = defaults.Anneal.FinalTemp
		cfg.MaxIterations = defaults.Anneal.MaxIterations
		cfg.MaxTime = defaults.Anneal.MaxTime
		if p := req.Annealing; p != nil {
			if p.InitialTemp != 0 {
				cfg.InitialTemp = p.InitialTemp
			}
			if p.FinalTemp != 0 {
				cfg.FinalTemp = p.FinalTemp
			}
			if p.MaxIterations != 0 {
				cfg.MaxIterations = p.MaxIterations
			}
			if p.MaxTimeSeconds != 0 {
				if math.IsNaN(p.MaxTimeSeconds) || p.MaxTimeSeconds < 0 {
					return nil, fmt.Errorf("max_time_seconds must be positive, got %v", p.MaxTimeSeconds)
				}
				cfg.MaxTime = time.Duration(p.MaxTimeSeconds * float64(time.Second))
			}
		}
		cfg.RandomSeed = req.Seed
		cfg.Logger = logger
		cfg.Progress = progress

		a, err := annealing.New(cfg)
		if err != nil {
			return nil, err
		}
		switch annealingMode(req) {
		case "iteration":
			return func(ctx context.Context) (*optimization.Result, error) { return a.RunByIteration(ctx, f) }, nil
		case "time":
			return func(ctx context.Context) (*optimization.Result, error) { return a.RunByTime(ctx, f) }, nil
		default:
			return nil, fmt.Errorf("unknown annealing mode %q", req.Mode)
		}

	case "colony":
		cfg := colony.DefaultConfig(bounds...)
		cfg.PopulationSize = defaults.Colony.PopulationSize
		cfg.AbandonmentLimit = defaults.Colony.AbandonmentLimit
		cfg.ConvergenceThreshold = defaults.Colony.ConvergenceThreshold
		cfg.StagnationRounds = defaults.Colony.StagnationRounds
		cfg.MaxIterations = defaults.Colony.MaxIterations
		weighting := defaults.Colony.Weighting
		if p := req.Colony; p != nil {
			if p.PopulationSize != 0 {
				cfg.PopulationSize = p.PopulationSize
			}
			if p.AbandonmentLimit != 0 {
				cfg.AbandonmentLimit = p.AbandonmentLimit
			}
			if p.ConvergenceThreshold != nil {
				cfg.ConvergenceThreshold = *p.ConvergenceThreshold
			}
			if p.StagnationRounds != 0 {
				cfg.StagnationRounds = p.StagnationRounds
			}
			if p.MaxIterations != 0 {
				cfg.MaxIterations = p.MaxIterations
			}
			if p.Weighting != "" {
				weighting = p.Weighting
			}
		}
		w, err := colony.ParseWeighting(strings.ToLower(weighting))
		if err != nil {
			return nil, err
		}
		cfg.Weighting = w
		cfg.RandomSeed = req.Seed
		cfg.Logger = logger
		cfg.Progress = progress

		c, err := colony.New(cfg)
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (*optimization.Result, error) { return c.Run(ctx, f) }, nil
	}
	return nil, fmt.Errorf("unknown algorithm %q", req.Algorithm)
}

// execute waits for a worker slot, runs the optimizer and records the
// outcome.
func (s *Server) execute(ctx context.Context, j *job, ticket chan struct{}, run runner) {
	defer s.wg.Done()
	defer close(j.done)
	defer j.cancel()

	j.mu.RLock()
	id, algorithm := j.run.ID, j.run.Algorithm
	j.mu.RUnlock()
	logger := s.logger.With(zap.String("optimization_id", id))

	if err := s.admit.wait(ctx, ticket); err != nil {
		s.finish(j, nil, err, logger)
		return
	}
	defer s.admit.release()

	j.mu.Lock()
	if j.run.Status == store.StatusPending {
		j.run.Status = store.StatusRunning
	}
	j.mu.Unlock()
	logger.Info("Optimization started", zap.String("algorithm", algorithm))

	res, err := run(ctx)
	s.finish(j, res, err, logger)
}

func (s *Server) finish(j *job, res *optimization.Result, err error, logger *zap.Logger) {
	now := s.now().UTC()

	j.mu.Lock()
	switch {
	case err == nil:
		j.run.Complete(res, now)
	case errors.Is(err, context.Canceled) || j.run.Status == store.StatusCancelled:
		j.run.Fail(store.StatusCancelled, err, now)
	default:
		j.run.Fail(store.StatusFailed, err, now)
	}
	run := j.run
	j.mu.Unlock()

	elapsed := run.FinishedAt.Sub(run.StartedAt)
	s.metrics.RunFinished(run.Algorithm, string(run.Status), elapsed, res)
	s.persist(run)

	if err != nil {
		if run.Status == store.StatusCancelled {
			logger.Info("Optimization cancelled")
			return
		}
		fields := []zap.Field{zap.Error(err)}
		if e, ok := optimization.IsOptimizationError(err); ok {
			fields = append(fields, zap.String("component", e.Component), zap.String("op", e.Op))
		}
		logger.Error("Optimization failed", fields...)
		return
	}

	logger.Info("Optimization completed",
		zap.Float64("best_value", run.BestValue),
		zap.Float64s("best_solution", run.Best),
		zap.Int("iterations", run.Iterations),
		zap.String("stop_reason", run.StopReason),
		zap.Duration("elapsed", elapsed),
	)
	if dir := s.cfg.Optimization.TraceDir; dir != "" {
		if err := writeTrace(dir, run.ID, res.Trace); err != nil {
			logger.Warn("Failed to write trace", zap.Error(err))
		}
	}
}

// cancelJob cancels a pending or running job. The run goroutine records the
// final state.
func (s *Server) cancelJob(id string) error {
	j, ok := s.job(id)
	if !ok {
		return errNotFound
	}

	j.mu.Lock()
	if j.run.Status.Terminal() {
		status := j.run.Status
		j.mu.Unlock()
		return fmt.Errorf("%w: cannot cancel optimization with status: %s", errInvalidArgs, status)
	}
	j.run.Status = store.StatusCancelled
	j.mu.Unlock()

	j.cancel()
	s.logger.Info("Optimization cancelled", zap.String("optimization_id", id))
	return nil
}

func (s *Server) persist(run store.Run) {
	// Runs are persisted even after the request context is gone.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.SaveRun(ctx, run); err != nil {
		s.logger.Error("Failed to persist run", zap.String("optimization_id", run.ID), zap.Error(err))
	}
}

func writeTrace(dir, id string, trace optimization.Trace) error {
	tw, err := store.CreateTraceFile(dir, id)
	if err != nil {
		return err
	}
	if err := tw.WriteTrace(trace); err != nil {
		_ = tw.Close()
		return err
	}
	return tw.Close()
}

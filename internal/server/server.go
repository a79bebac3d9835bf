package server

import (
	"context"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/config"
	"github.com/copyleftdev/annealhive/internal/metrics"
	"github.com/copyleftdev/annealhive/internal/store"
)

// Server implements the HTTP and JSON-RPC server for the optimization service.
// It manages optimization jobs and provides endpoints to start, monitor, and cancel them.
type Server struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   store.Store
	metrics *metrics.Metrics

	// admit bounds the number of concurrently executing runs.
	admit *admission
	wg    sync.WaitGroup
	now   func() time.Time

	// Optimization state management
	jobs   map[string]*job
	jobsMu sync.RWMutex // Protects the jobs map
}

// NewServer creates a new server instance. A non-nil store must already be
// initialized; a nil store is replaced by an in-memory one. m may be nil.
func NewServer(cfg *config.Config, logger *zap.Logger, st store.Store, m *metrics.Metrics) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if st == nil {
		mem := store.NewMemoryStore()
		_ = mem.Init(context.Background())
		st = mem
	}
	return &Server{
		cfg:     cfg,
		logger:  logger.Named("server"),
		store:   st,
		metrics: m,
		admit:   newAdmission(cfg.Optimization.WorkerCount),
		now:     time.Now,
		jobs:    make(map[string]*job),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/optimize", s.handleOptimize)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/optimization/{id}", s.handleCancel)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Get("/objectives", s.handleObjectives)
	})

	// JSON-RPC 2.0 endpoint
	r.Post("/rpc", s.handleJSONRPC)
}

// Close cancels every unfinished job and waits for their goroutines to
// persist their final state.
func (s *Server) Close() error {
	s.jobsMu.RLock()
	for _, j := range s.jobs {
		j.cancel()
	}
	s.jobsMu.RUnlock()

	s.wg.Wait()
	return nil
}

// Wait blocks until the job with id has finished or ctx is done.
func (s *Server) Wait(ctx context.Context, id string) error {
	j, ok := s.job(id)
	if !ok {
		return errNotFound
	}
	select {
	case <-j.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) job(id string) (*job, bool) {
	s.jobsMu.RLock()
	defer s.jobsMu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

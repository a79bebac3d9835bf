package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/copyleftdev/annealhive/internal/logging"
	"github.com/copyleftdev/annealhive/internal/objective"
	"github.com/copyleftdev/annealhive/internal/store"
)

// StatusView is the status document returned by the status endpoints.
type StatusView struct {
	ID          string       `json:"optimization_id"`
	Algorithm   string       `json:"algorithm"`
	Objective   string       `json:"objective"`
	Mode        string       `json:"mode,omitempty"`
	Status      store.Status `json:"status"`
	StartTime   string       `json:"start_time"`
	EndTime     string       `json:"end_time,omitempty"`
	Iteration   int          `json:"iteration"`
	CurrentBest *float64     `json:"current_best,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`

	BestSolution *Solution `json:"best_solution,omitempty"`
	Iterations   int       `json:"iterations,omitempty"`
	Evaluations  int       `json:"evaluations,omitempty"`
	StopReason   string    `json:"stop_reason,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Solution is a best point and its objective value.
type Solution struct {
	Parameters []float64 `json:"parameters"`
	Value      float64   `json:"value"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func (s *Server) status(id string) (StatusView, error) {
	j, ok := s.job(id)
	if !ok {
		return StatusView{}, errNotFound
	}
	run, progress, seen := j.snapshot()

	view := StatusView{
		ID:        run.ID,
		Algorithm: run.Algorithm,
		Objective: run.Objective,
		Mode:      run.Mode,
		Status:    run.Status,
		StartTime: run.StartedAt.Format(time.RFC3339Nano),
	}
	if seen {
		view.Iteration = progress.Iteration
		view.CurrentBest = finite(progress.Best)
		if run.Algorithm == "annealing" {
			view.Temperature = finite(progress.Temperature)
		}
	}
	if !run.FinishedAt.IsZero() {
		view.EndTime = run.FinishedAt.Format(time.RFC3339Nano)
	}
	if run.Status == store.StatusCompleted {
		view.BestSolution = &Solution{Parameters: run.Best, Value: run.BestValue}
		view.Iteration = run.Iterations
		view.Iterations = run.Iterations
		view.Evaluations = run.Evaluations
		view.StopReason = run.StopReason
	}
	view.Error = run.Error
	return view, nil
}

// handleOptimize handles the HTTP POST /optimize endpoint for starting a new optimization
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, r, http.StatusBadRequest, map[string]string{"error": "Invalid request body: " + err.Error()})
		return
	}

	run, err := s.start(req)
	if err != nil {
		s.respondJSON(w, r, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.respondJSON(w, r, http.StatusAccepted, map[string]string{
		"optimization_id": run.ID,
		"status":          string(run.Status),
	})
}

// handleStatus handles the HTTP GET /status/{id} endpoint for checking optimization status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	view, err := s.status(chi.URLParam(r, "id"))
	if err != nil {
		s.respondJSON(w, r, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	s.respondJSON(w, r, http.StatusOK, view)
}

// handleCancel handles the HTTP DELETE /optimization/{id} endpoint for canceling an optimization
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	err := s.cancelJob(chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, errNotFound):
		s.respondJSON(w, r, http.StatusNotFound, map[string]string{"error": err.Error()})
	case err != nil:
		s.respondJSON(w, r, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		s.respondJSON(w, r, http.StatusOK, map[string]string{"status": "cancellation requested"})
	}
}

// handleGetRun returns the persisted record, including the full trace.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	switch {
	case err != nil:
		s.respondJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	case !ok:
		s.respondJSON(w, r, http.StatusNotFound, map[string]string{"error": "run not found"})
	default:
		s.respondJSON(w, r, http.StatusOK, run)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			s.respondJSON(w, r, http.StatusBadRequest, map[string]string{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.respondJSON(w, r, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []store.Run{}
	}
	s.respondJSON(w, r, http.StatusOK, runs)
}

func (s *Server) handleObjectives(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, r, http.StatusOK, objective.All())
}

func (s *Server) respondJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.FromContext(r.Context()).Warn("Failed to encode response", zap.Error(err))
	}
}

// Package server exposes the sweep pipeline over HTTP: clients post a
// problem and strategy, poll the resulting job, and fetch the front
// when it completes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shaigundersen/Optimization-Project/internal/config"
	"github.com/shaigundersen/Optimization-Project/internal/logging"
	"github.com/shaigundersen/Optimization-Project/internal/pareto"
	"github.com/shaigundersen/Optimization-Project/internal/problem"
	"github.com/shaigundersen/Optimization-Project/internal/scalarize"
	"github.com/shaigundersen/Optimization-Project/internal/solver"
	"github.com/shaigundersen/Optimization-Project/internal/telemetry"
)

// Server runs sweeps in the background and answers the REST API.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	solver  solver.Solver
	metrics *telemetry.Metrics
	sweeps  *SweepManager
}

// NewServer wires a server around one solver backend. The solver is
// gated here, once, so sweeps running side by side still share a
// single mutual-exclusion gate when the backend cannot run
// concurrently.
func NewServer(cfg *config.Config, logger *logging.Logger, s solver.Solver, metrics *telemetry.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		logger:  logger,
		solver:  solver.Gated(s),
		metrics: metrics,
		sweeps:  NewSweepManager(),
	}
}

func (s *Server) RegisterRoutes(r chi.Router) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/sweeps", s.handleCreateSweep)
		r.Get("/sweeps", s.handleListSweeps)
		r.Get("/sweeps/{id}", s.handleGetSweep)
		r.Delete("/sweeps/{id}", s.handleCancelSweep)
		r.Get("/problems", s.handleListProblems)
		r.Get("/strategies", s.handleListStrategies)
	})

	r.Get("/healthz", s.handleHealth)
}

// Close cancels every sweep that is still running.
func (s *Server) Close() error {
	s.sweeps.CancelAll()
	return nil
}

// handleCreateSweep handles POST /api/v1/sweeps. The sweep is accepted
// immediately and solved in the background; the response carries the
// job ID to poll.
func (s *Server) handleCreateSweep(w http.ResponseWriter, r *http.Request) {
	var req SweepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Problem == "" {
		s.respondError(w, http.StatusBadRequest, "problem is required")
		return
	}
	if req.Strategy == "" {
		req.Strategy = "weighted-sum"
	}
	if req.Resolution <= 0 {
		req.Resolution = s.cfg.Sweep.Resolution
	}
	if req.Workers <= 0 {
		req.Workers = s.cfg.Sweep.Workers
	}

	p, err := problem.Lookup(req.Problem)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	strategy, err := scalarize.ForName(req.Strategy, s.solver)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	sweep := s.sweeps.Create(req, cancel)

	go s.runSweep(ctx, sweep.ID, p, strategy, req)

	s.logger.Info("sweep accepted", map[string]interface{}{
		"sweep_id":   sweep.ID,
		"problem":    req.Problem,
		"strategy":   req.Strategy,
		"resolution": req.Resolution,
		"workers":    req.Workers,
	})
	s.respondJSON(w, http.StatusCreated, sweep)
}

// handleGetSweep handles GET /api/v1/sweeps/{id}.
func (s *Server) handleGetSweep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sweep, ok := s.sweeps.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "sweep not found")
		return
	}
	s.respondJSON(w, http.StatusOK, sweep)
}

// handleListSweeps handles GET /api/v1/sweeps.
func (s *Server) handleListSweeps(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.sweeps.List())
}

// handleCancelSweep handles DELETE /api/v1/sweeps/{id}.
func (s *Server) handleCancelSweep(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := s.sweeps.Cancel(id)
	switch {
	case errors.Is(err, ErrSweepNotFound):
		s.respondError(w, http.StatusNotFound, "sweep not found")
		return
	case errors.Is(err, ErrSweepFinished):
		s.respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.logger.Info("sweep cancelled", map[string]interface{}{"sweep_id": id})
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cancellation requested"})
}

// handleListProblems handles GET /api/v1/problems.
func (s *Server) handleListProblems(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	names := problem.Names()
	out := make([]entry, 0, len(names))
	for _, name := range names {
		p, err := problem.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, entry{Name: p.Name, Description: p.Description})
	}
	s.respondJSON(w, http.StatusOK, out)
}

// handleListStrategies handles GET /api/v1/strategies.
func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, scalarize.StrategyNames())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// runSweep executes one sweep in a goroutine and records its terminal
// state. A sweep cancelled through the API keeps StateCancelled even
// though Build returns context.Canceled afterwards.
func (s *Server) runSweep(ctx context.Context, id string, p *problem.Problem, strategy scalarize.Strategy, req SweepRequest) {
	s.sweeps.Update(id, func(sw *Sweep) {
		if !sw.State.Terminal() {
			sw.State = StateRunning
		}
	})

	builder := pareto.NewBuilder(s.solver, pareto.Options{
		Workers:       req.Workers,
		DominanceTol:  s.cfg.Sweep.DominanceTol,
		CrossCheckTol: s.cfg.Sweep.CrossCheckTol,
		Logger:        s.logger,
		Metrics:       s.metrics,
	})
	front, warnings, err := builder.Build(ctx, p, strategy, req.Resolution)

	now := time.Now()
	s.sweeps.Update(id, func(sw *Sweep) {
		if sw.State == StateCancelled {
			if sw.EndTime == nil {
				sw.EndTime = &now
			}
			return
		}
		sw.EndTime = &now
		sw.Warnings = warnings
		switch {
		case err == nil:
			sw.State = StateCompleted
			sw.Front = front
		case errors.Is(err, context.Canceled):
			sw.State = StateCancelled
		default:
			sw.State = StateFailed
			sw.Error = err.Error()
		}
	})

	if err != nil {
		s.logger.Error("sweep finished with error", map[string]interface{}{
			"sweep_id": id,
			"error":    err.Error(),
		})
		return
	}
	s.logger.Info("sweep completed", map[string]interface{}{
		"sweep_id":   id,
		"front_size": len(front),
		"warnings":   len(warnings),
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// maxListLimit caps ?limit on list endpoints
const maxListLimit = 100

// decodeOptimization reads and validates an optimization request, filling
// omitted fields from the server configuration
func (s *Server) decodeOptimization(w http.ResponseWriter, r *http.Request) (uuid.UUID, *types.OptimizationRequest, error) {
	userID, err := currentUser(r)
	if err != nil {
		return uuid.Nil, nil, err
	}

	var req types.OptimizationRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		return uuid.Nil, nil, err
	}
	if req.TargetScore == nil {
		target := s.cfg.Optimization.DefaultTargetScore
		req.TargetScore = &target
	}
	if req.MaxIterations == nil {
		iterations := s.cfg.Optimization.DefaultMaxIterations
		req.MaxIterations = &iterations
	}
	if err := validateRequest(&req); err != nil {
		return uuid.Nil, nil, err
	}
	return userID, &req, nil
}

// handleOptimize runs an optimization and answers with the final result
func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	userID, req, err := s.decodeOptimization(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	result, err := s.optimizer.RunWithProgress(r.Context(), userID, req, nil)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleOptimizeStream runs an optimization and streams its progress as
// server-sent events. The stream ends with one complete or error event.
func (s *Server) handleOptimizeStream(w http.ResponseWriter, r *http.Request) {
	userID, req, err := s.decodeOptimization(w, r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	progress := func(e optimize.Event) {
		if err := sse.WriteEvent(eventProgress, e); err != nil {
			s.logger.Debug("failed to write progress event", "stage", e.Stage, "error", err)
		}
	}

	result, err := s.optimizer.RunWithProgress(r.Context(), userID, req, progress)
	if err != nil {
		status, body := classify(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error("optimization stream failed", "kind", body.Kind, "error", err)
		}
		if werr := sse.WriteError(body); werr != nil {
			s.logger.Debug("failed to write error event", "error", werr)
		}
		return
	}
	if err := sse.WriteEvent(eventComplete, result); err != nil {
		s.logger.Debug("failed to write complete event", "error", err)
	}
}

func (s *Server) handleListOptimizations(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err = strconv.Atoi(v)
		if err != nil || limit < 1 || limit > maxListLimit {
			s.errorResponse(w, r, &ErrValidation{Field: "limit", Message: "must be between 1 and " + strconv.Itoa(maxListLimit)})
			return
		}
	}

	runs, err := s.store.ListOptimizationRuns(r.Context(), userID, limit)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleGetOptimization(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "optimization")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	run, err := s.store.GetOptimizationRun(r.Context(), userID, id)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if run == nil {
		s.errorResponse(w, r, &ErrNotFound{Resource: "optimization"})
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

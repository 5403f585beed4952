package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jonathan/resume-optimizer/internal/db"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// ScoreResumeRequest is the optional body of POST /api/v1/resumes/{id}/score
type ScoreResumeRequest struct {
	Config *types.ModelSettings `json:"config,omitempty"`
}

func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var filter db.ResumeFilter
	if v := r.URL.Query().Get("base"); v != "" {
		base, err := strconv.ParseBool(v)
		if err != nil {
			s.errorResponse(w, r, &ErrValidation{Field: "base", Message: "must be true or false"})
			return
		}
		filter.Base = &base
	}

	resumes, err := s.store.ListResumes(r.Context(), userID, filter)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resumes)
}

func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req types.CreateResumeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if req.JobID != nil {
		job, err := s.store.GetJob(r.Context(), userID, *req.JobID)
		if err != nil {
			s.errorResponse(w, r, err)
			return
		}
		if job == nil {
			s.errorResponse(w, r, &ErrNotFound{Resource: "job"})
			return
		}
	}

	created, err := s.store.CreateResume(r.Context(), &types.Resume{
		UserID:       userID,
		JobID:        req.JobID,
		Name:         req.Name,
		TargetRole:   req.TargetRole,
		IsBaseResume: req.IsBaseResume,
		Content:      req.Content,
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// loadResume resolves the {id} path segment to a resume owned by the caller
func (s *Server) loadResume(r *http.Request) (uuid.UUID, *types.Resume, error) {
	userID, err := currentUser(r)
	if err != nil {
		return uuid.Nil, nil, err
	}
	id, err := pathID(r, "resume")
	if err != nil {
		return uuid.Nil, nil, err
	}
	resume, err := s.store.GetResume(r.Context(), userID, id)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if resume == nil {
		return uuid.Nil, nil, &ErrNotFound{Resource: "resume"}
	}
	return userID, resume, nil
}

func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	_, resume, err := s.loadResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, resume)
}

func (s *Server) handleUpdateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "resume")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req types.UpdateResumeRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	saved, err := s.store.UpdateResume(r.Context(), &types.Resume{
		ID:         id,
		UserID:     userID,
		Name:       req.Name,
		TargetRole: req.TargetRole,
		Content:    req.Content,
		Version:    req.Version,
	})
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if saved == nil {
		s.errorResponse(w, r, &ErrNotFound{Resource: "resume"})
		return
	}
	s.jsonResponse(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "resume")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	s.deleteOwned(w, r, "resume", func() (bool, error) {
		return s.store.DeleteResume(r.Context(), userID, id)
	})
}

// handleScoreResume scores a stored resume against one of the caller's jobs
// without changing either
func (s *Server) handleScoreResume(w http.ResponseWriter, r *http.Request) {
	userID, resume, err := s.loadResume(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	jobID, err := uuid.Parse(r.URL.Query().Get("job_id"))
	if err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "job_id", Message: "a valid job_id query parameter is required"})
		return
	}
	var req ScoreResumeRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	job, err := s.store.GetJob(r.Context(), userID, jobID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if job == nil {
		s.errorResponse(w, r, &ErrNotFound{Resource: "job"})
		return
	}

	score, err := s.scorer.Score(r.Context(), resume, job, llm.ModelConfigFrom(req.Config))
	if err != nil {
		s.errorResponse(w, r, &ErrUpstream{Operation: "scoring", Cause: err})
		return
	}
	s.jsonResponse(w, http.StatusOK, score)
}

package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/resume-optimizer/internal/fetch"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/parsing"
	"github.com/jonathan/resume-optimizer/internal/types"
)

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	jobs, err := s.store.ListJobs(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, jobs)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req types.CreateJobRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	job := &types.Job{UserID: userID}
	req.Apply(job)
	created, err := s.store.CreateJob(r.Context(), job)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, created)
}

// handleImportJob fetches a posting by URL, has a model extract the job
// fields and stores the result
func (s *Server) handleImportJob(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if s.postings == nil || s.clients == nil {
		s.errorResponse(w, r, &ErrUnavailable{Feature: "job import"})
		return
	}

	var req types.ImportJobRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := fetch.ValidateURL(req.URL); err != nil {
		s.errorResponse(w, r, &ErrValidation{Field: "url", Message: err.Error()})
		return
	}

	ctx := r.Context()
	posting, err := s.postings.Posting(ctx, req.URL)
	switch {
	case errors.Is(err, fetch.ErrBlockedAddress):
		s.errorResponse(w, r, &ErrValidation{Field: "url", Message: "URL does not resolve to a public address"})
		return
	case err != nil:
		s.errorResponse(w, r, &ErrUpstream{Operation: "fetching job posting", Cause: err})
		return
	}

	client, err := s.clients.ClientFor(ctx, llm.ModelConfigFrom(req.Config))
	if err != nil {
		s.errorResponse(w, r, &ErrUpstream{Operation: "creating model client", Cause: err})
		return
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			s.logger.Warn("failed to close model client", "error", cerr)
		}
	}()

	parsed, err := parsing.ParseJob(ctx, posting.Text, posting.URL, client)
	if err != nil {
		s.errorResponse(w, r, &ErrUpstream{Operation: "parsing job posting", Cause: err})
		return
	}
	parsed.UserID = userID
	if parsed.URL == "" {
		parsed.URL = req.URL
	}

	created, err := s.store.CreateJob(ctx, parsed)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.logger.Info("job imported",
		"job_id", created.ID,
		"platform", posting.Platform,
		"rendered", posting.Rendered)
	s.jsonResponse(w, http.StatusCreated, created)
}

// loadJob resolves the {id} path segment to a job owned by the caller
func (s *Server) loadJob(r *http.Request) (*types.Job, error) {
	userID, err := currentUser(r)
	if err != nil {
		return nil, err
	}
	id, err := pathID(r, "job")
	if err != nil {
		return nil, err
	}
	job, err := s.store.GetJob(r.Context(), userID, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, &ErrNotFound{Resource: "job"}
	}
	return job, nil
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.loadJob(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, job)
}

func (s *Server) handleUpdateJob(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "job")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}

	var req types.UpdateJobRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		s.errorResponse(w, r, err)
		return
	}

	job := &types.Job{ID: id, UserID: userID}
	req.Apply(job)
	saved, err := s.store.UpdateJob(r.Context(), job)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if saved == nil {
		s.errorResponse(w, r, &ErrNotFound{Resource: "job"})
		return
	}
	s.jsonResponse(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	id, err := pathID(r, "job")
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	s.deleteOwned(w, r, "job", func() (bool, error) {
		return s.store.DeleteJob(r.Context(), userID, id)
	})
}

// deleteOwned answers 204 when del removed something and 404 otherwise
func (s *Server) deleteOwned(w http.ResponseWriter, r *http.Request, resource string, del func() (bool, error)) {
	deleted, err := del()
	if err != nil {
		s.errorResponse(w, r, err)
		return
	}
	if !deleted {
		s.errorResponse(w, r, &ErrNotFound{Resource: resource})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

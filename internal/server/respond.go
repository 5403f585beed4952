package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-optimizer/internal/server/middleware"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// maxBodyBytes caps request bodies; a resume with every section filled is far smaller
const maxBodyBytes = 1 << 20

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// errorResponse writes the structured error body for err. Server-side
// failures are logged with the request they belong to.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"kind", body.Kind,
			"error", err)
	}
	s.jsonResponse(w, status, ErrorResponse{Error: body})
}

// decodeJSON reads a JSON body into v. An empty body is allowed when
// optional is true.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, optional bool) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF) && optional:
		return nil
	case errors.Is(err, io.EOF):
		return &ErrValidation{Message: "request body is required"}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return &ErrValidation{Message: fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit)}
	}
	return &ErrValidation{Message: "invalid request body: " + err.Error()}
}

// validateRequest runs the shared validator and flattens its errors
func validateRequest(v interface{ Validate() error }) error {
	if err := v.Validate(); err != nil {
		return &ErrValidation{Message: types.ValidationMessage(err)}
	}
	return nil
}

// currentUser returns the authenticated user. Routes behind the auth
// middleware always carry one.
func currentUser(r *http.Request) (uuid.UUID, error) {
	id, err := middleware.GetUserID(r)
	if err != nil {
		return uuid.Nil, fmt.Errorf("missing authenticated user: %w", err)
	}
	return id, nil
}

// pathID parses the {id} path segment
func pathID(r *http.Request, resource string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, &ErrValidation{Field: "id", Message: "invalid " + resource + " id"}
	}
	return id, nil
}

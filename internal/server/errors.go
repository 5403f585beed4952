package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/server/middleware"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// Error kinds reported in the error body. The optimization kinds are shared
// with the optimize package.
const (
	KindValidation   = string(optimize.KindValidation)
	KindNotFound     = string(optimize.KindNotFound)
	KindConflict     = string(optimize.KindConflict)
	KindUnexpected   = string(optimize.KindUnexpected)
	KindUnauthorized = middleware.KindUnauthorized
	KindRateLimited  = "rate_limited"
	KindUnavailable  = "unavailable"
	KindUpstream     = "upstream"
)

// ErrorBody is the payload of every failure response
type ErrorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ErrorResponse wraps ErrorBody as {"error": {...}}
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// ErrEmailAlreadyExists indicates email is already registered
type ErrEmailAlreadyExists struct {
	Email string
}

func (e *ErrEmailAlreadyExists) Error() string {
	return fmt.Sprintf("email already registered: %s", e.Email)
}

// ErrInvalidCredentials indicates invalid login credentials
type ErrInvalidCredentials struct{}

func (e *ErrInvalidCredentials) Error() string {
	return "invalid email or password"
}

// ErrUserNotFound indicates user was not found
type ErrUserNotFound struct {
	UserID uuid.UUID
}

func (e *ErrUserNotFound) Error() string {
	return fmt.Sprintf("user not found: %s", e.UserID)
}

// ErrPasswordMismatch indicates current password is incorrect
type ErrPasswordMismatch struct{}

func (e *ErrPasswordMismatch) Error() string {
	return "current password is incorrect"
}

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Message
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrNotFound indicates a resource is missing or owned by someone else.
// Both cases read the same so ownership does not leak.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return e.Resource + " not found"
}

// ErrUnavailable indicates a feature the server was started without
type ErrUnavailable struct {
	Feature string
}

func (e *ErrUnavailable) Error() string {
	return e.Feature + " is not configured on this server"
}

// ErrUpstream indicates a fetch or model call failed. Its message is safe to
// show the caller.
type ErrUpstream struct {
	Operation string
	Cause     error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Operation, e.Cause)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Cause
}

// classify maps an error to its HTTP status, kind and client-facing message.
// Unexpected errors get a generic message; their detail stays in the logs.
func classify(err error) (int, ErrorBody) {
	var (
		emailExists *ErrEmailAlreadyExists
		badCreds    *ErrInvalidCredentials
		mismatch    *ErrPasswordMismatch
		userMissing *ErrUserNotFound
		invalid     *ErrValidation
		missing     *ErrNotFound
		optErr      *optimize.Error
		unavailable *ErrUnavailable
		upstream    *ErrUpstream
	)

	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, ErrorBody{KindValidation, invalid.Error()}
	case errors.As(err, &missing):
		return http.StatusNotFound, ErrorBody{KindNotFound, missing.Error()}
	case errors.As(err, &userMissing):
		return http.StatusNotFound, ErrorBody{KindNotFound, userMissing.Error()}
	case errors.As(err, &emailExists):
		return http.StatusConflict, ErrorBody{KindConflict, emailExists.Error()}
	case errors.As(err, &badCreds):
		return http.StatusUnauthorized, ErrorBody{KindUnauthorized, badCreds.Error()}
	case errors.As(err, &mismatch):
		return http.StatusUnauthorized, ErrorBody{KindUnauthorized, mismatch.Error()}
	case errors.As(err, &optErr):
		return statusForKind(optErr.Kind), ErrorBody{string(optErr.Kind), optErr.Message}
	case errors.As(err, &unavailable):
		return http.StatusServiceUnavailable, ErrorBody{KindUnavailable, unavailable.Error()}
	case errors.As(err, &upstream):
		return http.StatusBadGateway, ErrorBody{KindUpstream, upstream.Error()}
	case errors.Is(err, types.ErrVersionConflict):
		return http.StatusConflict, ErrorBody{KindConflict, types.ErrVersionConflict.Error()}
	}
	return http.StatusInternalServerError, ErrorBody{KindUnexpected, "internal server error"}
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	status, _ := classify(err)
	return status
}

func statusForKind(kind optimize.Kind) int {
	switch kind {
	case optimize.KindValidation:
		return http.StatusBadRequest
	case optimize.KindNotFound:
		return http.StatusNotFound
	case optimize.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

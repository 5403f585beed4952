package types

import (
	"time"

	"github.com/google/uuid"
)

// Optimization defaults applied when the request leaves a field unset
const (
	DefaultTargetScore   = 85
	DefaultMaxIterations = 5
)

// TargetAchievedChange is the change entry recorded when the loop stops early
const TargetAchievedChange = "Target score achieved"

// ModelSettings is the opaque model-selection payload of an optimization
// request. It is forwarded untouched to the scoring and rewrite collaborators.
type ModelSettings struct {
	Provider      string            `json:"provider,omitempty"`
	Model         string            `json:"model,omitempty"`
	APIKeys       map[string]string `json:"api_keys,omitempty"`
	CustomPrompts map[string]string `json:"custom_prompts,omitempty"`
}

// OptimizationRequest is the validated input of an optimization run.
// Pointer fields distinguish "omitted" from an explicit zero.
type OptimizationRequest struct {
	BaseResumeID  string         `json:"base_resume_id" validate:"required,uuid"`
	JobID         string         `json:"job_id" validate:"required,uuid"`
	TargetScore   *int           `json:"target_score,omitempty" validate:"omitempty,min=0,max=100"`
	MaxIterations *int           `json:"max_iterations,omitempty" validate:"omitempty,min=1,max=10"`
	Config        *ModelSettings `json:"config,omitempty"`
}

// Validate validates the OptimizationRequest.
func (r *OptimizationRequest) Validate() error {
	return validate.Struct(r)
}

// Target returns the requested target score or the default
func (r *OptimizationRequest) Target() int {
	if r.TargetScore == nil {
		return DefaultTargetScore
	}
	return *r.TargetScore
}

// Iterations returns the requested iteration budget or the default
func (r *OptimizationRequest) Iterations() int {
	if r.MaxIterations == nil {
		return DefaultMaxIterations
	}
	return *r.MaxIterations
}

// ParsedIDs returns the base resume and job identifiers. Call after Validate.
func (r *OptimizationRequest) ParsedIDs() (baseResumeID, jobID uuid.UUID, err error) {
	baseResumeID, err = uuid.Parse(r.BaseResumeID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	jobID, err = uuid.Parse(r.JobID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return baseResumeID, jobID, nil
}

// OptimizationIterationRecord is one entry of the optimization history.
// Score is the overall score observed at the start of the iteration.
type OptimizationIterationRecord struct {
	Iteration int       `json:"iteration"`
	Score     int       `json:"score"`
	Changes   []string  `json:"changes"`
	Timestamp time.Time `json:"timestamp"`
}

// OptimizationResult is the successful outcome of an optimization run
type OptimizationResult struct {
	// RunID is set when the run was recorded in the optimization history
	RunID               *uuid.UUID                    `json:"run_id,omitempty"`
	Resume              *Resume                       `json:"resume"`
	Score               *ScoreResult                  `json:"score"`
	Iterations          int                           `json:"iterations"`
	TargetAchieved      bool                          `json:"target_achieved"`
	OptimizationHistory []OptimizationIterationRecord `json:"optimization_history"`
}

// RewriteResult is what the rewrite model returns: a new resume body and
// a human-readable list of what it changed.
type RewriteResult struct {
	Content ResumeContent `json:"content"`
	Changes []string      `json:"changes"`
}

// OptimizationRun is the persisted summary of one optimization run
type OptimizationRun struct {
	ID             uuid.UUID                     `json:"id"`
	UserID         uuid.UUID                     `json:"user_id"`
	BaseResumeID   uuid.UUID                     `json:"base_resume_id"`
	JobID          uuid.UUID                     `json:"job_id"`
	ResumeID       *uuid.UUID                    `json:"resume_id,omitempty"`
	TargetScore    int                           `json:"target_score"`
	MaxIterations  int                           `json:"max_iterations"`
	Status         string                        `json:"status"`
	FinalScore     *int                          `json:"final_score,omitempty"`
	TargetAchieved bool                          `json:"target_achieved"`
	Error          string                        `json:"error,omitempty"`
	History        []OptimizationIterationRecord `json:"optimization_history,omitempty"`
	CreatedAt      time.Time                     `json:"created_at"`
	CompletedAt    *time.Time                    `json:"completed_at,omitempty"`
}

// Optimization run statuses
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunOutcome is how an optimization run ended
type RunOutcome struct {
	Status         string
	ResumeID       *uuid.UUID
	FinalScore     *int
	TargetAchieved bool
	Error          string
}

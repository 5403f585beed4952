// Package optimize runs the iterative resume optimization loop: tailor a
// base resume to a job, then score and rewrite it until a target score is
// reached or the iteration budget runs out.
package optimize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// Store is the resume and job persistence the controller needs. Lookups are
// scoped to the owner and return nil, nil when nothing matches.
type Store interface {
	GetBaseResume(ctx context.Context, userID, resumeID uuid.UUID) (*types.Resume, error)
	GetJob(ctx context.Context, userID, jobID uuid.UUID) (*types.Job, error)
	CreateResume(ctx context.Context, resume *types.Resume) (*types.Resume, error)
	// UpdateResumeContent overwrites the content when the stored version
	// equals expectedVersion and returns types.ErrVersionConflict otherwise
	UpdateResumeContent(ctx context.Context, userID, resumeID uuid.UUID, content *types.ResumeContent, expectedVersion int) (*types.Resume, error)
}

// Scorer rates a resume against a job.
type Scorer interface {
	Score(ctx context.Context, resume *types.Resume, job *types.Job, mc llm.ModelConfig) (*types.ScoreResult, error)
}

// Rewriter produces new resume bodies.
type Rewriter interface {
	Tailor(ctx context.Context, base *types.Resume, job *types.Job, mc llm.ModelConfig) (*types.RewriteResult, error)
	Rewrite(ctx context.Context, instructions string, mc llm.ModelConfig) (*types.RewriteResult, error)
}

// HistoryRecorder persists runs and their iterations. Recording is best
// effort: failures are logged and never fail the run.
type HistoryRecorder interface {
	StartOptimizationRun(ctx context.Context, run *types.OptimizationRun) (*types.OptimizationRun, error)
	RecordIteration(ctx context.Context, runID uuid.UUID, record *types.OptimizationIterationRecord) error
	FinishOptimizationRun(ctx context.Context, runID uuid.UUID, outcome *types.RunOutcome) error
}

// Metrics receives run and collaborator call observations.
type Metrics interface {
	ObserveRun(outcome string, iterations, finalScore int, duration time.Duration)
	ObserveCall(operation string, err error)
}

// Run outcomes reported to Metrics.
const (
	OutcomeTargetAchieved  = "target_achieved"
	OutcomeBudgetExhausted = "budget_exhausted"
)

// Collaborator operations.
const (
	OpTailor  = "tailor"
	OpScore   = "score"
	OpRewrite = "rewrite"
)

// Progress stages.
const (
	StageStarted   = "started"
	StageTailored  = "tailored"
	StageScored    = "scored"
	StageRewritten = "rewritten"
	StageFinal     = "final_score"
)

// Event is a progress notification emitted while a run executes.
type Event struct {
	Stage     string    `json:"stage"`
	RunID     string    `json:"run_id,omitempty"`
	ResumeID  string    `json:"resume_id,omitempty"`
	Iteration int       `json:"iteration,omitempty"`
	Score     int       `json:"score,omitempty"`
	Changes   []string  `json:"changes,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ProgressFunc receives progress events. It is called synchronously.
type ProgressFunc func(Event)

// Options configures a Controller.
type Options struct {
	Retry RetryPolicy
	// RunTimeout bounds a whole run; zero means no bound beyond the caller's context
	RunTimeout time.Duration
	Recorder   HistoryRecorder
	Metrics    Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

// Controller executes optimization runs.
type Controller struct {
	store    Store
	scorer   Scorer
	rewriter Rewriter

	retry      RetryPolicy
	runTimeout time.Duration
	recorder   HistoryRecorder
	metrics    Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewController creates a Controller.
func NewController(store Store, scorer Scorer, rewriter Rewriter, opts Options) *Controller {
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		store:      store,
		scorer:     scorer,
		rewriter:   rewriter,
		retry:      opts.Retry,
		runTimeout: opts.RunTimeout,
		recorder:   opts.Recorder,
		metrics:    opts.Metrics,
		logger:     opts.Logger,
		now:        opts.Now,
	}
}

// runState carries one run's mutable state.
type runState struct {
	userID   uuid.UUID
	runID    uuid.UUID
	mc       llm.ModelConfig
	logger   *slog.Logger
	progress ProgressFunc
	history  []types.OptimizationIterationRecord
	lastTime time.Time
}

// Run executes one optimization run for userID.
func (c *Controller) Run(ctx context.Context, userID uuid.UUID, req *types.OptimizationRequest) (*types.OptimizationResult, error) {
	return c.RunWithProgress(ctx, userID, req, nil)
}

// RunWithProgress executes one optimization run and reports progress.
// Any failure aborts the run. Resume writes made before the failure stay
// committed.
func (c *Controller) RunWithProgress(ctx context.Context, userID uuid.UUID, req *types.OptimizationRequest, progress ProgressFunc) (*types.OptimizationResult, error) {
	if req == nil {
		return nil, validationError("request body is required", nil)
	}
	if err := req.Validate(); err != nil {
		return nil, validationError(types.ValidationMessage(err), err)
	}
	baseID, jobID, err := req.ParsedIDs()
	if err != nil {
		return nil, validationError("invalid identifier", err)
	}

	if c.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.runTimeout)
		defer cancel()
	}

	st := &runState{
		userID:   userID,
		mc:       llm.ModelConfigFrom(req.Config),
		progress: progress,
		logger:   c.logger.With("user_id", userID, "base_resume_id", baseID, "job_id", jobID),
	}
	target, budget := req.Target(), req.Iterations()
	started := c.now()

	base, job, err := c.loadInputs(ctx, userID, baseID, jobID)
	if err != nil {
		c.observeRun(string(KindOf(err)), 0, 0, started)
		return nil, err
	}

	c.startRun(ctx, st, &types.OptimizationRun{
		UserID:        userID,
		BaseResumeID:  baseID,
		JobID:         jobID,
		TargetScore:   target,
		MaxIterations: budget,
		Status:        types.RunStatusRunning,
	})
	st.emit(Event{Stage: StageStarted, Message: fmt.Sprintf("Optimizing for %s at %s", job.PositionTitle, job.CompanyName)}, c.now())

	result, err := c.loop(ctx, st, base, job, target, budget)
	c.finishRun(ctx, st, result, err)

	if err != nil {
		c.observeRun(string(KindOf(err)), len(st.history), 0, started)
		st.logger.Error("optimization failed", "iterations", len(st.history), "error", err)
		return nil, err
	}

	outcome := OutcomeBudgetExhausted
	if result.TargetAchieved {
		outcome = OutcomeTargetAchieved
	}
	c.observeRun(outcome, result.Iterations, result.Score.OverallScore.Score, started)
	st.logger.Info("optimization finished",
		"iterations", result.Iterations,
		"target_achieved", result.TargetAchieved,
		"final_score", result.Score.OverallScore.Score)
	return result, nil
}

// loadInputs resolves the base resume and job concurrently. A missing
// record and one owned by someone else produce the same error.
func (c *Controller) loadInputs(ctx context.Context, userID, baseID, jobID uuid.UUID) (*types.Resume, *types.Job, error) {
	var base *types.Resume
	var job *types.Job

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.store.GetBaseResume(gctx, userID, baseID)
		if err != nil {
			return unexpectedError("failed to load base resume", err)
		}
		if r == nil || !r.IsBaseResume {
			return notFoundError("base resume not found")
		}
		base = r
		return nil
	})
	g.Go(func() error {
		j, err := c.store.GetJob(gctx, userID, jobID)
		if err != nil {
			return unexpectedError("failed to load job", err)
		}
		if j == nil {
			return notFoundError("job not found")
		}
		job = j
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return base, job, nil
}

func (c *Controller) loop(ctx context.Context, st *runState, base *types.Resume, job *types.Job, target, budget int) (*types.OptimizationResult, error) {
	tailored, err := withRetry(ctx, c.retry, OpTailor, st.logger, c.observeCall, func(ctx context.Context) (*types.RewriteResult, error) {
		return c.rewriter.Tailor(ctx, base, job, st.mc)
	})
	if err != nil {
		return nil, collaboratorError(OpTailor, err)
	}

	resume, err := c.store.CreateResume(ctx, &types.Resume{
		UserID:       st.userID,
		JobID:        &job.ID,
		Name:         tailoredName(base, job),
		TargetRole:   job.PositionTitle,
		IsBaseResume: false,
		Content:      tailored.Content,
	})
	if err != nil {
		return nil, unexpectedError("failed to save tailored resume", err)
	}
	st.logger = st.logger.With("resume_id", resume.ID)
	st.emit(Event{Stage: StageTailored, ResumeID: resume.ID.String(), Changes: tailored.Changes, Message: "Created tailored resume"}, c.now())

	targetAchieved := false
	for i := 1; i <= budget; i++ {
		logger := st.logger.With("iteration", i)

		score, err := c.score(ctx, st, resume, job)
		if err != nil {
			return nil, err
		}
		current := score.OverallScore.Score
		logger.Info("resume scored", "score", current, "target", target)
		st.emit(Event{Stage: StageScored, Iteration: i, Score: current, Message: fmt.Sprintf("Iteration %d scored %d", i, current)}, c.now())

		if current >= target {
			c.appendRecord(ctx, st, i, current, []string{types.TargetAchievedChange})
			targetAchieved = true
			break
		}

		instructions, err := SynthesizePrompt(score, resume, job)
		if err != nil {
			return nil, unexpectedError("failed to build optimization prompt", err)
		}

		rewrite, err := withRetry(ctx, c.retry, OpRewrite, logger, c.observeCall, func(ctx context.Context) (*types.RewriteResult, error) {
			return c.rewriter.Rewrite(ctx, instructions, st.mc)
		})
		if err != nil {
			return nil, collaboratorError(OpRewrite, err)
		}

		updated, err := c.store.UpdateResumeContent(ctx, st.userID, resume.ID, &rewrite.Content, resume.Version)
		switch {
		case errors.Is(err, types.ErrVersionConflict):
			return nil, &Error{Kind: KindConflict, Message: "resume was modified by another request", Cause: err}
		case err != nil:
			return nil, unexpectedError("failed to save rewritten resume", err)
		case updated == nil:
			return nil, notFoundError("resume not found")
		}
		resume = updated

		changes := rewrite.Changes
		if changes == nil {
			changes = []string{}
		}
		rec := c.appendRecord(ctx, st, i, current, changes)
		logger.Info("resume rewritten", "changes", len(changes), "version", resume.Version)
		st.emit(Event{Stage: StageRewritten, Iteration: i, Score: current, Changes: rec.Changes, Message: fmt.Sprintf("Iteration %d applied %d changes", i, len(changes))}, c.now())
	}

	final, err := c.score(ctx, st, resume, job)
	if err != nil {
		return nil, err
	}
	st.emit(Event{Stage: StageFinal, Score: final.OverallScore.Score, Message: "Final score computed"}, c.now())

	result := &types.OptimizationResult{
		Resume:              resume,
		Score:               final,
		Iterations:          len(st.history),
		TargetAchieved:      targetAchieved,
		OptimizationHistory: st.history,
	}
	if st.runID != uuid.Nil {
		runID := st.runID
		result.RunID = &runID
	}
	return result, nil
}

func (c *Controller) score(ctx context.Context, st *runState, resume *types.Resume, job *types.Job) (*types.ScoreResult, error) {
	score, err := withRetry(ctx, c.retry, OpScore, st.logger, c.observeCall, func(ctx context.Context) (*types.ScoreResult, error) {
		return c.scorer.Score(ctx, resume, job, st.mc)
	})
	if err != nil {
		return nil, collaboratorError(OpScore, err)
	}
	return score, nil
}

// appendRecord adds an iteration to the history with a timestamp that
// never goes backwards, and records it.
func (c *Controller) appendRecord(ctx context.Context, st *runState, iteration, score int, changes []string) *types.OptimizationIterationRecord {
	ts := c.now()
	if ts.Before(st.lastTime) {
		ts = st.lastTime
	}
	st.lastTime = ts

	st.history = append(st.history, types.OptimizationIterationRecord{
		Iteration: iteration,
		Score:     score,
		Changes:   changes,
		Timestamp: ts,
	})
	rec := &st.history[len(st.history)-1]

	if c.recorder != nil && st.runID != uuid.Nil {
		if err := c.recorder.RecordIteration(ctx, st.runID, rec); err != nil {
			st.logger.Warn("failed to record iteration", "iteration", iteration, "error", err)
		}
	}
	return rec
}

func (c *Controller) startRun(ctx context.Context, st *runState, run *types.OptimizationRun) {
	if c.recorder == nil {
		return
	}
	saved, err := c.recorder.StartOptimizationRun(ctx, run)
	if err != nil {
		st.logger.Warn("failed to record optimization run", "error", err)
		return
	}
	st.runID = saved.ID
	st.logger = st.logger.With("run_id", saved.ID)
}

func (c *Controller) finishRun(ctx context.Context, st *runState, result *types.OptimizationResult, runErr error) {
	if c.recorder == nil || st.runID == uuid.Nil {
		return
	}
	outcome := &types.RunOutcome{Status: types.RunStatusCompleted}
	if runErr != nil {
		outcome.Status = types.RunStatusFailed
		outcome.Error = runErr.Error()
	} else {
		id := result.Resume.ID
		final := result.Score.OverallScore.Score
		outcome.ResumeID = &id
		outcome.FinalScore = &final
		outcome.TargetAchieved = result.TargetAchieved
	}
	// The run may have failed because ctx ended; the outcome is still recorded
	if err := c.recorder.FinishOptimizationRun(context.WithoutCancel(ctx), st.runID, outcome); err != nil {
		st.logger.Warn("failed to finish optimization run", "error", err)
	}
}

func (c *Controller) observeRun(outcome string, iterations, finalScore int, started time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveRun(outcome, iterations, finalScore, c.now().Sub(started))
	}
}

func (c *Controller) observeCall(operation string, err error) {
	if c.metrics != nil {
		c.metrics.ObserveCall(operation, err)
	}
}

func (st *runState) emit(e Event, now time.Time) {
	if st.progress == nil {
		return
	}
	if st.runID != uuid.Nil {
		e.RunID = st.runID.String()
	}
	e.Timestamp = now
	st.progress(e)
}

// collaboratorError wraps a tailoring, scoring or rewrite failure that
// survived the retry policy.
func collaboratorError(operation string, err error) *Error {
	return unexpectedError(fmt.Sprintf("%s failed", operation), err)
}

func tailoredName(base *types.Resume, job *types.Job) string {
	switch {
	case job.PositionTitle == "":
		return base.Name + " (tailored)"
	case job.CompanyName == "":
		return job.PositionTitle
	default:
		return fmt.Sprintf("%s - %s", job.PositionTitle, job.CompanyName)
	}
}

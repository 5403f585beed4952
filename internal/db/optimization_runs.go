package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-optimizer/internal/types"
)

const runColumns = `id, user_id, base_resume_id, job_id, resume_id, target_score, max_iterations,
	status, final_score, target_achieved, error, created_at, completed_at`

func scanRun(row pgx.Row) (*types.OptimizationRun, error) {
	var r types.OptimizationRun
	err := row.Scan(&r.ID, &r.UserID, &r.BaseResumeID, &r.JobID, &r.ResumeID, &r.TargetScore,
		&r.MaxIterations, &r.Status, &r.FinalScore, &r.TargetAchieved, &r.Error,
		&r.CreatedAt, &r.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// StartOptimizationRun records a run in the running state
func (db *DB) StartOptimizationRun(ctx context.Context, run *types.OptimizationRun) (*types.OptimizationRun, error) {
	saved, err := scanRun(db.pool.QueryRow(ctx,
		`INSERT INTO optimization_runs (user_id, base_resume_id, job_id, target_score, max_iterations, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+runColumns,
		run.UserID, run.BaseResumeID, run.JobID, run.TargetScore, run.MaxIterations, types.RunStatusRunning,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to start optimization run: %w", err)
	}
	return saved, nil
}

// RecordIteration stores one history entry of a run
func (db *DB) RecordIteration(ctx context.Context, runID uuid.UUID, rec *types.OptimizationIterationRecord) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO optimization_iterations (run_id, iteration, score, changes, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (run_id, iteration) DO UPDATE SET score = $3, changes = $4, created_at = $5`,
		runID, rec.Iteration, rec.Score, StringArray(rec.Changes), rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record iteration %d: %w", rec.Iteration, err)
	}
	return nil
}

// FinishOptimizationRun stores how a run ended
func (db *DB) FinishOptimizationRun(ctx context.Context, runID uuid.UUID, outcome *types.RunOutcome) error {
	tag, err := db.pool.Exec(ctx,
		`UPDATE optimization_runs
		 SET status = $2, resume_id = $3, final_score = $4, target_achieved = $5, error = $6, completed_at = NOW()
		 WHERE id = $1`,
		runID, outcome.Status, outcome.ResumeID, outcome.FinalScore, outcome.TargetAchieved, outcome.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to finish optimization run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("optimization run not found: %s", runID)
	}
	return nil
}

// GetOptimizationRun retrieves a run with its history. Returns nil, nil when
// the run does not exist or belongs to someone else.
func (db *DB) GetOptimizationRun(ctx context.Context, userID, runID uuid.UUID) (*types.OptimizationRun, error) {
	run, err := scanRun(db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM optimization_runs WHERE id = $1 AND user_id = $2`,
		runID, userID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get optimization run: %w", err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT iteration, score, changes, created_at
		 FROM optimization_iterations WHERE run_id = $1 ORDER BY iteration`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get optimization history: %w", err)
	}
	defer rows.Close()

	run.History = []types.OptimizationIterationRecord{}
	for rows.Next() {
		var rec types.OptimizationIterationRecord
		var changes StringArray
		if err := rows.Scan(&rec.Iteration, &rec.Score, &changes, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan iteration: %w", err)
		}
		rec.Changes = nonNil(changes)
		run.History = append(run.History, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get optimization history: %w", err)
	}
	return run, nil
}

// ListOptimizationRuns lists a user's runs, newest first, without history
func (db *DB) ListOptimizationRuns(ctx context.Context, userID uuid.UUID, limit int) ([]types.OptimizationRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := db.pool.Query(ctx,
		`SELECT `+runColumns+` FROM optimization_runs WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list optimization runs: %w", err)
	}
	defer rows.Close()

	runs := []types.OptimizationRun{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan optimization run: %w", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list optimization runs: %w", err)
	}
	return runs, nil
}

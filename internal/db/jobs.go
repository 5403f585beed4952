package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-optimizer/internal/types"
)

const jobColumns = `id, user_id, company_name, position_title, description, location, work_location,
	employment_type, salary_range, url, keywords, requirements, created_at, updated_at`

func scanJob(row pgx.Row) (*types.Job, error) {
	var j types.Job
	var keywords, requirements StringArray
	err := row.Scan(&j.ID, &j.UserID, &j.CompanyName, &j.PositionTitle, &j.Description, &j.Location,
		&j.WorkLocation, &j.EmploymentType, &j.SalaryRange, &j.URL, &keywords, &requirements,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.Keywords = nonNil(keywords)
	j.Requirements = nonNil(requirements)
	return &j, nil
}

// CreateJob inserts a job and returns the stored row
func (db *DB) CreateJob(ctx context.Context, j *types.Job) (*types.Job, error) {
	saved, err := scanJob(db.pool.QueryRow(ctx,
		`INSERT INTO jobs (user_id, company_name, position_title, description, location, work_location,
		                   employment_type, salary_range, url, keywords, requirements)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING `+jobColumns,
		j.UserID, j.CompanyName, j.PositionTitle, j.Description, j.Location, j.WorkLocation,
		j.EmploymentType, j.SalaryRange, j.URL, StringArray(j.Keywords), StringArray(j.Requirements),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	return saved, nil
}

// GetJob retrieves a job owned by userID. Returns nil, nil when not found.
func (db *DB) GetJob(ctx context.Context, userID, id uuid.UUID) (*types.Job, error) {
	j, err := scanJob(db.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return j, nil
}

// ListJobs lists a user's jobs, newest first
func (db *DB) ListJobs(ctx context.Context, userID uuid.UUID) ([]types.Job, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []types.Job{}
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, nil
}

// UpdateJob overwrites a job's fields. Returns nil, nil when the job does not
// exist or belongs to someone else.
func (db *DB) UpdateJob(ctx context.Context, j *types.Job) (*types.Job, error) {
	saved, err := scanJob(db.pool.QueryRow(ctx,
		`UPDATE jobs
		 SET company_name = $3, position_title = $4, description = $5, location = $6,
		     work_location = $7, employment_type = $8, salary_range = $9, url = $10,
		     keywords = $11, requirements = $12, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+jobColumns,
		j.ID, j.UserID, j.CompanyName, j.PositionTitle, j.Description, j.Location,
		j.WorkLocation, j.EmploymentType, j.SalaryRange, j.URL,
		StringArray(j.Keywords), StringArray(j.Requirements),
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update job: %w", err)
	}
	return saved, nil
}

// DeleteJob removes a job. Returns false when nothing was deleted.
func (db *DB) DeleteJob(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM jobs WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/resume-optimizer/internal/types"
)

const resumeColumns = `id, user_id, job_id, name, target_role, is_base_resume, content, version, created_at, updated_at`

const defaultListLimit = 100

func scanResume(row pgx.Row) (*types.Resume, error) {
	var r types.Resume
	var content []byte
	err := row.Scan(&r.ID, &r.UserID, &r.JobID, &r.Name, &r.TargetRole, &r.IsBaseResume,
		&content, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &r.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume content: %w", err)
	}
	return &r, nil
}

// CreateResume inserts a resume at version 1 and returns the stored row
func (db *DB) CreateResume(ctx context.Context, r *types.Resume) (*types.Resume, error) {
	content, err := json.Marshal(r.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume content: %w", err)
	}
	saved, err := scanResume(db.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, job_id, name, target_role, is_base_resume, content)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+resumeColumns,
		r.UserID, r.JobID, r.Name, r.TargetRole, r.IsBaseResume, content,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	return saved, nil
}

// GetResume retrieves a resume owned by userID. Returns nil, nil when the
// resume does not exist or belongs to someone else.
func (db *DB) GetResume(ctx context.Context, userID, id uuid.UUID) (*types.Resume, error) {
	r, err := scanResume(db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	return r, nil
}

// GetBaseResume is GetResume restricted to base resumes
func (db *DB) GetBaseResume(ctx context.Context, userID, id uuid.UUID) (*types.Resume, error) {
	r, err := scanResume(db.pool.QueryRow(ctx,
		`SELECT `+resumeColumns+` FROM resumes WHERE id = $1 AND user_id = $2 AND is_base_resume`,
		id, userID,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get base resume: %w", err)
	}
	return r, nil
}

// buildListResumesQuery returns the SQL and arguments for ListResumes
func buildListResumesQuery(userID uuid.UUID, filter ResumeFilter) (string, []any) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}

	query := `SELECT ` + resumeColumns + ` FROM resumes WHERE user_id = $1`
	args := []any{userID}
	argNum := 2

	if filter.Base != nil {
		query += fmt.Sprintf(" AND is_base_resume = $%d", argNum)
		args = append(args, *filter.Base)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d", argNum)
	args = append(args, filter.Limit)
	return query, args
}

// ListResumes lists a user's resumes, newest first
func (db *DB) ListResumes(ctx context.Context, userID uuid.UUID, filter ResumeFilter) ([]types.Resume, error) {
	query, args := buildListResumesQuery(userID, filter)
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	resumes := []types.Resume{}
	for rows.Next() {
		r, err := scanResume(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		resumes = append(resumes, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	return resumes, nil
}

// UpdateResume overwrites name, target role and content when r.Version is
// the stored version. The returned resume carries the incremented version.
func (db *DB) UpdateResume(ctx context.Context, r *types.Resume) (*types.Resume, error) {
	content, err := json.Marshal(r.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume content: %w", err)
	}
	saved, err := scanResume(db.pool.QueryRow(ctx,
		`UPDATE resumes
		 SET name = $4, target_role = $5, content = $6, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND version = $3
		 RETURNING `+resumeColumns,
		r.ID, r.UserID, r.Version, r.Name, r.TargetRole, content,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, db.missOrConflict(ctx, r.UserID, r.ID)
		}
		return nil, fmt.Errorf("failed to update resume: %w", err)
	}
	return saved, nil
}

// UpdateResumeContent overwrites only the content, guarded by expectedVersion.
// A stale version yields types.ErrVersionConflict; a missing or foreign
// resume yields nil, nil.
func (db *DB) UpdateResumeContent(ctx context.Context, userID, id uuid.UUID, content *types.ResumeContent, expectedVersion int) (*types.Resume, error) {
	body, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume content: %w", err)
	}
	saved, err := scanResume(db.pool.QueryRow(ctx,
		`UPDATE resumes
		 SET content = $4, version = version + 1, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND version = $3
		 RETURNING `+resumeColumns,
		id, userID, expectedVersion, body,
	))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, db.missOrConflict(ctx, userID, id)
		}
		return nil, fmt.Errorf("failed to update resume content: %w", err)
	}
	return saved, nil
}

// missOrConflict explains a guarded update that matched no row: nil when the
// resume is gone, types.ErrVersionConflict when it exists at another version
func (db *DB) missOrConflict(ctx context.Context, userID, id uuid.UUID) error {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM resumes WHERE id = $1 AND user_id = $2)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check resume: %w", err)
	}
	if exists {
		return types.ErrVersionConflict
	}
	return nil
}

// DeleteResume removes a resume. Returns false when nothing was deleted.
func (db *DB) DeleteResume(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`DELETE FROM resumes WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete resume: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

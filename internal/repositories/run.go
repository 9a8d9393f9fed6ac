package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

// RunRepository implements [models.RunStore] on SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create records a completed materialization.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(ctx, r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO runs (id, sequence, session_id, user_email, playlist_id, title, total, added, failed, quota_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		run.ID, sequence, run.SessionID, run.UserEmail, run.PlaylistID, run.Title,
		run.Total, run.Added, run.Failed, run.QuotaCost, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// ListByUser returns the newest runs for email. A non-positive limit returns all runs.
// An empty email lists runs for every user.
func (r *RunRepository) ListByUser(ctx context.Context, email string, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, session_id, user_email, playlist_id, title, total, added, failed, quota_cost, created_at
		FROM runs
	`
	args := []any{}

	if email != "" {
		query += " WHERE user_email = ?"
		args = append(args, email)
	}

	query += " ORDER BY sequence DESC"

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		err := rows.Scan(
			&run.ID, &run.SessionID, &run.UserEmail, &run.PlaylistID, &run.Title,
			&run.Total, &run.Added, &run.Failed, &run.QuotaCost, &run.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

var _ models.RunStore = (*RunRepository)(nil)

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

// SessionRepository implements [models.SessionStore] on SQLite.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, user_email, user_name, user_picture, access_token, refresh_token, expiry, created_at, updated_at`

// Create inserts a new session with a generated ID and sequence
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}

	sequence, err := NextSequence(ctx, r.db, "sessions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	if session.ID == "" {
		session.ID = shared.GenerateID()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	query := `
		INSERT INTO sessions (id, sequence, user_email, user_name, user_picture, access_token, refresh_token, expiry, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		session.ID, sequence, session.User.Email, session.User.Name, session.User.Picture,
		session.AccessToken, session.RefreshToken, nullTime(session.Expiry), session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	return nil
}

// Get retrieves a session by ID
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return session, nil
}

// Update writes identity and tokens back in a single statement.
func (r *SessionRepository) Update(ctx context.Context, session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}

	now := time.Now()

	query := `
		UPDATE sessions
		SET user_email = ?, user_name = ?, user_picture = ?, access_token = ?, refresh_token = ?, expiry = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		session.User.Email, session.User.Name, session.User.Picture,
		session.AccessToken, session.RefreshToken, nullTime(session.Expiry), now, session.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, session.ID)
	}

	session.UpdatedAt = now
	return nil
}

// Touch bumps updated_at only, so a concurrent token refresh is never overwritten.
func (r *SessionRepository) Touch(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE sessions SET updated_at = ? WHERE id = ?", time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return nil
}

// Delete removes a session. Deleting an unknown id is not an error.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// List returns all sessions in creation order
func (r *SessionRepository) List(ctx context.Context) ([]*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY sequence ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return sessions, nil
}

// DeleteExpired removes sessions whose last update is older than before.
func (r *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE updated_at < ?", before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s      models.Session
		expiry sql.NullTime
	)

	err := row.Scan(
		&s.ID, &s.User.Email, &s.User.Name, &s.User.Picture,
		&s.AccessToken, &s.RefreshToken, &expiry, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiry.Valid {
		s.Expiry = expiry.Time
	}
	return &s, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

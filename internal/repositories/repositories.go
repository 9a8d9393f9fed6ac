package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

// NextSequence atomically increments and returns the next sequence number for the given table.
//
// Sequence numbers are NOT exposed in API output but used internally for sorting and debugging.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequenceTable := table + "_sequence"

	_, err = tx.ExecContext(ctx, fmt.Sprintf("UPDATE %s SET value = value + 1 WHERE id = 1", sequenceTable))
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence: %w", err)
	}

	var sequence int
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT value FROM %s WHERE id = 1", sequenceTable)).Scan(&sequence)
	if err != nil {
		return 0, fmt.Errorf("failed to get sequence value: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit sequence transaction: %w", err)
	}

	return sequence, nil
}

// NewSessionStore returns the [models.SessionStore] selected by cfg.Backend.
//
// db is only used by the sqlite backend and may be nil otherwise.
func NewSessionStore(cfg shared.SessionConfig, db *sql.DB) (models.SessionStore, error) {
	switch cfg.Backend {
	case "", "sqlite":
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite session backend needs a database", shared.ErrInvalidConfig)
		}
		return NewSessionRepository(db), nil
	case "redis":
		return NewRedisSessionStore(RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL.Duration,
		}), nil
	case "memory":
		return NewMemorySessionStore(), nil
	default:
		return nil, fmt.Errorf("%w: unknown session backend %q", shared.ErrInvalidConfig, cfg.Backend)
	}
}

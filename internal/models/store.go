package models

import (
	"context"
	"time"
)

// SessionStore persists [Session] values. Get returns an error wrapping
// shared.ErrSessionNotFound for unknown ids.
type SessionStore interface {
	Get(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, session *Session) error // Create assigns the ID
	Update(ctx context.Context, session *Session) error
	Touch(ctx context.Context, id string) error // Touch marks the session as used now without rewriting its tokens
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
	DeleteExpired(ctx context.Context, before time.Time) (int, error) // DeleteExpired removes sessions last updated before the cutoff
}

// RunStore persists [Run] history.
type RunStore interface {
	Create(ctx context.Context, run *Run) error
	ListByUser(ctx context.Context, email string, limit int) ([]*Run, error)
}

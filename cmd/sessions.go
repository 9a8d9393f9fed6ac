package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/madc0w/playlister/internal/shared"
)

// sessionSummary is what 'sessions list' shows for a session. Tokens are never included.
type sessionSummary struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Expiry          time.Time `json:"expiry"`
	HasRefreshToken bool      `json:"hasRefreshToken"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// SessionsList prints every stored session, most recently used first.
func (r *Runner) SessionsList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	sessions, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	summaries := make([]sessionSummary, 0, len(sessions))
	for _, s := range sessions {
		summaries = append(summaries, sessionSummary{
			ID:              s.ID,
			Email:           s.User.Email,
			Expiry:          s.Expiry,
			HasRefreshToken: s.RefreshToken != "",
			CreatedAt:       s.CreatedAt,
			UpdatedAt:       s.UpdatedAt,
		})
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, true)
	}

	if len(summaries) == 0 {
		return r.writePlain("No sessions stored.\n")
	}

	r.writePlainHeader(fmt.Sprintf("Sessions (%d)", len(summaries)))
	for _, s := range summaries {
		refresh := "✓"
		if !s.HasRefreshToken {
			refresh = "✗"
		}
		r.writePlain("%s  %-30s  last used %s  refresh %s\n", s.ID, s.Email, s.UpdatedAt.Format("2006-01-02 15:04"), refresh)
	}
	return nil
}

// SessionsPrune deletes sessions idle for longer than --older-than, defaulting to the session TTL.
func (r *Runner) SessionsPrune(ctx context.Context, cmd *cli.Command) error {
	age := cmd.Duration("older-than")
	if age <= 0 {
		age = r.config.Session.TTL.Duration
	}
	if age <= 0 {
		return fmt.Errorf("%w: --older-than must be positive", shared.ErrInvalidArgument)
	}

	store, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	n, err := store.DeleteExpired(ctx, time.Now().Add(-age))
	if err != nil {
		return fmt.Errorf("failed to prune sessions: %w", err)
	}

	r.logger.Info("pruned sessions", "count", n, "older_than", age)
	return r.writePlain("✓ Removed %d session(s) idle for more than %s\n", n, age)
}

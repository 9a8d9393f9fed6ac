package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v3"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
	"github.com/madc0w/playlister/internal/ui"
)

// TUI launches the interactive playlist builder.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(filepath.Join(filepath.Dir(r.sessionFile), "tui.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	sessions, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	var session *models.Session
	if session, err = r.localSession(ctx, sessions); err != nil {
		if !errors.Is(err, shared.ErrUnauthorized) {
			return err
		}
		r.logger.Warn("starting TUI without a session", "error", err)
	}

	opts := ui.Options{
		Materializer: r.materializer(ctx, sessions),
		Session:      session,
		Genre:        cmd.String("genre"),
		Logger:       fileLogger,
	}
	if gen := r.generator(); gen != nil {
		opts.Generator = gen
	}

	p := tea.NewProgram(ui.NewModel(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

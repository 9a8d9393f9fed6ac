package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/madc0w/playlister/internal/server"
	"github.com/madc0w/playlister/internal/shared"
)

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if cmd.Bool("rollback") {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := shared.RollbackMigration(ctx, db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("✓ Rolled back the latest migration on %s\n", r.config.Database.Path)
	}

	if _, err := r.database(ctx); err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
}

// SetupConfig writes the example configuration file.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("path")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		return fmt.Errorf("%w: --path", shared.ErrMissingArgument)
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}
	r.logger.Info("config file created", "path", path)

	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set credentials.google.client_id and client_secret (or GOOGLE_CLIENT_ID / GOOGLE_CLIENT_SECRET)\n")
	r.writePlain("2. Set credentials.openai.api_key (or OPENAI_API_KEY)\n")
	r.writePlain("3. Replace session.secret with a long random string\n")
	r.writePlain("4. Run 'playlister setup database'\n")
	return nil
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if host := cmd.String("host"); host != "" {
		r.config.Server.Host = host
	}
	if port := cmd.Int("port"); port > 0 {
		r.config.Server.Port = port
	}
	if err := r.config.Validate(); err != nil {
		return err
	}

	sessions, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	if p, ok := sessions.(pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%w: session store: %v", shared.ErrServiceUnavailable, err)
		}
	}

	opts := server.Options{
		Config:       r.config,
		Sessions:     sessions,
		Runs:         r.runStore(ctx),
		Materializer: r.materializer(ctx, sessions),
		Identifier:   r.identifier,
		Logger:       r.logger,
	}
	if gen := r.generator(); gen != nil {
		opts.Generator = gen
	} else {
		r.logger.Warn("OPENAI_API_KEY is not set, playlist generation is disabled")
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("playlister listening", "addr", r.config.Server.Addr(), "sessions", r.config.Session.Backend)
	if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	r.logger.Info("server stopped")
	return nil
}

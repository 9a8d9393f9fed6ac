package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/urfave/cli/v3"

	"github.com/madc0w/playlister/internal/formatter"
	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/repositories"
	"github.com/madc0w/playlister/internal/shared"
	"github.com/madc0w/playlister/internal/tasks"
)

// Generate prints a track list for the given keywords.
func (r *Runner) Generate(ctx context.Context, cmd *cli.Command) error {
	keywords := strings.Join(cmd.Args().Slice(), " ")
	if strings.TrimSpace(keywords) == "" {
		return fmt.Errorf("%w: keywords", shared.ErrMissingArgument)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	tracks, err := r.generate(ctx, keywords, cmd.String("genre"))
	if err != nil {
		return err
	}

	data, err := formatter.RenderTracks(format, keywords, tracks)
	if err != nil {
		return err
	}
	return r.writeOutput(cmd.String("output"), format, data)
}

func (r *Runner) generate(ctx context.Context, keywords, genre string) ([]models.TrackRequest, error) {
	gen := r.generator()
	if gen == nil {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY or credentials.openai.api_key", shared.ErrMissingCredentials)
	}

	r.logger.Info("generating playlist", "keywords", keywords, "genre", genre)
	tracks, err := gen.Generate(ctx, keywords, genre)
	if err != nil {
		return nil, err
	}
	r.logger.Info("generated tracks", "count", len(tracks))
	return tracks, nil
}

// readTracks loads a JSON track list from path, or from the runner's input when path is "-".
func (r *Runner) readTracks(path string) ([]models.TrackRequest, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(r.input)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read track list: %w", err)
	}
	tracks, err := tasks.ParseTracks(string(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidInput, path, err)
	}
	return tracks, nil
}

// Create materializes a track list as a YouTube playlist for the signed-in account.
func (r *Runner) Create(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	input, keywords := cmd.String("input"), cmd.String("keywords")
	if (input == "") == (keywords == "") {
		return fmt.Errorf("%w: exactly one of --input or --keywords is required", shared.ErrInvalidArgument)
	}

	sessions, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	session, err := r.localSession(ctx, sessions)
	if err != nil {
		return err
	}

	var tracks []models.TrackRequest
	if input != "" {
		tracks, err = r.readTracks(input)
	} else {
		tracks, err = r.generate(ctx, keywords, cmd.String("genre"))
	}
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.materializer(ctx, sessions).Materialize(ctx, session, tasks.MaterializeRequest{
		Title:       cmd.String("title"),
		Description: cmd.String("description"),
		Tracks:      tracks,
		Progress:    progress,
	})
	close(progress)
	wg.Wait()
	if err != nil {
		return err
	}

	data, err := formatter.RenderResult(format, result)
	if err != nil {
		return err
	}
	return r.writeOutput(cmd.String("output"), format, data)
}

// History lists runs recorded for the signed-in account.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	sessions, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	session, err := r.localSession(ctx, sessions)
	if err != nil {
		return err
	}

	db, err := r.database(ctx)
	if err != nil {
		return err
	}

	runs, err := repositories.NewRunRepository(db).ListByUser(ctx, session.User.Email, cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	data, err := formatter.RenderRuns(format, runs)
	if err != nil {
		return err
	}
	return r.writeOutput(cmd.String("output"), format, data)
}

package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/madc0w/playlister/internal/formatter"
	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/repositories"
	"github.com/madc0w/playlister/internal/server"
	"github.com/madc0w/playlister/internal/services"
	"github.com/madc0w/playlister/internal/shared"
	"github.com/madc0w/playlister/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	api         *services.APIService
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       io.Reader
	sessionFile string

	db         *sql.DB
	sessions   models.SessionStore
	completion services.CompletionClient
	factory    services.VideoClientFactory
	exchanger  tasks.TokenExchanger
	identifier server.Identifier
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	API         *services.APIService
	HTTPClient  *http.Client
	Logger      *log.Logger
	Output      io.Writer
	Input       io.Reader
	SessionFile string // defaults to ~/.playlister/session

	// Optional overrides, used by tests in place of the real Google and OpenAI clients.
	Sessions   models.SessionStore
	Completion services.CompletionClient
	Factory    services.VideoClientFactory
	Exchanger  tasks.TokenExchanger
	Identifier server.Identifier
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(fmt.Sprintf("http://%s", opts.Config.Server.Addr()), opts.HTTPClient)
	}
	if opts.SessionFile == "" {
		opts.SessionFile = defaultSessionFile()
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		api:         opts.API,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       opts.Input,
		sessionFile: opts.SessionFile,
		sessions:    opts.Sessions,
		completion:  opts.Completion,
		factory:     opts.Factory,
		exchanger:   opts.Exchanger,
		identifier:  opts.Identifier,
	}
}

func defaultSessionFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".playlister", "session")
	}
	return filepath.Join(home, ".playlister", "session")
}

// SetLogger swaps the logger, e.g. to a file while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the database opened by any command.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// database opens the configured SQLite database once and applies pending migrations.
func (r *Runner) database(ctx context.Context) (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, err
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	r.db = db
	return db, nil
}

// sessionStore returns the configured session backend.
func (r *Runner) sessionStore(ctx context.Context) (models.SessionStore, error) {
	if r.sessions != nil {
		return r.sessions, nil
	}

	var db *sql.DB
	if r.config.Session.Backend == "" || r.config.Session.Backend == "sqlite" {
		var err error
		if db, err = r.database(ctx); err != nil {
			return nil, err
		}
	}

	store, err := repositories.NewSessionStore(r.config.Session, db)
	if err != nil {
		return nil, err
	}
	r.sessions = store
	return store, nil
}

// runStore returns the run history table, or nil when the database cannot be opened.
func (r *Runner) runStore(ctx context.Context) models.RunStore {
	db, err := r.database(ctx)
	if err != nil {
		r.logger.Warn("run history disabled", "error", err)
		return nil
	}
	return repositories.NewRunRepository(db)
}

func (r *Runner) oauthConfig() *oauth2.Config {
	return server.GoogleOAuthConfig(r.config.Credentials.Google)
}

func (r *Runner) cookies() *server.CookieSigner {
	return server.NewCookieSigner(r.config.Session.CookieName, r.config.Session.Secret, r.config.Session.TTL.Duration)
}

func (r *Runner) identify(ctx context.Context, tok *oauth2.Token) (models.User, error) {
	identifier := r.identifier
	if identifier == nil {
		identifier = server.NewGoogleIdentifier(ctx, r.config.Credentials.Google.ClientID)
	}
	return identifier.Identify(ctx, tok)
}

// generator returns nil when no OpenAI key is configured.
func (r *Runner) generator() *tasks.Generator {
	client := r.completion
	if client == nil {
		openai := services.NewOpenAIService(r.config.Credentials.OpenAI, r.config.Generator, r.httpClient)
		if !openai.Configured() {
			return nil
		}
		client = openai
	}
	return tasks.NewGenerator(client, r.config.Generator.Count, r.logger)
}

func (r *Runner) materializer(ctx context.Context, sessions models.SessionStore) *tasks.Materializer {
	exchanger := r.exchanger
	if exchanger == nil {
		exchanger = tasks.NewOAuthExchanger(r.oauthConfig())
	}
	factory := r.factory
	if factory == nil {
		factory = &services.YouTubeFactory{Endpoint: r.config.YouTube.Endpoint}
	}

	refresher := tasks.NewTokenRefresher(exchanger, sessions, r.config.Auth.RefreshThreshold.Duration, r.logger)
	return tasks.NewMaterializer(refresher, factory, r.runStore(ctx), tasks.MaterializerOptionsFromConfig(r.config), r.logger)
}

// saveSessionID remembers the CLI's signed-in session.
func (r *Runner) saveSessionID(id string) error {
	if err := os.MkdirAll(filepath.Dir(r.sessionFile), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(r.sessionFile, []byte(id+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

// localSession loads the session saved by 'auth login'.
func (r *Runner) localSession(ctx context.Context, store models.SessionStore) (*models.Session, error) {
	data, err := os.ReadFile(r.sessionFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: run 'playlister auth login' first", shared.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	id := strings.TrimSpace(string(data))
	session, err := store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: saved session is no longer valid, run 'playlister auth login': %v", shared.ErrUnauthorized, err)
	}
	return session, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, setupCommand, authCommand, generateCommand, createCommand,
		historyCommand, sessionsCommand, apiCommand, statusCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// writeOutput writes rendered data to path, or to the runner's output when path is empty.
func (r *Runner) writeOutput(path string, format formatter.Format, data []byte) error {
	if path == "" {
		if _, err := r.output.Write(data); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	written, err := formatter.WriteFile(path, format, data)
	if err != nil {
		return err
	}
	r.logger.Info("output written", "path", written)
	return r.writePlain("✓ Saved to %s\n", written)
}

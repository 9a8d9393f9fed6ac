// package server contains middleware & handlers for the playlister web service
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
	"github.com/madc0w/playlister/internal/tasks"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
// Common middleware includes logging, authentication, CORS, rate limiting, etc.
type Middleware func(http.Handler) http.Handler

// Handler defines the interface for HTTP request handlers that own their routes.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
// Implementations register handlers, apply middleware, and configure the HTTP server.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Options wires the web service to its collaborators.
type Options struct {
	Config       *shared.Config
	Sessions     models.SessionStore
	Runs         models.RunStore     // optional
	Generator    *tasks.Generator    // nil when no OpenAI key is configured
	Materializer *tasks.Materializer // required
	OAuth        *oauth2.Config      // defaults to GoogleOAuthConfig(Config.Credentials.Google)
	Identifier   Identifier          // defaults to Google id_token verification
	Logger       *log.Logger
}

// Server is the playlister HTTP API.
type Server struct {
	router     *BasicRouter
	httpServer *http.Server
	sessions   models.SessionStore
	sessionTTL time.Duration
	logger     *log.Logger
}

// New builds the server and registers every route, each also served under /api.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("%w: server config is required", shared.ErrMissingConfig)
	}
	if opts.Sessions == nil || opts.Materializer == nil {
		return nil, fmt.Errorf("%w: session store and materializer are required", shared.ErrInvalidConfig)
	}

	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	oauthConfig := opts.OAuth
	if oauthConfig == nil {
		oauthConfig = GoogleOAuthConfig(cfg.Credentials.Google)
	}
	identifier := opts.Identifier
	if identifier == nil {
		identifier = NewGoogleIdentifier(context.Background(), oauthConfig.ClientID)
	}

	ttl := cfg.Session.TTL.Duration
	cookies := NewCookieSigner(cfg.Session.CookieName, cfg.Session.Secret, ttl)
	limiter := NewRateLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)

	api := &API{
		sessions:     opts.Sessions,
		runs:         opts.Runs,
		generator:    opts.Generator,
		materializer: opts.Materializer,
		cookies:      cookies,
		logger:       shared.WithLogger(logger, "component", "api"),
	}
	login := NewLoginHandler(oauthConfig, identifier, opts.Sessions, cookies, shared.WithLogger(logger, "component", "login"))

	router := NewBasicRouter("/api")
	router.Use(RequestID(), Logging(logger), Recover(logger), Sessions(opts.Sessions, cookies, ttl, logger))

	limited := func(fn http.HandlerFunc) http.Handler {
		return limiter.Middleware()(RequireSession(fn))
	}

	router.HandleFunc(http.MethodGet, "/health", api.Health)
	router.HandleFunc(http.MethodGet, "/auth/session", api.Session)
	router.HandleFunc(http.MethodPost, "/auth/logout", api.Logout)
	router.HandleFunc(http.MethodGet, "/auth/google", login.Start)
	router.HandleFunc(http.MethodGet, "/auth/google/callback", login.Callback)
	router.Handle(http.MethodPost, "/generate-playlist", limited(api.GeneratePlaylist))
	router.Handle(http.MethodPost, "/create-youtube-playlist", limited(api.CreatePlaylist))
	router.Handle(http.MethodGet, "/history", RequireSession(http.HandlerFunc(api.History)))

	return &Server{
		router: router,
		httpServer: &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		sessions:   opts.Sessions,
		sessionTTL: ttl,
		logger:     logger,
	}, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is [Server.ListenAndServe] on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go s.pruneSessions(pruneCtx, time.Hour)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// pruneSessions drops sessions idle longer than the session TTL every interval.
func (s *Server) pruneSessions(ctx context.Context, interval time.Duration) {
	if s.sessionTTL <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.sessions.DeleteExpired(ctx, time.Now().Add(-s.sessionTTL))
			if err != nil {
				s.logger.Warn("session prune failed", "error", err)
				continue
			}
			if n > 0 {
				s.logger.Info("pruned sessions", "count", n)
			}
		}
	}
}

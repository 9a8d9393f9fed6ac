package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/server"
	"github.com/madc0w/playlister/internal/shared"
)

const loginTimeout = 2 * time.Minute

// authStatus is the JSON shape of 'auth status'. Tokens are never included.
type authStatus struct {
	SignedIn     bool      `json:"signedIn"`
	SessionID    string    `json:"sessionId,omitempty"`
	Email        string    `json:"email,omitempty"`
	Name         string    `json:"name,omitempty"`
	Expiry       time.Time `json:"expiry,omitzero"`
	RefreshToken bool      `json:"hasRefreshToken"`
}

// AuthLogin signs in with Google through a local callback server and stores the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	creds := r.config.Credentials.Google
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return fmt.Errorf("%w: set credentials.google.client_id and client_secret in %s", shared.ErrMissingCredentials, r.configPath)
	}
	if r.config.Session.Backend == "memory" {
		return fmt.Errorf("%w: the memory session backend does not outlive this command", shared.ErrInvalidConfig)
	}

	sessions, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	tok, err := r.doOAuth(ctx, r.oauthConfig(), !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	user, err := r.identify(ctx, tok)
	if err != nil {
		return fmt.Errorf("failed to identify Google account: %w", err)
	}

	session := models.NewSession(user, tok)
	if err := sessions.Create(ctx, session); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	if err := r.saveSessionID(session.ID); err != nil {
		return err
	}

	r.logger.Info("signed in", "user", user.Email, "session", session.ID)
	r.writePlainln("✓ Signed in as %s", user.Email)
	if session.RefreshToken == "" {
		r.writePlain("⚠ Google did not return a refresh token; you will need to sign in again in about an hour\n")
	}
	return r.writePlain("You can now use: playlister create --keywords \"rainy sunday\" --title \"Rainy Sunday\"\n")
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server listening on the redirect URL.
func (r *Runner) doOAuth(ctx context.Context, config *oauth2.Config, openBrowser bool) (*oauth2.Token, error) {
	callback, err := url.Parse(config.RedirectURL)
	if err != nil || callback.Host == "" {
		return nil, fmt.Errorf("%w: invalid redirect_url %q", shared.ErrInvalidConfig, config.RedirectURL)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(config, state, callback.Path)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	ln, err := net.Listen("tcp", callback.Host)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s (is 'playlister serve' running?): %w", callback.Host, err)
	}

	httpServer := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", ln.Addr())
		if err := httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	authURL := config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if openBrowser {
		r.writePlain("→ Opening browser for Google sign-in...\n")
		if err := shared.OpenBrowser(authURL); err != nil {
			r.logger.Warnf("failed to open browser automatically %v", err)
			r.writePlainln("⚠ Could not open browser automatically.")
			r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
		}
	} else {
		r.writePlain("Open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(loginTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrUnauthorized)
	}
	return result.Token, nil
}

// AuthStatus reports the locally saved session.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	status := authStatus{}
	session, err := r.localSession(ctx, sessions)
	switch {
	case err == nil:
		status = authStatus{
			SignedIn:     true,
			SessionID:    session.ID,
			Email:        session.User.Email,
			Name:         session.User.Name,
			Expiry:       session.Expiry,
			RefreshToken: session.RefreshToken != "",
		}
	case errors.Is(err, shared.ErrUnauthorized):
		r.logger.Debug("no local session", "error", err)
	default:
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.SignedIn {
		return r.writePlain("✗ Not signed in. Run 'playlister auth login'.\n")
	}

	r.writePlain("✓ Signed in as %s\n", status.Email)
	if status.Name != "" {
		r.writePlain("Name: %s\n", status.Name)
	}
	if !status.Expiry.IsZero() {
		if until := time.Until(status.Expiry); until > 0 {
			r.writePlain("Access token: valid for %s\n", until.Round(time.Minute))
		} else {
			r.writePlain("Access token: expired (refreshed on next use)\n")
		}
	}
	if !status.RefreshToken {
		r.writePlain("⚠ No refresh token stored; sign in again when the access token expires\n")
	}
	return nil
}

// AuthLogout deletes the locally saved session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.sessionStore(ctx)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}

	session, err := r.localSession(ctx, sessions)
	if err == nil {
		if err := sessions.Delete(ctx, session.ID); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
	} else if !errors.Is(err, shared.ErrUnauthorized) {
		return err
	}

	if err := os.Remove(r.sessionFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return r.writePlain("✓ Signed out\n")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/madc0w/playlister/internal/services"
	"github.com/madc0w/playlister/internal/shared"
)

// serverStatus is the JSON shape of 'status'.
type serverStatus struct {
	Health  *services.HealthStatus  `json:"health"`
	Session *services.SessionStatus `json:"session,omitempty"`
}

// signedAPI attaches the saved session as a signed cookie, so the server sees the CLI as signed in
// when both share a session store and secret. Without a saved session the plain client is returned.
func (r *Runner) signedAPI(ctx context.Context) *services.APIService {
	store, err := r.sessionStore(ctx)
	if err != nil {
		r.logger.Debug("no session store", "error", err)
		return r.api
	}
	session, err := r.localSession(ctx, store)
	if err != nil {
		r.logger.Debug("no local session", "error", err)
		return r.api
	}
	cookies := r.cookies()
	return r.api.WithSession(cookies.Name(), cookies.Sign(session.ID))
}

// APIGet makes a direct GET request to the server
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.signedAPI(ctx).Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, !cmd.Bool("json"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIPost makes a direct POST request to the server
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	data := cmd.String("data")

	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}
	if data == "" {
		return fmt.Errorf("%w: --data flag is required", shared.ErrMissingArgument)
	}

	var jsonTest any
	if err := json.Unmarshal([]byte(data), &jsonTest); err != nil {
		return fmt.Errorf("%w: data is not valid JSON: %v", shared.ErrInvalidInput, err)
	}

	r.logger.Info("POST request", "path", path)

	resp, err := r.signedAPI(ctx).Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, true)
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// Status checks a running server's health and whether it recognizes the saved session.
func (r *Runner) Status(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("checking server status")

	api := r.signedAPI(ctx)
	health, err := api.Health(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	status := serverStatus{Health: health}
	if session, err := api.Session(ctx); err == nil {
		status.Session = session
	} else {
		r.logger.Warn("failed to fetch session", "error", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	r.writePlain("✓ %s\n", health.Message)
	r.writePlain("Status: %s\n", health.Status)
	if health.HasOpenAI {
		r.writePlain("OpenAI: ✓ Configured\n")
	} else {
		r.writePlain("OpenAI: ✗ Not configured\n")
	}

	switch {
	case status.Session == nil:
	case status.Session.LoggedIn:
		email, _ := status.Session.User["email"].(string)
		r.writePlain("Session: ✓ Signed in as %s\n", email)
	default:
		r.writePlain("Session: ✗ Not signed in\n")
	}
	return nil
}

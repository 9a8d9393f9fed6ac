package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
	"github.com/madc0w/playlister/internal/tasks"
)

const defaultHistoryLimit = 20

// API serves the JSON endpoints used by the browser client and the CLI.
type API struct {
	sessions     models.SessionStore
	runs         models.RunStore
	generator    *tasks.Generator
	materializer *tasks.Materializer
	cookies      *CookieSigner
	logger       *log.Logger
}

type generateRequest struct {
	Keywords string `json:"keywords"`
	Genre    string `json:"genre"`
}

type generateResponse struct {
	Success  bool                  `json:"success"`
	Playlist []models.TrackRequest `json:"playlist"`
}

type createRequest struct {
	Playlist    []models.TrackRequest `json:"playlist"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
}

type createResponse struct {
	Success bool `json:"success"`
	*models.PlaylistResult
}

type sessionUser struct {
	Google  string `json:"google"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

type sessionResponse struct {
	User     *sessionUser `json:"user"`
	LoggedIn bool         `json:"loggedIn"`
}

type historyResponse struct {
	Success bool          `json:"success"`
	Runs    []*models.Run `json:"runs"`
}

// Health reports liveness and whether playlist generation is available.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Playlister API is running",
		"hasOpenAI": a.generator != nil,
	})
}

// Session describes the signed-in user without exposing tokens.
func (a *API) Session(w http.ResponseWriter, r *http.Request) {
	s := SessionFrom(r.Context())
	if !s.Authenticated() {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		User: &sessionUser{
			Google:  s.User.Email,
			Email:   s.User.Email,
			Name:    s.User.Name,
			Picture: s.User.Picture,
		},
		LoggedIn: true,
	})
}

// Logout deletes the current session and clears its cookie.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	if s := SessionFrom(r.Context()); s != nil {
		if err := a.sessions.Delete(r.Context(), s.ID); err != nil {
			a.logger.Warn("failed to delete session", "session", s.ID, "error", err)
		}
	}
	a.cookies.Clear(w)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GeneratePlaylist asks the chat model for a track list.
func (a *API) GeneratePlaylist(w http.ResponseWriter, r *http.Request) {
	if a.generator == nil {
		writeError(w, fmt.Errorf("%w: OpenAI API key is not configured", shared.ErrInternal))
		return
	}

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: keywords are required", shared.ErrBadRequest))
		return
	}

	tracks, err := a.generator.Generate(r.Context(), req.Keywords, req.Genre)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, generateResponse{Success: true, Playlist: tracks})
}

// CreatePlaylist materializes a track list as a YouTube playlist.
func (a *API) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, fmt.Errorf("%w: valid playlist array is required", shared.ErrBadRequest))
		return
	}

	result, err := a.materializer.Materialize(r.Context(), SessionFrom(r.Context()), tasks.MaterializeRequest{
		Title:       req.Title,
		Description: req.Description,
		Tracks:      req.Playlist,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createResponse{Success: true, PlaylistResult: result})
}

// History lists the current user's previous playlists, newest first.
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	runs := []*models.Run{}
	if a.runs != nil {
		s := SessionFrom(r.Context())
		found, err := a.runs.ListByUser(r.Context(), s.User.Email, intQuery(r, "limit", defaultHistoryLimit))
		if err != nil {
			a.logger.Error("failed to list runs", "user", s.User.Email, "error", err)
			writeError(w, fmt.Errorf("%w: failed to load history", shared.ErrInternal))
			return
		}
		if found != nil {
			runs = found
		}
	}
	writeJSON(w, http.StatusOK, historyResponse{Success: true, Runs: runs})
}

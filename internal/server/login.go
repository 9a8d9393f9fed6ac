package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

const (
	googleIssuer   = "https://accounts.google.com"
	googleJWKSURL  = "https://www.googleapis.com/oauth2/v3/certs"
	stateCookie    = "oauth_state"
	loginFailedURL = "/?error=oauth_failed"
)

// GoogleOAuthConfig returns the OAuth client used for sign-in and YouTube access.
func GoogleOAuthConfig(creds shared.GoogleConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{oidc.ScopeOpenID, "email", "profile", youtube.YoutubeScope},
	}
}

// Identifier extracts the signed-in user from an exchanged token.
type Identifier interface {
	Identify(ctx context.Context, tok *oauth2.Token) (models.User, error)
}

// OIDCIdentifier verifies the id_token returned with the access token.
type OIDCIdentifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewGoogleIdentifier verifies Google id tokens. Signing keys are fetched lazily on first use.
func NewGoogleIdentifier(ctx context.Context, clientID string) *OIDCIdentifier {
	keySet := oidc.NewRemoteKeySet(ctx, googleJWKSURL)
	return NewOIDCIdentifier(oidc.NewVerifier(googleIssuer, keySet, &oidc.Config{ClientID: clientID}))
}

func NewOIDCIdentifier(verifier *oidc.IDTokenVerifier) *OIDCIdentifier {
	return &OIDCIdentifier{verifier: verifier}
}

func (o *OIDCIdentifier) Identify(ctx context.Context, tok *oauth2.Token) (models.User, error) {
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return models.User{}, fmt.Errorf("%w: no id_token in token response", shared.ErrUnauthorized)
	}

	idToken, err := o.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: failed to verify id_token: %v", shared.ErrUnauthorized, err)
	}

	var claims struct {
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return models.User{}, fmt.Errorf("%w: failed to parse claims: %v", shared.ErrUnauthorized, err)
	}
	if claims.Email == "" {
		return models.User{}, fmt.Errorf("%w: id_token carries no email", shared.ErrUnauthorized)
	}
	return models.User{Email: claims.Email, Name: claims.Name, Picture: claims.Picture}, nil
}

// LoginHandler runs the browser sign-in flow with Google.
type LoginHandler struct {
	config     *oauth2.Config
	identifier Identifier
	sessions   models.SessionStore
	cookies    *CookieSigner
	logger     *log.Logger
}

func NewLoginHandler(config *oauth2.Config, identifier Identifier, sessions models.SessionStore, cookies *CookieSigner, logger *log.Logger) *LoginHandler {
	return &LoginHandler{
		config:     config,
		identifier: identifier,
		sessions:   sessions,
		cookies:    cookies,
		logger:     logger,
	}
}

// Start redirects to the Google consent screen.
//
// Offline access with a forced consent prompt makes Google return a refresh token.
func (h *LoginHandler) Start(w http.ResponseWriter, r *http.Request) {
	state, err := shared.GenerateState()
	if err != nil {
		h.logger.Error("failed to generate oauth state", "error", err)
		http.Redirect(w, r, loginFailedURL, http.StatusFound)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   300,
	})
	http.Redirect(w, r, h.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), http.StatusFound)
}

// Callback completes sign-in, stores the session and redirects home.
func (h *LoginHandler) Callback(w http.ResponseWriter, r *http.Request) {
	user, tok, err := h.exchange(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})

	session := models.NewSession(user, tok)
	if err := h.sessions.Create(r.Context(), session); err != nil {
		h.fail(w, r, fmt.Errorf("failed to store session: %w", err))
		return
	}

	h.cookies.Set(w, r, session.ID)
	h.logger.Info("signed in", "user", user.Email, "session", session.ID, "refresh_token", session.RefreshToken != "")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *LoginHandler) exchange(r *http.Request) (models.User, *oauth2.Token, error) {
	q := r.URL.Query()
	state, err := r.Cookie(stateCookie)
	if err != nil || state.Value == "" || q.Get("state") != state.Value {
		return models.User{}, nil, fmt.Errorf("%w: invalid state parameter", shared.ErrBadRequest)
	}

	code := q.Get("code")
	if code == "" {
		return models.User{}, nil, fmt.Errorf("%w: authorization failed: %s - %s", shared.ErrUnauthorized, q.Get("error"), q.Get("error_description"))
	}

	tok, err := h.config.Exchange(r.Context(), code)
	if err != nil {
		return models.User{}, nil, fmt.Errorf("%w: token exchange failed: %v", shared.ErrUnauthorized, err)
	}

	user, err := h.identifier.Identify(r.Context(), tok)
	if err != nil {
		return models.User{}, nil, err
	}
	return user, tok, nil
}

func (h *LoginHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("google oauth failed", "error", err, "request_id", RequestIDFrom(r.Context()))
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})
	http.Redirect(w, r, loginFailedURL, http.StatusFound)
}

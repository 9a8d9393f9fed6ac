package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

// DefaultRefreshThreshold is how close to expiry an access token may get before it is refreshed.
const DefaultRefreshThreshold = 5 * time.Minute

// defaultTokenLifetime applies when the token endpoint omits expires_in.
const defaultTokenLifetime = time.Hour

// TokenExchanger trades a refresh token for a new access token.
type TokenExchanger interface {
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// OAuthExchanger implements [TokenExchanger] against the provider's token endpoint.
type OAuthExchanger struct {
	config *oauth2.Config
}

func NewOAuthExchanger(config *oauth2.Config) *OAuthExchanger {
	return &OAuthExchanger{config: config}
}

// Refresh forces a refresh_token grant by handing the token source a token with no access token.
func (e *OAuthExchanger) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	return e.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
}

// TokenRefresher keeps a session's access token usable.
type TokenRefresher struct {
	exchanger TokenExchanger
	store     models.SessionStore
	threshold time.Duration
	now       func() time.Time
	logger    *log.Logger
}

// NewTokenRefresher creates a refresher. A non-positive threshold uses [DefaultRefreshThreshold].
func NewTokenRefresher(exchanger TokenExchanger, store models.SessionStore, threshold time.Duration, logger *log.Logger) *TokenRefresher {
	if threshold <= 0 {
		threshold = DefaultRefreshThreshold
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &TokenRefresher{
		exchanger: exchanger,
		store:     store,
		threshold: threshold,
		now:       time.Now,
		logger:    logger,
	}
}

// WithClock replaces the time source.
func (r *TokenRefresher) WithClock(now func() time.Time) *TokenRefresher {
	r.now = now
	return r
}

// NeedsRefresh reports whether s expires within the threshold. A zero expiry counts as expired.
func (r *TokenRefresher) NeedsRefresh(s *models.Session) bool {
	return s.Expiry.Sub(r.now()) < r.threshold
}

// EnsureFresh returns s when its token is still good, or a refreshed copy that has
// already been written to the session store. Every failure wraps [shared.ErrAuthExpired].
func (r *TokenRefresher) EnsureFresh(ctx context.Context, s *models.Session) (*models.Session, error) {
	if s.RefreshToken == "" {
		return nil, fmt.Errorf("%w: missing refresh token", shared.ErrAuthExpired)
	}

	if !r.NeedsRefresh(s) {
		return s, nil
	}

	r.logger.Debug("refreshing access token", "session", s.ID, "expiry", s.Expiry)

	tok, err := r.exchanger.Refresh(ctx, s.RefreshToken)
	if err != nil {
		r.logger.Warn("token refresh failed", "session", s.ID, "error", err)
		return nil, fmt.Errorf("%w: refresh failed: %v", shared.ErrAuthExpired, err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh returned no access token", shared.ErrAuthExpired)
	}

	updated := s.Clone()
	updated.SetToken(tok)
	if updated.Expiry.IsZero() {
		updated.Expiry = r.now().Add(defaultTokenLifetime)
	}

	if err := r.store.Update(ctx, updated); err != nil {
		return nil, fmt.Errorf("%w: failed to persist refreshed token: %v", shared.ErrAuthExpired, err)
	}

	r.logger.Info("access token refreshed", "session", updated.ID, "token", shared.Redact(updated.AccessToken), "expiry", updated.Expiry)
	return updated, nil
}

package tasks

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/repositories"
	"github.com/madc0w/playlister/internal/services"
	"github.com/madc0w/playlister/internal/shared"
	tu "github.com/madc0w/playlister/internal/testing"
)

var testNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

func storedSession(t *testing.T, store models.SessionStore, expiry time.Time) *models.Session {
	t.Helper()
	s := &models.Session{
		User:         models.User{Email: "listener@example.com", Name: "Listener"},
		AccessToken:  "old-access",
		RefreshToken: "refresh-1",
		Expiry:       expiry,
	}
	if err := store.Create(context.Background(), s); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return s
}

func newTestRefresher(ex TokenExchanger, store models.SessionStore) *TokenRefresher {
	return NewTokenRefresher(ex, store, 5*time.Minute, shared.NewLogger(&discard{})).
		WithClock(func() time.Time { return testNow })
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func TestTokenRefresher(t *testing.T) {
	ctx := context.Background()

	t.Run("Refreshes Token Expiring Within Threshold", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, testNow.Add(4*time.Minute))
		ex := &tu.FakeExchanger{Token: &oauth2.Token{AccessToken: "new-access", Expiry: testNow.Add(time.Hour)}}

		fresh, err := newTestRefresher(ex, store).EnsureFresh(ctx, session)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ex.CallCount() != 1 {
			t.Errorf("expected exactly one refresh, got %d", ex.CallCount())
		}
		if fresh.AccessToken != "new-access" {
			t.Errorf("expected new access token, got %s", fresh.AccessToken)
		}
		if fresh.RefreshToken != "refresh-1" {
			t.Errorf("refresh token should be kept when not rotated, got %s", fresh.RefreshToken)
		}

		stored, err := store.Get(ctx, session.ID)
		if err != nil {
			t.Fatalf("failed to read session: %v", err)
		}
		if stored.AccessToken != "new-access" {
			t.Error("refreshed token was not persisted before returning")
		}
		if session.AccessToken != "old-access" {
			t.Error("caller's session should not be mutated")
		}
	})

	t.Run("Skips Token Valid Beyond Threshold", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, testNow.Add(6*time.Minute))
		ex := &tu.FakeExchanger{Token: &oauth2.Token{AccessToken: "new-access"}}

		fresh, err := newTestRefresher(ex, store).EnsureFresh(ctx, session)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ex.CallCount() != 0 {
			t.Errorf("expected no refresh, got %d", ex.CallCount())
		}
		if fresh != session {
			t.Error("expected the same session back")
		}
	})

	t.Run("Zero Expiry Refreshes", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, time.Time{})
		ex := &tu.FakeExchanger{Token: &oauth2.Token{AccessToken: "new-access"}}

		if _, err := newTestRefresher(ex, store).EnsureFresh(ctx, session); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if ex.CallCount() != 1 {
			t.Errorf("expected one refresh, got %d", ex.CallCount())
		}
	})

	t.Run("Missing Expiry In Response Defaults To One Hour", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, testNow.Add(time.Minute))
		ex := &tu.FakeExchanger{Token: &oauth2.Token{AccessToken: "new-access"}}

		fresh, err := newTestRefresher(ex, store).EnsureFresh(ctx, session)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !fresh.Expiry.Equal(testNow.Add(time.Hour)) {
			t.Errorf("expected expiry now+1h, got %v", fresh.Expiry)
		}
	})

	t.Run("Rotated Refresh Token Replaces Old One", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, testNow)
		ex := &tu.FakeExchanger{Token: &oauth2.Token{AccessToken: "new-access", RefreshToken: "refresh-2", Expiry: testNow.Add(time.Hour)}}

		fresh, err := newTestRefresher(ex, store).EnsureFresh(ctx, session)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if fresh.RefreshToken != "refresh-2" {
			t.Errorf("expected rotated refresh token, got %s", fresh.RefreshToken)
		}
	})

	t.Run("Missing Refresh Token", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, testNow.Add(time.Hour))
		session.RefreshToken = ""
		ex := &tu.FakeExchanger{}

		_, err := newTestRefresher(ex, store).EnsureFresh(ctx, session)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
		if ex.CallCount() != 0 {
			t.Error("no exchange should be attempted without a refresh token")
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, testNow)
		ex := &tu.FakeExchanger{Err: &oauth2.RetrieveError{ErrorCode: "invalid_grant"}}

		_, err := newTestRefresher(ex, store).EnsureFresh(ctx, session)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}

		stored, _ := store.Get(ctx, session.ID)
		if stored.AccessToken != "old-access" {
			t.Error("failed refresh should not touch the stored session")
		}
	})

	t.Run("Persist Failure", func(t *testing.T) {
		store := repositories.NewMemorySessionStore()
		session := storedSession(t, store, testNow)
		if err := store.Delete(ctx, session.ID); err != nil {
			t.Fatalf("failed to delete session: %v", err)
		}
		ex := &tu.FakeExchanger{Token: &oauth2.Token{AccessToken: "new-access"}}

		_, err := newTestRefresher(ex, store).EnsureFresh(ctx, session)
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
	})
}

func TestOAuthExchanger(t *testing.T) {
	t.Run("Refresh", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := r.ParseForm(); err != nil {
				t.Fatalf("failed to parse form: %v", err)
			}
			if r.Form.Get("grant_type") != "refresh_token" || r.Form.Get("refresh_token") != "refresh-1" {
				t.Errorf("unexpected token request %v", r.Form)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token":"new-access","token_type":"Bearer","expires_in":3600}`))
		}))
		defer server.Close()

		ex := NewOAuthExchanger(&oauth2.Config{
			ClientID:     "id",
			ClientSecret: "secret",
			Endpoint:     oauth2.Endpoint{TokenURL: server.URL, AuthStyle: oauth2.AuthStyleInParams},
		})

		tok, err := ex.Refresh(context.Background(), "refresh-1")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tok.AccessToken != "new-access" {
			t.Errorf("expected new-access, got %s", tok.AccessToken)
		}
		if tok.Expiry.IsZero() {
			t.Error("expected expiry from expires_in")
		}
	})

	t.Run("Invalid Grant", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid_grant","error_description":"Token has been expired or revoked."}`))
		}))
		defer server.Close()

		ex := NewOAuthExchanger(&oauth2.Config{
			ClientID: "id",
			Endpoint: oauth2.Endpoint{TokenURL: server.URL, AuthStyle: oauth2.AuthStyleInParams},
		})

		_, err := ex.Refresh(context.Background(), "revoked")
		if !services.IsAuthError(err) {
			t.Errorf("expected auth error, got %v", err)
		}
	})
}

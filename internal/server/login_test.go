package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/madc0w/playlister/internal/shared"
)

func newTokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseForm(); err != nil || r.Form.Get("code") != "good-code" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"new-access","refresh_token":"new-refresh","token_type":"Bearer","expires_in":3600,"id_token":"raw"}`)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func testOAuthConfig(ts *httptest.Server) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:3000/auth/google/callback",
		Endpoint:     oauth2.Endpoint{AuthURL: ts.URL + "/auth", TokenURL: ts.URL + "/token", AuthStyle: oauth2.AuthStyleInParams},
		Scopes:       []string{"openid", "email", "profile", "https://www.googleapis.com/auth/youtube"},
	}
}

func callback(f *apiFixture, query, state string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+query, nil)
	if state != "" {
		req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	}
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestLoginHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("Start Redirects To Consent", func(t *testing.T) {
		ts := newTokenServer(t)
		f := newAPIFixture(t, fixtureOptions{oauth: testOAuthConfig(ts)})

		rec := f.do(http.MethodGet, "/auth/google", "", false)
		if rec.Code != http.StatusFound {
			t.Fatalf("expected 302, got %d", rec.Code)
		}

		loc, err := url.Parse(rec.Header().Get("Location"))
		if err != nil {
			t.Fatalf("bad location: %v", err)
		}
		q := loc.Query()
		if q.Get("access_type") != "offline" || q.Get("prompt") != "consent" {
			t.Errorf("expected offline access with consent prompt, got %s", loc.RawQuery)
		}
		if !strings.Contains(q.Get("scope"), "auth/youtube") {
			t.Errorf("expected youtube scope, got %q", q.Get("scope"))
		}

		var state *http.Cookie
		for _, c := range rec.Result().Cookies() {
			if c.Name == stateCookie {
				state = c
			}
		}
		if state == nil || state.Value == "" {
			t.Fatal("expected state cookie")
		}
		if state.Value != q.Get("state") {
			t.Errorf("state cookie %q does not match redirect state %q", state.Value, q.Get("state"))
		}
		if state.SameSite != http.SameSiteLaxMode || !state.HttpOnly {
			t.Errorf("unexpected state cookie attributes %+v", state)
		}
	})

	t.Run("Callback Stores Session", func(t *testing.T) {
		ts := newTokenServer(t)
		f := newAPIFixture(t, fixtureOptions{oauth: testOAuthConfig(ts)})

		rec := callback(f, "state=abc&code=good-code", "abc")
		if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
			t.Fatalf("expected redirect to /, got %d %s", rec.Code, rec.Header().Get("Location"))
		}

		var sessionID string
		for _, c := range rec.Result().Cookies() {
			if c.Name == f.cookies.Name() {
				id, err := f.cookies.Verify(c.Value)
				if err != nil {
					t.Fatalf("session cookie does not verify: %v", err)
				}
				sessionID = id
			}
		}
		if sessionID == "" {
			t.Fatal("expected session cookie")
		}

		s, err := f.store.Get(ctx, sessionID)
		if err != nil {
			t.Fatalf("expected stored session: %v", err)
		}
		if s.User.Email != "new@example.com" || s.AccessToken != "new-access" || s.RefreshToken != "new-refresh" {
			t.Errorf("unexpected session %s", s)
		}
		if s.Expiry.IsZero() {
			t.Error("expected token expiry to be kept")
		}
	})

	t.Run("Callback Failures Redirect With Error", func(t *testing.T) {
		cases := []struct {
			name     string
			query    string
			state    string
			identify error
		}{
			{name: "State Mismatch", query: "state=abc&code=good-code", state: "xyz"},
			{name: "Missing State Cookie", query: "state=abc&code=good-code"},
			{name: "Consent Denied", query: "state=abc&error=access_denied", state: "abc"},
			{name: "Exchange Fails", query: "state=abc&code=bad-code", state: "abc"},
			{name: "Identity Fails", query: "state=abc&code=good-code", state: "abc", identify: shared.ErrUnauthorized},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				ts := newTokenServer(t)
				f := newAPIFixture(t, fixtureOptions{oauth: testOAuthConfig(ts)})
				f.identifier.err = tc.identify

				rec := callback(f, tc.query, tc.state)
				if rec.Code != http.StatusFound || rec.Header().Get("Location") != loginFailedURL {
					t.Errorf("expected redirect to %s, got %d %s", loginFailedURL, rec.Code, rec.Header().Get("Location"))
				}

				sessions, err := f.store.List(ctx)
				if err != nil {
					t.Fatal(err)
				}
				if len(sessions) != 1 {
					t.Errorf("expected no new session, have %d", len(sessions))
				}
			})
		}
	})
}

func unsignedIDToken(claims string) string {
	enc := base64.RawURLEncoding
	header := enc.EncodeToString([]byte(`{"alg":"RS256","typ":"JWT"}`))
	return header + "." + enc.EncodeToString([]byte(claims)) + "." + enc.EncodeToString([]byte("signature"))
}

func TestOIDCIdentifier(t *testing.T) {
	ctx := context.Background()
	verifier := oidc.NewVerifier(googleIssuer, &oidc.StaticKeySet{}, &oidc.Config{
		ClientID:                   "client",
		InsecureSkipSignatureCheck: true,
		Now:                        func() time.Time { return time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC) },
	})
	identifier := NewOIDCIdentifier(verifier)

	withIDToken := func(raw string) *oauth2.Token {
		return (&oauth2.Token{AccessToken: "a"}).WithExtra(map[string]any{"id_token": raw})
	}

	t.Run("Reads Claims", func(t *testing.T) {
		raw := unsignedIDToken(`{"iss":"https://accounts.google.com","aud":"client","sub":"1","exp":4102444800,"email":"dj@example.com","name":"DJ","picture":"https://example.com/p.png"}`)
		user, err := identifier.Identify(ctx, withIDToken(raw))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if user.Email != "dj@example.com" || user.Name != "DJ" || user.Picture != "https://example.com/p.png" {
			t.Errorf("unexpected user %+v", user)
		}
	})

	t.Run("Rejects Missing ID Token", func(t *testing.T) {
		_, err := identifier.Identify(ctx, &oauth2.Token{AccessToken: "a"})
		if !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("Rejects Wrong Audience", func(t *testing.T) {
		raw := unsignedIDToken(`{"iss":"https://accounts.google.com","aud":"someone-else","sub":"1","exp":4102444800,"email":"dj@example.com"}`)
		if _, err := identifier.Identify(ctx, withIDToken(raw)); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("Rejects Expired Token", func(t *testing.T) {
		raw := unsignedIDToken(`{"iss":"https://accounts.google.com","aud":"client","sub":"1","exp":1000,"email":"dj@example.com"}`)
		if _, err := identifier.Identify(ctx, withIDToken(raw)); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("Requires Email", func(t *testing.T) {
		raw := unsignedIDToken(`{"iss":"https://accounts.google.com","aud":"client","sub":"1","exp":4102444800}`)
		if _, err := identifier.Identify(ctx, withIDToken(raw)); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestGoogleOAuthConfig(t *testing.T) {
	cfg := GoogleOAuthConfig(shared.GoogleConfig{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://localhost:3000/auth/google/callback"})
	if cfg.Endpoint.TokenURL == "" || !strings.Contains(cfg.Endpoint.AuthURL, "accounts.google.com") {
		t.Errorf("expected google endpoint, got %+v", cfg.Endpoint)
	}
	want := map[string]bool{"openid": true, "email": true, "profile": true, "https://www.googleapis.com/auth/youtube": true}
	for _, s := range cfg.Scopes {
		delete(want, s)
	}
	if len(want) != 0 {
		t.Errorf("missing scopes %v", want)
	}
}

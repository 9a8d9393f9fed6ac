package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// User is the Google identity attached to a [Session].
type User struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Session holds the signed-in user and the OAuth tokens used to call YouTube.
//
// Tokens are secrets: [Session.String] never prints them.
type Session struct {
	ID           string    `json:"id"`
	User         User      `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Expiry       time.Time `json:"expiry"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewSession builds a session for user from a freshly exchanged token.
func NewSession(user User, tok *oauth2.Token) *Session {
	now := time.Now()
	s := &Session{User: user, CreatedAt: now, UpdatedAt: now}
	s.SetToken(tok)
	return s
}

// Token returns the session credentials as an [oauth2.Token].
func (s *Session) Token() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       s.Expiry,
	}
}

// SetToken copies tok into the session. A rotated refresh token replaces the
// stored one; an empty refresh token keeps it.
func (s *Session) SetToken(tok *oauth2.Token) {
	if tok == nil {
		return
	}
	s.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		s.RefreshToken = tok.RefreshToken
	}
	s.Expiry = tok.Expiry
}

// Authenticated reports whether the session carries an access token.
func (s *Session) Authenticated() bool {
	return s != nil && s.AccessToken != ""
}

// Validate checks the fields every stored session needs.
func (s *Session) Validate() error {
	if strings.TrimSpace(s.User.Email) == "" {
		return fmt.Errorf("session user email is required")
	}
	if s.AccessToken == "" {
		return fmt.Errorf("session access token is required")
	}
	return nil
}

// Clone returns a copy safe to mutate without touching s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *Session) String() string {
	return fmt.Sprintf("Session{id=%s email=%s expiry=%s}", s.ID, s.User.Email, s.Expiry.Format(time.RFC3339))
}

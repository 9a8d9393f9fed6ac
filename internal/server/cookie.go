package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/madc0w/playlister/internal/shared"
)

// CookieSigner issues and reads the HMAC-signed session cookie.
//
// The cookie value is "<session id>.<base64url(hmac-sha256(id))>". Only the id is
// stored client side; tokens stay in the session store.
type CookieSigner struct {
	name   string
	secret []byte
	ttl    time.Duration
}

func NewCookieSigner(name, secret string, ttl time.Duration) *CookieSigner {
	if name == "" {
		name = "playlister_session"
	}
	return &CookieSigner{name: name, secret: []byte(secret), ttl: ttl}
}

// Name returns the cookie name.
func (c *CookieSigner) Name() string {
	return c.name
}

func (c *CookieSigner) mac(value string) string {
	h := hmac.New(sha256.New, c.secret)
	h.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// Sign returns value with its signature appended.
func (c *CookieSigner) Sign(value string) string {
	return value + "." + c.mac(value)
}

// Verify returns the value of a signed string, or an error wrapping [shared.ErrInvalidSession].
func (c *CookieSigner) Verify(signed string) (string, error) {
	i := strings.LastIndex(signed, ".")
	if i <= 0 || i == len(signed)-1 {
		return "", fmt.Errorf("%w: malformed cookie", shared.ErrInvalidSession)
	}
	value, sig := signed[:i], signed[i+1:]
	if !hmac.Equal([]byte(sig), []byte(c.mac(value))) {
		return "", fmt.Errorf("%w: bad signature", shared.ErrInvalidSession)
	}
	return value, nil
}

// Read returns the verified session id carried by r.
func (c *CookieSigner) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", fmt.Errorf("%w: no session cookie", shared.ErrSessionNotFound)
	}
	return c.Verify(cookie.Value)
}

// Set writes the session cookie for id.
func (c *CookieSigner) Set(w http.ResponseWriter, r *http.Request, id string) {
	cookie := &http.Cookie{
		Name:     c.name,
		Value:    c.Sign(id),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode, // sent on the redirect back from Google
	}
	if c.ttl > 0 {
		cookie.MaxAge = int(c.ttl.Seconds())
	}
	http.SetCookie(w, cookie)
}

// Clear expires the session cookie.
func (c *CookieSigner) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: c.name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
}

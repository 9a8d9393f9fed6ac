package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	sessionKey   contextKey = "session"
)

// RequestIDFrom returns the request id set by [RequestID], if any.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// SessionFrom returns the session loaded by [Sessions], or nil.
func SessionFrom(ctx context.Context) *models.Session {
	s, _ := ctx.Value(sessionKey).(*models.Session)
	return s
}

// RequestID tags each request with an id, reusing an incoming X-Request-ID.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Logging writes one line per request.
func Logging(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"request_id", RequestIDFrom(r.Context()),
			}
			switch {
			case rec.status >= 500:
				logger.Error("request", kv...)
			case rec.status >= 400:
				logger.Warn("request", kv...)
			default:
				logger.Info("request", kv...)
			}
		})
	}
}

// Recover turns a handler panic into a 500 response.
func Recover(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if p := recover(); p != nil {
					if p == http.ErrAbortHandler {
						panic(p)
					}
					logger.Error("panic serving request", "path", r.URL.Path, "panic", p, "request_id", RequestIDFrom(r.Context()))
					writeError(w, fmt.Errorf("%w: unexpected failure", shared.ErrInternal))
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// sessionTouchInterval limits how often a request marks its session as used.
const sessionTouchInterval = time.Minute

// Sessions loads the signed-in session, if any, into the request context.
//
// Unknown, tampered or idle cookies are cleared; the request continues anonymously.
// Sessions count as idle when unused for longer than ttl.
func Sessions(store models.SessionStore, cookies *CookieSigner, ttl time.Duration, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := cookies.Read(r)
			if err != nil {
				if errors.Is(err, shared.ErrInvalidSession) {
					logger.Warn("rejected session cookie", "error", err, "request_id", RequestIDFrom(r.Context()))
					cookies.Clear(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			session, err := store.Get(r.Context(), id)
			switch {
			case errors.Is(err, shared.ErrSessionNotFound):
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				logger.Error("session lookup failed", "error", err, "request_id", RequestIDFrom(r.Context()))
				writeError(w, fmt.Errorf("%w: session store unavailable", shared.ErrInternal))
				return
			}

			if ttl > 0 && time.Since(session.UpdatedAt) > ttl {
				cookies.Clear(w)
				next.ServeHTTP(w, r)
				return
			}

			if time.Since(session.UpdatedAt) > sessionTouchInterval {
				if err := store.Touch(r.Context(), session.ID); err != nil {
					logger.Warn("failed to touch session", "error", err, "request_id", RequestIDFrom(r.Context()))
				} else {
					session.UpdatedAt = time.Now()
				}
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey, session)))
		})
	}
}

// RequireSession rejects anonymous requests with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !SessionFrom(r.Context()).Authenticated() {
			writeError(w, fmt.Errorf("%w: please sign in with Google", shared.ErrUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu        sync.Mutex
	visitors  map[string]*visitor
	lastSweep time.Time
}

// NewRateLimiter allows perSecond requests per client with the given burst.
// A non-positive rate disables limiting.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		limit:    limit,
		burst:    burst,
		idle:     10 * time.Minute,
		visitors: make(map[string]*visitor),
	}
}

// Allow reports whether key may make another request now.
func (l *RateLimiter) Allow(key string) bool {
	if l.limit == rate.Inf {
		return true
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.idle {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.idle {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware returns the limiter as a [Middleware] keyed on the client IP.
func (l *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				writeError(w, fmt.Errorf("%w: slow down", shared.ErrRateLimited))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

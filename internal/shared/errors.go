package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Request-level outcomes. Each maps to exactly one HTTP status.
	ErrUnauthorized = fmt.Errorf("unauthorized")
	ErrBadRequest   = fmt.Errorf("bad request")
	ErrAuthExpired  = fmt.Errorf("auth_expired")
	ErrConflict     = fmt.Errorf("request already in progress")
	ErrRateLimited  = fmt.Errorf("too many requests")
	ErrInternal     = fmt.Errorf("internal error")

	// Session store errors
	ErrSessionNotFound = fmt.Errorf("session not found")
	ErrInvalidSession  = fmt.Errorf("invalid session")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

package clickup

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the upstream adapter.
var (
	// ErrMissingToken indicates the client was built without an API token.
	ErrMissingToken = errors.New("clickup: api token is required")

	// ErrMissingTeam indicates the client was built without a workspace (team) ID.
	ErrMissingTeam = errors.New("clickup: team id is required")

	// ErrRetriesExhausted indicates rate-limit retries were exhausted.
	ErrRetriesExhausted = errors.New("clickup: rate limit retries exhausted")
)

// APIError is a non-2xx response from the ClickUp API. It carries the
// full upstream detail so callers can surface it without loss.
type APIError struct {
	StatusCode int    // HTTP status
	Code       string // upstream "ECODE" error code, may be empty
	Message    string // upstream "err" message, may be empty
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("clickup: %s %s: %d %s (%s)", e.Method, e.Path, e.StatusCode, e.Message, e.Code)
	}
	return fmt.Sprintf("clickup: %s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// RateLimitError is a 429 response that survived all retry attempts.
// It is distinguishable from other APIErrors so outer layers can choose
// to back off and retry the whole operation.
type RateLimitError struct {
	APIError
	RetryAfter time.Duration // parsed Retry-After, zero if absent
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("clickup: %s %s: rate limited, retry after %s", e.Method, e.Path, e.RetryAfter)
	}
	return fmt.Sprintf("clickup: %s %s: rate limited", e.Method, e.Path)
}

// Unwrap lets errors.Is match ErrRetriesExhausted.
func (e *RateLimitError) Unwrap() error {
	return ErrRetriesExhausted
}

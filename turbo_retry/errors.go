package turbo_retry

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimitExhausted means 429 persisted through every attempt
	ErrRateLimitExhausted = errors.New("rate limit exhausted")
	// ErrUpstream means the API answered with a non-429 unsuccessful status
	ErrUpstream = errors.New("upstream error")
	// ErrTransport means the call itself failed before producing a response
	ErrTransport = errors.New("transport failure")
	// ErrRetryExhausted is matched by every failure that spent the whole retry budget
	ErrRetryExhausted = errors.New("retries exhausted")

	// ErrRateLimited marks a transport failure caused by rate limiting. Transports wrap it
	// so that the orchestrator retries the failure instead of propagating it.
	ErrRateLimited = errors.New("rate limited")

	errNilResponse = errors.New("call returned neither a response nor an error")
)

// APIError is a terminal unsuccessful response.
// It matches ErrRateLimitExhausted for a 429 and ErrUpstream otherwise.
type APIError struct {
	StatusCode int
	Body       string
	Attempts   int
	MaxRetries int
	// ReadErr is set when the body could not be read
	ReadErr error
}

func (e *APIError) Error() string {
	if e.RateLimited() {
		return fmt.Sprintf("API rate limited after %d retries: %d %s", e.MaxRetries, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("API error: %d %s", e.StatusCode, e.Body)
}

// RateLimited reports whether the final status was 429
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimitExhausted, ErrRetryExhausted:
		return e.RateLimited()
	case ErrUpstream:
		return !e.RateLimited()
	}
	return false
}

func (e *APIError) Unwrap() error {
	return e.ReadErr
}

// TransportError is a call that failed without a response.
// Exhausted is set when the failure was rate limited and no retry was left.
type TransportError struct {
	Attempt   int
	Exhausted bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Exhausted {
		return fmt.Sprintf("transport failure on attempt %d, retries exhausted: %v", e.Attempt, e.Err)
	}
	return fmt.Sprintf("transport failure on attempt %d: %v", e.Attempt, e.Err)
}

func (e *TransportError) Is(target error) bool {
	switch target {
	case ErrTransport:
		return true
	case ErrRetryExhausted:
		return e.Exhausted
	}
	return false
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRateLimited reports whether a transport failure carries a rate limit reason, either
// by wrapping ErrRateLimited or through an error implementing RateLimited() bool.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var rl interface{ RateLimited() bool }
	return errors.As(err, &rl) && rl.RateLimited()
}

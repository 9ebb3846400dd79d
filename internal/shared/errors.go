package shared

import (
	"fmt"
	"strings"
)

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Upstream errors
	ErrUpstreamAuth     = fmt.Errorf("upstream token exchange failed")
	ErrUpstreamPlayback = fmt.Errorf("upstream playback query failed")
	ErrAPIRequest       = fmt.Errorf("API request failed")

	// ErrInternal marks failures that reach a client only as a generic message.
	ErrInternal = fmt.Errorf("internal server error")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// UpstreamAuthError reports a non-2xx response from the token endpoint.
//
// Status and body are kept for operator logs and must never be written to a client.
type UpstreamAuthError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamAuthError) Error() string {
	msg := fmt.Sprintf("%v: status %d", ErrUpstreamAuth, e.StatusCode)
	if body := strings.TrimSpace(e.Body); body != "" {
		msg += ": " + body
	}
	return msg
}

func (e *UpstreamAuthError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrUpstreamAuth}
	}
	return []error{ErrUpstreamAuth, e.Err}
}

// UpstreamPlaybackError reports a non-success response from the currently-playing endpoint.
type UpstreamPlaybackError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamPlaybackError) Error() string {
	return fmt.Sprintf("%v: status %d", ErrUpstreamPlayback, e.StatusCode)
}

func (e *UpstreamPlaybackError) Unwrap() error {
	return ErrUpstreamPlayback
}

package authapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUserNotFound is returned by Login on 404.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is returned by Login on 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAuthFailed wraps every other non-2xx answer.
	ErrAuthFailed = errors.New("authentication request failed")
	// ErrMalformedResponse is returned when a 2xx login answer has no token
	// or is not JSON.
	ErrMalformedResponse = errors.New("malformed auth response")
)

// APIError is a non-2xx answer not covered by a more specific sentinel.
// Message is the server's "message" field, when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", ErrAuthFailed, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", ErrAuthFailed, e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrAuthFailed
}

// ServerMessage returns the server-provided message carried by err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

package podman

import (
	"errors"
	"fmt"
)

var (
	// ErrSecretNotFound maps the remote 404.
	ErrSecretNotFound = errors.New("secret not found")
	// ErrSecretExists maps the remote duplicate-name rejection.
	ErrSecretExists = errors.New("secret already exists")
	// ErrUnavailable covers connection failures, timeouts and malformed
	// responses; the remote state is unknown to the caller.
	ErrUnavailable = errors.New("podman unavailable")
)

// APIError is a remote rejection that maps to none of the sentinel errors
// above. The message comes from libpod's error report, never the raw body.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("podman %s failed (status %d): %s", e.Op, e.StatusCode, e.Message)
}

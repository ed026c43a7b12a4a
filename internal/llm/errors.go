package llm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrPermissionDenied matches credential and permission failures from any
	// provider.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNoImage is returned when a provider answered without image bytes.
	ErrNoImage = errors.New("response contained no image data")

	// ErrMissingAPIKey is returned by constructors when no key is configured.
	ErrMissingAPIKey = errors.New("API key is required")
)

// Error is a provider failure normalised across SDKs.
type Error struct {
	Provider   string
	StatusCode int
	Status     string
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets callers test errors.Is(err, ErrPermissionDenied).
func (e *Error) Is(target error) bool {
	return target == ErrPermissionDenied && e.PermissionDenied()
}

// PermissionDenied reports whether the provider rejected the credentials.
func (e *Error) PermissionDenied() bool {
	switch e.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	switch e.Status {
	case "PERMISSION_DENIED", "UNAUTHENTICATED":
		return true
	}
	return false
}

func wrapError(provider string, status int, statusText string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Provider: provider, StatusCode: status, Status: statusText, Err: err}
}

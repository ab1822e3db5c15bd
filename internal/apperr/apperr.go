// Package apperr defines the error categories shared across the client:
// validation failures detected before the network, transport failures,
// non-2xx server responses, and reservation conflicts.
package apperr

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Category sentinels. Errors are marked with these so callers can branch with
// the Is* helpers without losing the underlying cause.
var (
	ErrValidation = errors.New("validation failed")
	ErrNetwork    = errors.New("network failure")
	ErrConflict   = errors.New("reservation conflict")
)

// ServerError carries a non-2xx HTTP response.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Validation wraps a client-detected input error.
func Validation(msg string) error {
	return errors.Mark(errors.New(msg), ErrValidation)
}

// Network wraps a transport-level failure.
func Network(err error) error {
	return errors.Mark(errors.Wrap(err, "request failed"), ErrNetwork)
}

// Server builds a ServerError from a response status and optional message body.
func Server(status int, message string) error {
	return &ServerError{StatusCode: status, Message: message}
}

// Conflict marks err as a reservation conflict. The original server response
// stays attached for logging; callers present a uniform recovery hint instead.
func Conflict(err error) error {
	return errors.Mark(err, ErrConflict)
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsNetwork reports whether err is a transport failure.
func IsNetwork(err error) bool { return errors.Is(err, ErrNetwork) }

// IsConflict reports whether err is a reservation conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// AsServerError extracts a ServerError if err carries one.
func AsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

package errs

import "errors"

// Common sentinel errors for cross-layer signaling.
var (
	ErrNotFound = errors.New("not_found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
	// ErrUnauthorized covers failed logins and missing/expired sessions. The
	// message is deliberately generic so callers cannot tell an unknown user
	// from a wrong password.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUnprocessable is used for semantic validation failures (HTTP 422)
	ErrUnprocessable = errors.New("unprocessable")
)

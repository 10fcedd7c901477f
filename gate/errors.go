package gate

import "errors"

// Sentinel errors returned by Gate.Authorize.
var (
	// ErrUnauthorized means there is no user to check.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden means the user's profile lacks the permission.
	ErrForbidden = errors.New("forbidden")
)

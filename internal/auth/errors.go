package auth

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDemoUnavailable    = errors.New("demo login is only available in local mode")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrSessionLoading     = errors.New("session is still loading")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrRejected           = errors.New("rejected by identity service")
	ErrForbidden          = errors.New("role does not allow this action")

	ErrIdentityUnavailable = errors.New("identity service unavailable")
)

// AuthError is returned when the identity backend rejects an operation.
// Message is what the backend said, if anything.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ProfileFetchError marks a failed profile lookup for an identity that is
// otherwise signed in.
type ProfileFetchError struct {
	UserID string
	Err    error
}

func (e *ProfileFetchError) Error() string {
	return fmt.Sprintf("fetch profile %s: %v", e.UserID, e.Err)
}

func (e *ProfileFetchError) Unwrap() error { return e.Err }

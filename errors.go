package crispsession

import "errors"

var (
	// ErrEngineNotReady is returned when an Engine method is invoked on a nil
	// or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not ready")
	// ErrStoreRequired is returned by Build when no token store was injected.
	ErrStoreRequired = errors.New("token store required")
	// ErrAuthAPIRequired is returned by Build when no auth API was injected.
	ErrAuthAPIRequired = errors.New("auth api required")
	// ErrInvalidTimeoutConfig is returned by Build when the warning lead is
	// not strictly shorter than the inactivity timeout.
	ErrInvalidTimeoutConfig = errors.New("warning lead must be shorter than inactivity timeout")
	// ErrSessionCommitFailed is returned when the all-or-nothing token store
	// commit on login/registration could not complete; no partial state is
	// left behind.
	ErrSessionCommitFailed = errors.New("session commit failed")
)

// AuthError carries the human-readable message surfaced to the user when the
// Auth API rejects a login or registration. Session state is untouched when
// one is returned.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string { return e.Message }

// AsAuthError unwraps err to an *AuthError when one is in the chain.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

package authgate

import "errors"

var (
	// ErrValidation rejects malformed input before it reaches the
	// attempt tracker.
	ErrValidation = errors.New("invalid authentication request")
	// ErrInvalidCredentials covers both an unknown account and a wrong
	// secret; callers cannot tell the two apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrLockedOut is returned while an identifier's lockout window is
	// active. A locked-out attempt is never itself recorded as a failure.
	ErrLockedOut = errors.New("identifier locked out")
	// ErrCaptchaRequired is returned when a challenge answer was missing,
	// wrong, or already consumed; the result carries a fresh challenge.
	ErrCaptchaRequired = errors.New("captcha required")
	// ErrUserNotFound is returned by CredentialStore implementations when
	// no account matches the identifier. The gateway never surfaces it.
	ErrUserNotFound = errors.New("user not found")
	// ErrGatewayNotReady is returned when a nil or unbuilt gateway is used.
	ErrGatewayNotReady = errors.New("gateway not initialized")
	// ErrBackendUnavailable wraps storage backend failures.
	ErrBackendUnavailable = errors.New("storage backend unavailable")
)

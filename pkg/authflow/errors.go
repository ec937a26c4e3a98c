package authflow

import "errors"

var (
	// ErrInvalidCode is returned for a wrong or malformed one-time code. Retryable.
	ErrInvalidCode = errors.New("authflow.invalid_code")

	// ErrInvalidSecret is returned for a malformed manually entered secret. Retryable.
	ErrInvalidSecret = errors.New("authflow.invalid_secret")

	// ErrTooManyAttempts is returned when code attempts are throttled. Retryable later.
	ErrTooManyAttempts = errors.New("authflow.too_many_attempts")

	// ErrIdentityFailed is returned when the external sign-in failed or was
	// cancelled. Retryable; nothing was written.
	ErrIdentityFailed = errors.New("authflow.identity_failed")

	// ErrReRegistrationRequired is reported through Flow.Notice when a stored
	// secret could not be decrypted and was discarded.
	ErrReRegistrationRequired = errors.New("authflow.reregistration_required")

	// ErrInvalidState is returned when an operation does not apply to the
	// flow's current state.
	ErrInvalidState = errors.New("authflow.invalid_state")

	// ErrNotAuthenticated is returned when authenticated output is requested early.
	ErrNotAuthenticated = errors.New("authflow.not_authenticated")

	// ErrUnavailable means authentication cannot proceed right now, for
	// example because storage is down.
	ErrUnavailable = errors.New("authflow.unavailable")
)

package identity

import "errors"

var (
	// ErrInvalidCode is returned when the authorization code exchange fails.
	ErrInvalidCode = errors.New("identity.invalid_code")

	// ErrNoEmail is returned when the provider did not share an email.
	ErrNoEmail = errors.New("identity.no_email")

	// ErrUnverifiedEmail is returned when only verified emails are accepted.
	ErrUnverifiedEmail = errors.New("identity.unverified_email")

	// ErrProviderUnavailable wraps transport and API failures.
	ErrProviderUnavailable = errors.New("identity.provider_unavailable")

	// ErrCancelled is returned when the user abandons the consent flow.
	ErrCancelled = errors.New("identity.cancelled")
)

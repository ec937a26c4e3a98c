package totp

import "errors"

var (
	ErrFailedToGenerateSecret = errors.New("failed to generate TOTP secret")
	ErrMissingSecret          = errors.New("missing secret")
	ErrInvalidSecret          = errors.New("invalid secret")
	ErrSecretTooShort         = errors.New("secret is shorter than 128 bits")
	ErrMissingAccountName     = errors.New("missing account name")
	ErrMissingIssuer          = errors.New("missing issuer")
	ErrMissingURI             = errors.New("provisioning URI is absent")
	ErrEncodingFailed         = errors.New("failed to encode provisioning image")
)

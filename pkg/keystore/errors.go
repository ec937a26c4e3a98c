package keystore

import "errors"

var (
	// ErrIdentityRequired is returned when an operation needs an identity
	// assertion and none (or an incomplete one) was supplied.
	ErrIdentityRequired = errors.New("keystore.identity_required")

	// ErrDecryptionFailed is returned when a stored record could not be
	// authenticated or decrypted. The record has been deleted.
	ErrDecryptionFailed = errors.New("keystore.decryption_failed")

	// ErrMalformedRecord accompanies ErrDecryptionFailed when the stored
	// value could not even be decoded as a record.
	ErrMalformedRecord = errors.New("keystore.malformed_record")

	// ErrEncryptionFailed is returned when sealing a value fails.
	ErrEncryptionFailed = errors.New("keystore.encryption_failed")

	// ErrSchemeMismatch is returned when a record exists under the requested
	// key but was written with a different scheme.
	ErrSchemeMismatch = errors.New("keystore.scheme_mismatch")

	// ErrStorage wraps failures of the underlying store.
	ErrStorage = errors.New("keystore.storage_failed")

	// ErrFingerprint is returned when the device fingerprint cannot be computed.
	ErrFingerprint = errors.New("keystore.fingerprint_unavailable")
)

package session

import "errors"

var (
	// ErrSessionNotFound indicates no session is stored.
	ErrSessionNotFound = errors.New("session.not_found")

	// ErrSessionExpired indicates the session outlived its TTL. It has been cleared.
	ErrSessionExpired = errors.New("session.expired")

	// ErrBindingMismatch indicates the session belongs to another identity.
	ErrBindingMismatch = errors.New("session.binding_mismatch")

	// ErrInvalidSession indicates the stored record is unreadable. It has been cleared.
	ErrInvalidSession = errors.New("session.invalid")

	// ErrEmptySubject is returned when saving a session without a subject.
	ErrEmptySubject = errors.New("session.empty_subject")

	// ErrStorage wraps failures of the underlying store.
	ErrStorage = errors.New("session.storage_failed")
)

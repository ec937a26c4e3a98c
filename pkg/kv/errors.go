package kv

import "errors"

var (
	// ErrNotFound is returned by Get when the key does not exist.
	ErrNotFound = errors.New("kv: key not found")

	// ErrUnavailable wraps any backend failure.
	ErrUnavailable = errors.New("kv: storage unavailable")

	// ErrEmptyKey is returned for operations on an empty key.
	ErrEmptyKey = errors.New("kv: empty key")
)

package ratelimiter

import "errors"

var (
	// ErrInvalidConfig indicates that the configuration is unusable.
	ErrInvalidConfig = errors.New("ratelimiter: invalid configuration")

	// ErrInvalidTokenCount indicates a non-positive token request.
	ErrInvalidTokenCount = errors.New("ratelimiter: invalid token count")
)

package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Config describes a token bucket.
type Config struct {
	Capacity       int           // maximum tokens, the burst size
	RefillRate     int           // tokens added per interval
	RefillInterval time.Duration // how often tokens are added
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	case c.RefillRate <= 0:
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	case c.RefillInterval <= 0:
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// Result is the outcome of a limiter check.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	// RetryAt is when the next token becomes available. Zero when the bucket is full.
	RetryAt time.Time
}

// Store keeps bucket state.
type Store interface {
	// Take removes n tokens if available and returns the bucket state after
	// the attempt. n may be zero to only inspect the bucket.
	Take(ctx context.Context, key string, n int, cfg Config) (Result, error)

	// Reset drops the bucket for key.
	Reset(ctx context.Context, key string) error
}

package authflow

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/noteauth/pkg/ratelimiter"
	"github.com/dmitrymomot/noteauth/pkg/totp"
)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithConfig applies cfg. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(o *Orchestrator) {
		if cfg.MaxCodeAttempts > 0 {
			o.config.MaxCodeAttempts = cfg.MaxCodeAttempts
		}
		if cfg.AttemptRefillInterval > 0 {
			o.config.AttemptRefillInterval = cfg.AttemptRefillInterval
		}
		if cfg.SecretKeyPrefix != "" {
			o.config.SecretKeyPrefix = cfg.SecretKeyPrefix
		}
		if cfg.LegacyKeys != nil {
			o.config.LegacyKeys = cfg.LegacyKeys
		}
	}
}

// WithTOTPConfig sets the issuer and image size of new secrets.
func WithTOTPConfig(cfg totp.Config) Option {
	return func(o *Orchestrator) {
		if cfg.Issuer != "" {
			o.totp.Issuer = cfg.Issuer
		}
		if cfg.ImageSize > 0 {
			o.totp.ImageSize = cfg.ImageSize
		}
	}
}

// WithAttemptStore keeps attempt counters in store instead of memory.
func WithAttemptStore(store ratelimiter.Store) Option {
	return func(o *Orchestrator) {
		o.attempts = store
	}
}

// WithClock overrides time.Now for code verification and throttling.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

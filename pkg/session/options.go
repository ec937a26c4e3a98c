package session

import (
	"log/slog"
	"time"
)

// Option configures a Manager.
type Option func(*Manager)

// WithConfig applies cfg. Zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		if cfg.TTL > 0 {
			m.config.TTL = cfg.TTL
		}
		if cfg.StorageKey != "" {
			m.config.StorageKey = cfg.StorageKey
		}
	}
}

// WithTTL sets the session lifetime.
func WithTTL(ttl time.Duration) Option {
	return WithConfig(Config{TTL: ttl})
}

// WithSealer stores records encrypted for identity-bound sessions.
func WithSealer(s Sealer) Option {
	return func(m *Manager) {
		m.sealer = s
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

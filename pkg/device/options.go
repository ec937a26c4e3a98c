package device

import (
	"log/slog"
	"time"
)

// Option configures a Registry.
type Option func(*Registry)

// WithConfig applies cfg. Non-positive MaxDevices values are ignored.
func WithConfig(cfg Config) Option {
	return func(r *Registry) {
		if cfg.MaxDevices > 0 {
			r.maxDevices = cfg.MaxDevices
		}
	}
}

// WithMaxDevices sets the per-user cap.
func WithMaxDevices(n int) Option {
	return WithConfig(Config{MaxDevices: n})
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

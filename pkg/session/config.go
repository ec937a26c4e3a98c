package session

import "time"

// Config holds session settings.
type Config struct {
	// TTL is the maximum session age measured from IssuedAt.
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// StorageKey is the volatile storage key of the session record.
	StorageKey string `env:"SESSION_STORAGE_KEY" envDefault:"session.current"`
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		TTL:        24 * time.Hour,
		StorageKey: "session.current",
	}
}

package authflow

import "time"

// Config holds auth flow settings.
type Config struct {
	// MaxCodeAttempts is the burst of one-time code attempts per identity.
	MaxCodeAttempts int `env:"AUTH_MAX_CODE_ATTEMPTS" envDefault:"5"`

	// AttemptRefillInterval is how often one attempt is given back.
	AttemptRefillInterval time.Duration `env:"AUTH_ATTEMPT_REFILL_INTERVAL" envDefault:"30s"`

	// SecretKeyPrefix prefixes the durable key of each identity's secret.
	SecretKeyPrefix string `env:"AUTH_SECRET_KEY_PREFIX" envDefault:"auth.secret:"`

	// LegacyKeys are storage keys written by the basic flow. Any data found
	// there sends the user through MIGRATION.
	LegacyKeys []string `env:"AUTH_LEGACY_KEYS" envSeparator:"," envDefault:"totp.secret,totp.user_id"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxCodeAttempts:       5,
		AttemptRefillInterval: 30 * time.Second,
		SecretKeyPrefix:       "auth.secret:",
		LegacyKeys:            []string{"totp.secret", "totp.user_id"},
	}
}

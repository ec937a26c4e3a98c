package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/noteauth/pkg/config"
)

type cachedConfig struct {
	Name string `env:"NOTEAUTH_TEST_CACHED_NAME" envDefault:"first"`
}

type parsedConfig struct {
	Issuer   string        `env:"TEST_ISSUER" envDefault:"Notes"`
	TTL      time.Duration `env:"TEST_TTL" envDefault:"24h"`
	Attempts int           `env:"TEST_ATTEMPTS" envDefault:"5"`
}

type requiredConfig struct {
	URL string `env:"TEST_REQUIRED_URL,required"`
}

func TestLoad(t *testing.T) {
	t.Setenv("NOTEAUTH_TEST_CACHED_NAME", "from-env")

	var first cachedConfig
	require.NoError(t, config.Load(&first))
	assert.Equal(t, "from-env", first.Name)

	t.Setenv("NOTEAUTH_TEST_CACHED_NAME", "changed")
	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "from-env", second.Name, "second load must come from the cache")
}

func TestLoadNil(t *testing.T) {
	t.Parallel()
	assert.ErrorIs(t, config.Load[cachedConfig](nil), config.ErrNilPointer)
}

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		var cfg parsedConfig
		require.NoError(t, config.Parse(&cfg, nil))
		assert.Equal(t, "Notes", cfg.Issuer)
		assert.Equal(t, 24*time.Hour, cfg.TTL)
		assert.Equal(t, 5, cfg.Attempts)
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		var cfg parsedConfig
		require.NoError(t, config.Parse(&cfg, map[string]string{
			"TEST_ISSUER":   "Acme",
			"TEST_TTL":      "1h",
			"TEST_ATTEMPTS": "3",
		}))
		assert.Equal(t, parsedConfig{Issuer: "Acme", TTL: time.Hour, Attempts: 3}, cfg)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()
		var cfg parsedConfig
		err := config.Parse(&cfg, map[string]string{"TEST_ATTEMPTS": "many"})
		assert.ErrorIs(t, err, config.ErrParsingConfig)
	})

	t.Run("missing required", func(t *testing.T) {
		t.Parallel()
		var cfg requiredConfig
		assert.ErrorIs(t, config.Parse(&cfg, map[string]string{}), config.ErrParsingConfig)
	})
}

package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/noteauth/pkg/logger"
)

type ctxKey struct{}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json with static and context attributes", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(logger.Component("device")),
			logger.WithContextValue("request_id", ctxKey{}),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
		log.InfoContext(ctx, "registered", logger.UserID("u1"), logger.DeviceID(""), logger.Error(nil))

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "registered", rec["msg"])
		assert.Equal(t, "device", rec["component"])
		assert.Equal(t, "req-1", rec["request_id"])
		assert.Equal(t, "u1", rec["user_id"])
		assert.NotContains(t, rec, "device_id")
		assert.NotContains(t, rec, "error")
	})

	t.Run("level filters records", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))
		log.Info("hidden")
		assert.Empty(t, buf.String())
		log.Warn("shown", logger.Error(errors.New("boom")))
		assert.Contains(t, buf.String(), "boom")
	})

	t.Run("development is text", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithEnvironment("dev", "noteauth"), logger.WithOutput(&buf))
		log.Debug("hello")
		assert.Contains(t, buf.String(), "msg=hello")
		assert.Contains(t, buf.String(), "env=development")
	})

	t.Run("production is json", func(t *testing.T) {
		t.Parallel()
		var buf bytes.Buffer
		log := logger.New(logger.WithEnvironment("prod", "noteauth"), logger.WithOutput(&buf))
		log.Info("hello")
		assert.Contains(t, buf.String(), `"env":"production"`)
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
	})
}

package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pushkit/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Run("json format with static attrs", func(t *testing.T) {
		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithFormat(logger.FormatJSON),
			logger.WithAttr(slog.String("service", "pushkit")),
		)

		log.Info("hello")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "hello", rec["msg"])
		assert.Equal(t, "pushkit", rec["service"])
	})

	t.Run("context extractor injects attr", func(t *testing.T) {
		type ctxKey struct{}

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextValue("request_id", ctxKey{}),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "req-42")
		log.InfoContext(ctx, "with request id")

		var rec map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
		assert.Equal(t, "req-42", rec["request_id"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		assert.Panics(t, func() {
			logger.New(logger.WithFormat("xml"))
		})
	})
}

func TestAttrs(t *testing.T) {
	t.Run("error attr", func(t *testing.T) {
		assert.Equal(t, slog.Attr{}, logger.Error(nil))
		attr := logger.Error(assert.AnError)
		assert.Equal(t, "error", attr.Key)
	})

	t.Run("domain attrs", func(t *testing.T) {
		assert.Equal(t, "app_id", logger.AppID(1).Key)
		assert.Equal(t, "device_id", logger.DeviceID(2).Key)
		assert.Equal(t, "notification_id", logger.NotificationID(3).Key)
		assert.Equal(t, "external_user_id", logger.ExternalUserID("u").Key)
	})
}

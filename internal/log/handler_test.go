package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/pkg/correlationid"
)

func TestEnrichedHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newEnrichedHandler(slog.NewJSONHandler(&buf, nil)))

	t.Run("Should add correlation id from context", func(t *testing.T) {
		buf.Reset()
		ctx := correlationid.NewContext(context.Background(), "abc-123")
		logger.With(slog.String("service", "test")).InfoContext(ctx, "hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "abc-123", line["correlation_id"])
		assert.Equal(t, "test", line["service"])
		assert.NotContains(t, line, "trace_id")
	})

	t.Run("Should not add correlation id when absent", func(t *testing.T) {
		buf.Reset()
		logger.InfoContext(context.Background(), "hello")

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.NotContains(t, line, "correlation_id")
	})
}

func TestNewHandlerRedactsSecrets(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelInfo}))

	logger.InfoContext(context.Background(), "login attempt",
		slog.String("email", "ana@example.com"),
		slog.String("password", "hunter22"),
		slog.String("Authorization", "Bearer abc"),
	)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ana@example.com", line["email"])
	assert.Equal(t, redacted, line["password"])
	assert.Equal(t, redacted, line["Authorization"])
	assert.NotContains(t, buf.String(), "hunter22")
}

func TestNewHandlerHonoursDebugFlag(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newHandler(&buf, config.Log{Format: config.LogFormatJSON, Level: slog.LevelWarn, Debug: true}))

	logger.DebugContext(context.Background(), "visible")
	assert.Contains(t, buf.String(), "visible")
}

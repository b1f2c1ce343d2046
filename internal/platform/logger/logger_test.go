package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noetic/noospace-api/internal/config"
)

func TestSetupParsesLogLevel(t *testing.T) {
	cases := []struct {
		name    string
		level   string
		debugOn bool
		errorOn bool
	}{
		{"debug level enables debug", "debug", true, true},
		{"error level disables debug", "error", false, true},
		{"unknown level falls back to info", "verbose", false, true},
		{"case insensitive", "WARN", false, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := Setup(config.ServerConfig{LogLevel: tc.level})
			require.NoError(t, err)
			require.NotNil(t, log)

			assert.Equal(t, tc.debugOn, log.Enabled(context.Background(), slog.LevelDebug))
			assert.Equal(t, tc.errorOn, log.Enabled(context.Background(), slog.LevelError))
		})
	}
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	base := slog.Default()
	ctx := WithLogger(context.Background(), base)
	assert.Same(t, base, FromContext(ctx))

	// Falls back to the default logger when no logger is attached.
	assert.NotNil(t, FromContext(context.Background()))
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback))

	attached := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithLogger(context.Background(), attached)
	assert.Same(t, attached, FromContextOrDefault(ctx, fallback))
}

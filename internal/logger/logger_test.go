package logger

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/alkime/repurpose/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.Config
		debug bool
		warn  bool
	}{
		{name: "development is debug", cfg: config.Config{Env: "development", LogLevel: "info"}, debug: true, warn: true},
		{name: "production info", cfg: config.Config{Env: config.EnvProduction, LogLevel: "info"}, debug: false, warn: true},
		{name: "explicit debug", cfg: config.Config{Env: config.EnvProduction, LogLevel: "debug"}, debug: true, warn: true},
		{name: "explicit error", cfg: config.Config{Env: config.EnvProduction, LogLevel: "error"}, debug: false, warn: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l := newLogger(&buf, &tt.cfg)
			ctx := context.Background()

			assert.Equal(t, tt.debug, l.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warn, l.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestNewLogger_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, &config.Config{Env: config.EnvProduction, LogLevel: "info"})

	l.Info("stage complete", "stage", "captain")

	assert.Contains(t, buf.String(), `"stage":"captain"`)
	assert.Contains(t, buf.String(), `"msg":"stage complete"`)
}

package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonno85/video-multipart-uploader/internal/apperr"
	"github.com/jonno85/video-multipart-uploader/internal/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLogLevel(tt.in))
		})
	}
}

func TestSetupLoggerUsesLevelFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LOG_LEVEL=debug\n"), 0o644))
	t.Chdir(dir)
	t.Setenv("LOG_LEVEL", "")
	os.Unsetenv("LOG_LEVEL")

	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	config.LoadDotEnv()
	setupLogger()
	assert.True(t, slog.Default().Enabled(t.Context(), slog.LevelDebug))
}

func TestDescribe(t *testing.T) {
	msg := describe("http://localhost:8081", &apperr.ConnectivityError{Err: errors.New("connection refused")})
	assert.Contains(t, msg, "Is the backend running?")
	assert.Equal(t, "boom", describe("http://localhost:8081", errors.New("boom")))
}

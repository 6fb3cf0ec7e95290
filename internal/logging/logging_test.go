package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_StderrOnly_WhenNoFilePath(t *testing.T) {
	logger, cleanup, err := Setup("info", "")
	require.NoError(t, err)
	defer cleanup()

	assert.NotNil(t, logger)
}

func TestSetup_WritesToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "vectordb.log")

	logger, cleanup, err := Setup("debug", path)
	require.NoError(t, err)

	logger.Info("hello", slog.String("k", "v"))
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
}

func TestSetup_LevelFiltersBelowThreshold(t *testing.T) {
	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: parseLevel("warn")})
	logger := slog.New(handler)

	logger.Info("should be filtered")
	logger.Warn("should appear")

	assert.NotContains(t, buf.String(), "should be filtered")
	assert.Contains(t, buf.String(), "should appear")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelInfo, parseLevel("nonsense"))
}

func TestRotatingWriter_RotatesAtMaxSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rot.log")

	w, err := NewRotatingWriter(path, 0, 2) // maxSizeMB=0 -> 0 bytes, rotates every write
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	_, err = w.Write([]byte("first\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)

	_, statErr := os.Stat(path + ".1")
	assert.NoError(t, statErr)
}

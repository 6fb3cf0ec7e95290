// Package logging sets up structured slog output for vectordb, with an
// optional size-rotated log file alongside stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// defaultMaxSizeMB and defaultMaxFiles bound the rotating writer whenever
// Setup is given a file path; config.LoggingConfig has no rotation fields.
const (
	defaultMaxSizeMB = 10
	defaultMaxFiles  = 5
)

// Setup builds a slog.Logger from level and filePath (filePath empty
// means stderr only) and returns it with a cleanup function that flushes
// and closes the log file, if any.
func Setup(level, filePath string) (*slog.Logger, func(), error) {
	var output io.Writer = os.Stderr
	cleanup := func() {}

	if filePath != "" {
		writer, err := NewRotatingWriter(filePath, defaultMaxSizeMB, defaultMaxFiles)
		if err != nil {
			return nil, nil, err
		}
		output = io.MultiWriter(writer, os.Stderr)
		cleanup = func() {
			_ = writer.Sync()
			_ = writer.Close()
		}
	}

	handler := slog.NewJSONHandler(output, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler), cleanup, nil
}

// SetupDefault calls Setup and installs the result as slog's package
// default logger.
func SetupDefault(level, filePath string) (func(), error) {
	logger, cleanup, err := Setup(level, filePath)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return cleanup, nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

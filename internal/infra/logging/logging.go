package logging

import (
	"io"
	"log/slog"
	"os"
)

// New returns a JSON logger writing to w that tags every record with service.
func New(w io.Writer, level slog.Level, service string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	return slog.New(handler).With("service", service)
}

// SetupJSON sets slog's default logger to use JSON output on stdout at the
// given level.
func SetupJSON(level slog.Level, service string) *slog.Logger {
	logger := New(os.Stdout, level, service)
	slog.SetDefault(logger)

	return logger
}

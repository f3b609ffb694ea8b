package logger

import (
	"io"
	"log/slog"
	"os"

	"recruit-console/internal/config"
)

// SetupDefault installs the process-wide logger. Logs go to stderr so they
// never mix with command output on stdout.
func SetupDefault(cfg config.Logger) {
	slog.SetDefault(New(os.Stderr, cfg))
}

func New(w io.Writer, cfg config.Logger) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Plaintext {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// Discard drops every record. Used by the dashboard while it owns the screen.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

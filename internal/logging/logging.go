// Package logging builds the slog logger the tools log with.
package logging

import (
	"io"
	"log/slog"

	"github.com/sirkon/tapegraph/internal/config"
)

// New returns a logger writing to w in the configured format and level.
func New(c config.Log, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: c.Level.Slog(),
	}

	var h slog.Handler
	switch c.Format {
	case config.FormatJSON:
		h = slog.NewJSONHandler(w, opts)
	default:
		h = slog.NewTextHandler(w, opts)
	}

	return slog.New(h)
}

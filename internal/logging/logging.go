// Package logging builds the service logger.
package logging

import (
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/log"
)

// Options selects the logger output.
type Options struct {
	// JSON switches to one JSON object per line, for production.
	JSON bool
	// Debug enables debug records and caller reporting.
	Debug bool
	// Prefix is printed before every message in text mode.
	Prefix string
}

// New returns a slog.Logger backed by a charmbracelet logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	charm := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		ReportCaller:    opts.Debug,
		Prefix:          opts.Prefix,
	})
	if opts.JSON {
		charm.SetFormatter(log.JSONFormatter)
	}
	if opts.Debug {
		charm.SetLevel(log.DebugLevel)
	} else {
		charm.SetLevel(log.InfoLevel)
	}
	return slog.New(charm)
}

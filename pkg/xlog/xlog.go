// Package xlog sets up the process-wide structured logger. The underlying
// library is zerolog, the same logger cometbft's own libs/log package wraps.
package xlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the process-wide structured logger, configured once by Init and
// read by every package through With().
var Logger zerolog.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Options controls Init.
type Options struct {
	// Level is a zerolog level name: "debug", "info", "warn", "error".
	Level string
	// Pretty renders a human-readable console writer instead of JSON lines,
	// for local development.
	Pretty bool
	Output io.Writer
}

// Init configures the package-global Logger. Called once from
// cmd/validatornode/main.go. The level applies globally; the output and
// format apply only to loggers derived after the call, not to
// package-level Component loggers created at initialization.
func Init(opts Options) {
	level, err := zerolog.ParseLevel(opts.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	Logger = zerolog.New(out).With().Timestamp().Logger()
}

// Component returns a child logger tagged with a "component" field, the
// convention every package in this module uses instead of ad-hoc prefixes.
func Component(name string) zerolog.Logger {
	return Logger.With().Str("component", name).Logger()
}

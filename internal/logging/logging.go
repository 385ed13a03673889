// Package logging builds the zerolog loggers used by the REPL and the
// execution layer. Statement rendering itself never logs.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Option adjusts a logger after construction.
type Option func(zerolog.Logger) zerolog.Logger

// WithOutput sends output to w through a plain console writer.
func WithOutput(w io.Writer) Option {
	return func(l zerolog.Logger) zerolog.Logger {
		return l.Output(console(w))
	}
}

// WithLevel sets the minimum level.
func WithLevel(level zerolog.Level) Option {
	return func(l zerolog.Logger) zerolog.Logger {
		return l.Level(level)
	}
}

// New returns a console logger writing to stderr at info level, adjusted by
// opts.
func New(opts ...Option) zerolog.Logger {
	l := zerolog.New(console(os.Stderr)).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	for _, o := range opts {
		l = o(l)
	}
	return l
}

// ParseLevel parses a level name such as "debug" or "warn". An empty
// string means info; an unknown name is an error.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(name)
}

// Nop returns a logger that discards everything.
func Nop() zerolog.Logger { return zerolog.Nop() }

func console(w io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.TimeOnly,
		NoColor:    true,
	}
}

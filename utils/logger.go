package utils

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

const timeLayout = "2006-01-02 15:04:05"

// Logger provides leveled, printf-style logging on top of zerolog.
// Errors go to stderr, everything else to stdout.
type Logger struct {
	out zerolog.Logger
	err zerolog.Logger
}

// NewLogger creates a console Logger at info level.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, os.Stderr, "info")
}

// NewLoggerTo creates a Logger writing to the given sinks. level is one of
// debug, info, warn, error; anything else falls back to info.
func NewLoggerTo(out, errOut io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return &Logger{
		out: newConsole(out).Level(lvl),
		err: newConsole(errOut).Level(lvl),
	}
}

func newConsole(w io.Writer) zerolog.Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: timeLayout}
	if f, ok := w.(*os.File); !ok || f != os.Stdout && f != os.Stderr {
		cw.NoColor = true
	}
	return zerolog.New(cw).With().Timestamp().Logger()
}

func (l *Logger) Info(format string, args ...any) {
	l.out.Info().Msgf(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.out.Warn().Msgf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.err.Error().Msgf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.out.Debug().Msgf(format, args...)
}

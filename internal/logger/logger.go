// Package logger provides a thin wrapper around zerolog.Logger used
// throughout wallet-core. Embedding zerolog.Logger exposes the full zerolog
// API while keeping construction in one place.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger is a thin wrapper around zerolog.Logger.
type Logger struct {
	zerolog.Logger
}

// New constructs a JSON logger writing to stdout, tagged with a component
// label (e.g. "transfer", "chain.solana") for filtering.
func New(component string) *Logger {
	l := zerolog.New(os.Stdout).With().
		Str("component", component).
		Timestamp().
		Logger()
	return &Logger{l}
}

// Nop returns a logger that discards everything. Used in tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

// With returns a child logger carrying an extra component label.
func (l *Logger) With(component string) *Logger {
	child := l.Logger.With().Str("component", component).Logger()
	return &Logger{child}
}

// Package logger builds the zerolog loggers used by the user service.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Logger embeds zerolog.Logger so the full zerolog API stays available.
type Logger struct {
	zerolog.Logger
}

// New returns a JSON logger writing to stdout, tagged with the service
// name. Unknown level strings fall back to info.
func New(service, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	l := zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Str("service", service).
		Timestamp().
		Logger()
	return &Logger{l}
}

// Nop returns a logger that discards everything. For tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

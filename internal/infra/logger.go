package infra

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs the service logger: a human-readable console at debug
// level in development, JSON at info level everywhere else. Every line is
// tagged with the service name so editlab entries stay separable when a host
// aggregates several processes into one stream. The level is scoped to this
// logger, not set globally.
func NewLogger(appEnv string) Logger {
	level := zerolog.InfoLevel
	var out io.Writer = os.Stdout
	if appEnv == "development" {
		level = zerolog.DebugLevel
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "editlab").
		Logger()
}

// Logger aliases zerolog.Logger so callers outside infra depend on the
// logging contract without importing the third-party module directly.
type Logger = zerolog.Logger

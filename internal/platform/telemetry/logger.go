// Package telemetry provides logger construction and lightweight engine
// metrics: counters for generated rows, skipped values, and surrogate-id
// cache behavior, exposed as a Prometheus text endpoint without pulling in a
// metrics SDK.
package telemetry

import (
	"os"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger. Development gets a console writer,
// everything else JSON to stdout.
func NewLogger(env, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).Level(lvl).With().Timestamp().Logger()
	}
	return logger
}

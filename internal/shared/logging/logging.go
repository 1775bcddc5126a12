// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"time"

	sentryzerolog "github.com/getsentry/sentry-go/zerolog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/andrasnagy-data/weekplan/internal/shared/config"
)

// sentryLevels are forwarded to Sentry in addition to stderr.
var sentryLevels = []zerolog.Level{zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel}

// NewLogger sets the global level from cfg.LogLevel and returns the logger every component
// derives its own from. Outside production it writes readable lines to stderr and the
// returned writer is nil. In production it writes JSON and mirrors errors to Sentry through
// the returned writer, which the server closes on shutdown.
func NewLogger(cfg *config.Config) (zerolog.Logger, *sentryzerolog.Writer) {
	zerolog.SetGlobalLevel(parseLevel(cfg.LogLevel))

	if !cfg.IsEnvProd() {
		return consoleLogger(os.Stderr), nil
	}

	// Events logged before the server calls sentry.Init are dropped by the hub.
	sentryWriter, err := sentryzerolog.New(sentryzerolog.Config{
		Options: sentryzerolog.Options{
			Levels:          sentryLevels,
			WithBreadcrumbs: true,
			FlushTimeout:    3 * time.Second,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Sentry log forwarding unavailable, logging to stderr only")
		return consoleLogger(os.Stderr), nil
	}

	return zerolog.New(zerolog.MultiLevelWriter(os.Stderr, sentryWriter)).
		With().
		Timestamp().
		Caller().
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Logger(), sentryWriter
}

// parseLevel falls back to info for empty or unknown names.
func parseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		return zerolog.InfoLevel
	}
	return level
}

func consoleLogger(out io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Caller().
		Logger()
}

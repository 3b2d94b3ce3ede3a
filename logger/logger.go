// Package logger configures the process-wide zerolog root logger.
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Init initializes a logger writing to the given file path. If path is empty,
// logs go to stderr; if pretty is also set, output is human-readable console
// format instead of JSON. Log level comes from the LOG_LEVEL environment
// variable (trace, debug, info, warn, error) and defaults to info.
func Init(path string, pretty bool) (zerolog.Logger, error) {
	level := parseLevel(os.Getenv("LOG_LEVEL"))

	var log zerolog.Logger
	switch {
	case path != "":
		//nolint:gosec // G304: user-specified log file path is intentional
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("open log file %s: %w", path, err)
		}
		log = zerolog.New(file).Level(level).With().Timestamp().Logger()
		log.Info().Str("path", path).Str("level", level.String()).Msg("Logger initialized")
	case pretty:
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
		log.Info().Str("format", "pretty").Str("level", level.String()).Msg("Logger initialized")
	default:
		log = zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
		log.Info().Str("level", level.String()).Msg("Logger initialized")
	}

	return log, nil
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

/*
Package logx provides the application's structured logging layer on top of zerolog.

It initializes the global logger (console output in development, JSON in
production) and exposes small level helpers that accept key-value field pairs.
*/
package logx

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitGlobalLogger configures the process-wide zerolog instance.
// Development mode uses a human-readable console writer at Debug level;
// otherwise logs are emitted as JSON at Info level. Caller information
// and a Unix timestamp are attached to every entry.
func InitGlobalLogger(isDevelopment bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if isDevelopment {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	log.Logger = logger.With().Caller().Logger()
}

// Logger returns the global zerolog.Logger.
func Logger() *zerolog.Logger {
	return &log.Logger
}

// evenFields drops the field list when it does not form key-value pairs,
// which would otherwise make zerolog panic.
func evenFields(level string, fields []any) []any {
	if len(fields)%2 != 0 {
		Logger().Warn().
			Str("log_level", level).
			Int("fields_count", len(fields)).
			Msgf("logx %s call received odd number of fields; fields ignored", level)
		return nil
	}
	return fields
}

// Info logs a message at Info level with optional key-value fields.
func Info(msg string, fields ...any) {
	Logger().Info().
		Fields(evenFields("info", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Warn logs a message at Warn level with optional key-value fields.
func Warn(msg string, fields ...any) {
	Logger().Warn().
		Fields(evenFields("warn", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Error logs an error with a message and optional key-value fields.
func Error(err error, msg string, fields ...any) {
	Logger().Error().
		Err(err).
		Fields(evenFields("error", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

// Fatal logs an error at Fatal level and terminates the process.
func Fatal(err error, msg string, fields ...any) {
	Logger().Fatal().
		Err(err).
		Fields(evenFields("fatal", fields)).
		CallerSkipFrame(1).
		Msg(msg)
}

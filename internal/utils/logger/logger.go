// Package logger provides the global loggers for the application
package logger

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"go.uber.org/zap"
)

var (
	Logger *zap.Logger = zap.NewNop()
	mu     sync.RWMutex
)

func initLogger(environment, level string) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).With().Caller().Logger()

	environment = strings.ToLower(environment)
	if environment == "" {
		environment = "prod"
	}

	var logLevel zerolog.Level
	switch environment {
	case "dev", "test":
		logLevel = zerolog.TraceLevel
		log.Info().Str("environment", environment).Msg("Development/Test environment detected - enabling all log levels")
	case "prod":
		logLevel = zerolog.InfoLevel
		log.Info().Str("environment", environment).Msg("Production environment detected - enabling info level and above")
	default:
		logLevel = zerolog.InfoLevel
		log.Warn().Str("environment", environment).Msg("Unknown environment - defaulting to production log level (info and above)")
	}

	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			log.Warn().Err(err).Str("level", level).Msg("Invalid log level - keeping environment log level")
		} else {
			logLevel = parsed
			log.Info().Str("level", parsed.String()).Msg("Log level override detected")
		}
	}

	zerolog.SetGlobalLevel(logLevel)

	var (
		zl  *zap.Logger
		err error
	)
	if environment == "prod" {
		zl, err = zap.NewProduction()
	} else {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to build zap logger, falling back to no-op")
		zl = zap.NewNop()
	}

	mu.Lock()
	Logger = zl
	mu.Unlock()

	log.Debug().Str("environment", environment).Str("level", logLevel.String()).Msg("Logging initialised")
}

// Init sets up the global zerolog logger with console output and builds the
// zap logger behind Sugar. level, when set, overrides the level derived from
// the environment ("dev", "test" or "prod").
//
//	logger.Init(cfg.Environment, cfg.LogLevel) <- inside whichever main() function in your entrypoint
func Init(environment, level string) {
	initLogger(environment, level)
}

// Sugar returns a sugared logger for easier use. Before Init it is a no-op logger.
func Sugar() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return Logger.Sugar()
}

// Sync flushes the zap logger.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = Logger.Sync()
}

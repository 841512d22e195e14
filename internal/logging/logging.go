// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Environment selects the log format.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ParseEnvironment maps a config string to an Environment. Anything other
// than "production" or "prod" is treated as development.
func ParseEnvironment(s string) Environment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

// Options controls Init.
type Options struct {
	Environment Environment
	// Level overrides the environment's default level when non-empty
	// ("debug", "info", "warn", "error").
	Level string
	// Writer receives log output. Defaults to os.Stderr so stdout stays
	// clean for command output.
	Writer io.Writer
}

// Init builds a logger, installs it as the global zerolog logger, and
// returns it. Production writes JSON at info level; development writes a
// human-readable console format with caller info at debug level.
func Init(opts Options) zerolog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var logger zerolog.Logger
	if opts.Environment == Production {
		logger = zerolog.New(w).With().Timestamp().Logger().Level(zerolog.InfoLevel)
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).
			With().Timestamp().Caller().Logger().
			Level(zerolog.DebugLevel)
	}

	if opts.Level != "" {
		if lvl, err := zerolog.ParseLevel(strings.ToLower(opts.Level)); err == nil {
			logger = logger.Level(lvl)
		}
	}

	log.Logger = logger
	return logger
}

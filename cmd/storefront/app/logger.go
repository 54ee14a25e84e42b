package app

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/agentstation/storefront/pkg/logging"
)

// NewLogger creates a configured logger based on the application configuration.
// Log level precedence (highest to lowest):
//  1. -q/--quiet flag (warn)
//  2. -v/--verbose flag (debug)
//  3. --log-level flag
//  4. LOG_LEVEL environment variable
//  5. logging.level from the config file or STOREFRONT_LOGGING_LEVEL
//  6. Default (info)
func NewLogger(config *Config) zerolog.Logger {
	return newLogger(config, os.Stderr)
}

func newLogger(config *Config, warnings io.Writer) zerolog.Logger {
	logConfig := config.Logging
	logConfig.Level = determineLogLevel(config, warnings)
	if config.NoColor {
		logConfig.NoColor = true
	}
	return logging.NewLoggerFromConfig(&logConfig)
}

// determineLogLevel determines the log level using the precedence rules.
func determineLogLevel(config *Config, warnings io.Writer) string {
	if config.Verbose && config.Quiet {
		fmt.Fprintln(warnings, "Warning: both --verbose and --quiet specified, using --quiet")
	}
	if config.Quiet {
		return "warn"
	}
	if config.Verbose {
		return "debug"
	}

	for _, candidate := range []struct{ source, level string }{
		{"--log-level", config.LogLevel},
		{"LOG_LEVEL", os.Getenv("LOG_LEVEL")},
		{"logging.level", config.Logging.Level},
	} {
		if candidate.level == "" {
			continue
		}
		validated := validateLogLevel(candidate.level)
		if validated != strings.ToLower(candidate.level) {
			fmt.Fprintf(warnings, "Warning: invalid log level %q from %s, using %q\n", candidate.level, candidate.source, validated)
		}
		return validated
	}

	return "info"
}

// validateLogLevel validates a log level string and returns a valid level.
// If the input is invalid, returns "info" as a safe default.
func validateLogLevel(level string) string {
	switch l := strings.ToLower(strings.TrimSpace(level)); l {
	case "trace", "debug", "info", "warn", "error":
		return l
	default:
		return "info"
	}
}

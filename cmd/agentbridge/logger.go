package main

import (
	"fmt"
	"os"

	"github.com/agentbridge/agentbridge/pkg/logger"
)

const (
	// LogFileEnvVar overrides the log file path.
	LogFileEnvVar = "LOG_FILE"
	// LogLevelEnvVar overrides the log level.
	LogLevelEnvVar = "LOG_LEVEL"
	// LogFormatEnvVar overrides the log format.
	LogFormatEnvVar = "LOG_FORMAT"
)

// initLogger initializes the process logger. Priority: CLI flags, then
// environment variables, then defaults.
func initLogger(cliLevel, cliFile, cliFormat string) (func(), error) {
	level := cliLevel
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}
	if level == "" {
		level = "info"
	}

	file := cliFile
	if file == "" {
		file = os.Getenv(LogFileEnvVar)
	}

	format := cliFormat
	if format == "" {
		format = os.Getenv(LogFormatEnvVar)
	}
	if format == "" {
		format = "simple"
	}

	var output *os.File
	var cleanup func()
	if file != "" {
		f, cleanupFn, err := logger.OpenLogFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		output = f
		cleanup = cleanupFn
	} else {
		output = os.Stderr
	}

	logger.Init(logger.ParseLevel(level), output, format)
	return cleanup, nil
}

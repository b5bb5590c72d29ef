// FILE: logging.go
// Package main – Process logger.
//
// initLogger builds the zap logger from LOG_LEVEL / LOG_DEV and installs the
// sugared form in `logger`. Everything else takes a *zap.SugaredLogger so
// tests can pass zaptest loggers.
package main

import (
	"fmt"

	"go.uber.org/zap"
)

// logger is the process-wide sugared logger; a no-op until initLogger runs.
var logger = zap.NewNop().Sugar()

func initLogger(level string, dev bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", level, err)
	}
	cfg.Level = lvl

	l, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	logger = l.Sugar()
	return l, nil
}

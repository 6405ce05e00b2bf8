package main

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a zap logger for --verbose diagnostics, following
// libaf/logging's NewLogger: development-style console encoding at debug
// level when verbose, a no-op logger otherwise. rq's core packages never
// log themselves (spec.md's core has no logging concept); only the CLI
// edge does.
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

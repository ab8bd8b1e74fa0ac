// Package logging builds the zap logger shared by the command line and the
// zone management services.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/deploymenttheory/go-zbd/internal/config"
)

// New returns a logger writing to stderr at the configured level.
// Development mode uses the console encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.DisableStacktrace = true
		zc.Sampling = nil
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// Verbosity adjusts a configured level to the command line flags: verbose
// lowers it to debug, quiet raises it to error.
func Verbosity(cfg config.LogConfig, verbose, quiet bool) config.LogConfig {
	switch {
	case quiet:
		cfg.Level = zapcore.ErrorLevel.String()
	case verbose:
		cfg.Level = zapcore.DebugLevel.String()
	}
	return cfg
}

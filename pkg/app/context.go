package app

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/deploymenttheory/go-zbd/internal/config"
	"github.com/deploymenttheory/go-zbd/internal/services"
)

// Context holds application-wide configuration and state
type Context struct {
	context.Context

	// Output preferences
	OutputFormat string
	Verbose      bool
	Quiet        bool

	Config   *config.Config
	Logger   *zap.Logger
	Sessions *services.Manager

	// Out receives command output, os.Stdout by default.
	Out io.Writer
}

// NewContext creates a new application context
func NewContext(cfg *config.Config, logger *zap.Logger) *Context {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Context{
		Context:      context.Background(),
		OutputFormat: "table",
		Config:       cfg,
		Logger:       logger,
		Sessions:     services.NewManager(cfg, logger),
		Out:          os.Stdout,
	}
}

// Log records a progress message. It is shown on the console in verbose mode.
func (c *Context) Log(message string, fields ...zap.Field) {
	if c.Quiet {
		return
	}
	if c.Verbose {
		c.Logger.Info(message, fields...)
		return
	}
	c.Logger.Debug(message, fields...)
}

// Close releases every device session opened through the context.
func (c *Context) Close() error {
	return c.Sessions.CloseAll()
}

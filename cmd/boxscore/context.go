package main

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/joseph-ayodele/boxscore-tracker/internal/common"
	"github.com/joseph-ayodele/boxscore-tracker/internal/core"
)

type commandContext struct {
	configFlag *string
	logFormat  *string
	logLevel   *string
	appOptions []core.Option

	configOnce sync.Once
	config     *common.Config
	configErr  error
}

func newCommandContext(configFlag, logFormat, logLevel *string, opts ...core.Option) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		logFormat:  logFormat,
		logLevel:   logLevel,
		appOptions: opts,
	}
}

func (c *commandContext) ensureConfig() (*common.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := common.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevel != nil && strings.TrimSpace(*c.logLevel) != "" {
			cfg.LogLevel = strings.TrimSpace(*c.logLevel)
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// logger writes to stderr so command output on stdout stays parseable.
func (c *commandContext) logger() *slog.Logger {
	level := "info"
	if cfg, err := c.ensureConfig(); err == nil {
		level = cfg.LogLevel
	}
	format := "text"
	if c.logFormat != nil {
		format = *c.logFormat
	}
	logger := common.NewLogger(os.Stderr, level, format)
	slog.SetDefault(logger)
	return logger
}

// withApp opens the store and every component for the duration of fn.
func (c *commandContext) withApp(ctx context.Context, fn func(*core.App) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	app, err := core.Open(ctx, cfg, c.logger(), c.appOptions...)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

// requireExtraction fails early when the extraction service is not configured.
func (c *commandContext) requireExtraction() error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	return cfg.ValidateForExtraction()
}

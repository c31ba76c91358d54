package main

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"speakerid/internal/config"
	"speakerid/internal/embedding"
	"speakerid/internal/enroll"
	"speakerid/internal/logging"
	"speakerid/internal/media/ffprobe"
)

// Swapped in tests to avoid spawning uvx and ffprobe.
var (
	newEmbeddingProvider = func(cfg *config.Config, token string, logger *slog.Logger) embedding.Provider {
		return embedding.NewPyannote(embedding.PyannoteConfig{
			Model:       cfg.Embedding.Model,
			HFToken:     token,
			CUDAEnabled: cfg.Embedding.CUDAEnabled,
			Window:      cfg.Embedding.Window,
			UVXCommand:  cfg.Embedding.UVXCommand,
		}, logger)
	}
	newDurationProber = func(cfg *config.Config) enroll.DurationProber {
		return ffprobe.NewProber(cfg.Embedding.FFprobeCommand)
	}
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// loggerFor returns the configured logger tagged with the command's run
// context.
func (c *commandContext) loggerFor(ctx context.Context) (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger, c.loggerErr = logging.NewFromConfig(cfg)
	})
	if c.loggerErr != nil {
		return nil, c.loggerErr
	}
	return logging.WithContext(ctx, c.logger), nil
}

// setup resolves config and logger for a running command.
func (c *commandContext) setup(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.loggerFor(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEmbedding()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.SpeakersDir) == "" {
		c.Paths.SpeakersDir = defaultSpeakersDir
	}
	if c.Paths.SpeakersDir, err = expandPath(strings.TrimSpace(c.Paths.SpeakersDir)); err != nil {
		return fmt.Errorf("paths.speakers_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEmbedding() {
	c.Embedding.Model = strings.TrimSpace(c.Embedding.Model)
	if c.Embedding.Model == "" {
		c.Embedding.Model = defaultEmbeddingModel
	}
	c.Embedding.Window = strings.ToLower(strings.TrimSpace(c.Embedding.Window))
	if c.Embedding.Window == "" {
		c.Embedding.Window = defaultEmbeddingWindow
	}
	c.Embedding.HFToken = strings.TrimSpace(c.Embedding.HFToken)
	if c.Embedding.HFToken == "" {
		if value, ok := os.LookupEnv("HF_TOKEN"); ok && strings.TrimSpace(value) != "" {
			c.Embedding.HFToken = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("HUGGING_FACE_HUB_TOKEN"); ok {
			c.Embedding.HFToken = strings.TrimSpace(value)
		}
	}
	c.Embedding.UVXCommand = strings.TrimSpace(c.Embedding.UVXCommand)
	if c.Embedding.UVXCommand == "" {
		c.Embedding.UVXCommand = defaultUVXCommand
	}
	c.Embedding.FFprobeCommand = strings.TrimSpace(c.Embedding.FFprobeCommand)
	if c.Embedding.FFprobeCommand == "" {
		c.Embedding.FFprobeCommand = defaultFFprobeCommand
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

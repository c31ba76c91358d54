package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	switch c.Embedding.Window {
	case "sliding", "whole":
		return nil
	default:
		return fmt.Errorf("embedding.window: unsupported value %q (expected sliding or whole)", c.Embedding.Window)
	}
}

func (c *Config) validateMatching() error {
	if c.Matching.Threshold < -1 || c.Matching.Threshold > 1 {
		return errors.New("matching.threshold must be between -1 and 1")
	}
	if c.Matching.MinSegmentSeconds <= 0 {
		return errors.New("matching.min_segment_seconds must be positive")
	}
	if c.Matching.MaxSegments <= 0 {
		return errors.New("matching.max_segments must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

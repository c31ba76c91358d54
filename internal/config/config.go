package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"speakerid/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SpeakersDir string `toml:"speakers_dir"`
	LogDir      string `toml:"log_dir"`
}

// Embedding contains configuration for the pyannote embedding provider.
type Embedding struct {
	Model       string `toml:"model"`
	HFToken     string `toml:"hf_token"`
	CUDAEnabled bool   `toml:"cuda_enabled"`
	// Window is the pyannote Inference window ("sliding" or "whole").
	Window         string `toml:"window"`
	UVXCommand     string `toml:"uvx_command"`
	FFprobeCommand string `toml:"ffprobe_command"`
}

// Matching contains configuration for diarization label resolution.
type Matching struct {
	Threshold         float64 `toml:"threshold"`
	MinSegmentSeconds float64 `toml:"min_segment_seconds"`
	MaxSegments       int     `toml:"max_segments"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for speakerid.
type Config struct {
	Paths     Paths     `toml:"paths"`
	Embedding Embedding `toml:"embedding"`
	Matching  Matching  `toml:"matching"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file, returning the
// config, the resolved path, and whether that file existed. Parse and
// validation failures match services.ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "validate", resolved, err)
	}
	return &cfg, resolved, exists, nil
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return services.Wrap(services.ErrConfiguration, "config", "parse", path, err)
	}
	return nil
}

// resolveConfigPath prefers an explicit path, then the per-user file, then
// ./speakerid.toml. When none exists the per-user path is returned.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		exists, err := regularFile(expanded)
		return expanded, exists, err
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs(defaultProjectConfigName)
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, projectPath} {
		if ok, _ := regularFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func regularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat config: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("config path %q is a directory", path)
	}
	return true, nil
}

// MetadataPath returns the speakers.json path inside the speakers directory.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.Paths.SpeakersDir, metadataFileName)
}

// HFToken returns the Hugging Face token, preferring an explicit override.
func (c *Config) HFToken(override string) string {
	if token := strings.TrimSpace(override); token != "" {
		return token
	}
	return strings.TrimSpace(c.Embedding.HFToken)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

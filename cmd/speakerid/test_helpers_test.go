package main

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speakerid/internal/config"
	"speakerid/internal/embedding"
	"speakerid/internal/enroll"
	"speakerid/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("uvx"))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nspeakers_dir = %q\n\n[embedding]\nhf_token = %q\nffprobe_command = %q\n\n[matching]\nthreshold = %v\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.SpeakersDir,
		cfg.Embedding.HFToken,
		"clearly-not-present-ffprobe",
		cfg.Matching.Threshold,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

type stubProvider struct {
	frames embedding.Frames
	err    error
	token  string
	clips  []embedding.Clip
}

func (s *stubProvider) Embed(_ context.Context, clip embedding.Clip) (embedding.Frames, error) {
	s.clips = append(s.clips, clip)
	return s.frames, s.err
}

func (s *stubProvider) Model() string { return "pyannote/embedding" }

type stubProber float64

func (p stubProber) Duration(context.Context, string) (float64, error) { return float64(p), nil }

// useStubs replaces the embedding provider and duration prober for one test.
func useStubs(t *testing.T, provider *stubProvider, seconds float64) {
	t.Helper()
	prevProvider, prevProber := newEmbeddingProvider, newDurationProber
	newEmbeddingProvider = func(_ *config.Config, token string, _ *slog.Logger) embedding.Provider {
		provider.token = token
		return provider
	}
	newDurationProber = func(*config.Config) enroll.DurationProber { return stubProber(seconds) }
	t.Cleanup(func() {
		newEmbeddingProvider, newDurationProber = prevProvider, prevProber
	})
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

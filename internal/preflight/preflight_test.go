package preflight

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"speakerid/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckStoreDirectory_MissingButCreatable(t *testing.T) {
	result := CheckStoreDirectory("speakers", filepath.Join(t.TempDir(), "a", "b"))
	if !result.Passed {
		t.Fatalf("expected pass for creatable dir, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "created on first enrollment") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckToken(t *testing.T) {
	if CheckToken("").Passed {
		t.Fatal("expected failure without token")
	}
	result := CheckToken("hf_abcdefgh")
	if !result.Passed {
		t.Fatal("expected pass with token")
	}
	if strings.Contains(result.Detail, "abcdefgh") {
		t.Fatalf("token not masked: %s", result.Detail)
	}
}

func TestRunAll(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("uvx"))
	cfg.Embedding.FFprobeCommand = "clearly-not-present-ffprobe"
	cfg.Embedding.HFToken = ""

	results := RunAll(cfg)
	byName := make(map[string]Result, len(results))
	for _, r := range results {
		byName[r.Name] = r
	}
	if !byName["Speakers directory"].Passed {
		t.Fatalf("speakers dir check failed: %+v", byName["Speakers directory"])
	}
	if !byName["uvx"].Passed {
		t.Fatalf("uvx stub not found: %+v", byName["uvx"])
	}
	if ff := byName["FFprobe"]; !ff.Passed || !strings.Contains(ff.Detail, "optional") {
		t.Fatalf("optional ffprobe should pass with note: %+v", ff)
	}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "HuggingFace token" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

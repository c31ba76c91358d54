package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"speakerid/internal/config"
	"speakerid/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckStoreDirectory is CheckDirectoryAccess for a directory enrollment
// creates on demand: a missing directory passes when its nearest existing
// ancestor is writable.
func CheckStoreDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil || !os.IsNotExist(err) {
		return CheckDirectoryAccess(name, path)
	}
	parent := filepath.Dir(path)
	for parent != filepath.Dir(parent) {
		if _, err := os.Stat(parent); err == nil {
			break
		}
		parent = filepath.Dir(parent)
	}
	if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first enrollment)", path)}
}

// CheckToken reports whether a HuggingFace token is available.
func CheckToken(token string) Result {
	const name = "HuggingFace token"
	token = strings.TrimSpace(token)
	if token == "" {
		return Result{Name: name, Detail: "not set (set HF_TOKEN or embedding.hf_token)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured (" + mask(token) + ")"}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "uvx",
			Command:     cfg.Embedding.UVXCommand,
			Description: "Runs the pyannote embedding helper",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Embedding.FFprobeCommand,
			Description: "Records enrollment sample durations",
			Optional:    true,
		},
	})
}

func mask(token string) string {
	if len(token) <= 6 {
		return "***"
	}
	return token[:3] + "..." + token[len(token)-2:]
}

package main

import (
	"bytes"
	"strings"
	"testing"

	"speakerid/internal/preflight"
	"speakerid/internal/testsupport"
)

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedProfile(t, testsupport.MustStore(t, env.cfg), "bob", "Bob", 1)

	stdout, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "Speakers directory")
	requireContains(t, stdout, "read/write ok")
	requireContains(t, stdout, "WARN")
	requireContains(t, stdout, "All checks passed")
	if strings.Contains(stdout, ansiGreen) {
		t.Fatalf("non-terminal output should not be colorized")
	}
}

func TestRenderStatusCell(t *testing.T) {
	if got := renderStatusCell(statusOK, false); got != "OK" {
		t.Fatalf("plain cell = %q", got)
	}
	colored := renderStatusCell(statusError, true)
	if !strings.HasPrefix(colored, ansiRed) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("colored cell = %q", colored)
	}
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatalf("buffers must not be colorized")
	}
}

func TestResultKind(t *testing.T) {
	tests := []struct {
		result preflight.Result
		want   statusKind
	}{
		{preflight.Result{Passed: true, Detail: "/usr/bin/uvx"}, statusOK},
		{preflight.Result{Passed: true, Detail: `binary "ffprobe" not found (optional)`}, statusWarn},
		{preflight.Result{Detail: "not set"}, statusError},
	}
	for _, tt := range tests {
		if got := resultKind(tt.result); got != tt.want {
			t.Fatalf("resultKind(%+v) = %v, want %v", tt.result, got, tt.want)
		}
	}
}

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWithLogFileRecordsDebugBelowPrimaryLevel(t *testing.T) {
	var console bytes.Buffer
	infoLevel := new(slog.LevelVar)
	infoLevel.Set(slog.LevelInfo)
	path := filepath.Join(t.TempDir(), "logs", LogFileName)

	handler, err := withLogFile(newPrettyHandler(&console, infoLevel, false), path)
	if err != nil {
		t.Fatalf("withLogFile: %v", err)
	}
	logger := slog.New(handler).With(String(FieldSpeakerLabel, "SPEAKER_01"))
	logger.Debug("segment embedded")
	logger.Info("label resolved")

	if strings.Contains(console.String(), "segment embedded") {
		t.Fatalf("console should not see debug records: %q", console.String())
	}
	if !strings.Contains(console.String(), "label resolved") {
		t.Fatalf("console missing info record: %q", console.String())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	for _, fragment := range []string{`"msg":"segment embedded"`, `"msg":"label resolved"`, `"speaker_label":"SPEAKER_01"`} {
		if !strings.Contains(string(data), fragment) {
			t.Fatalf("expected %s in log file %q", fragment, data)
		}
	}
}

func TestWithLogFileRejectsUnwritablePath(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	if _, err := withLogFile(NoopHandler{}, filepath.Join(blocker, LogFileName)); err == nil {
		t.Fatal("expected error when the log directory is a file")
	}
}

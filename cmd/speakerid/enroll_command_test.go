package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"speakerid/internal/embedding"
	"speakerid/internal/services"
	"speakerid/internal/testsupport"
)

func TestEnrollCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	provider := &stubProvider{frames: embedding.Frames{{0.1, 0.2, 0.3}}}
	useStubs(t, provider, 5.555)

	sample := filepath.Join(env.baseDir, "jane.wav")
	testsupport.WriteFile(t, sample, 128)
	dir := env.cfg.Paths.SpeakersDir
	output := filepath.Join(dir, "jane_doe.npy")
	metadata := filepath.Join(dir, "speakers.json")

	stdout, _, err := runCLI(t, []string{
		"enroll",
		"--input", sample,
		"--output", output,
		"--speaker_name", "Jane Doe",
		"--metadata", metadata,
		"--hf_token", "hf_flag",
	}, env.configPath)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	requireContains(t, stdout, "Saved embedding: "+output+" (shape: (3,))")
	requireContains(t, stdout, "Updated metadata: "+metadata)
	if provider.token != "hf_flag" {
		t.Fatalf("flag token not preferred, got %q", provider.token)
	}

	store := testsupport.MustStore(t, env.cfg)
	p, err := store.Get("jane_doe")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Jane Doe" || p.DurationSeconds != 5.56 || p.SourceAudioPath != sample {
		t.Fatalf("unexpected profile %+v", p)
	}
}

func TestEnrollCommandMissingInput(t *testing.T) {
	env := setupCLITestEnv(t)
	useStubs(t, &stubProvider{frames: embedding.Frames{{1}}}, 0)

	dir := env.cfg.Paths.SpeakersDir
	_, _, err := runCLI(t, []string{
		"enroll",
		"--input", filepath.Join(env.baseDir, "missing.wav"),
		"--output", filepath.Join(dir, "x.npy"),
		"--speaker_name", "X",
		"--metadata", filepath.Join(dir, "speakers.json"),
	}, env.configPath)
	if !errors.Is(err, services.ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
}

func TestEnrollCommandProviderFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	useStubs(t, &stubProvider{err: errors.New("GatedRepoError")}, 0)

	sample := filepath.Join(env.baseDir, "x.wav")
	testsupport.WriteFile(t, sample, 16)
	dir := env.cfg.Paths.SpeakersDir
	_, _, err := runCLI(t, []string{
		"enroll",
		"--input", sample,
		"--output", filepath.Join(dir, "x.npy"),
		"--speaker_name", "X",
		"--metadata", filepath.Join(dir, "speakers.json"),
	}, env.configPath)
	if !errors.Is(err, services.ErrEmbeddingExtraction) {
		t.Fatalf("expected extraction error, got %v", err)
	}
	if services.HintFor(err) == "" {
		t.Fatalf("expected hint on extraction error")
	}
	if _, statErr := os.Stat(filepath.Join(dir, "x.npy")); !os.IsNotExist(statErr) {
		t.Fatalf("vector written after failure")
	}
}

func TestEnrollCommandRequiresFlags(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"enroll", "--input", "a.wav"}, env.configPath); err == nil {
		t.Fatalf("expected error for missing required flags")
	}
}

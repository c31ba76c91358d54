package testsupport

import (
	"context"
	"testing"

	"speakerid/internal/config"
	"speakerid/internal/logging"
	"speakerid/internal/profile"
)

// MustStore returns a profile store rooted at the config's speakers dir.
func MustStore(t testing.TB, cfg *config.Config) *profile.Store {
	t.Helper()
	return profile.NewStore(cfg.Paths.SpeakersDir, cfg.MetadataPath(), logging.NewNop())
}

// SeedProfile enrolls a profile directly into store.
func SeedProfile(t testing.TB, store *profile.Store, id, name string, vec ...float64) {
	t.Helper()

	err := store.Upsert(context.Background(), profile.Profile{
		ID:        id,
		Name:      name,
		Embedding: vec,
		ModelID:   "pyannote/embedding",
	})
	if err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
}

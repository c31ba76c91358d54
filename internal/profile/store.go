package profile

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"speakerid/internal/fileutil"
	"speakerid/internal/logging"
	"speakerid/internal/services"
)

// MetadataFileName is the default metadata record inside a store directory.
const MetadataFileName = "speakers.json"

const lockRetryDelay = 50 * time.Millisecond

// Store reads and writes profiles under one directory.
type Store struct {
	dir          string
	metadataPath string
	logger       *slog.Logger
}

// NewStore returns a store rooted at dir. An empty metadataPath selects
// dir/speakers.json.
func NewStore(dir, metadataPath string, logger *slog.Logger) *Store {
	if strings.TrimSpace(metadataPath) == "" {
		metadataPath = filepath.Join(dir, MetadataFileName)
	}
	return &Store{
		dir:          dir,
		metadataPath: metadataPath,
		logger:       logging.NewComponentLogger(logger, "profile"),
	}
}

// Dir returns the store directory.
func (s *Store) Dir() string { return s.dir }

// MetadataPath returns the metadata record path.
func (s *Store) MetadataPath() string { return s.metadataPath }

// VectorPath returns the vector file for id.
func (s *Store) VectorPath(id string) string {
	return filepath.Join(s.dir, id+VectorExt)
}

// Exists reports whether a vector file is stored for id.
func (s *Store) Exists(id string) bool {
	if validateID(id) != nil {
		return false
	}
	return fileutil.FileExists(s.VectorPath(id))
}

// Load returns every stored profile keyed by display name, in ascending ID
// order. A missing directory yields an empty set.
func (s *Store) Load(ctx context.Context) (*Set, error) {
	ids, err := s.vectorIDs()
	if err != nil {
		return nil, err
	}
	set := NewSet()
	if len(ids) == 0 {
		return set, nil
	}
	md, err := readMetadata(s.metadataPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "profile", "load", "", err)
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := ReadVector(s.VectorPath(id))
		if err != nil {
			logging.WarnWithContext(s.logger, "skipping unreadable speaker vector", "profile_vector_unreadable",
				logging.String(logging.FieldSpeakerID, id),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-enroll the speaker to regenerate the vector file"),
				logging.String(logging.FieldImpact, "speaker is excluded from matching"),
			)
			continue
		}
		name := FallbackName(id)
		if rec, ok := md.lookup(id); ok && strings.TrimSpace(rec.Name) != "" {
			name = rec.Name
		}
		set.Add(Entry{Name: name, ID: id, Embedding: vec})
	}
	s.logger.Debug("loaded speaker profiles",
		logging.Int("vectors", len(ids)),
		logging.Int("profiles", set.Len()),
	)
	return set, nil
}

// List summarizes stored profiles sorted by display name, then ID.
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	ids, err := s.vectorIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	md, err := readMetadata(s.metadataPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "profile", "list", "", err)
	}
	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		summary := Summary{ID: id, Name: FallbackName(id), Created: "unknown", Model: "unknown"}
		if rec, ok := md.lookup(id); ok {
			if rec.Name != "" {
				summary.Name = rec.Name
			}
			if rec.Created != "" {
				summary.Created = rec.Created
			}
			if rec.Model != "" {
				summary.Model = rec.Model
			}
			summary.DurationSeconds = rec.Duration
			summary.EmbeddingDim = rec.EmbeddingDim
		}
		summaries = append(summaries, summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Name != summaries[j].Name {
			return summaries[i].Name < summaries[j].Name
		}
		return summaries[i].ID < summaries[j].ID
	})
	return summaries, nil
}

// Get returns the full profile stored for id.
func (s *Store) Get(id string) (Profile, error) {
	if err := validateID(id); err != nil {
		return Profile{}, err
	}
	vec, err := ReadVector(s.VectorPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Profile{}, services.MissingInput("profile", "speaker profile", id)
		}
		return Profile{}, fmt.Errorf("read vector %s: %w", id, err)
	}
	md, err := readMetadata(s.metadataPath)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{ID: id, Name: FallbackName(id), Embedding: vec}
	if rec, ok := md.lookup(id); ok {
		if rec.Name != "" {
			p.Name = rec.Name
		}
		if ts, ok := parseCreated(rec.Created); ok {
			p.CreatedAt = ts
		}
		p.SourceAudioPath = rec.AudioFile
		p.DurationSeconds = rec.Duration
		p.ModelID = rec.Model
	}
	return p, nil
}

// Upsert writes p's vector and replaces its metadata entry. When the
// metadata write fails the previous vector (or its absence) is restored.
func (s *Store) Upsert(ctx context.Context, p Profile) error {
	if err := validateID(p.ID); err != nil {
		return err
	}
	if len(p.Embedding) == 0 {
		return services.Wrap(services.ErrValidation, "profile", "upsert", "empty embedding", nil)
	}
	if strings.TrimSpace(p.Name) == "" {
		p.Name = FallbackName(p.ID)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create speakers dir: %w", err)
	}
	if dir := filepath.Dir(s.metadataPath); dir != s.dir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create metadata dir: %w", err)
		}
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	md, err := readMetadata(s.metadataPath)
	if err != nil {
		return services.Wrap(services.ErrValidation, "profile", "upsert", "", err)
	}

	vectorPath := s.VectorPath(p.ID)
	previous, hadPrevious, err := fileutil.ReadFileIfExists(vectorPath)
	if err != nil {
		return fmt.Errorf("read existing vector: %w", err)
	}
	if err := WriteVector(vectorPath, p.Embedding); err != nil {
		return fmt.Errorf("write vector: %w", err)
	}

	rec, err := jsonRecord(newRecord(p))
	if err == nil {
		md[p.ID] = rec
		err = writeMetadata(s.metadataPath, md)
	}
	if err != nil {
		s.rollbackVector(vectorPath, previous, hadPrevious)
		return fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Info("stored speaker profile",
		logging.String(logging.FieldEventType, "profile_upserted"),
		logging.String(logging.FieldSpeakerID, p.ID),
		logging.String("name", p.Name),
		logging.Int("embedding_dim", len(p.Embedding)),
		logging.Bool("replaced", hadPrevious),
	)
	return nil
}

// Delete removes the vector file and metadata entry for id. It returns
// false without side effects when no vector file exists.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	if err := validateID(id); err != nil {
		return false, err
	}
	vectorPath := s.VectorPath(id)
	if _, err := os.Stat(vectorPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("stat vector: %w", err)
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return false, err
	}
	defer unlock()

	if err := os.Remove(vectorPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("remove vector: %w", err)
	}

	md, err := readMetadata(s.metadataPath)
	if err != nil {
		return true, services.Wrap(services.ErrValidation, "profile", "delete", "vector removed but metadata unreadable", err)
	}
	if _, ok := md[id]; ok {
		delete(md, id)
		if err := writeMetadata(s.metadataPath, md); err != nil {
			return true, fmt.Errorf("write metadata: %w", err)
		}
	}

	s.logger.Info("deleted speaker profile",
		logging.String(logging.FieldEventType, "profile_deleted"),
		logging.String(logging.FieldSpeakerID, id),
	)
	return true, nil
}

func (s *Store) rollbackVector(path string, previous []byte, hadPrevious bool) {
	var err error
	if hadPrevious {
		err = fileutil.WriteFileAtomic(path, previous, 0o644)
	} else {
		err = os.Remove(path)
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.ErrorWithContext(s.logger, "failed to restore speaker vector", "profile_rollback_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "re-run enrollment for this speaker"),
		)
	}
}

func (s *Store) lock(ctx context.Context) (func(), error) {
	lk := flock.New(s.metadataPath + ".lock")
	ok, err := lk.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("lock speakers store: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("lock speakers store: %s busy", lk.Path())
	}
	return func() {
		if err := lk.Unlock(); err != nil {
			s.logger.Warn("failed to release store lock", logging.Error(err))
		}
	}, nil
}

// vectorIDs lists IDs of *.npy files in ascending order.
func (s *Store) vectorIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read speakers dir: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != VectorExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(entry.Name(), VectorExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// IDFromPath derives a profile ID from a vector path: its base name without
// extension.
func IDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func validateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return services.Wrap(services.ErrValidation, "profile", "id", "speaker id required", nil)
	case strings.ContainsAny(id, `/\`), id == ".", id == "..":
		return services.Wrap(services.ErrValidation, "profile", "id", fmt.Sprintf("invalid speaker id %q", id), nil)
	}
	return nil
}

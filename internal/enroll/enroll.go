// Package enroll turns one audio sample into a stored speaker profile.
package enroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"speakerid/internal/embedding"
	"speakerid/internal/fileutil"
	"speakerid/internal/logging"
	"speakerid/internal/profile"
	"speakerid/internal/services"
)

// DurationProber reports the length of an audio file in seconds.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// ProfileWriter persists an enrolled profile.
type ProfileWriter interface {
	Upsert(ctx context.Context, p profile.Profile) error
}

// Request describes one enrollment.
type Request struct {
	AudioPath   string
	SpeakerID   string
	SpeakerName string
	// MetadataAudioPath is recorded in metadata instead of AudioPath when set.
	MetadataAudioPath string
}

// Enroller wires the provider, prober, and store together.
type Enroller struct {
	provider embedding.Provider
	prober   DurationProber
	store    ProfileWriter
	logger   *slog.Logger
	now      func() time.Time
}

// New constructs an Enroller. prober may be nil, in which case durations
// are recorded as 0.
func New(provider embedding.Provider, prober DurationProber, store ProfileWriter, logger *slog.Logger) *Enroller {
	return &Enroller{
		provider: provider,
		prober:   prober,
		store:    store,
		logger:   logging.NewComponentLogger(logger, "enroll"),
		now:      time.Now,
	}
}

// Enroll embeds the sample, persists it, and returns the stored profile.
func (e *Enroller) Enroll(ctx context.Context, req Request) (profile.Profile, error) {
	if strings.TrimSpace(req.SpeakerID) == "" {
		return profile.Profile{}, services.Wrap(services.ErrValidation, "enroll", "validate", "speaker id required", nil)
	}
	if !fileutil.FileExists(req.AudioPath) {
		return profile.Profile{}, services.MissingInput("enroll", "input file", req.AudioPath)
	}

	logger := e.logger.With(logging.String(logging.FieldSpeakerID, req.SpeakerID))
	if digest, err := fileutil.Digest(req.AudioPath); err == nil {
		logger = logger.With(logging.String(logging.FieldAudioDigest, digest))
	}
	logger.Info("extracting speaker embedding",
		logging.String(logging.FieldEventType, "enroll_started"),
		logging.String("audio", req.AudioPath),
		logging.String("model", e.provider.Model()),
	)

	frames, err := e.provider.Embed(ctx, embedding.Clip{AudioPath: req.AudioPath})
	if err != nil {
		return profile.Profile{}, asExtractionError(err)
	}
	vec, err := embedding.Flatten(frames)
	if err != nil {
		return profile.Profile{}, asExtractionError(err)
	}

	p := profile.Profile{
		ID:              req.SpeakerID,
		Name:            strings.TrimSpace(req.SpeakerName),
		Embedding:       vec,
		CreatedAt:       e.now().UTC(),
		SourceAudioPath: req.AudioPath,
		DurationSeconds: e.duration(ctx, logger, req.AudioPath),
		ModelID:         e.provider.Model(),
	}
	if req.MetadataAudioPath != "" {
		p.SourceAudioPath = req.MetadataAudioPath
	}

	if err := e.store.Upsert(ctx, p); err != nil {
		return profile.Profile{}, fmt.Errorf("store profile: %w", err)
	}
	logger.Info("speaker enrolled",
		logging.String(logging.FieldEventType, "enroll_completed"),
		logging.Int("embedding_dim", len(vec)),
		logging.Float64("duration_seconds", p.DurationSeconds),
	)
	return p, nil
}

func (e *Enroller) duration(ctx context.Context, logger *slog.Logger, path string) float64 {
	if e.prober == nil {
		return 0
	}
	seconds, err := e.prober.Duration(ctx, path)
	if err != nil {
		logging.WarnWithContext(logger, "audio duration unavailable", "duration_probe_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "install ffprobe to record sample durations"),
			logging.String(logging.FieldImpact, "duration recorded as 0"),
		)
		return 0
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		logging.WarnWithContext(logger, "audio duration out of range", "duration_probe_failed",
			logging.String("seconds", fmt.Sprint(seconds)),
			logging.String(logging.FieldImpact, "duration recorded as 0"),
		)
		return 0
	}
	return seconds
}

func asExtractionError(err error) error {
	var extraction *services.ExtractionError
	if errors.As(err, &extraction) {
		if extraction.Hint == "" {
			extraction.Hint = embedding.DefaultHint
		}
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &services.ExtractionError{Hint: embedding.DefaultHint, Err: err}
}

package embedding

import (
	"context"
	"encoding/json"
	"fmt"
)

// TimeRange is a [Start, End) excerpt of an audio file, in seconds.
type TimeRange struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Duration returns End - Start.
func (r TimeRange) Duration() float64 {
	return r.End - r.Start
}

func (r TimeRange) String() string {
	return fmt.Sprintf("%.2f-%.2f", r.Start, r.End)
}

// Clip identifies the audio a provider should embed. A nil Range embeds the
// whole file.
type Clip struct {
	AudioPath string
	Range     *TimeRange
}

// Frames is the raw provider output for one clip: one or more time-ordered
// vectors of equal dimension.
type Frames [][]float64

// UnmarshalJSON accepts either a matrix (frames x dims) or a single flat
// vector, which becomes a one-frame sequence.
func (f *Frames) UnmarshalJSON(data []byte) error {
	var matrix [][]float64
	if err := json.Unmarshal(data, &matrix); err == nil {
		*f = matrix
		return nil
	}
	var vector []float64
	if err := json.Unmarshal(data, &vector); err != nil {
		return fmt.Errorf("decode frames: expected vector or matrix: %w", err)
	}
	*f = Frames{vector}
	return nil
}

// Provider turns audio into speaker embeddings. Implementations may fail;
// failures are returned, never retried here.
type Provider interface {
	Embed(ctx context.Context, clip Clip) (Frames, error)
	// Model identifies the embedding model for profile metadata.
	Model() string
}

// Outcome is the per-range result of a batch call.
type Outcome struct {
	Frames Frames
	Err    error
}

// BatchProvider embeds several ranges of one file in a single call so the
// model is loaded once. The returned slice has one Outcome per range in the
// same order. A non-nil error means no range could be processed.
type BatchProvider interface {
	Provider
	EmbedBatch(ctx context.Context, audioPath string, ranges []TimeRange) ([]Outcome, error)
}

package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"speakerid/internal/fileutil"
)

// CreatedLayout is the metadata timestamp format: ISO-8601 UTC, microsecond
// precision, trailing Z.
const CreatedLayout = "2006-01-02T15:04:05.000000Z"

// record is one value of the metadata object.
type record struct {
	Name         string  `json:"name"`
	Created      string  `json:"created"`
	AudioFile    string  `json:"audio_file"`
	Duration     float64 `json:"duration"`
	EmbeddingDim int     `json:"embedding_dim"`
	Model        string  `json:"model"`
}

// metadata keeps every value undecoded so entries this process does not
// touch are written back unchanged.
type metadata map[string]json.RawMessage

func readMetadata(path string) (metadata, error) {
	data, ok, err := fileutil.ReadFileIfExists(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata: %w", err)
	}
	md := metadata{}
	if !ok || len(data) == 0 {
		return md, nil
	}
	if err := json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("parse metadata %s: %w", path, err)
	}
	return md, nil
}

func writeMetadata(path string, md metadata) error {
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}

// lookup decodes the entry for id. A malformed entry counts as absent.
func (md metadata) lookup(id string) (record, bool) {
	raw, ok := md[id]
	if !ok {
		return record{}, false
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return record{}, false
	}
	return rec, true
}

func newRecord(p Profile) record {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	return record{
		Name:         p.Name,
		Created:      created.UTC().Format(CreatedLayout),
		AudioFile:    p.SourceAudioPath,
		Duration:     roundDuration(p.DurationSeconds),
		EmbeddingDim: len(p.Embedding),
		Model:        p.ModelID,
	}
}

// roundDuration rounds to 2 decimals. Non-finite and negative inputs give 0.
func roundDuration(seconds float64) float64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return decimal.NewFromFloat(seconds).Round(2).InexactFloat64()
}

// parseCreated accepts CreatedLayout and any RFC 3339 timestamp.
func parseCreated(value string) (time.Time, bool) {
	if ts, err := time.Parse(CreatedLayout, value); err == nil {
		return ts, true
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, true
	}
	return time.Time{}, false
}

func jsonRecord(rec record) (json.RawMessage, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return data, nil
}

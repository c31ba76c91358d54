package transcript

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"speakerid/internal/services"
)

// Reserved labels and header sentinels.
const (
	UnknownLabel   = "UNKNOWN"
	UnknownSpeaker = "[Unknown Speaker]"
	NotMatched     = "[Not Matched]"
)

// Segment is one transcribed utterance.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Speaker *string `json:"speaker,omitempty"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 { return s.End - s.Start }

// Label returns the speaker label, or "" when the segment is unlabeled.
func (s Segment) Label() string {
	if s.Speaker == nil {
		return ""
	}
	return *s.Speaker
}

// Transcript is an ordered list of segments.
type Transcript struct {
	Segments []Segment `json:"segments"`
}

// Mapping resolves raw labels to display names.
type Mapping map[string]string

// Load reads a WhisperX JSON document.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Transcript{}, services.MissingInput("transcript", "JSON file", path)
		}
		return Transcript{}, fmt.Errorf("read transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, services.Wrap(services.ErrValidation, "transcript", "parse", path, err)
	}
	return t, nil
}

// Labels returns the distinct non-empty speaker labels in sorted order.
func (t Transcript) Labels() []string {
	seen := make(map[string]struct{})
	for _, seg := range t.Segments {
		if label := seg.Label(); label != "" {
			seen[label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for label := range seen {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Apply returns a copy of t with every mapped label replaced. Unlabeled
// segments and labels absent from mapping are unchanged.
func Apply(t Transcript, mapping Mapping) Transcript {
	out := Transcript{Segments: make([]Segment, len(t.Segments))}
	for i, seg := range t.Segments {
		if label := seg.Label(); label != "" {
			if name, ok := mapping[label]; ok {
				seg.Speaker = &name
			}
		}
		out.Segments[i] = seg
	}
	return out
}

// BuildHeaderMapping converts a raw match mapping into its display form.
func BuildHeaderMapping(mapping Mapping) Mapping {
	header := make(Mapping, len(mapping))
	for raw, resolved := range mapping {
		switch {
		case raw == UnknownLabel:
			header[raw] = UnknownSpeaker
		case raw == resolved:
			header[raw] = NotMatched
		default:
			header[raw] = resolved
		}
	}
	return header
}

// Render formats t as text. A non-empty header prepends the mapping block.
func Render(t Transcript, header Mapping) string {
	lines := make([]string, 0, len(t.Segments)+len(header)+4)
	if len(header) > 0 {
		lines = append(lines, "## Speaker Mapping:")
		raws := make([]string, 0, len(header))
		for raw := range header {
			raws = append(raws, raw)
		}
		sort.Strings(raws)
		for _, raw := range raws {
			lines = append(lines, fmt.Sprintf("- %s → %s", raw, header[raw]))
		}
		lines = append(lines, "", "---", "")
	}
	for _, seg := range t.Segments {
		label := seg.Label()
		if label == "" {
			label = UnknownLabel
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", Timestamp(seg.Start), label, strings.TrimSpace(seg.Text)))
	}
	return strings.Join(lines, "\n")
}

package profile

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Profile is one enrolled speaker.
type Profile struct {
	ID              string
	Name            string
	Embedding       []float64
	CreatedAt       time.Time
	SourceAudioPath string
	DurationSeconds float64
	ModelID         string
}

// Summary is the listing view of a stored profile.
type Summary struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Created         string  `json:"created"`
	DurationSeconds float64 `json:"duration"`
	Model           string  `json:"model"`
	EmbeddingDim    int     `json:"embedding_dim"`
}

// Entry is one member of a loaded Set.
type Entry struct {
	Name      string
	ID        string
	Embedding []float64
}

// Set is an ordered collection of profiles keyed by display name. Adding a
// name that is already present replaces its value in place.
type Set struct {
	entries []Entry
	index   map[string]int
}

// NewSet returns a Set holding entries in order.
func NewSet(entries ...Entry) *Set {
	s := &Set{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add inserts e, or replaces the value stored under e.Name.
func (s *Set) Add(e Entry) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[e.Name]; ok {
		s.entries[i] = e
		return
	}
	s.index[e.Name] = len(s.entries)
	s.entries = append(s.entries, e)
}

// Len reports the number of distinct names.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the members in iteration order.
func (s *Set) Entries() []Entry {
	if s == nil {
		return nil
	}
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lookup returns the entry stored under name.
func (s *Set) Lookup(name string) (Entry, bool) {
	if s == nil {
		return Entry{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Entry{}, false
	}
	return s.entries[i], true
}

// FallbackName derives a display name from an ID: "jane_doe" becomes
// "Jane Doe".
func FallbackName(id string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(id, "_", " "))
}

package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(min(chunkSize, remaining))
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// TranscriptSegment is the fixture form of one WhisperX segment. An empty
// Speaker omits the key.
type TranscriptSegment struct {
	Start   float64
	End     float64
	Text    string
	Speaker string
}

// WriteTranscript writes a WhisperX-style JSON document and returns its path.
func WriteTranscript(t testing.TB, dir string, segments ...TranscriptSegment) string {
	t.Helper()

	docs := make([]map[string]any, 0, len(segments))
	for _, seg := range segments {
		doc := map[string]any{"start": seg.Start, "end": seg.End, "text": seg.Text}
		if seg.Speaker != "" {
			doc["speaker"] = seg.Speaker
		}
		docs = append(docs, doc)
	}
	data, err := json.MarshalIndent(map[string]any{"segments": docs, "language": "en"}, "", "  ")
	if err != nil {
		t.Fatalf("encode transcript: %v", err)
	}
	path := filepath.Join(dir, "transcript.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write transcript: %v", err)
	}
	return path
}

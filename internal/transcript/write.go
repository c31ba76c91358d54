package transcript

import (
	"speakerid/internal/fileutil"
)

// WriteFile renders t and atomically writes it to path.
func WriteFile(path string, t Transcript, header Mapping) error {
	return fileutil.WriteFileAtomic(path, []byte(Render(t, header)), 0o644)
}

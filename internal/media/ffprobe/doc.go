// Package ffprobe reads audio container metadata through the ffprobe binary.
//
// Prober.Duration is the entry point used by enrollment; Inspect returns the
// parsed format and stream sections for callers that need more.
package ffprobe

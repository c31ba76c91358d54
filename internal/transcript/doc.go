// Package transcript loads WhisperX transcription JSON, relabels speakers
// through a resolved mapping, and renders the timestamped text transcript.
package transcript

package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"speakerid/internal/services"
)

// DefaultBinary is used when no ffprobe path is configured.
const DefaultBinary = "ffprobe"

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
	Duration   string `json:"duration"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Runner executes the probe binary and returns its combined output.
type Runner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Prober wraps an ffprobe binary.
type Prober struct {
	Binary string
	run    Runner
}

// NewProber returns a prober for binary, defaulting to ffprobe on PATH.
func NewProber(binary string) *Prober {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = DefaultBinary
	}
	return &Prober{Binary: binary, run: runCombined}
}

// WithRunner swaps the process runner (for testing).
func (p *Prober) WithRunner(run Runner) *Prober {
	if run != nil {
		p.run = run
	}
	return p
}

// Inspect executes ffprobe against path and decodes the JSON response.
func (p *Prober) Inspect(ctx context.Context, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "inspect", "empty path", nil)
	}
	output, err := p.run(ctx, p.Binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	if err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "inspect", strings.TrimSpace(string(output)), err)
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, services.Wrap(services.ErrProbe, "ffprobe", "parse", "", err)
	}
	return result, nil
}

// Duration returns the container duration of path in seconds. Files without
// an audio stream are rejected.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	result, err := p.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	if result.AudioStreamCount() == 0 {
		return 0, services.Wrap(services.ErrProbe, "ffprobe", "duration", "no audio stream in "+path, nil)
	}
	seconds := result.DurationSeconds()
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, services.Wrap(services.ErrProbe, "ffprobe", "duration",
			fmt.Sprintf("invalid duration %q", result.Format.Duration), nil)
	}
	return seconds, nil
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "audio") {
			count++
		}
	}
	return count
}

// DurationSeconds returns the container duration in seconds, falling back to
// the longest audio stream. Unparseable values yield NaN; missing ones 0.
func (r Result) DurationSeconds() float64 {
	if strings.TrimSpace(r.Format.Duration) != "" {
		return parseFloat(r.Format.Duration)
	}
	longest := 0.0
	for _, stream := range r.Streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		if d := parseFloat(stream.Duration); d > longest {
			longest = d
		}
	}
	return longest
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}

func runCombined(ctx context.Context, binary string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, binary, args...).CombinedOutput() //nolint:gosec
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("%s exited with code %d", binary, exitErr.ExitCode())
		}
		return out, err
	}
	return out, nil
}

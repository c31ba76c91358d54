package ffprobe

import (
	"context"
	"errors"
	"math"
	"testing"

	"speakerid/internal/services"
)

func TestResultDurationSeconds(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   float64
	}{
		{name: "format", result: Result{Format: Format{Duration: "123.45"}}, want: 123.45},
		{
			name: "stream fallback",
			result: Result{Streams: []Stream{
				{CodecType: "audio", Duration: "4.5"},
				{CodecType: "audio", Duration: "7.25"},
				{CodecType: "video", Duration: "99"},
			}},
			want: 7.25,
		},
		{name: "missing", result: Result{}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.DurationSeconds(); got != tt.want {
				t.Fatalf("DurationSeconds = %v, want %v", got, tt.want)
			}
		})
	}
	bad := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(bad.DurationSeconds()) {
		t.Fatalf("expected NaN for unparseable duration")
	}
}

func TestProberDuration(t *testing.T) {
	var gotBinary string
	var gotArgs []string
	p := NewProber("").WithRunner(func(_ context.Context, binary string, args ...string) ([]byte, error) {
		gotBinary, gotArgs = binary, args
		return []byte(`{"streams":[{"codec_type":"audio","channels":1}],"format":{"duration":"12.3456"}}`), nil
	})
	got, err := p.Duration(context.Background(), "/tmp/sample.wav")
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if got != 12.3456 {
		t.Fatalf("Duration = %v", got)
	}
	if gotBinary != DefaultBinary {
		t.Fatalf("binary = %q", gotBinary)
	}
	if last := gotArgs[len(gotArgs)-1]; last != "/tmp/sample.wav" {
		t.Fatalf("path not last arg: %v", gotArgs)
	}
}

func TestProberDurationFailures(t *testing.T) {
	tests := []struct {
		name   string
		output string
		err    error
	}{
		{name: "exit", output: "No such file", err: errors.New("ffprobe exited with code 1")},
		{name: "garbage", output: "not json"},
		{name: "nan", output: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"N/A"}}`},
		{name: "infinite", output: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"inf"}}`},
		{name: "negative", output: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"-3"}}`},
		{name: "no audio", output: `{"streams":[{"codec_type":"video"}],"format":{"duration":"30"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProber("ffprobe").WithRunner(func(context.Context, string, ...string) ([]byte, error) {
				return []byte(tt.output), tt.err
			})
			if _, err := p.Duration(context.Background(), "x.wav"); !errors.Is(err, services.ErrProbe) {
				t.Fatalf("expected ErrProbe, got %v", err)
			}
		})
	}
}

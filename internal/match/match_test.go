package match

import (
	"context"
	"errors"
	"testing"

	"speakerid/internal/embedding"
	"speakerid/internal/logging"
	"speakerid/internal/profile"
	"speakerid/internal/transcript"
)

type stubProvider struct {
	byStart map[float64]embedding.Frames
	fail    map[float64]error
	calls   []embedding.Clip
}

func (s *stubProvider) Embed(_ context.Context, clip embedding.Clip) (embedding.Frames, error) {
	s.calls = append(s.calls, clip)
	if clip.Range == nil {
		return nil, errors.New("whole-file embed not expected")
	}
	if err := s.fail[clip.Range.Start]; err != nil {
		return nil, err
	}
	frames, ok := s.byStart[clip.Range.Start]
	if !ok {
		return embedding.Frames{{0.8, 0.6, 0}}, nil
	}
	return frames, nil
}

func (s *stubProvider) Model() string { return "stub" }

type batchStub struct {
	stubProvider
	batchErr   error
	batchCalls int
}

func (b *batchStub) EmbedBatch(ctx context.Context, audioPath string, ranges []embedding.TimeRange) ([]embedding.Outcome, error) {
	b.batchCalls++
	if b.batchErr != nil {
		return nil, b.batchErr
	}
	out := make([]embedding.Outcome, len(ranges))
	for i := range ranges {
		r := ranges[i]
		frames, err := b.stubProvider.Embed(ctx, embedding.Clip{AudioPath: audioPath, Range: &r})
		out[i] = embedding.Outcome{Frames: frames, Err: err}
	}
	return out, nil
}

func seg(start, end float64, speaker string) transcript.Segment {
	return transcript.Segment{Start: start, End: end, Text: "x", Speaker: &speaker}
}

func abProfiles() *profile.Set {
	return profile.NewSet(
		profile.Entry{Name: "A", ID: "a", Embedding: []float64{1, 0, 0}},
		profile.Entry{Name: "B", ID: "b", Embedding: []float64{0, 1, 0}},
	)
}

func TestMatchThreshold(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 5, "SPEAKER_00")}}
	tests := []struct {
		threshold float64
		want      string
		outcome   Outcome
	}{
		{threshold: 0.75, want: "A", outcome: OutcomeMatched},
		{threshold: 0.85, want: "SPEAKER_00", outcome: OutcomeBelow},
	}
	for _, tt := range tests {
		m := New(&stubProvider{}, logging.NewNop())
		res, err := m.Match(context.Background(), tr, "a.wav", abProfiles(), Options{Threshold: tt.threshold})
		if err != nil {
			t.Fatalf("Match: %v", err)
		}
		if got := res.Mapping["SPEAKER_00"]; got != tt.want {
			t.Fatalf("threshold %.2f: mapping = %q, want %q", tt.threshold, got, tt.want)
		}
		report := res.Reports[0]
		if report.Outcome != tt.outcome || report.BestName != "A" {
			t.Fatalf("threshold %.2f: unexpected report %+v", tt.threshold, report)
		}
		if len(report.Scores) != 2 {
			t.Fatalf("expected a score per profile, got %+v", report.Scores)
		}
	}
}

func TestMatchNoLabels(t *testing.T) {
	tr := transcript.Transcript{Segments: []transcript.Segment{{Start: 0, End: 5, Text: "x"}}}
	res, err := New(&stubProvider{}, nil).Match(context.Background(), tr, "a.wav", abProfiles(), DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(res.Mapping) != 0 {
		t.Fatalf("expected empty mapping, got %v", res.Mapping)
	}
}

func TestMatchNoProfilesIsIdentity(t *testing.T) {
	provider := &stubProvider{}
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 5, "SPEAKER_00"), seg(5, 9, "SPEAKER_01")}}
	res, err := New(provider, nil).Match(context.Background(), tr, "a.wav", profile.NewSet(), DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Mapping["SPEAKER_00"] != "SPEAKER_00" || res.Mapping["SPEAKER_01"] != "SPEAKER_01" {
		t.Fatalf("expected identity mapping, got %v", res.Mapping)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("provider invoked without profiles")
	}
}

func TestMatchShortSegmentsUnresolved(t *testing.T) {
	provider := &stubProvider{}
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 1.9, "SPEAKER_00"), seg(3, 4, "SPEAKER_00")}}
	res, err := New(provider, nil).Match(context.Background(), tr, "a.wav", abProfiles(), DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Mapping["SPEAKER_00"] != "SPEAKER_00" || res.Reports[0].Outcome != OutcomeNoSegments {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(provider.calls) != 0 {
		t.Fatalf("provider invoked for short segments")
	}
}

func TestMatchSkipsFailedSegments(t *testing.T) {
	provider := &stubProvider{
		byStart: map[float64]embedding.Frames{20: {{0, 1, 0}}},
		fail:    map[float64]error{0: errors.New("decode failed")},
	}
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 10, "SPEAKER_00"), seg(20, 23, "SPEAKER_00")}}
	res, err := New(provider, nil).Match(context.Background(), tr, "a.wav", abProfiles(), DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Mapping["SPEAKER_00"] != "B" {
		t.Fatalf("expected surviving segment to match B, got %v", res.Mapping)
	}
	if r := res.Reports[0]; r.Segments != 2 || r.Embedded != 1 {
		t.Fatalf("unexpected counts %+v", r)
	}
}

func TestMatchAllSegmentsFail(t *testing.T) {
	provider := &stubProvider{fail: map[float64]error{0: errors.New("boom")}}
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 10, "SPEAKER_00"), seg(10, 20, "UNKNOWN")}}
	res, err := New(provider, nil).Match(context.Background(), tr, "a.wav", abProfiles(), DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Mapping["SPEAKER_00"] != "SPEAKER_00" || res.Reports[0].Outcome != OutcomeEmbedFailed {
		t.Fatalf("unexpected result %+v", res.Reports[0])
	}
	if res.Mapping["UNKNOWN"] != "A" {
		t.Fatalf("UNKNOWN label should still be scored, got %v", res.Mapping)
	}
}

func TestMatchBatchProvider(t *testing.T) {
	provider := &batchStub{}
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 3, "SPEAKER_00"), seg(4, 8, "SPEAKER_00"), seg(9, 12, "SPEAKER_01")}}
	res, err := New(provider, nil).Match(context.Background(), tr, "a.wav", abProfiles(), DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if provider.batchCalls != 2 {
		t.Fatalf("expected one batch per label, got %d", provider.batchCalls)
	}
	if res.Mapping["SPEAKER_00"] != "A" || res.Mapping["SPEAKER_01"] != "A" {
		t.Fatalf("many-to-one mapping expected, got %v", res.Mapping)
	}
}

func TestMatchBatchErrorLeavesLabelUnresolved(t *testing.T) {
	provider := &batchStub{batchErr: errors.New("uvx missing")}
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 3, "SPEAKER_00")}}
	res, err := New(provider, nil).Match(context.Background(), tr, "a.wav", abProfiles(), DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Mapping["SPEAKER_00"] != "SPEAKER_00" {
		t.Fatalf("expected unresolved label, got %v", res.Mapping)
	}
}

func TestMatchTiesKeepFirstProfile(t *testing.T) {
	profiles := profile.NewSet(
		profile.Entry{Name: "First", ID: "a", Embedding: []float64{1, 0, 0}},
		profile.Entry{Name: "Second", ID: "b", Embedding: []float64{2, 0, 0}},
	)
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 3, "SPEAKER_00")}}
	res, err := New(&stubProvider{}, nil).Match(context.Background(), tr, "a.wav", profiles, Options{Threshold: 0.5})
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Mapping["SPEAKER_00"] != "First" {
		t.Fatalf("tie should keep first profile, got %v", res.Mapping)
	}
}

func TestMatchSkipsIncomparableProfiles(t *testing.T) {
	profiles := profile.NewSet(
		profile.Entry{Name: "Old", ID: "old", Embedding: []float64{1, 0}},
		profile.Entry{Name: "A", ID: "a", Embedding: []float64{1, 0, 0}},
	)
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 3, "SPEAKER_00")}}
	res, err := New(&stubProvider{}, nil).Match(context.Background(), tr, "a.wav", profiles, DefaultOptions())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if res.Mapping["SPEAKER_00"] != "A" || len(res.Reports[0].Scores) != 1 {
		t.Fatalf("unexpected result %+v", res.Reports[0])
	}
}

func TestMatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tr := transcript.Transcript{Segments: []transcript.Segment{seg(0, 3, "SPEAKER_00")}}
	if _, err := New(&stubProvider{}, nil).Match(ctx, tr, "a.wav", abProfiles(), DefaultOptions()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestSelectSegments(t *testing.T) {
	var segs []transcript.Segment
	for i := 0; i < 12; i++ {
		start := float64(i * 100)
		segs = append(segs, seg(start, start+2+float64(i), "S"))
	}
	segs = append(segs, seg(5000, 5001.5, "S"), seg(6000, 6050, "OTHER"))
	got := SelectSegments(transcript.Transcript{Segments: segs}, "S", 2, 10)
	if len(got) != 10 {
		t.Fatalf("expected 10 ranges, got %d", len(got))
	}
	if got[0].Duration() != 13 || got[9].Duration() != 4 {
		t.Fatalf("unexpected ordering %v", got)
	}
	exact := SelectSegments(transcript.Transcript{Segments: []transcript.Segment{seg(1, 3, "S")}}, "S", 2, 10)
	if len(exact) != 1 {
		t.Fatalf("segment of exactly the minimum should qualify")
	}
}

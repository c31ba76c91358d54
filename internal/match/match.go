package match

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"

	"speakerid/internal/embedding"
	"speakerid/internal/logging"
	"speakerid/internal/profile"
	"speakerid/internal/transcript"
)

// Defaults applied when Options fields are zero.
const (
	DefaultThreshold         = 0.75
	DefaultMinSegmentSeconds = 2.0
	DefaultMaxSegments       = 10
)

// Options tune label resolution.
type Options struct {
	Threshold         float64
	MinSegmentSeconds float64
	MaxSegments       int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		Threshold:         DefaultThreshold,
		MinSegmentSeconds: DefaultMinSegmentSeconds,
		MaxSegments:       DefaultMaxSegments,
	}
}

func (o Options) withDefaults() Options {
	if o.MinSegmentSeconds <= 0 {
		o.MinSegmentSeconds = DefaultMinSegmentSeconds
	}
	if o.MaxSegments <= 0 {
		o.MaxSegments = DefaultMaxSegments
	}
	return o
}

// Outcome classifies the result for one label.
type Outcome string

const (
	OutcomeMatched      Outcome = "matched"
	OutcomeBelow        Outcome = "below_threshold"
	OutcomeNoSegments   Outcome = "no_qualifying_segments"
	OutcomeEmbedFailed  Outcome = "embedding_failed"
	OutcomeNoProfiles   Outcome = "no_profiles"
	OutcomeIncomparable Outcome = "no_comparable_profiles"
)

// Score is the similarity of a label against one profile.
type Score struct {
	Name       string
	Similarity float64
}

// Report describes how one label was resolved.
type Report struct {
	Label     string
	Outcome   Outcome
	Resolved  string
	BestName  string
	BestScore float64
	Segments  int
	Embedded  int
	Scores    []Score
}

// Matched reports whether the label resolved to a profile.
func (r Report) Matched() bool { return r.Outcome == OutcomeMatched }

// Result holds the raw mapping and one report per label.
type Result struct {
	Mapping transcript.Mapping
	Reports []Report
}

// Matcher resolves labels using an embedding provider.
type Matcher struct {
	provider embedding.Provider
	logger   *slog.Logger
}

// New constructs a matcher.
func New(provider embedding.Provider, logger *slog.Logger) *Matcher {
	return &Matcher{
		provider: provider,
		logger:   logging.NewComponentLogger(logger, "match"),
	}
}

// Match resolves every label in t against profiles. Labels are processed in
// sorted order; unresolved labels map to themselves. The only error returned
// is context cancellation.
func (m *Matcher) Match(ctx context.Context, t transcript.Transcript, audioPath string, profiles *profile.Set, opts Options) (Result, error) {
	opts = opts.withDefaults()
	labels := t.Labels()
	result := Result{Mapping: make(transcript.Mapping, len(labels))}

	m.logger.Info("matching speaker labels",
		logging.String(logging.FieldEventType, "match_started"),
		logging.Strings("labels", labels),
		logging.Int("profiles", profiles.Len()),
		logging.Float64("threshold", opts.Threshold),
	)

	if profiles.Len() == 0 {
		for _, label := range labels {
			result.Mapping[label] = label
			result.Reports = append(result.Reports, Report{Label: label, Outcome: OutcomeNoProfiles, Resolved: label})
		}
		m.logger.Info("no speaker profiles available; keeping raw labels")
		return result, nil
	}

	entries := profiles.Entries()
	for _, label := range labels {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		report, err := m.resolveLabel(ctx, t, label, audioPath, entries, opts)
		if err != nil {
			return Result{}, err
		}
		result.Mapping[label] = report.Resolved
		result.Reports = append(result.Reports, report)
	}
	return result, nil
}

func (m *Matcher) resolveLabel(ctx context.Context, t transcript.Transcript, label, audioPath string, entries []profile.Entry, opts Options) (Report, error) {
	logger := m.logger.With(logging.String(logging.FieldSpeakerLabel, label))
	report := Report{Label: label, Resolved: label}

	ranges := SelectSegments(t, label, opts.MinSegmentSeconds, opts.MaxSegments)
	report.Segments = len(ranges)
	logger.Debug("selected segments",
		logging.Int("qualifying", len(ranges)),
		logging.Float64("min_seconds", opts.MinSegmentSeconds),
	)
	if len(ranges) == 0 {
		report.Outcome = OutcomeNoSegments
		logger.Info("label has no qualifying segments", logging.String("outcome", string(report.Outcome)))
		return report, nil
	}

	vectors, err := m.embedRanges(ctx, logger, audioPath, ranges)
	if err != nil {
		return Report{}, err
	}
	report.Embedded = len(vectors)
	if len(vectors) == 0 {
		report.Outcome = OutcomeEmbedFailed
		logging.WarnWithContext(logger, "no segment embeddings for label", "label_embedding_failed",
			logging.String(logging.FieldErrorHint, "check audio path and HF_TOKEN"),
			logging.String(logging.FieldImpact, "label keeps its raw name"),
		)
		return report, nil
	}

	representative, err := embedding.Mean(vectors)
	if err != nil {
		report.Outcome = OutcomeEmbedFailed
		logging.WarnWithContext(logger, "segment embeddings disagree in dimension", "label_embedding_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "label keeps its raw name"),
		)
		return report, nil
	}

	best, bestName, found := math.Inf(-1), "", false
	for _, entry := range entries {
		sim, err := embedding.Cosine(representative, entry.Embedding)
		if err != nil {
			logging.WarnWithContext(logger, "skipping incomparable profile", "profile_dimension_mismatch",
				logging.String(logging.FieldSpeakerID, entry.ID),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "re-enroll the speaker with the current model"),
			)
			continue
		}
		report.Scores = append(report.Scores, Score{Name: entry.Name, Similarity: sim})
		logger.Debug("similarity", logging.String("profile", entry.Name), logging.Float64("score", sim))
		if sim > best {
			best, bestName, found = sim, entry.Name, true
		}
	}
	if !found {
		report.Outcome = OutcomeIncomparable
		return report, nil
	}

	report.BestName, report.BestScore = bestName, best
	if best >= opts.Threshold {
		report.Outcome = OutcomeMatched
		report.Resolved = bestName
	} else {
		report.Outcome = OutcomeBelow
	}
	logger.Info("label resolved",
		logging.String(logging.FieldEventType, "label_resolved"),
		logging.String("outcome", string(report.Outcome)),
		logging.String("best_match", bestName),
		logging.Float64("best_score", best),
		logging.String("resolved", report.Resolved),
	)
	return report, nil
}

// embedRanges returns one flattened vector per successfully embedded range.
func (m *Matcher) embedRanges(ctx context.Context, logger *slog.Logger, audioPath string, ranges []embedding.TimeRange) ([][]float64, error) {
	outcomes := make([]embedding.Outcome, len(ranges))
	if batch, ok := m.provider.(embedding.BatchProvider); ok {
		got, err := batch.EmbedBatch(ctx, audioPath, ranges)
		switch {
		case err != nil:
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			for i := range outcomes {
				outcomes[i].Err = err
			}
		case len(got) != len(ranges):
			for i := range outcomes {
				outcomes[i].Err = errors.New("embedding batch returned wrong result count")
			}
		default:
			outcomes = got
		}
	} else {
		for i, r := range ranges {
			frames, err := m.provider.Embed(ctx, embedding.Clip{AudioPath: audioPath, Range: &r})
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
			}
			outcomes[i] = embedding.Outcome{Frames: frames, Err: err}
		}
	}

	vectors := make([][]float64, 0, len(ranges))
	for i, out := range outcomes {
		vec := []float64(nil)
		err := out.Err
		if err == nil {
			vec, err = embedding.Flatten(out.Frames)
		}
		if err != nil {
			logger.Warn("segment embedding failed",
				logging.String(logging.FieldEventType, "segment_embedding_failed"),
				logging.String("segment", ranges[i].String()),
				logging.Error(err),
			)
			continue
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// SelectSegments returns the ranges of label lasting at least minSeconds,
// longest first, capped at maxSegments. Equal durations keep transcript order.
func SelectSegments(t transcript.Transcript, label string, minSeconds float64, maxSegments int) []embedding.TimeRange {
	var ranges []embedding.TimeRange
	for _, seg := range t.Segments {
		if seg.Label() != label || seg.Duration() < minSeconds {
			continue
		}
		ranges = append(ranges, embedding.TimeRange{Start: seg.Start, End: seg.End})
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].Duration() > ranges[j].Duration()
	})
	if maxSegments > 0 && len(ranges) > maxSegments {
		ranges = ranges[:maxSegments]
	}
	return ranges
}

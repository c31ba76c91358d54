package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"speakerid/internal/config"
	"speakerid/internal/embedding"
	"speakerid/internal/fileutil"
	"speakerid/internal/logging"
	"speakerid/internal/match"
	"speakerid/internal/profile"
	"speakerid/internal/services"
	"speakerid/internal/transcript"
)

type matchFlags struct {
	jsonPath    string
	audioPath   string
	outputPath  string
	speakersDir string
	threshold   float64
	hfToken     string
}

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var flags matchFlags

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match diarization labels to enrolled speakers and write the transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				flags.threshold = cfg.Matching.Threshold
			}
			return runMatch(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, logger, flags)
		},
	}

	cmd.Flags().StringVar(&flags.jsonPath, "json", "", "WhisperX JSON output file")
	cmd.Flags().StringVar(&flags.audioPath, "audio", "", "Normalized audio file")
	cmd.Flags().StringVar(&flags.outputPath, "output_txt", "", "Output TXT file path")
	cmd.Flags().StringVar(&flags.speakersDir, "speakers_dir", "", "Speaker profiles directory (enables matching)")
	cmd.Flags().Float64Var(&flags.threshold, "threshold", match.DefaultThreshold, "Similarity threshold")
	cmd.Flags().StringVar(&flags.hfToken, "hf_token", "", "HuggingFace token")
	for _, name := range []string{"json", "audio", "output_txt"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runMatch(ctx context.Context, out, errOut io.Writer, cfg *config.Config, logger *slog.Logger, flags matchFlags) error {
	tr, err := transcript.Load(flags.jsonPath)
	if err != nil {
		return err
	}

	var header transcript.Mapping
	if dir := strings.TrimSpace(flags.speakersDir); dir != "" {
		mapping, err := resolveSpeakers(ctx, out, errOut, cfg, logger, tr, dir, flags)
		switch {
		case errors.Is(err, context.Canceled):
			return err
		case err != nil:
			logging.WarnWithContext(logger, "speaker matching failed", "match_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "transcript keeps SPEAKER_XX labels"),
			)
			fmt.Fprintf(errOut, "Speaker matching failed: %v\nFalling back to SPEAKER_XX labels\n", err)
		case mapping != nil:
			header = transcript.BuildHeaderMapping(mapping)
			tr = transcript.Apply(tr, mapping)
			fmt.Fprintln(out, "\nFinal mapping:")
			for _, raw := range sortedKeys(mapping) {
				fmt.Fprintf(out, "  %s -> %s\n", raw, mapping[raw])
			}
		}
	}

	if err := transcript.WriteFile(flags.outputPath, tr, header); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	fmt.Fprintf(out, "\nGenerated transcript: %s\n", flags.outputPath)
	return nil
}

// resolveSpeakers returns a nil mapping when matching does not apply: the
// directory is absent or holds no profiles.
func resolveSpeakers(ctx context.Context, out, errOut io.Writer, cfg *config.Config, logger *slog.Logger, tr transcript.Transcript, dir string, flags matchFlags) (transcript.Mapping, error) {
	dir, err := config.ExpandPath(dir)
	if err != nil {
		return nil, err
	}
	if !fileutil.DirExists(dir) {
		logger.Info("speakers directory not found; skipping matching", logging.String("dir", dir))
		return nil, nil
	}
	profiles, err := profile.NewStore(dir, "", logger).Load(ctx)
	if err != nil {
		return nil, err
	}
	if profiles.Len() == 0 {
		return nil, nil
	}

	fmt.Fprintf(out, "Speaker matching enabled (threshold: %v)\n", flags.threshold)
	provider := newEmbeddingProvider(cfg, cfg.HFToken(flags.hfToken), logger)
	if !fileutil.FileExists(flags.audioPath) {
		// Every segment fails, so labels stay raw but the header is still written.
		fmt.Fprintf(errOut, "Warning: audio file not found: %s\n", flags.audioPath)
		provider = missingAudio{
			model: provider.Model(),
			err:   services.MissingInput("match", "audio file", flags.audioPath),
		}
	}
	result, err := match.New(provider, logger).Match(ctx, tr, flags.audioPath, profiles, match.Options{
		Threshold:         flags.threshold,
		MinSegmentSeconds: cfg.Matching.MinSegmentSeconds,
		MaxSegments:       cfg.Matching.MaxSegments,
	})
	if err != nil {
		return nil, err
	}
	for _, report := range result.Reports {
		printReport(out, report, flags.threshold, cfg.Matching.MinSegmentSeconds)
	}
	return result.Mapping, nil
}

func printReport(out io.Writer, r match.Report, threshold, minSeconds float64) {
	fmt.Fprintf(out, "\nProcessing %s...\n", r.Label)
	fmt.Fprintf(out, "  Found %d segments (>=%gs)\n", r.Segments, minSeconds)
	for _, score := range r.Scores {
		fmt.Fprintf(out, "  Similarity with '%s': %.4f\n", score.Name, score.Similarity)
	}
	switch r.Outcome {
	case match.OutcomeMatched:
		fmt.Fprintf(out, "  ✓ Matched to: %s (score: %.4f)\n", r.BestName, r.BestScore)
	case match.OutcomeBelow:
		fmt.Fprintf(out, "  ✗ No match (best score %.4f < threshold %v)\n", r.BestScore, threshold)
	case match.OutcomeEmbedFailed:
		fmt.Fprintln(out, "  ✗ No usable embeddings")
	}
}

// missingAudio fails every clip with err.
type missingAudio struct {
	model string
	err   error
}

func (m missingAudio) Embed(context.Context, embedding.Clip) (embedding.Frames, error) {
	return nil, m.err
}

func (m missingAudio) Model() string { return m.model }

func sortedKeys(m transcript.Mapping) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

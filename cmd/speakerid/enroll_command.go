package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"speakerid/internal/config"
	"speakerid/internal/enroll"
	"speakerid/internal/profile"
)

func newEnrollCommand(ctx *commandContext) *cobra.Command {
	var (
		inputPath     string
		outputPath    string
		speakerName   string
		metadataPath  string
		hfToken       string
		originalAudio string
	)

	cmd := &cobra.Command{
		Use:   "enroll",
		Short: "Extract a speaker embedding from an audio sample and store the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}

			output, err := config.ExpandPath(strings.TrimSpace(outputPath))
			if err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			metadata, err := config.ExpandPath(strings.TrimSpace(metadataPath))
			if err != nil {
				return fmt.Errorf("resolve metadata path: %w", err)
			}

			store := profile.NewStore(filepath.Dir(output), metadata, logger)
			provider := newEmbeddingProvider(cfg, cfg.HFToken(hfToken), logger)
			enroller := enroll.New(provider, newDurationProber(cfg), store, logger)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Extracting speaker embedding...")
			id := profile.IDFromPath(output)
			p, err := enroller.Enroll(cmd.Context(), enroll.Request{
				AudioPath:         inputPath,
				SpeakerID:         id,
				SpeakerName:       speakerName,
				MetadataAudioPath: strings.TrimSpace(originalAudio),
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Saved embedding: %s (shape: (%d,))\n", store.VectorPath(id), len(p.Embedding))
			fmt.Fprintf(out, "Updated metadata: %s\n", store.MetadataPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&inputPath, "input", "", "Input audio file (16kHz mono WAV)")
	cmd.Flags().StringVar(&outputPath, "output", "", "Output .npy file path; its base name becomes the speaker id")
	cmd.Flags().StringVar(&speakerName, "speaker_name", "", "Speaker display name")
	cmd.Flags().StringVar(&metadataPath, "metadata", "", "Path to speakers.json")
	cmd.Flags().StringVar(&hfToken, "hf_token", "", "HuggingFace token (or use HF_TOKEN env)")
	cmd.Flags().StringVar(&originalAudio, "original_audio", "", "Original audio file path (for metadata)")
	for _, name := range []string{"input", "output", "speaker_name", "metadata"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"speakerid/internal/profile"
	"speakerid/internal/services"
)

func newSpeakersCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speakers",
		Short: "Manage enrolled speaker profiles",
	}
	cmd.AddCommand(newSpeakersListCommand(ctx))
	cmd.AddCommand(newSpeakersDeleteCommand(ctx))
	return cmd
}

func newSpeakersListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List enrolled speakers sorted by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}
			store := profile.NewStore(cfg.Paths.SpeakersDir, cfg.MetadataPath(), logger)
			summaries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				if summaries == nil {
					summaries = []profile.Summary{}
				}
				return writeJSON(cmd, summaries)
			}

			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintf(out, "No speaker profiles in %s\n", store.Dir())
				return nil
			}
			rows := make([][]string, 0, len(summaries))
			for _, s := range summaries {
				rows = append(rows, []string{
					s.Name,
					s.ID,
					s.Created,
					strconv.FormatFloat(s.DurationSeconds, 'f', 2, 64),
					s.Model,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "ID", "Created", "Duration (s)", "Model"},
				rows,
				3,
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func newSpeakersDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a speaker profile (vector and metadata)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.setup(cmd)
			if err != nil {
				return err
			}
			id := args[0]
			store := profile.NewStore(cfg.Paths.SpeakersDir, cfg.MetadataPath(), logger)
			deleted, err := store.Delete(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !deleted {
				return services.MissingInput("speakers", "speaker profile", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted speaker profile: %s\n", id)
			return nil
		},
	}
}

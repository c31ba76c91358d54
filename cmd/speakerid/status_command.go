package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"speakerid/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the speakers directory, token, and external tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cfg)
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{r.Name, renderStatusCell(resultKind(r), colorize), r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Check", "Status", "Detail"}, rows))

			if failed := preflight.Failed(results); len(failed) > 0 {
				fmt.Fprintf(out, "%d check(s) need attention\n", len(failed))
			} else {
				fmt.Fprintln(out, "All checks passed")
			}
			return nil
		},
	}
}

func resultKind(r preflight.Result) statusKind {
	switch {
	case !r.Passed:
		return statusError
	case strings.HasSuffix(r.Detail, "(optional)"):
		return statusWarn
	default:
		return statusOK
	}
}

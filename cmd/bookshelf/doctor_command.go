package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookshelf/internal/preflight"
	"bookshelf/internal/services"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var online bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check external tools, directories and metadata endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			results := preflight.RunAll(cmd.Context(), cfg, preflight.Options{Online: online})
			for _, line := range renderSectionHeader("Environment", colorize) {
				fmt.Fprintln(out, line)
			}
			for _, result := range results {
				kind := statusOK
				switch {
				case !result.Passed && result.Optional:
					kind = statusWarn
				case !result.Passed:
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if !online {
				fmt.Fprintln(out, renderStatusLine("Metadata sources", statusInfo, "skipped (use --online)", colorize))
			}

			if preflight.Failed(results) {
				return services.Wrap(services.ErrExternalTool, "doctor", "preflight", "one or more required checks failed", nil)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "All required checks passed.")
			return nil
		},
	}
	cmd.Flags().BoolVar(&online, "online", false, "Also check that the metadata endpoints respond")
	return cmd
}

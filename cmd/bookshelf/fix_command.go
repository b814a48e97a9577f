package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/notifications"
	"bookshelf/internal/organizer"
	"bookshelf/internal/planner"
	"bookshelf/internal/planview"
	"bookshelf/internal/services"
)

type fixFlags struct {
	dest    string
	format  string
	apply   bool
	showAll bool
}

func newFixCommand(ctx *commandContext) *cobra.Command {
	var flags fixFlags

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Move library files that no longer match the path template",
		Long: `Re-render every book in the library and rename the ones whose path no
longer matches the template. Sidecars move with their book and directories left
empty are removed. Without --apply only the plan is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.fix(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dest, "dest", "", "Library root (default: organize.dest)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Path template (default: organize.format)")
	cmd.Flags().BoolVar(&flags.apply, "apply", false, "Move the files (default: dry run)")
	cmd.Flags().BoolVar(&flags.showAll, "show-all", false, "Also list files that are already in place")
	return cmd
}

func (c *commandContext) fix(cmd *cobra.Command, flags fixFlags) error {
	tmpl, dest, err := c.templateAndDest(flags.format, flags.dest)
	if err != nil {
		return err
	}
	if dest, err = resolveDir(dest, "library directory"); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	c.infof(cmd, "Scanning %s...\n", dest)
	files, err := c.scanBooks(cmd, dest)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No .m4b files found.")
		return nil
	}

	report, done := c.planProgress(cmd)
	plan := planner.BuildFix(files, tmpl, dest,
		planner.WithHasher(contenthash.NewHasher(true, c.loggerFor("hash"))),
		planner.WithLogger(c.loggerFor("planner")),
		planner.WithProgress(report),
	)
	done()

	if len(plan.Conflicts) > 0 {
		fmt.Fprintf(errOut, "%s:\n\n", plural(len(plan.Conflicts), "destination conflict", "destination conflicts"))
		fmt.Fprint(errOut, planview.Conflicts(plan.Conflicts))
		return services.Wrap(services.ErrConflict, "fix", "plan",
			fmt.Sprintf("%s must be resolved first", plural(len(plan.Conflicts), "conflict", "conflicts")), nil)
	}
	if len(plan.Uncategorized) > 0 {
		fmt.Fprintf(errOut, "%s missing required metadata (left in place):\n\n", plural(len(plan.Uncategorized), "file is", "files are"))
		fmt.Fprint(errOut, planview.Uncategorized(plan.Uncategorized, dest))
		fmt.Fprintln(errOut)
	}

	if flags.showAll && len(plan.Compliant) > 0 {
		fmt.Fprintf(out, "%s already in place:\n", plural(len(plan.Compliant), "file", "files"))
		for _, path := range plan.Compliant {
			rel, err := filepath.Rel(dest, path)
			if err != nil {
				rel = path
			}
			fmt.Fprintf(out, "  %s\n", rel)
		}
		fmt.Fprintln(out)
	}

	if len(plan.Moves) == 0 {
		fmt.Fprintf(out, "All %s match the format.\n", plural(len(plan.Compliant), "file", "files"))
		return nil
	}
	fmt.Fprintf(out, "%s to move:\n\n", plural(len(plan.Moves), "file", "files"))
	fmt.Fprint(out, planview.List(plan.Moves))
	fmt.Fprintln(out)

	if !flags.apply {
		fmt.Fprintln(out, "Dry run - no files moved. Re-run with --apply to fix.")
		return nil
	}

	org, err := organizer.New(dest, organizer.WithLogger(c.loggerFor("organizer")), organizer.WithIndex(true))
	if err != nil {
		return err
	}
	result, err := org.ApplyFix(cmd.Context(), plan)
	fmt.Fprintf(out, "Moved %s", plural(len(result.Moved), "file", "files"))
	if result.AuxiliaryMoved > 0 {
		fmt.Fprintf(out, " and %s", plural(result.AuxiliaryMoved, "auxiliary file", "auxiliary files"))
	}
	fmt.Fprintln(out, ".")
	if len(result.RemovedDirs) > 0 {
		fmt.Fprintf(out, "Removed %s.\n", plural(len(result.RemovedDirs), "empty directory", "empty directories"))
	}
	if result.Reindexed > 0 {
		fmt.Fprintf(out, "Reindexed: %d\n", result.Reindexed)
	}
	for _, skipped := range result.AuxiliarySkipped {
		fmt.Fprintf(errOut, "Skipped auxiliary file (destination exists): %s\n", skipped)
	}
	if err != nil {
		c.notify(cmd, notifications.EventError, notifications.Payload{"context": "fix", "error": err})
		return err
	}
	c.notify(cmd, notifications.EventFixCompleted, notifications.Payload{"moved": len(result.Moved), "dest": dest})
	return nil
}

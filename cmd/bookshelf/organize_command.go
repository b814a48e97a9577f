package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/metadata"
	"bookshelf/internal/notifications"
	"bookshelf/internal/organizer"
	"bookshelf/internal/pathfmt"
	"bookshelf/internal/planner"
	"bookshelf/internal/planview"
	"bookshelf/internal/scanner"
	"bookshelf/internal/services"
)

type organizeFlags struct {
	source             string
	dest               string
	format             string
	apply              bool
	allowUncategorized bool
	list               bool
}

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var flags organizeFlags

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Copy audiobooks into the library using the path template",
		Long: `Scan a source directory, render each book's destination from its metadata
and copy it into the library. Files already present with identical content are
skipped. Without --apply only the plan is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.organize(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.source, "source", "", "Directory to scan for audiobooks")
	cmd.Flags().StringVar(&flags.dest, "dest", "", "Library root (default: organize.dest)")
	cmd.Flags().StringVar(&flags.format, "format", "", "Path template (default: organize.format)")
	cmd.Flags().BoolVar(&flags.apply, "apply", false, "Copy the files (default: dry run)")
	cmd.Flags().BoolVar(&flags.allowUncategorized, "allow-uncategorized", false, "Copy books with missing metadata into "+organizer.UncategorizedDir)
	cmd.Flags().BoolVar(&flags.list, "list", false, "Print a flat source -> destination list instead of a tree")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}

// templateAndDest resolves the --format and --dest overrides against config.
func (c *commandContext) templateAndDest(format, dest string) (*pathfmt.Template, string, error) {
	cfg := c.configValue()
	value, err := cfg.FormatFor(format)
	if err != nil {
		return nil, "", err
	}
	tmpl, err := pathfmt.Parse(value)
	if err != nil {
		return nil, "", services.Wrap(services.ErrValidation, "organize", "format", fmt.Sprintf("invalid format %q", value), err)
	}
	root, err := cfg.DestFor(dest)
	if err != nil {
		return nil, "", err
	}
	return tmpl, root, nil
}

// scanBooks reads every book under dir with a single-line progress display.
func (c *commandContext) scanBooks(cmd *cobra.Command, dir string) ([]planner.File, error) {
	progress := newProgressLine(cmd.ErrOrStderr(), c.quiet)
	defer progress.clear()
	return scanner.Scan(cmd.Context(), dir, c.tagReader(),
		scanner.WithLogger(c.loggerFor("scanner")),
		scanner.WithProgress(func(path string) { progress.update("Reading", path) }),
	)
}

func (c *commandContext) planProgress(cmd *cobra.Command) (func(planner.Progress), func()) {
	progress := newProgressLine(cmd.ErrOrStderr(), c.quiet)
	return func(p planner.Progress) {
		progress.update(p.Kind.String(), p.Path)
	}, progress.clear
}

func (c *commandContext) organize(cmd *cobra.Command, flags organizeFlags) error {
	source, err := resolveDir(flags.source, "source directory")
	if err != nil {
		return err
	}
	tmpl, dest, err := c.templateAndDest(flags.format, flags.dest)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	c.infof(cmd, "Scanning %s...\n", source)
	files, err := c.scanBooks(cmd, source)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No .m4b files found.")
		return nil
	}

	report, done := c.planProgress(cmd)
	plan := planner.Build(files, tmpl, dest,
		planner.WithHasher(contenthash.NewHasher(false, c.loggerFor("hash"))),
		planner.WithLogger(c.loggerFor("planner")),
		planner.WithProgress(report),
	)
	done()

	if len(plan.Uncategorized) > 0 && !flags.allowUncategorized {
		fmt.Fprintf(errOut, "%s missing required metadata:\n\n", plural(len(plan.Uncategorized), "file is", "files are"))
		fmt.Fprint(errOut, planview.Uncategorized(plan.Uncategorized, filepath.Join(dest, organizer.UncategorizedDir)))
		fmt.Fprintln(errOut, "\nFix the tags with `bookshelf edit` or pass --allow-uncategorized.")
		return services.Wrap(services.ErrValidation, "organize", "plan",
			fmt.Sprintf("%s missing metadata", plural(len(plan.Uncategorized), "file", "files")), nil)
	}
	if len(plan.Conflicts) > 0 {
		fmt.Fprintf(errOut, "%s:\n\n", plural(len(plan.Conflicts), "destination conflict", "destination conflicts"))
		fmt.Fprint(errOut, planview.Conflicts(plan.Conflicts))
		return services.Wrap(services.ErrConflict, "organize", "plan",
			fmt.Sprintf("%s must be resolved first", plural(len(plan.Conflicts), "conflict", "conflicts")), nil)
	}

	if len(plan.Operations) > 0 {
		fmt.Fprintf(out, "%s to organize:\n\n", plural(len(plan.Operations), "file", "files"))
		if flags.list {
			fmt.Fprint(out, planview.List(plan.Operations))
		} else {
			fmt.Fprintln(out, planview.Tree(plan.Operations, dest))
		}
		fmt.Fprintln(out)
	}
	if len(plan.Uncategorized) > 0 {
		fmt.Fprintf(out, "%s will go to uncategorized:\n\n", plural(len(plan.Uncategorized), "file", "files"))
		fmt.Fprint(out, planview.Uncategorized(plan.Uncategorized, filepath.Join(dest, organizer.UncategorizedDir)))
		fmt.Fprintln(out)
	}
	if len(plan.AlreadyPresent) > 0 {
		fmt.Fprintf(out, "%s already in the library (identical content).\n\n", plural(len(plan.AlreadyPresent), "file", "files"))
	}
	if len(plan.Operations) == 0 && len(plan.Uncategorized) == 0 {
		fmt.Fprintln(out, "Nothing to organize.")
		return nil
	}

	if !flags.apply {
		fmt.Fprintln(out, "Dry run - no files copied. Re-run with --apply to organize.")
		return nil
	}

	org, err := organizer.New(dest, organizer.WithLogger(c.loggerFor("organizer")), organizer.WithIndex(true))
	if err != nil {
		return err
	}
	records := make(map[string]metadata.Record, len(files))
	for _, file := range files {
		records[file.Path] = file.Metadata
	}
	result, err := org.Execute(cmd.Context(), plan, organizer.ExecuteOptions{
		AllowUncategorized: flags.allowUncategorized,
		Metadata:           records,
		Progress: func(done, total int, path string) {
			c.infof(cmd, "[%d/%d] %s\n", done, total, path)
		},
	})
	printOrganizeReport(cmd, result)
	if err != nil {
		c.notify(cmd, notifications.EventError, notifications.Payload{"context": "organize", "error": err})
		return err
	}
	c.notify(cmd, notifications.EventOrganizeCompleted, notifications.Payload{
		"copied":        len(result.Copied),
		"uncategorized": len(result.Uncategorized),
		"dest":          dest,
	})
	return nil
}

func printOrganizeReport(cmd *cobra.Command, report organizer.Report) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Copied %s", plural(len(report.Copied), "file", "files"))
	if report.AuxiliaryCopied > 0 {
		fmt.Fprintf(out, " and %s", plural(report.AuxiliaryCopied, "auxiliary file", "auxiliary files"))
	}
	fmt.Fprintln(out, ".")
	if len(report.Uncategorized) > 0 {
		fmt.Fprintf(out, "Uncategorized: %d\n", len(report.Uncategorized))
	}
	if report.AlreadyPresent > 0 {
		fmt.Fprintf(out, "Already present: %d\n", report.AlreadyPresent)
	}
	if report.Indexed > 0 {
		fmt.Fprintf(out, "Indexed: %d\n", report.Indexed)
	}
	for _, skipped := range report.AuxiliarySkipped {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped auxiliary file (destination exists): %s\n", skipped)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", warning)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/library"
	"bookshelf/internal/logging"
	"bookshelf/internal/scanner"
)

type indexFlags struct {
	full  bool
	prune bool
}

type indexSummary struct {
	added     int
	updated   int
	unchanged int
	failed    int
	pruned    int
}

func newIndexCommand(ctx *commandContext) *cobra.Command {
	var flags indexFlags
	cmd := &cobra.Command{
		Use:   "index <dir>",
		Short: "Build or refresh the library search index",
		Long: `Record every audiobook below a library root in ` + library.DBFileName + `.
Files whose size has not changed since they were indexed are skipped unless
--full is given; --prune drops rows for files that no longer exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := resolveDir(args[0], "library directory")
			if err != nil {
				return err
			}
			return ctx.index(cmd, root, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.full, "full", false, "Re-read and re-hash every file")
	cmd.Flags().BoolVar(&flags.prune, "prune", false, "Remove index rows for missing files")
	return cmd
}

func (c *commandContext) index(cmd *cobra.Command, root string, flags indexFlags) error {
	store, err := library.Open(cmd.Context(), root)
	if err != nil {
		return err
	}
	defer store.Close()

	layout, err := scanner.Walk(cmd.Context(), root)
	if err != nil {
		return err
	}

	logger := c.loggerFor("index")
	hasher := contenthash.NewHasher(true, logger)
	progress := newProgressLine(cmd.ErrOrStderr(), c.quiet)
	var summary indexSummary

	for _, path := range layout.Books {
		if err := cmd.Context().Err(); err != nil {
			progress.clear()
			return err
		}
		progress.update("Indexing", path)
		outcome, err := c.indexBook(cmd, store, hasher, path, flags.full)
		if err != nil {
			summary.failed++
			logging.WarnWithContext(logger, "file not indexed", "index_file_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file missing from search results"),
			)
			continue
		}
		switch outcome {
		case indexAdded:
			summary.added++
		case indexUpdated:
			summary.updated++
		default:
			summary.unchanged++
		}
	}
	progress.clear()

	if flags.prune {
		pruned, err := store.Prune(cmd.Context(), func(abs string) bool {
			_, err := os.Stat(abs)
			return err == nil
		})
		if err != nil {
			return err
		}
		summary.pruned = len(pruned)
	}

	total, err := store.Count(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexed %s: %d added, %d updated, %d unchanged",
		plural(len(layout.Books), "file", "files"), summary.added, summary.updated, summary.unchanged)
	if summary.failed > 0 {
		fmt.Fprintf(out, ", %d failed", summary.failed)
	}
	fmt.Fprintln(out, ".")
	if flags.prune {
		fmt.Fprintf(out, "Pruned %s.\n", plural(summary.pruned, "missing entry", "missing entries"))
	}
	fmt.Fprintf(out, "Index now holds %s.\n", plural(total, "audiobook", "audiobooks"))
	return nil
}

type indexOutcome int

const (
	indexUnchanged indexOutcome = iota
	indexAdded
	indexUpdated
)

func (c *commandContext) indexBook(cmd *cobra.Command, store *library.Store, hasher *contenthash.Hasher, path string, full bool) (indexOutcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return indexUnchanged, err
	}
	rel, err := store.Relative(path)
	if err != nil {
		return indexUnchanged, err
	}
	existing, found, err := store.Get(cmd.Context(), rel)
	if err != nil {
		return indexUnchanged, err
	}
	if found && !full && existing.Size == info.Size() {
		return indexUnchanged, nil
	}

	record, err := c.tagReader().Read(cmd.Context(), path)
	if err != nil {
		return indexUnchanged, err
	}
	digest, err := hasher.Hash(path)
	if err != nil {
		return indexUnchanged, err
	}
	if err := store.Upsert(cmd.Context(), rel, info.Size(), digest, record); err != nil {
		return indexUnchanged, err
	}
	if found {
		return indexUpdated, nil
	}
	return indexAdded, nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/internal/editform"
	"bookshelf/internal/logging"
	"bookshelf/internal/lookup"
	"bookshelf/internal/merge"
	"bookshelf/internal/metadata"
	"bookshelf/internal/notifications"
	"bookshelf/internal/safety"
	"bookshelf/internal/scanner"
	"bookshelf/internal/services"
)

type lookupFlags struct {
	session     editSession
	trustSource string
	autoAccept  bool
}

// candidate is one book with its merged lookup results.
type candidate struct {
	path     string
	original metadata.Record
	merged   merge.Metadata
	labels   []string
	size     int64
}

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var flags lookupFlags

	cmd := &cobra.Command{
		Use:   "lookup <file>",
		Short: "Look up metadata from Audnexus, Audible and Open Library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveBook(args[0])
			if err != nil {
				return err
			}
			trusted, err := ctx.trustedSource(flags.trustSource)
			if err != nil {
				return services.Wrap(services.ErrValidation, "lookup", "trusted source", "", err)
			}
			service, err := ctx.lookupService()
			if err != nil {
				return err
			}

			ctx.infof(cmd, "Reading metadata from %s...\n", path)
			item, err := ctx.queryAndMerge(cmd, service, path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if labels, ok := merge.MatchesFile(item.merged); ok {
				fmt.Fprintf(out, "%s: metadata matches [%s] - skipping\n", path, strings.Join(labels, ", "))
				return nil
			}
			if trusted.IsSet() {
				if !merge.HasTrustedSourceData(item.merged, trusted.Label()) {
					fmt.Fprintf(out, "Skipping %s: trusted source %q returned no results\n", path, trusted.Label())
					return nil
				}
				return ctx.acceptTrusted(cmd, item, trusted, flags.session)
			}
			_, err = ctx.reviewLookup(cmd, item, flags.session)
			return err
		},
	}

	cmd.Flags().BoolVar(&flags.session.apply, "apply", false, "Write the changes (default: save as pending edit)")
	cmd.Flags().BoolVarP(&flags.session.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&flags.session.noBackup, "no-backup", false, "Do not create a .bak copy before writing")
	cmd.Flags().StringVar(&flags.trustSource, "trust-source", "", "Accept this source's values without the editor (audible, audnexus, openlibrary)")
	return cmd
}

func newLookupAllCommand(ctx *commandContext) *cobra.Command {
	var flags lookupFlags

	cmd := &cobra.Command{
		Use:   "lookup-all <dir>",
		Short: "Look up metadata for every m4b file under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := resolveDir(args[0], "directory")
			if err != nil {
				return err
			}
			trusted, err := ctx.trustedSource(flags.trustSource)
			if err != nil {
				return services.Wrap(services.ErrValidation, "lookup", "trusted source", "", err)
			}
			service, err := ctx.lookupService()
			if err != nil {
				return err
			}
			return ctx.lookupAll(cmd, service, dir, trusted, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.session.apply, "apply", false, "Write the changes (default: dry run)")
	cmd.Flags().BoolVarP(&flags.session.yes, "yes", "y", false, "Skip confirmation prompts")
	cmd.Flags().BoolVar(&flags.session.noBackup, "no-backup", false, "Do not create .bak copies before writing")
	cmd.Flags().StringVar(&flags.trustSource, "trust-source", "", "Accept this source's values without the editor (audible, audnexus, openlibrary)")
	cmd.Flags().BoolVar(&flags.autoAccept, "auto-accept", false, "Apply conflict-free results without opening the editor")
	return cmd
}

func (c *commandContext) queryAndMerge(cmd *cobra.Command, service *lookup.Service, path string) (candidate, error) {
	original, err := c.tagReader().Read(cmd.Context(), path)
	if err != nil {
		return candidate{}, err
	}
	asin, ok := lookup.ExtractASIN(filepath.Base(path))
	if ok {
		c.infof(cmd, "  Found ASIN in filename: %s\n", asin)
	}
	results, err := service.Query(cmd.Context(), original, asin)
	if err != nil {
		if errors.Is(err, lookup.ErrNoResults) {
			return candidate{}, services.Wrap(services.ErrNotFound, "lookup", "query", "no results found from any source", err)
		}
		return candidate{}, err
	}
	labels := make([]string, 0, len(results))
	for _, result := range results {
		labels = append(labels, result.Label)
	}
	item := candidate{
		path:     path,
		original: original,
		merged:   merge.MergeResults(original, results),
		labels:   labels,
	}
	if info, err := os.Stat(path); err == nil {
		item.size = info.Size()
	}
	return item, nil
}

// reviewLookup opens the annotated merge in the editor and reviews the result.
func (c *commandContext) reviewLookup(cmd *cobra.Command, item candidate, session editSession) (editOutcome, error) {
	c.infof(cmd, "Opening editor...\n")
	edited, err := c.openEditor(cmd.Context(), editform.Render(item.merged))
	if err != nil {
		return editUnchanged, err
	}
	return c.review(cmd, item.path, item.original, edited, session)
}

// acceptTrusted settles conflicts in favor of trusted and writes the result
// without the editor.
func (c *commandContext) acceptTrusted(cmd *cobra.Command, item candidate, trusted lookup.TrustedSource, session editSession) error {
	resolved := merge.ResolveWithTrustedSource(item.merged, trusted.Label())
	return c.acceptMerged(cmd, item, resolved, fmt.Sprintf("Trusted source %q", trusted.Label()), session)
}

func (c *commandContext) acceptMerged(cmd *cobra.Command, item candidate, merged merge.Metadata, label string, session editSession) error {
	updated, err := merged.Record()
	if err != nil {
		return err
	}
	changes := editform.Changes(item.original, updated)
	out := cmd.OutOrStdout()
	if len(changes) == 0 {
		fmt.Fprintf(out, "  No changes from %s.\n", label)
		return nil
	}
	names := make([]string, 0, len(changes))
	for _, change := range changes {
		names = append(names, string(change.Field))
	}
	fmt.Fprintf(out, "  %s: applying %s\n", label, strings.Join(names, ", "))

	if !session.apply {
		store, err := c.pendingStore()
		if err != nil {
			return err
		}
		if _, err := store.Save(item.path, editform.RenderRecord(updated)); err != nil {
			return err
		}
		fmt.Fprintln(out, "  (dry run) Saved to pending edits. Use --apply to write.")
		return nil
	}
	if err := c.writeRecord(cmd, item.path, updated, session.noBackup); err != nil {
		return err
	}
	fmt.Fprintln(out, "  Applied.")
	return nil
}

func (c *commandContext) lookupAll(cmd *cobra.Command, service *lookup.Service, dir string, trusted lookup.TrustedSource, flags lookupFlags) error {
	out := cmd.OutOrStdout()
	logger := c.loggerFor("lookup-all")

	c.infof(cmd, "Scanning %s...\n", dir)
	layout, err := scanner.Walk(cmd.Context(), dir)
	if err != nil {
		return err
	}
	if len(layout.Books) == 0 {
		fmt.Fprintln(out, "No .m4b files found.")
		return nil
	}
	fmt.Fprintf(out, "Found %s.\n\n", plural(len(layout.Books), "audiobook file", "audiobook files"))

	var queued []candidate
	skipped, failed := 0, 0
	for i, path := range layout.Books {
		if err := cmd.Context().Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "[%d/%d] Checking %s... ", i+1, len(layout.Books), filepath.Base(path))
		item, err := c.queryAndMerge(cmd, service, path)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			logging.WarnWithContext(logger, "lookup failed", "lookup_all_item_failed",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file skipped"),
			)
			failed++
			continue
		}
		if trusted.IsSet() && !merge.HasTrustedSourceData(item.merged, trusted.Label()) {
			fmt.Fprintf(out, "skipped (trusted source %q has no data)\n", trusted.Label())
			skipped++
			continue
		}
		if labels, ok := merge.MatchesFile(item.merged); ok {
			fmt.Fprintf(out, "matches [%s] - skipping\n", strings.Join(labels, ", "))
			skipped++
			continue
		}
		fmt.Fprintf(out, "updates available from [%s]\n", strings.Join(item.labels, ", "))
		queued = append(queued, item)
	}
	fmt.Fprintln(out)

	if len(queued) == 0 {
		fmt.Fprintf(out, "All %s up to date (%d errors).\n", plural(skipped, "file is", "files are"), failed)
		return nil
	}

	if flags.session.apply && !flags.session.noBackup {
		if queued, err = c.fitBackupLimit(cmd, dir, queued); err != nil || len(queued) == 0 {
			return err
		}
	}

	fmt.Fprintf(out, "Found %s with available updates (%d already up to date, %d errors)\n\n",
		plural(len(queued), "file", "files"), skipped, failed)

	for i, item := range queued {
		fmt.Fprintf(out, "[%d/%d] Processing %s\n", i+1, len(queued), item.path)
		switch {
		case trusted.IsSet():
			err = c.acceptTrusted(cmd, item, trusted, flags.session)
		case flags.autoAccept && len(item.merged.Conflicts()) == 0:
			err = c.acceptMerged(cmd, item, item.merged, "Auto-accept", flags.session)
		default:
			if flags.autoAccept {
				fmt.Fprintln(out, "  Has conflicts - opening editor...")
			}
			_, err = c.reviewLookup(cmd, item, flags.session)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
	}
	if flags.session.apply {
		c.notify(cmd, notifications.EventLookupCompleted, notifications.Payload{
			"processed": len(queued),
			"skipped":   skipped,
			"failed":    failed,
		})
	}
	return nil
}

// fitBackupLimit trims queued to the files whose backups fit under the
// configured storage limit.
func (c *commandContext) fitBackupLimit(cmd *cobra.Command, dir string, queued []candidate) ([]candidate, error) {
	backups := c.backups(dir)
	sizes := make([]int64, len(queued))
	for i, item := range queued {
		sizes[i] = item.size
	}
	allowed, err := backups.Allowance(sizes)
	if err != nil {
		return nil, err
	}
	if allowed >= len(queued) {
		return queued, nil
	}

	out := cmd.OutOrStdout()
	used, err := safety.Usage(dir)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "Found %s with updates, but the backup limit (%s) allows only %d.\n",
		plural(len(queued), "file", "files"), safety.FormatSize(backups.Limit()), allowed)
	fmt.Fprintf(out, "Current backup usage: %s\n", safety.FormatSize(used))
	fmt.Fprintln(out, "Run `bookshelf backups clean` or raise backups.max_storage_bytes.")
	if allowed == 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Cannot process any files - backup limit reached.")
		return nil, nil
	}
	fmt.Fprintf(out, "Processing the first %d...\n\n", allowed)
	return queued[:allowed], nil
}

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/fileutil"
	"bookshelf/internal/library"
	"bookshelf/internal/scanner"
)

type cleanFlags struct {
	dest  string
	apply bool
}

func newCleanCommand(ctx *commandContext) *cobra.Command {
	var flags cleanFlags
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned hash sidecars and stale index entries",
		Long: `Find ` + contenthash.SidecarExt + ` sidecars whose audiobook no longer exists,
delete them together with directories they leave empty, and drop index rows for
missing files. Without --apply only the findings are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			root, err := ctx.configValue().DestFor(flags.dest)
			if err != nil {
				return err
			}
			if root, err = resolveDir(root, "library directory"); err != nil {
				return err
			}
			return ctx.clean(cmd, root, flags.apply)
		},
	}
	cmd.Flags().StringVar(&flags.dest, "dest", "", "Library root (default: organize.dest)")
	cmd.Flags().BoolVar(&flags.apply, "apply", false, "Delete the orphans (default: dry run)")
	return cmd
}

func (c *commandContext) clean(cmd *cobra.Command, root string, apply bool) error {
	out := cmd.OutOrStdout()
	layout, err := scanner.Walk(cmd.Context(), root)
	if err != nil {
		return err
	}

	var orphans []string
	for _, sidecar := range layout.Sidecars {
		if _, orphan := contenthash.IsOrphanSidecar(sidecar); orphan {
			orphans = append(orphans, sidecar)
		}
	}

	var stale []string
	store, indexed, err := c.libraryIndex(cmd, root)
	if err != nil {
		return err
	}
	if indexed {
		defer store.Close()
		entries, err := store.All(cmd.Context())
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if _, err := os.Stat(store.Absolute(entry.Path)); errors.Is(err, fs.ErrNotExist) {
				stale = append(stale, entry.Path)
			}
		}
	}

	if len(orphans) == 0 && len(stale) == 0 {
		fmt.Fprintln(out, "Nothing to clean.")
		return nil
	}
	for _, sidecar := range orphans {
		rel, err := filepath.Rel(root, sidecar)
		if err != nil {
			rel = sidecar
		}
		fmt.Fprintf(out, "orphan sidecar  %s\n", rel)
	}
	for _, rel := range stale {
		fmt.Fprintf(out, "stale index row %s\n", rel)
	}
	fmt.Fprintln(out)

	if !apply {
		fmt.Fprintf(out, "Dry run - found %s and %s. Re-run with --apply to remove them.\n",
			plural(len(orphans), "orphaned sidecar", "orphaned sidecars"),
			plural(len(stale), "stale index entry", "stale index entries"))
		return nil
	}

	removedDirs := 0
	for _, sidecar := range orphans {
		if err := os.Remove(sidecar); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", sidecar, err)
		}
		dirs, err := fileutil.RemoveEmptyParents(filepath.Dir(sidecar), root)
		if err != nil {
			return err
		}
		removedDirs += len(dirs)
	}
	pruned := 0
	if indexed {
		rows, err := store.Prune(cmd.Context(), func(abs string) bool {
			_, err := os.Stat(abs)
			return err == nil
		})
		if err != nil {
			return err
		}
		pruned = len(rows)
	}
	fmt.Fprintf(out, "Removed %s and %s; pruned %s.\n",
		plural(len(orphans), "orphaned sidecar", "orphaned sidecars"),
		plural(removedDirs, "empty directory", "empty directories"),
		plural(pruned, "index entry", "index entries"))
	return nil
}

// libraryIndex opens the index at root when one exists. It never creates one.
func (c *commandContext) libraryIndex(cmd *cobra.Command, root string) (*library.Store, bool, error) {
	if _, err := os.Stat(filepath.Join(root, library.DBFileName)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	store, err := library.Open(cmd.Context(), root)
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}

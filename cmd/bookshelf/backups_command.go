package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bookshelf/internal/safety"
)

func newBackupsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Inspect and remove .bak files left by metadata writes",
	}
	cmd.AddCommand(newBackupsListCommand(ctx), newBackupsCleanCommand(ctx))
	return cmd
}

// backupDir resolves the optional directory argument, falling back to the
// library root and then the working directory.
func (c *commandContext) backupDir(args []string) (string, error) {
	if len(args) == 1 {
		return resolveDir(args[0], "directory")
	}
	if dest := c.configValue().Organize.Dest; dest != "" {
		return resolveDir(dest, "library directory")
	}
	return resolveDir(".", "directory")
}

func newBackupsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List backups and their disk usage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ctx.backupDir(args)
			if err != nil {
				return err
			}
			backups, err := safety.ListBackups(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups found in %s\n", dir)
				return nil
			}

			var total int64
			rows := make([][]string, 0, len(backups))
			for _, backup := range backups {
				rel, err := filepath.Rel(dir, backup.Path)
				if err != nil {
					rel = backup.Path
				}
				rows = append(rows, []string{rel, safety.FormatSize(backup.Size)})
				total += backup.Size
			}
			fmt.Fprintln(out, renderTable([]string{"Backup", "Size"}, rows, []columnAlignment{alignLeft, alignRight}))
			fmt.Fprintf(out, "\n%s, %s total", plural(len(backups), "backup", "backups"), safety.FormatSize(total))
			if limit := ctx.configValue().Backups.MaxStorageBytes; limit > 0 {
				fmt.Fprintf(out, " (limit %s)", safety.FormatSize(limit))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newBackupsCleanCommand(ctx *commandContext) *cobra.Command {
	var all, yes bool
	cmd := &cobra.Command{
		Use:   "clean [dir]",
		Short: "Delete backups",
		Long: `Delete backups below a directory. By default each backup is confirmed
individually; --all asks once for the whole set and --yes skips every prompt.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := ctx.backupDir(args)
			if err != nil {
				return err
			}
			backups, err := safety.ListBackups(dir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintf(out, "No backups found in %s\n", dir)
				return nil
			}

			var total int64
			for _, backup := range backups {
				total += backup.Size
			}
			if all && !yes {
				ok, err := ctx.confirm(cmd, fmt.Sprintf("Delete %s (%s)?", plural(len(backups), "backup", "backups"), safety.FormatSize(total)))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			removed := 0
			var freed int64
			for _, backup := range backups {
				if !all && !yes {
					ok, err := ctx.confirm(cmd, fmt.Sprintf("Delete %s (%s)?", backup.Path, safety.FormatSize(backup.Size)))
					if err != nil {
						return err
					}
					if !ok {
						continue
					}
				}
				if _, err := safety.RemoveBackup(backup.Original); err != nil {
					return fmt.Errorf("remove %s: %w", backup.Path, err)
				}
				removed++
				freed += backup.Size
			}
			fmt.Fprintf(out, "Deleted %s, freed %s.\n", plural(removed, "backup", "backups"), safety.FormatSize(freed))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Delete every backup after a single confirmation")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip confirmation prompts")
	return cmd
}

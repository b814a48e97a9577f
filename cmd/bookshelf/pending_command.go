package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"bookshelf/internal/editform"
	"bookshelf/internal/logging"
	"bookshelf/internal/safety"
	"bookshelf/internal/services"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pending",
		Short: "Review, apply or discard saved edits",
	}
	cmd.AddCommand(
		newPendingListCommand(ctx),
		newPendingShowCommand(ctx),
		newPendingApplyCommand(ctx),
		newPendingClearCommand(ctx),
	)
	return cmd
}

func newPendingListCommand(ctx *commandContext) *cobra.Command {
	var showDiff bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pending edits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := ctx.pendingStore()
			if err != nil {
				return err
			}
			edits, err := store.List()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(edits) == 0 {
				fmt.Fprintln(out, "No pending edits.")
				return nil
			}
			if !showDiff {
				rows := make([][]string, 0, len(edits))
				for _, edit := range edits {
					rows = append(rows, []string{edit.Target, edit.Created.Local().Format("2006-01-02 15:04")})
				}
				fmt.Fprintln(out, renderTable([]string{"File", "Created"}, rows, []columnAlignment{alignLeft, alignLeft}))
				fmt.Fprintf(out, "\n%s. Use --diff to preview the changes.\n", plural(len(edits), "pending edit", "pending edits"))
				ctx.infof(cmd, "Stored in %s\n", store.Dir())
				return nil
			}
			for _, edit := range edits {
				if err := ctx.printPendingDiff(cmd, edit); err != nil {
					fmt.Fprintf(out, "%s: %v\n", edit.Target, err)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show the changes each edit would make")
	return cmd
}

func newPendingShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Show a pending edit and its diff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edit, err := ctx.loadPending(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Pending edit: %s\n", edit.CachePath)
			fmt.Fprintf(out, "Created:      %s\n\n", edit.Created.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintln(out, edit.Content)
			return ctx.printPendingDiff(cmd, edit)
		},
	}
}

func newPendingApplyCommand(ctx *commandContext) *cobra.Command {
	var session editSession
	cmd := &cobra.Command{
		Use:   "apply [file]",
		Short: "Apply one pending edit, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session.apply = true
			if len(args) == 1 {
				edit, err := ctx.loadPending(args[0])
				if err != nil {
					return err
				}
				return ctx.applyPending(cmd, edit, session)
			}
			return ctx.applyAllPending(cmd, session)
		},
	}
	cmd.Flags().BoolVarP(&session.yes, "yes", "y", false, "Skip confirmation prompts")
	cmd.Flags().BoolVar(&session.noBackup, "no-backup", false, "Do not create .bak copies before writing")
	return cmd
}

func newPendingClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear [file]",
		Short: "Discard one pending edit, or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.pendingStore()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				path, err := resolveBook(args[0])
				if err != nil {
					return err
				}
				removed, err := store.Remove(path)
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(out, "No pending edit for %s\n", path)
					return nil
				}
				fmt.Fprintf(out, "Cleared pending edit for %s\n", path)
				return nil
			}
			count, err := store.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Cleared %s.\n", plural(count, "pending edit", "pending edits"))
			return nil
		},
	}
}

func (c *commandContext) loadPending(arg string) (safety.PendingEdit, error) {
	path, err := resolveBook(arg)
	if err != nil {
		return safety.PendingEdit{}, err
	}
	store, err := c.pendingStore()
	if err != nil {
		return safety.PendingEdit{}, err
	}
	edit, ok, err := store.Load(path)
	if err != nil {
		return safety.PendingEdit{}, err
	}
	if !ok {
		return safety.PendingEdit{}, services.Wrap(services.ErrNotFound, "pending", "load",
			fmt.Sprintf("no pending edit for %s", path), nil)
	}
	return edit, nil
}

func (c *commandContext) printPendingDiff(cmd *cobra.Command, edit safety.PendingEdit) error {
	original, err := c.tagReader().Read(cmd.Context(), edit.Target)
	if err != nil {
		return err
	}
	updated, err := editform.Parse(edit.Content)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), editform.FormatDiff(edit.Target, editform.Changes(original, updated)))
	return nil
}

// applyPending reviews and writes one pending edit, dropping it once it is
// applied or has nothing left to change.
func (c *commandContext) applyPending(cmd *cobra.Command, edit safety.PendingEdit, session editSession) error {
	if _, err := os.Stat(edit.Target); err != nil {
		return services.Wrap(services.ErrNotFound, "pending", "apply",
			fmt.Sprintf("file no longer exists: %s", edit.Target), err)
	}
	original, err := c.tagReader().Read(cmd.Context(), edit.Target)
	if err != nil {
		return err
	}
	outcome, err := c.review(cmd, edit.Target, original, edit.Content, session)
	if err != nil {
		return err
	}
	if outcome == editUnchanged || outcome == editApplied {
		store, err := c.pendingStore()
		if err != nil {
			return err
		}
		if _, err := store.Remove(edit.Target); err != nil {
			return fmt.Errorf("clear pending edit: %w", err)
		}
	}
	return nil
}

func (c *commandContext) applyAllPending(cmd *cobra.Command, session editSession) error {
	store, err := c.pendingStore()
	if err != nil {
		return err
	}
	edits, err := store.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(edits) == 0 {
		fmt.Fprintln(out, "No pending edits.")
		return nil
	}

	logger := c.loggerFor("pending")
	applied, failed := 0, 0
	for i, edit := range edits {
		fmt.Fprintf(out, "[%d/%d] %s\n", i+1, len(edits), edit.Target)
		if err := c.applyPending(cmd, edit, session); err != nil {
			fmt.Fprintf(out, "  Failed: %v\n\n", err)
			logging.WarnWithContext(logger, "pending edit not applied", "pending_apply_failed",
				logging.String(logging.FieldPath, edit.Target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run bookshelf pending show on the file"),
				logging.String(logging.FieldImpact, "edit kept for a later attempt"),
			)
			failed++
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			continue
		}
		applied++
		fmt.Fprintln(out)
	}
	fmt.Fprintf(out, "Applied: %d, Failed: %d\n", applied, failed)
	if failed > 0 {
		return services.Wrap(services.ErrExternalTool, "pending", "apply all",
			fmt.Sprintf("%s failed", plural(failed, "edit", "edits")), nil)
	}
	return nil
}

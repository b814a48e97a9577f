package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookshelf/internal/editform"
)

func newEditCommand(ctx *commandContext) *cobra.Command {
	var session editSession

	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Edit metadata in $EDITOR with a diff preview",
		Long: "Opens the file's metadata as TOML in $VISUAL or $EDITOR and shows what changed.\n" +
			"Without --apply the edit is kept as a pending edit; with --apply a pending edit\n" +
			"for the file is applied instead of opening the editor again.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveBook(args[0])
			if err != nil {
				return err
			}
			original, err := ctx.tagReader().Read(cmd.Context(), path)
			if err != nil {
				return err
			}
			store, err := ctx.pendingStore()
			if err != nil {
				return err
			}

			var edited string
			fromPending := false
			if session.apply {
				if pending, ok, err := store.Load(path); err != nil {
					return err
				} else if ok {
					ctx.infof(cmd, "Loading pending edit from %s\n", pending.CachePath)
					edited, fromPending = pending.Content, true
				}
			}
			if !fromPending {
				if edited, err = ctx.openEditor(cmd.Context(), editform.RenderRecord(original)); err != nil {
					return err
				}
			}

			outcome, err := ctx.review(cmd, path, original, edited, session)
			if err != nil {
				return err
			}
			if fromPending && (outcome == editUnchanged || outcome == editApplied) {
				if _, err := store.Remove(path); err != nil {
					return fmt.Errorf("clear pending edit: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&session.apply, "apply", false, "Write the changes (default: save as pending edit)")
	cmd.Flags().BoolVarP(&session.yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&session.noBackup, "no-backup", false, "Do not create a .bak copy before writing")
	return cmd
}

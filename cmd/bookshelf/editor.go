package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/internal/editform"
	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
)

// editorCommand returns $VISUAL, then $EDITOR, then vi, split into words so
// values such as "code --wait" work.
func editorCommand() []string {
	for _, key := range []string{"VISUAL", "EDITOR"} {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return strings.Fields(value)
		}
	}
	return []string{"vi"}
}

// runEditor opens content in the user's editor and returns the saved text.
func runEditor(ctx context.Context, content string) (string, error) {
	file, err := os.CreateTemp("", "bookshelf-*.toml")
	if err != nil {
		return "", fmt.Errorf("create edit file: %w", err)
	}
	path := file.Name()
	defer os.Remove(path)

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return "", fmt.Errorf("write edit file: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close edit file: %w", err)
	}

	args := editorCommand()
	editor := exec.CommandContext(ctx, args[0], append(args[1:], path)...)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr
	if err := editor.Run(); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "edit", "editor", fmt.Sprintf("editor %q exited with an error", args[0]), err)
	}

	edited, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read edit file: %w", err)
	}
	return string(edited), nil
}

// editOutcome is what a reviewed edit turned into.
type editOutcome int

const (
	editUnchanged editOutcome = iota
	editSaved
	editApplied
	editDeclined
)

// editSession carries the flags shared by edit, lookup and pending apply.
type editSession struct {
	apply    bool
	yes      bool
	noBackup bool
}

// review parses edited text, prints the diff against original and then
// either saves the text as a pending edit or applies it.
func (c *commandContext) review(cmd *cobra.Command, path string, original metadata.Record, edited string, session editSession) (editOutcome, error) {
	updated, err := editform.Parse(edited)
	if err != nil {
		return editUnchanged, err
	}
	changes := editform.Changes(original, updated)
	fmt.Fprint(cmd.OutOrStdout(), editform.FormatDiff(path, changes))
	if len(changes) == 0 {
		return editUnchanged, nil
	}

	if !session.apply {
		if err := c.savePending(cmd, path, edited); err != nil {
			return editUnchanged, err
		}
		return editSaved, nil
	}
	if !session.yes {
		ok, err := c.confirm(cmd, fmt.Sprintf("Apply these changes to %s?", path))
		if err != nil {
			return editUnchanged, err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
			return editDeclined, nil
		}
	}
	if err := c.writeRecord(cmd, path, updated, session.noBackup); err != nil {
		return editUnchanged, err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Changes applied successfully.")
	return editApplied, nil
}

func (c *commandContext) savePending(cmd *cobra.Command, path, content string) error {
	store, err := c.pendingStore()
	if err != nil {
		return err
	}
	if _, err := store.Save(path, content); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Changes saved to pending edits.")
	fmt.Fprintf(out, "To apply: bookshelf pending apply %q\n", path)
	return nil
}

// writeRecord backs up path (unless disabled) and writes record into it.
func (c *commandContext) writeRecord(cmd *cobra.Command, path string, record metadata.Record, noBackup bool) error {
	out := cmd.OutOrStdout()
	if noBackup {
		fmt.Fprintln(out, "Warning: no backup created. Changes cannot be undone.")
	} else {
		backup, err := c.backups(c.backupRoot(path)).Create(path)
		if err != nil {
			return err
		}
		c.infof(cmd, "Created backup: %s\n", backup)
	}
	return c.tagWriter().Write(cmd.Context(), path, record)
}

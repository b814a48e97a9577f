package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"bookshelf/internal/pathfmt"
)

func newFieldsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "fields",
		Short:       "List the placeholders available to organize.format",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(pathfmt.Placeholders))
			for _, placeholder := range pathfmt.Placeholders {
				rows = append(rows, []string{"{" + placeholder.Name + "}", placeholder.Description})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Placeholder", "Description"}, rows, nil))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Modifiers:")
			fmt.Fprintln(out, "  {name?}   optional; an empty value drops the path component")
			fmt.Fprintln(out, "  {name:02} zero-pad numbers to the given width")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Example: {author}/{series?}/{series_title}/{filename}")
			return nil
		},
	}
}

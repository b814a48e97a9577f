package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
)

const descriptionWidth = 80

// readOnlyFields can be shown but never edited.
var readOnlyFields = []string{"duration_seconds", "chapter_count", "cover_info"}

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	var field string

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Display metadata for an m4b file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := resolveBook(args[0])
			if err != nil {
				return err
			}
			record, err := ctx.tagReader().Read(cmd.Context(), path)
			if err != nil {
				return err
			}
			switch {
			case strings.TrimSpace(field) != "":
				return printField(cmd.OutOrStdout(), record, strings.TrimSpace(field))
			case asJSON:
				return writeJSON(cmd, record)
			default:
				printRecord(cmd.OutOrStdout(), path, record, !ctx.quiet, shouldColorize(cmd.OutOrStdout()))
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&field, "field", "", "Show only one field")
	cmd.MarkFlagsMutuallyExclusive("json", "field")
	return cmd
}

func printField(out io.Writer, record metadata.Record, name string) error {
	var (
		value string
		ok    bool
	)
	switch name {
	case "duration_seconds":
		if record.DurationSeconds != nil {
			value, ok = strconv.FormatUint(*record.DurationSeconds, 10), true
		}
	case "chapter_count":
		if record.ChapterCount != nil {
			value, ok = strconv.FormatUint(uint64(*record.ChapterCount), 10), true
		}
	case "cover_info":
		if record.CoverInfo != nil {
			value, ok = *record.CoverInfo, true
		}
	default:
		field, err := metadata.ParseField(name)
		if err != nil {
			valid := make([]string, 0, len(metadata.TrackedFields)+len(readOnlyFields))
			for _, f := range metadata.TrackedFields {
				valid = append(valid, string(f))
			}
			valid = append(valid, readOnlyFields...)
			return services.Wrap(services.ErrValidation, "show", "field",
				fmt.Sprintf("unknown field %q (valid: %s)", name, strings.Join(valid, ", ")), nil)
		}
		value, ok = record.Value(field)
	}
	if ok {
		fmt.Fprintln(out, value)
	}
	return nil
}

func printRecord(out io.Writer, path string, record metadata.Record, header, colorize bool) {
	if header {
		fmt.Fprintln(out, paint(path, ansiCyan, colorize))
		fmt.Fprintln(out, strings.Repeat("─", 40))
	}

	line := func(label string, value *string) {
		if value != nil {
			fmt.Fprintf(out, "%s: %s\n", paint(fmt.Sprintf("%12s", label), ansiCyan, colorize), *value)
		}
	}
	line("Title", record.Title)
	line("Author", record.Author)
	line("Narrator", record.Narrator)

	switch {
	case record.Series != nil && record.SeriesPosition != nil:
		line("Series", metadata.Text(fmt.Sprintf("%s #%d", *record.Series, *record.SeriesPosition)))
	case record.Series != nil:
		line("Series", record.Series)
	case record.SeriesPosition != nil:
		line("Series", metadata.Text(fmt.Sprintf("#%d", *record.SeriesPosition)))
	}
	if record.Year != nil {
		line("Year", metadata.Text(strconv.FormatUint(uint64(*record.Year), 10)))
	}
	line("Genre", record.Genre)
	line("Publisher", record.Publisher)
	if record.DurationSeconds != nil {
		line("Duration", metadata.Text(formatDuration(*record.DurationSeconds)))
	}
	if record.ChapterCount != nil {
		line("Chapters", metadata.Text(strconv.FormatUint(uint64(*record.ChapterCount), 10)))
	}
	line("ISBN", record.ISBN)
	line("ASIN", record.ASIN)
	line("Cover", record.CoverInfo)

	if record.Description != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, paint("Description:", ansiCyan, colorize))
		for _, paragraph := range strings.Split(*record.Description, "\n") {
			wrapped := text.WrapSoft(strings.Join(strings.Fields(paragraph), " "), descriptionWidth)
			for _, l := range strings.Split(wrapped, "\n") {
				if l = strings.TrimSpace(l); l != "" {
					fmt.Fprintf(out, "  %s\n", l)
				}
			}
		}
	}
}

func formatDuration(seconds uint64) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"bookshelf/internal/library"
	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
)

type searchFlags struct {
	filter   library.Filter
	dest     string
	jsonMode bool
}

// searchResult is the JSON shape of one hit.
type searchResult struct {
	Path     string          `json:"path"`
	Size     int64           `json:"size_bytes"`
	SHA256   string          `json:"sha256"`
	Metadata metadata.Record `json:"metadata"`
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the library index",
		Long: `Search the index built by "bookshelf index". A free-text query matches
title, author, narrator, series and description; the field flags narrow the
search instead. The index is found in the working directory or its parents,
falling back to organize.dest.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = strings.TrimSpace(args[0])
			}
			if query == "" && flags.filter.IsZero() {
				return services.Wrap(services.ErrValidation, "search", "query", "give a query or at least one field filter", nil)
			}
			store, err := ctx.openIndex(cmd, flags.dest)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []library.Entry
			if flags.filter.IsZero() {
				entries, err = store.Search(cmd.Context(), query, flags.filter.Limit)
			} else {
				entries, err = store.SearchFiltered(cmd.Context(), flags.filter)
			}
			if err != nil {
				return err
			}
			return printSearchResults(cmd, store, entries, flags.jsonMode)
		},
	}
	cmd.Flags().StringVar(&flags.filter.Author, "author", "", "Match author")
	cmd.Flags().StringVar(&flags.filter.Title, "title", "", "Match title")
	cmd.Flags().StringVar(&flags.filter.Narrator, "narrator", "", "Match narrator")
	cmd.Flags().StringVar(&flags.filter.Series, "series", "", "Match series")
	cmd.Flags().StringVar(&flags.filter.ASIN, "asin", "", "Exact ASIN")
	cmd.Flags().Uint32Var(&flags.filter.Year, "year", 0, "Exact release year")
	cmd.Flags().IntVar(&flags.filter.Limit, "limit", library.DefaultSearchLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&flags.jsonMode, "json", false, "Output results as JSON")
	cmd.Flags().StringVar(&flags.dest, "dest", "", "Library root holding the index")
	return cmd
}

// openIndex opens the index under dest, or searches upward from the working
// directory before falling back to organize.dest.
func (c *commandContext) openIndex(cmd *cobra.Command, dest string) (*library.Store, error) {
	if strings.TrimSpace(dest) != "" {
		root, err := resolveDir(dest, "library directory")
		if err != nil {
			return nil, err
		}
		return c.findIndex(cmd, root)
	}
	if wd, err := os.Getwd(); err == nil {
		store, ok, err := library.FindFrom(cmd.Context(), wd)
		if err != nil {
			return nil, err
		}
		if ok {
			return store, nil
		}
	}
	if root := c.configValue().Organize.Dest; root != "" {
		return c.findIndex(cmd, root)
	}
	return nil, services.Wrap(services.ErrNotFound, "search", "open index",
		"no library index found; run `bookshelf index <dir>` first", nil)
}

func (c *commandContext) findIndex(cmd *cobra.Command, root string) (*library.Store, error) {
	store, ok, err := library.FindFrom(cmd.Context(), root)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "search", "open index",
			fmt.Sprintf("no library index in %s; run `bookshelf index %s` first", root, root), nil)
	}
	return store, nil
}

func printSearchResults(cmd *cobra.Command, store *library.Store, entries []library.Entry, jsonMode bool) error {
	if jsonMode {
		results := make([]searchResult, 0, len(entries))
		for _, entry := range entries {
			results = append(results, searchResult{
				Path:     store.Absolute(entry.Path),
				Size:     entry.Size,
				SHA256:   entry.SHA256,
				Metadata: entry.Metadata,
			})
		}
		return writeJSON(cmd, results)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matches.")
		return nil
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		md := entry.Metadata
		series := deref(md.Series)
		if series != "" && md.SeriesPosition != nil {
			series += " #" + strconv.FormatUint(uint64(*md.SeriesPosition), 10)
		}
		year := ""
		if md.Year != nil {
			year = strconv.FormatUint(uint64(*md.Year), 10)
		}
		rows = append(rows, []string{deref(md.Title), deref(md.Author), series, year, entry.Path})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Title", "Author", "Series", "Year", "Path"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
	fmt.Fprintf(out, "\n%s.\n", plural(len(entries), "match", "matches"))
	return nil
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

package editform

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bookshelf/internal/metadata"
	"bookshelf/internal/textutil"
)

const (
	emptyValue    = "(empty)"
	maxValueRunes = 40
)

// Change describes one field whose value differs. Empty strings mean unset.
type Change struct {
	Field metadata.Field
	Old   string
	New   string
}

// Changes lists the tracked fields that differ between old and new, in
// field order.
func Changes(old, new metadata.Record) []Change {
	var changes []Change
	for _, field := range metadata.TrackedFields {
		before, _ := old.Value(field)
		after, _ := new.Value(field)
		if before != after {
			changes = append(changes, Change{Field: field, Old: before, New: after})
		}
	}
	return changes
}

// Apply returns base with every change applied.
func Apply(base metadata.Record, changes []Change) (metadata.Record, error) {
	out := base
	for _, change := range changes {
		if err := out.Set(change.Field, change.New); err != nil {
			return metadata.Record{}, err
		}
	}
	return out, nil
}

var labelCaser = cases.Title(language.English)

// Label returns a display name such as "Series Position".
func Label(field metadata.Field) string {
	return labelCaser.String(strings.ReplaceAll(string(field), "_", " "))
}

// FormatDiff renders changes as a Field/Current/New table headed by file.
func FormatDiff(file string, changes []Change) string {
	if len(changes) == 0 {
		return "No changes detected.\n"
	}
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Field", "Current", "New"})
	for _, change := range changes {
		tw.AppendRow(table.Row{Label(change.Field), displayValue(change.Old), displayValue(change.New)})
	}
	return fmt.Sprintf("Changes to %s:\n\n%s\n", file, tw.Render())
}

func displayValue(value string) string {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return emptyValue
	}
	return textutil.Truncate(value, maxValueRunes)
}

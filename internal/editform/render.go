package editform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"bookshelf/internal/merge"
	"bookshelf/internal/metadata"
)

// RenderRecord formats a record for direct editing. Missing fields are
// emitted as commented placeholders and container details follow as
// read-only comments.
func RenderRecord(record metadata.Record) string {
	var b strings.Builder
	b.WriteString("# Audiobook metadata. Edit and save to apply changes.\n")
	b.WriteString("# Commented fields are empty; uncomment and fill them in to add values.\n\n")
	for _, field := range metadata.TrackedFields {
		value, ok := record.Value(field)
		if !ok {
			b.WriteString(placeholder(field))
			continue
		}
		b.WriteString(assignment(field, value))
		b.WriteByte('\n')
	}

	b.WriteString("\n# Read-only\n")
	if record.DurationSeconds != nil {
		d := *record.DurationSeconds
		fmt.Fprintf(&b, "# duration = \"%02d:%02d:%02d\"\n", d/3600, d%3600/60, d%60)
	} else {
		b.WriteString("# duration = \"\"\n")
	}
	if record.ChapterCount != nil {
		fmt.Fprintf(&b, "# chapters = %d\n", *record.ChapterCount)
	} else {
		b.WriteString("# chapters = 0\n")
	}
	if record.CoverInfo != nil {
		fmt.Fprintf(&b, "# %s\n", tomlLine("cover", *record.CoverInfo))
	} else {
		b.WriteString("# cover = \"\"\n")
	}
	return b.String()
}

// Render formats merged lookup results. The live value of a conflicting
// field is its Selected value; the other alternatives are commented out.
func Render(m merge.Metadata) string {
	var b strings.Builder
	b.WriteString("# Audiobook metadata from lookup.\n")
	b.WriteString("# Edit values below. For conflicts, uncomment the value you prefer.\n\n")
	for _, field := range metadata.TrackedFields {
		switch v := m.Get(field).(type) {
		case merge.Agreed:
			fmt.Fprintf(&b, "%s  # [%s]\n", assignment(field, v.Value), strings.Join(v.Sources, ", "))
		case merge.Conflicting:
			fmt.Fprintf(&b, "# %s: sources disagree, pick one:\n", field)
			for _, alt := range v.Alternatives {
				prefix := "# "
				if alt.Value == v.Selected {
					prefix = ""
				}
				fmt.Fprintf(&b, "%s%s  # [%s]\n", prefix, assignment(field, alt.Value), strings.Join(alt.Sources, ", "))
			}
		default:
			b.WriteString(placeholder(field))
		}
	}
	return b.String()
}

// assignment renders one key/value line through the TOML encoder so the form
// and Parse agree on quoting. Numeric fields are written as integers.
func assignment(field metadata.Field, value string) string {
	var v any = value
	if field.Numeric() {
		if n, err := strconv.ParseUint(value, 10, 32); err == nil {
			v = n
		}
	}
	return tomlLine(string(field), v)
}

func tomlLine(key string, value any) string {
	out, err := toml.Marshal(map[string]any{key: value})
	if err != nil {
		return fmt.Sprintf("# %s: %v", key, err)
	}
	return strings.TrimSuffix(string(out), "\n")
}

func placeholder(field metadata.Field) string {
	if field.Numeric() {
		return fmt.Sprintf("# %s = 0\n", field)
	}
	return fmt.Sprintf("# %s = \"\"\n", field)
}

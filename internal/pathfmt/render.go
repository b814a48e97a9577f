package pathfmt

import (
	"path/filepath"
	"strings"

	"bookshelf/internal/metadata"
	"bookshelf/internal/textutil"
)

// Render resolves the template against one file's metadata and returns a
// relative destination path. When a required placeholder has no value the
// call fails with *MissingFieldsError and no path is returned.
func (t *Template) Render(md metadata.Record, originalFilename string) (string, error) {
	components, missing := t.components(md, originalFilename)
	if len(missing) > 0 {
		return "", &MissingFieldsError{Fields: missing}
	}
	if len(components) == 0 {
		return "", &MissingFieldsError{Fields: t.fieldNames()}
	}
	return filepath.Join(components...), nil
}

// fieldNames lists the placeholder names used by the template, unique and in
// order of appearance.
func (t *Template) fieldNames() []string {
	var names []string
	seen := make(map[string]struct{})
	for _, segment := range t.segments {
		field, ok := segment.(Placeholder)
		if !ok {
			continue
		}
		if _, dup := seen[field.Name]; dup {
			continue
		}
		seen[field.Name] = struct{}{}
		names = append(names, field.Name)
	}
	return names
}

// components folds the segments into path components. Empty and
// whitespace-only components are dropped so optional placeholders and
// doubled separators compress the path.
func (t *Template) components(md metadata.Record, originalFilename string) ([]string, []string) {
	var (
		parts   []string
		current strings.Builder
		missing []string
	)
	seen := make(map[string]struct{})
	addMissing := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		missing = append(missing, name)
	}
	cut := func() {
		if strings.TrimSpace(current.String()) != "" {
			parts = append(parts, current.String())
		}
		current.Reset()
	}

	for _, segment := range t.segments {
		switch seg := segment.(type) {
		case Literal:
			pieces := splitSeparators(seg.Text)
			for i, piece := range pieces {
				if i > 0 {
					cut()
				}
				current.WriteString(piece)
			}
		case Placeholder:
			value, ok, need := resolve(seg, md, originalFilename)
			if ok {
				current.WriteString(value)
				continue
			}
			if !seg.Optional {
				addMissing(need)
			}
		}
	}
	cut()
	return parts, missing
}

// resolve returns the sanitized value for a placeholder. When the value is
// absent, need is the placeholder name to report.
func resolve(seg Placeholder, md metadata.Record, originalFilename string) (value string, ok bool, need string) {
	var raw string
	switch seg.Name {
	case NameFilename:
		raw = originalFilename
		if seg.ZeroPad > 0 {
			raw = zeroPad(raw, seg.ZeroPad)
		}
	case NameSeriesTitle:
		title, hasTitle := md.Value(metadata.FieldTitle)
		if !hasTitle {
			return "", false, seg.Name
		}
		raw = title
		if position, hasPosition := md.Value(metadata.FieldSeriesPosition); hasPosition {
			width := seg.ZeroPad
			if width == 0 {
				width = defaultSeriesPad
			}
			raw = zeroPad(position, width) + " - " + title
		}
	default:
		entry, _ := Lookup(seg.Name)
		var present bool
		raw, present = md.Value(entry.Field)
		if !present {
			return "", false, seg.Name
		}
		if seg.ZeroPad > 0 {
			raw = zeroPad(raw, seg.ZeroPad)
		}
	}

	value = textutil.SanitizePathComponent(raw)
	if value == "" {
		return "", false, seg.Name
	}
	return guardDots(value), true, ""
}

// zeroPad left-pads value with '0' to width runes.
func zeroPad(value string, width int) string {
	n := len([]rune(value))
	if n >= width {
		return value
	}
	return strings.Repeat("0", width-n) + value
}

// guardDots keeps a resolved value from becoming a "." or ".." component.
func guardDots(value string) string {
	if strings.Trim(value, ".") == "" {
		return strings.Repeat("_", len(value))
	}
	return value
}

// splitSeparators splits literal text at every path separator. A literal of
// just "/" yields two empty pieces, which marks one component boundary.
func splitSeparators(text string) []string {
	text = strings.ReplaceAll(text, "\\", "/")
	if filepath.Separator != '/' {
		text = strings.ReplaceAll(text, string(filepath.Separator), "/")
	}
	return strings.Split(text, "/")
}

package pathfmt

import (
	"strconv"
	"strings"
)

// Segment is one parsed piece of a template: a Literal or a Placeholder.
type Segment interface {
	isSegment()
}

// Literal is verbatim template text. It may contain path separators.
type Literal struct {
	Text string
}

// Placeholder is a {name} token.
type Placeholder struct {
	Name string
	// ZeroPad is the minimum width, 0 when no padding was requested.
	ZeroPad  int
	Optional bool
}

func (Literal) isSegment()     {}
func (Placeholder) isSegment() {}

// Template is a parsed, reusable format string.
type Template struct {
	source   string
	segments []Segment
}

// Parse compiles a format string such as "{author}/{series?}/{title}".
func Parse(format string) (*Template, error) {
	var (
		segments []Segment
		literal  strings.Builder
	)
	flush := func() {
		if literal.Len() > 0 {
			segments = append(segments, Literal{Text: literal.String()})
			literal.Reset()
		}
	}

	rest := format
	for len(rest) > 0 {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			literal.WriteString(rest)
			break
		}
		literal.WriteString(rest[:open])
		closeIdx := strings.IndexByte(rest[open+1:], '}')
		if closeIdx < 0 {
			return nil, &ParseError{Kind: UnclosedPlaceholder}
		}
		body := rest[open+1 : open+1+closeIdx]
		rest = rest[open+1+closeIdx+1:]

		field := parseBody(body)
		if _, ok := Lookup(field.Name); !ok {
			return nil, &ParseError{Kind: UnknownPlaceholder, Name: field.Name}
		}
		flush()
		segments = append(segments, field)
	}
	flush()

	return &Template{source: format, segments: segments}, nil
}

// MustParse is Parse for package-level defaults; it panics on error.
func MustParse(format string) *Template {
	tmpl, err := Parse(format)
	if err != nil {
		panic(err)
	}
	return tmpl
}

// parseBody strips the optional marker and padding suffixes. Either order is
// accepted: {name?:02} and {name:02?}.
func parseBody(body string) Placeholder {
	field := Placeholder{Name: body}
	for {
		if strings.HasSuffix(field.Name, "?") {
			field.Optional = true
			field.Name = strings.TrimSuffix(field.Name, "?")
			continue
		}
		colon := strings.LastIndexByte(field.Name, ':')
		if colon < 0 {
			return field
		}
		width, ok := parseWidth(field.Name[colon+1:])
		if !ok {
			return field
		}
		field.ZeroPad = width
		field.Name = field.Name[:colon]
	}
}

func parseWidth(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	width, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return width, true
}

// String returns the original format string.
func (t *Template) String() string {
	if t == nil {
		return ""
	}
	return t.source
}

// Segments returns a copy of the parsed segments.
func (t *Template) Segments() []Segment {
	if t == nil {
		return nil
	}
	return append([]Segment(nil), t.segments...)
}

package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// Field names one of the tracked, user-editable metadata fields.
type Field string

const (
	FieldTitle          Field = "title"
	FieldAuthor         Field = "author"
	FieldNarrator       Field = "narrator"
	FieldSeries         Field = "series"
	FieldSeriesPosition Field = "series_position"
	FieldYear           Field = "year"
	FieldDescription    Field = "description"
	FieldPublisher      Field = "publisher"
	FieldGenre          Field = "genre"
	FieldISBN           Field = "isbn"
	FieldASIN           Field = "asin"
)

// TrackedFields lists every editable field in presentation order.
var TrackedFields = []Field{
	FieldTitle,
	FieldAuthor,
	FieldNarrator,
	FieldSeries,
	FieldSeriesPosition,
	FieldYear,
	FieldDescription,
	FieldPublisher,
	FieldGenre,
	FieldISBN,
	FieldASIN,
}

// Numeric reports whether the field holds an unsigned integer.
func (f Field) Numeric() bool {
	return f == FieldSeriesPosition || f == FieldYear
}

// Valid reports whether f is one of TrackedFields.
func (f Field) Valid() bool {
	for _, candidate := range TrackedFields {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseField resolves a field name case-insensitively.
func ParseField(name string) (Field, error) {
	field := Field(strings.ToLower(strings.TrimSpace(name)))
	if !field.Valid() {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return field, nil
}

// Record is the metadata carried by a single audiobook file. Nil pointers mean
// the value is absent.
type Record struct {
	Title          *string `json:"title,omitempty"`
	Author         *string `json:"author,omitempty"`
	Narrator       *string `json:"narrator,omitempty"`
	Series         *string `json:"series,omitempty"`
	SeriesPosition *uint32 `json:"series_position,omitempty"`
	Year           *uint32 `json:"year,omitempty"`
	Description    *string `json:"description,omitempty"`
	Publisher      *string `json:"publisher,omitempty"`
	Genre          *string `json:"genre,omitempty"`
	ISBN           *string `json:"isbn,omitempty"`
	ASIN           *string `json:"asin,omitempty"`

	// Read-only container details. They are never written back.
	DurationSeconds *uint64 `json:"duration_seconds,omitempty"`
	ChapterCount    *uint32 `json:"chapter_count,omitempty"`
	CoverInfo       *string `json:"cover_info,omitempty"`
}

// Text returns a pointer to s, or nil when s is blank.
func Text(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Number returns a pointer to n.
func Number(n uint32) *uint32 {
	return &n
}

// Value returns the field rendered as a string. Numeric fields use base 10.
func (r Record) Value(field Field) (string, bool) {
	if field.Numeric() {
		n := r.number(field)
		if n == nil {
			return "", false
		}
		return strconv.FormatUint(uint64(*n), 10), true
	}
	s := r.text(field)
	if s == nil {
		return "", false
	}
	return *s, true
}

// NumberValue returns a numeric field.
func (r Record) NumberValue(field Field) (uint32, bool) {
	n := r.number(field)
	if n == nil {
		return 0, false
	}
	return *n, true
}

// Set assigns a field from its string form. An empty value clears the field.
func (r *Record) Set(field Field, value string) error {
	value = strings.TrimSpace(value)
	if field.Numeric() {
		if value == "" {
			r.setNumber(field, nil)
			return nil
		}
		parsed, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return fmt.Errorf("%s: invalid number %q", field, value)
		}
		r.setNumber(field, Number(uint32(parsed)))
		return nil
	}
	if !field.Valid() {
		return fmt.Errorf("unknown field %q", field)
	}
	r.setText(field, Text(value))
	return nil
}

// Clear removes a field value.
func (r *Record) Clear(field Field) {
	if field.Numeric() {
		r.setNumber(field, nil)
		return
	}
	r.setText(field, nil)
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := Record{
		DurationSeconds: cloneUint64(r.DurationSeconds),
		ChapterCount:    cloneUint32(r.ChapterCount),
		CoverInfo:       cloneString(r.CoverInfo),
	}
	for _, field := range TrackedFields {
		if value, ok := r.Value(field); ok {
			_ = out.Set(field, value)
		}
	}
	return out
}

// Equal compares the tracked fields of two records.
func (r Record) Equal(other Record) bool {
	for _, field := range TrackedFields {
		a, okA := r.Value(field)
		b, okB := other.Value(field)
		if okA != okB || a != b {
			return false
		}
	}
	return true
}

// IsZero reports whether no tracked field is set.
func (r Record) IsZero() bool {
	for _, field := range TrackedFields {
		if _, ok := r.Value(field); ok {
			return false
		}
	}
	return true
}

func (r Record) text(field Field) *string {
	switch field {
	case FieldTitle:
		return r.Title
	case FieldAuthor:
		return r.Author
	case FieldNarrator:
		return r.Narrator
	case FieldSeries:
		return r.Series
	case FieldDescription:
		return r.Description
	case FieldPublisher:
		return r.Publisher
	case FieldGenre:
		return r.Genre
	case FieldISBN:
		return r.ISBN
	case FieldASIN:
		return r.ASIN
	}
	return nil
}

func (r *Record) setText(field Field, value *string) {
	switch field {
	case FieldTitle:
		r.Title = value
	case FieldAuthor:
		r.Author = value
	case FieldNarrator:
		r.Narrator = value
	case FieldSeries:
		r.Series = value
	case FieldDescription:
		r.Description = value
	case FieldPublisher:
		r.Publisher = value
	case FieldGenre:
		r.Genre = value
	case FieldISBN:
		r.ISBN = value
	case FieldASIN:
		r.ASIN = value
	}
}

func (r Record) number(field Field) *uint32 {
	switch field {
	case FieldSeriesPosition:
		return r.SeriesPosition
	case FieldYear:
		return r.Year
	}
	return nil
}

func (r *Record) setNumber(field Field, value *uint32) {
	switch field {
	case FieldSeriesPosition:
		r.SeriesPosition = value
	case FieldYear:
		r.Year = value
	}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneUint32(n *uint32) *uint32 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func cloneUint64(n *uint64) *uint64 {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

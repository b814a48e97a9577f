package pathfmt

import "bookshelf/internal/metadata"

// Placeholder names that do not map directly onto a metadata field.
const (
	NameFilename    = "filename"
	NameSeriesTitle = "series_title"
)

// defaultSeriesPad is the position width used by series_title when the
// placeholder carries no explicit padding.
const defaultSeriesPad = 2

// PlaceholderInfo describes one supported template token.
type PlaceholderInfo struct {
	Name        string
	Description string
	// Field is the backing metadata field. Empty for derived tokens.
	Field metadata.Field
}

// Placeholders is the fixed registry of supported names, in display order.
var Placeholders = []PlaceholderInfo{
	{Name: "author", Description: "Author name", Field: metadata.FieldAuthor},
	{Name: "title", Description: "Book title", Field: metadata.FieldTitle},
	{Name: "series", Description: "Series name", Field: metadata.FieldSeries},
	{Name: "series_position", Description: "Position in series (supports :02 padding)", Field: metadata.FieldSeriesPosition},
	{Name: NameSeriesTitle, Description: "Zero-padded series position and title (\"01 - Title\"), or the bare title"},
	{Name: "narrator", Description: "Narrator name", Field: metadata.FieldNarrator},
	{Name: "year", Description: "Publication year", Field: metadata.FieldYear},
	{Name: "genre", Description: "Genre", Field: metadata.FieldGenre},
	{Name: "publisher", Description: "Publisher", Field: metadata.FieldPublisher},
	{Name: "asin", Description: "Amazon ASIN", Field: metadata.FieldASIN},
	{Name: "isbn", Description: "ISBN", Field: metadata.FieldISBN},
	{Name: NameFilename, Description: "Original filename"},
}

var registry = func() map[string]PlaceholderInfo {
	m := make(map[string]PlaceholderInfo, len(Placeholders))
	for _, p := range Placeholders {
		m[p.Name] = p
	}
	return m
}()

// Lookup returns the registry entry for name.
func Lookup(name string) (PlaceholderInfo, bool) {
	p, ok := registry[name]
	return p, ok
}

// Names returns the registered placeholder names in display order.
func Names() []string {
	names := make([]string, len(Placeholders))
	for i, p := range Placeholders {
		names[i] = p.Name
	}
	return names
}

package library

import (
	"context"
	"strings"
)

// DefaultSearchLimit caps search results when no limit is given.
const DefaultSearchLimit = 50

const searchOrder = " ORDER BY author, series, series_position, title LIMIT ?"

// Filter narrows a search. Text fields match as case-insensitive
// substrings; Year and ASIN must match exactly. Zero values are ignored.
type Filter struct {
	Title    string
	Author   string
	Narrator string
	Series   string
	Year     uint32
	ASIN     string
	Limit    int
}

// IsZero reports whether no criterion is set.
func (f Filter) IsZero() bool {
	return f.Title == "" && f.Author == "" && f.Narrator == "" && f.Series == "" && f.Year == 0 && f.ASIN == ""
}

func likePattern(value string) string {
	escaper := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + escaper.Replace(value) + "%"
}

func limitOrDefault(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	return limit
}

// Search matches query against title, author, narrator, series and
// description.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]Entry, error) {
	pattern := likePattern(strings.TrimSpace(query))
	return s.query(ctx, "SELECT "+entryColumns+` FROM audiobooks
		WHERE title LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\' OR narrator LIKE ? ESCAPE '\'
			OR series LIKE ? ESCAPE '\' OR description LIKE ? ESCAPE '\'`+searchOrder,
		pattern, pattern, pattern, pattern, pattern, limitOrDefault(limit))
}

// SearchFiltered returns rows matching every criterion in f.
func (s *Store) SearchFiltered(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		conditions []string
		args       []any
	)
	for _, like := range []struct {
		column string
		value  string
	}{
		{"title", f.Title},
		{"author", f.Author},
		{"narrator", f.Narrator},
		{"series", f.Series},
	} {
		if value := strings.TrimSpace(like.value); value != "" {
			conditions = append(conditions, like.column+` LIKE ? ESCAPE '\'`)
			args = append(args, likePattern(value))
		}
	}
	if f.Year > 0 {
		conditions = append(conditions, "year = ?")
		args = append(args, int64(f.Year))
	}
	if asin := strings.TrimSpace(f.ASIN); asin != "" {
		conditions = append(conditions, "asin = ?")
		args = append(args, asin)
	}
	where := "1=1"
	if len(conditions) > 0 {
		where = strings.Join(conditions, " AND ")
	}
	args = append(args, limitOrDefault(f.Limit))
	return s.query(ctx, "SELECT "+entryColumns+" FROM audiobooks WHERE "+where+searchOrder, args...)
}

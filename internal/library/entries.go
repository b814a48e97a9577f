package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"bookshelf/internal/metadata"
)

// Entry is one indexed audiobook.
type Entry struct {
	ID        int64           `json:"id"`
	Path      string          `json:"path"`
	Size      int64           `json:"size_bytes"`
	SHA256    string          `json:"sha256"`
	IndexedAt time.Time       `json:"indexed_at"`
	Metadata  metadata.Record `json:"metadata"`
}

const entryColumns = "id, file_path, file_size, sha256, indexed_at, title, author, narrator, series, series_position, year, description, publisher, genre, asin, isbn, duration_seconds, chapter_count"

func scanEntry(scanner interface{ Scan(dest ...any) error }) (Entry, error) {
	var (
		entry          Entry
		indexedRaw     string
		title          sql.NullString
		author         sql.NullString
		narrator       sql.NullString
		series         sql.NullString
		seriesPosition sql.NullInt64
		year           sql.NullInt64
		description    sql.NullString
		publisher      sql.NullString
		genre          sql.NullString
		asin           sql.NullString
		isbn           sql.NullString
		duration       sql.NullInt64
		chapters       sql.NullInt64
	)
	if err := scanner.Scan(
		&entry.ID,
		&entry.Path,
		&entry.Size,
		&entry.SHA256,
		&indexedRaw,
		&title,
		&author,
		&narrator,
		&series,
		&seriesPosition,
		&year,
		&description,
		&publisher,
		&genre,
		&asin,
		&isbn,
		&duration,
		&chapters,
	); err != nil {
		return Entry{}, err
	}
	if indexed, err := time.Parse(time.RFC3339Nano, indexedRaw); err == nil {
		entry.IndexedAt = indexed
	}
	entry.Metadata = metadata.Record{
		Title:          nullText(title),
		Author:         nullText(author),
		Narrator:       nullText(narrator),
		Series:         nullText(series),
		SeriesPosition: nullNumber(seriesPosition),
		Year:           nullNumber(year),
		Description:    nullText(description),
		Publisher:      nullText(publisher),
		Genre:          nullText(genre),
		ASIN:           nullText(asin),
		ISBN:           nullText(isbn),
		ChapterCount:   nullNumber(chapters),
	}
	if duration.Valid && duration.Int64 >= 0 {
		seconds := uint64(duration.Int64)
		entry.Metadata.DurationSeconds = &seconds
	}
	return entry, nil
}

func nullText(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	return metadata.Text(value.String)
}

func nullNumber(value sql.NullInt64) *uint32 {
	if !value.Valid || value.Int64 < 0 || value.Int64 > int64(^uint32(0)) {
		return nil
	}
	return metadata.Number(uint32(value.Int64))
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableNumber(value *uint32) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}

func nullableUint64(value *uint64) any {
	if value == nil {
		return nil
	}
	return int64(*value)
}

// Upsert inserts or refreshes the row for rel.
func (s *Store) Upsert(ctx context.Context, rel string, size int64, digest string, record metadata.Record) error {
	_, err := s.execWithRetry(ctx, `
		INSERT INTO audiobooks (
			file_path, file_size, sha256, indexed_at,
			title, author, narrator, series, series_position,
			year, description, publisher, genre, asin, isbn,
			duration_seconds, chapter_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_path) DO UPDATE SET
			file_size = excluded.file_size,
			sha256 = excluded.sha256,
			indexed_at = excluded.indexed_at,
			title = excluded.title,
			author = excluded.author,
			narrator = excluded.narrator,
			series = excluded.series,
			series_position = excluded.series_position,
			year = excluded.year,
			description = excluded.description,
			publisher = excluded.publisher,
			genre = excluded.genre,
			asin = excluded.asin,
			isbn = excluded.isbn,
			duration_seconds = excluded.duration_seconds,
			chapter_count = excluded.chapter_count`,
		rel,
		size,
		digest,
		s.timestamp(),
		nullableString(record.Title),
		nullableString(record.Author),
		nullableString(record.Narrator),
		nullableString(record.Series),
		nullableNumber(record.SeriesPosition),
		nullableNumber(record.Year),
		nullableString(record.Description),
		nullableString(record.Publisher),
		nullableString(record.Genre),
		nullableString(record.ASIN),
		nullableString(record.ISBN),
		nullableUint64(record.DurationSeconds),
		nullableNumber(record.ChapterCount),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", rel, err)
	}
	return nil
}

// Touch refreshes indexed_at for rel. It reports whether the row exists.
func (s *Store) Touch(ctx context.Context, rel string) (bool, error) {
	res, err := s.execWithRetry(ctx, "UPDATE audiobooks SET indexed_at = ? WHERE file_path = ?", s.timestamp(), rel)
	if err != nil {
		return false, fmt.Errorf("touch %s: %w", rel, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Get returns the row for rel. ok is false when it is not indexed.
func (s *Store) Get(ctx context.Context, rel string) (Entry, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+entryColumns+" FROM audiobooks WHERE file_path = ?", rel)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get %s: %w", rel, err)
	}
	return entry, true, nil
}

// Remove deletes the row for rel.
func (s *Store) Remove(ctx context.Context, rel string) (bool, error) {
	res, err := s.execWithRetry(ctx, "DELETE FROM audiobooks WHERE file_path = ?", rel)
	if err != nil {
		return false, fmt.Errorf("remove %s: %w", rel, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// UpdatePath rekeys a row after its file moved within the library. An
// existing row at to is replaced.
func (s *Store) UpdatePath(ctx context.Context, from, to string) (bool, error) {
	if from == to {
		return false, nil
	}
	var moved bool
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if _, err := tx.ExecContext(ctx, "DELETE FROM audiobooks WHERE file_path = ?", to); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, "UPDATE audiobooks SET file_path = ?, indexed_at = ? WHERE file_path = ?", to, s.timestamp(), from)
		if err != nil {
			return err
		}
		n, _ := res.RowsAffected()
		moved = n > 0
		return tx.Commit()
	})
	if err != nil {
		return false, fmt.Errorf("move %s to %s: %w", from, to, err)
	}
	return moved, nil
}

// Count returns the number of indexed audiobooks.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM audiobooks").Scan(&n); err != nil {
		return 0, fmt.Errorf("count audiobooks: %w", err)
	}
	return n, nil
}

// All returns every row ordered by path.
func (s *Store) All(ctx context.Context) ([]Entry, error) {
	return s.query(ctx, "SELECT "+entryColumns+" FROM audiobooks ORDER BY file_path")
}

// Prune deletes rows whose file no longer exists. exists defaults to an
// os.Stat check under the library root. It returns the removed paths.
func (s *Store) Prune(ctx context.Context, exists func(abs string) bool) ([]string, error) {
	if exists == nil {
		exists = func(abs string) bool {
			_, err := os.Stat(abs)
			return err == nil
		}
	}
	entries, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, entry := range entries {
		if exists(s.Absolute(entry.Path)) {
			continue
		}
		if _, err := s.Remove(ctx, entry.Path); err != nil {
			return removed, err
		}
		removed = append(removed, entry.Path)
	}
	return removed, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audiobooks: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan audiobook: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audiobooks: %w", err)
	}
	return entries, nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

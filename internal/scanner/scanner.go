// Package scanner discovers audiobooks under a directory and reads their
// metadata into planner input.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"bookshelf/internal/logging"
	"bookshelf/internal/metadata"
	"bookshelf/internal/planner"
)

// BookExt is the only container treated as an audiobook.
const BookExt = ".m4b"

var auxiliaryExts = []string{".cue", ".pdf"}

// MetadataReader is satisfied by tagio.FFprobeReader.
type MetadataReader interface {
	Read(ctx context.Context, path string) (metadata.Record, error)
}

// Option configures a scan.
type Option func(*options)

type options struct {
	progress    func(path string)
	logger      *slog.Logger
	concurrency int
}

// WithProgress is called once per book after its metadata is read. Calls are
// serialized.
func WithProgress(fn func(path string)) Option {
	return func(o *options) { o.progress = fn }
}

// WithLogger sets the scan logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithConcurrency bounds concurrent metadata reads.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// IsBook reports whether path has the audiobook extension, ignoring case.
func IsBook(path string) bool {
	return strings.EqualFold(filepath.Ext(path), BookExt)
}

// IsAuxiliary reports whether path is a companion file that travels with a book.
func IsAuxiliary(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return slices.Contains(auxiliaryExts, ext)
}

// Layout is the result of walking a directory without reading any metadata.
type Layout struct {
	Books     []string
	Auxiliary []string
	Sidecars  []string
}

// Walk lists books, auxiliary files and hash sidecars under root, sorted.
// Hidden directories are skipped.
func Walk(ctx context.Context, root string) (Layout, error) {
	var layout Layout
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		switch {
		case IsBook(path):
			layout.Books = append(layout.Books, path)
		case IsAuxiliary(path):
			layout.Auxiliary = append(layout.Auxiliary, path)
		case strings.HasSuffix(path, ".sha256"):
			layout.Sidecars = append(layout.Sidecars, path)
		}
		return nil
	})
	if err != nil {
		return Layout{}, fmt.Errorf("scan %s: %w", root, err)
	}
	slices.Sort(layout.Books)
	slices.Sort(layout.Auxiliary)
	slices.Sort(layout.Sidecars)
	return layout, nil
}

// Scan walks root, reads every book's metadata and attaches auxiliary files.
// The first unreadable book aborts the scan. Results are sorted by path.
func Scan(ctx context.Context, root string, reader MetadataReader, opts ...Option) ([]planner.File, error) {
	o := options{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := logging.NewComponentLogger(o.logger, "scanner")

	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	layout, err := Walk(ctx, root)
	if err != nil {
		return nil, err
	}

	files := make([]planner.File, len(layout.Books))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.concurrency)
	for i, path := range layout.Books {
		g.Go(func() error {
			record, err := reader.Read(gctx, path)
			if err != nil {
				return fmt.Errorf("read metadata from %s: %w", path, err)
			}
			files[i] = planner.File{Path: path, Filename: filepath.Base(path), Metadata: record}
			if o.progress != nil {
				mu.Lock()
				o.progress(path)
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attachAuxiliary(files, layout.Auxiliary, root)
	logger.Debug("scan complete",
		logging.String(logging.FieldPath, root),
		logging.Int("books", len(files)),
		logging.Int("auxiliary", len(layout.Auxiliary)),
	)
	return files, nil
}

// attachAuxiliary gives each auxiliary file to the book in the nearest
// enclosing directory that contains a book, provided that directory's subtree
// holds exactly one book. Files next to several books stay behind.
func attachAuxiliary(files []planner.File, auxiliary []string, root string) {
	byDir := make(map[string]int, len(files))
	subtree := make(map[string]int)
	for i, f := range files {
		dir := filepath.Dir(f.Path)
		if _, ok := byDir[dir]; ok {
			byDir[dir] = -1
		} else {
			byDir[dir] = i
		}
		for d := dir; ; d = filepath.Dir(d) {
			subtree[d]++
			if d == root || d == filepath.Dir(d) {
				break
			}
		}
	}

	for _, aux := range auxiliary {
		for d := filepath.Dir(aux); ; d = filepath.Dir(d) {
			if idx, ok := byDir[d]; ok {
				if idx >= 0 && subtree[d] == 1 {
					rel, err := filepath.Rel(d, aux)
					if err == nil {
						files[idx].Auxiliary = append(files[idx].Auxiliary, planner.AuxiliaryFile{Path: aux, RelativePath: rel})
					}
				}
				break
			}
			if d == root || d == filepath.Dir(d) {
				break
			}
		}
	}
}

package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"bookshelf/internal/metadata"
)

// MemoryTags is an in-memory tag store satisfying tagio.Reader and
// tagio.Writer. Paths are compared after filepath.Clean.
type MemoryTags struct {
	mu      sync.Mutex
	records map[string]metadata.Record
	writes  []string
	// ReadErr, when set, is returned by every Read.
	ReadErr error
}

// NewMemoryTags returns an empty store.
func NewMemoryTags() *MemoryTags {
	return &MemoryTags{records: make(map[string]metadata.Record)}
}

// Set stores record for path.
func (m *MemoryTags) Set(path string, record metadata.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[filepath.Clean(path)] = record
}

// Get returns the record stored for path.
func (m *MemoryTags) Get(path string) (metadata.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[filepath.Clean(path)]
	return record, ok
}

// Read implements tagio.Reader. Unknown paths read as an empty record.
func (m *MemoryTags) Read(_ context.Context, path string) (metadata.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return metadata.Record{}, fmt.Errorf("read %s: %w", path, m.ReadErr)
	}
	return m.records[filepath.Clean(path)], nil
}

// Write implements tagio.Writer.
func (m *MemoryTags) Write(_ context.Context, path string, record metadata.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	path = filepath.Clean(path)
	m.records[path] = record
	m.writes = append(m.writes, path)
	return nil
}

// Writes returns the paths written so far, in order.
func (m *MemoryTags) Writes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.writes...)
}

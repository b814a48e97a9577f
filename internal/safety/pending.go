package safety

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"bookshelf/internal/services"
)

const (
	pendingExt       = ".toml"
	headerTarget     = "# Pending edit for: "
	headerCreated    = "# Created: "
	headerRunCommand = "# Run: "
)

// PendingEdit is a reviewed edit that has not been written to the file.
type PendingEdit struct {
	Target    string    `json:"target"`
	Content   string    `json:"-"`
	Created   time.Time `json:"created"`
	CachePath string    `json:"cache_path"`
}

// PendingStore keeps pending edits in a directory, one file per target.
type PendingStore struct {
	dir string
	now func() time.Time
}

// NewPendingStore creates dir if needed.
func NewPendingStore(dir string) (*PendingStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "pending", "open store", "directory required", nil)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create pending dir: %w", err)
	}
	return &PendingStore{dir: dir, now: time.Now}, nil
}

// Dir returns the store directory.
func (s *PendingStore) Dir() string {
	return s.dir
}

// PathFor returns the cache file used for target.
func (s *PendingStore) PathFor(target string) (string, error) {
	abs, err := canonical(target)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.dir, pathKey(abs)+pendingExt), nil
}

// pathKey is the first 8 bytes of sha256(path), hex encoded.
func pathKey(path string) string {
	sum := sha256.Sum256([]byte(path))
	return hex.EncodeToString(sum[:8])
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// Save stores content for target, replacing an earlier pending edit.
func (s *PendingStore) Save(target, content string) (string, error) {
	abs, err := canonical(target)
	if err != nil {
		return "", err
	}
	cachePath := filepath.Join(s.dir, pathKey(abs)+pendingExt)

	var b strings.Builder
	b.WriteString(headerTarget + abs + "\n")
	b.WriteString(headerCreated + s.now().UTC().Format(time.RFC3339) + "\n")
	fmt.Fprintf(&b, "%sbookshelf pending apply %q\n\n", headerRunCommand, abs)
	b.WriteString(content)

	tmp := cachePath + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write pending edit: %w", err)
	}
	if err := os.Rename(tmp, cachePath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write pending edit: %w", err)
	}
	return cachePath, nil
}

// Load returns the pending edit for target. ok is false when there is none.
func (s *PendingStore) Load(target string) (PendingEdit, bool, error) {
	cachePath, err := s.PathFor(target)
	if err != nil {
		return PendingEdit{}, false, err
	}
	edit, err := readPending(cachePath)
	if errors.Is(err, fs.ErrNotExist) {
		return PendingEdit{}, false, nil
	}
	if err != nil {
		return PendingEdit{}, false, err
	}
	if edit.Target == "" {
		edit.Target, _ = canonical(target)
	}
	return edit, true, nil
}

// List returns every pending edit sorted by target path. Files that cannot
// be read are skipped.
func (s *PendingStore) List() ([]PendingEdit, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read pending dir: %w", err)
	}
	var edits []PendingEdit
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != pendingExt {
			continue
		}
		edit, err := readPending(filepath.Join(s.dir, entry.Name()))
		if err != nil || edit.Target == "" {
			continue
		}
		edits = append(edits, edit)
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].Target < edits[j].Target })
	return edits, nil
}

// Remove deletes the pending edit for target and reports whether one existed.
func (s *PendingStore) Remove(target string) (bool, error) {
	cachePath, err := s.PathFor(target)
	if err != nil {
		return false, err
	}
	err = os.Remove(cachePath)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove pending edit: %w", err)
	}
}

// Clear removes every pending edit and returns how many were deleted.
func (s *PendingStore) Clear() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read pending dir: %w", err)
	}
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != pendingExt {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove pending edit: %w", err)
		}
		removed++
	}
	return removed, nil
}

func readPending(cachePath string) (PendingEdit, error) {
	data, err := os.ReadFile(cachePath)
	if err != nil {
		return PendingEdit{}, err
	}
	edit := PendingEdit{CachePath: cachePath}
	if info, err := os.Stat(cachePath); err == nil {
		edit.Created = info.ModTime().UTC()
	}

	text := string(data)
	reader := bufio.NewReader(strings.NewReader(text))
	consumed := 0
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(trimmed, headerTarget):
			edit.Target = strings.TrimPrefix(trimmed, headerTarget)
		case strings.HasPrefix(trimmed, headerCreated):
			if ts, perr := time.Parse(time.RFC3339, strings.TrimPrefix(trimmed, headerCreated)); perr == nil {
				edit.Created = ts
			}
		case strings.HasPrefix(trimmed, headerRunCommand):
		case trimmed == "" && line != "":
			consumed += len(line)
			edit.Content = text[consumed:]
			return edit, nil
		default:
			edit.Content = text[consumed:]
			return edit, nil
		}
		consumed += len(line)
		if err != nil {
			edit.Content = text[consumed:]
			return edit, nil
		}
	}
}

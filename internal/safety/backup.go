package safety

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"bookshelf/internal/fileutil"
	"bookshelf/internal/logging"
	"bookshelf/internal/services"
)

// BackupExt is appended to the original file name.
const BackupExt = ".bak"

// ErrBackupLimit reports that a backup would exceed the storage ceiling.
var ErrBackupLimit = errors.New("backup storage limit reached")

// Backup describes one backup file found on disk.
type Backup struct {
	Path     string `json:"path"`
	Original string `json:"original"`
	Size     int64  `json:"size_bytes"`
}

// BackupPath returns the backup location for path.
func BackupPath(path string) string {
	return path + BackupExt
}

// HasBackup reports whether a backup exists for path.
func HasBackup(path string) bool {
	_, err := os.Stat(BackupPath(path))
	return err == nil
}

// CreateBackup copies path to its backup location, replacing an older
// backup, and returns the backup path.
func CreateBackup(path string) (string, error) {
	backup := BackupPath(path)
	if err := os.Remove(backup); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("replace backup %s: %w", backup, err)
	}
	if _, err := fileutil.CopyFileVerified(path, backup); err != nil {
		return "", fmt.Errorf("create backup %s: %w", backup, err)
	}
	return backup, nil
}

// RemoveBackup deletes the backup of path. It reports whether one existed.
func RemoveBackup(path string) (bool, error) {
	err := os.Remove(BackupPath(path))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

// IsBackup reports whether name looks like an audiobook backup.
func IsBackup(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, BackupExt) && filepath.Ext(strings.TrimSuffix(lower, BackupExt)) == ".m4b"
}

// ListBackups finds every audiobook backup below dir, sorted by path.
func ListBackups(dir string) ([]Backup, error) {
	var backups []Backup
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() || !IsBackup(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		backups = append(backups, Backup{
			Path:     path,
			Original: path[:len(path)-len(BackupExt)],
			Size:     info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "backups", "scan", dir, err)
	}
	sort.Slice(backups, func(i, j int) bool { return backups[i].Path < backups[j].Path })
	return backups, nil
}

// Usage sums the size of every backup below dir.
func Usage(dir string) (int64, error) {
	backups, err := ListBackups(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, b := range backups {
		total += b.Size
	}
	return total, nil
}

// Backups creates backups while keeping total usage below root under a
// ceiling. A limit of zero disables the ceiling.
type Backups struct {
	root   string
	limit  int64
	logger *slog.Logger
}

// NewBackups returns a limited backup manager for files below root.
func NewBackups(root string, limit int64, logger *slog.Logger) *Backups {
	return &Backups{root: root, limit: limit, logger: logging.NewComponentLogger(logger, "backups")}
}

// Create backs up path unless doing so would push usage past the limit.
func (b *Backups) Create(path string) (string, error) {
	if b.limit > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
		used, err := Usage(b.root)
		if err != nil {
			return "", err
		}
		if existing, err := os.Stat(BackupPath(path)); err == nil {
			used -= existing.Size()
		}
		if used+info.Size() > b.limit {
			return "", services.Wrap(services.ErrConflict, "backups", "create",
				fmt.Sprintf("%s used of %s, %s needs %s", FormatSize(used), FormatSize(b.limit), filepath.Base(path), FormatSize(info.Size())),
				ErrBackupLimit)
		}
	}
	backup, err := CreateBackup(path)
	if err != nil {
		return "", err
	}
	b.logger.Info("backup created",
		logging.String(logging.FieldPath, path),
		logging.String(logging.FieldDest, backup),
	)
	return backup, nil
}

// Allowance returns how many of the queued sizes, taken in order, fit in the
// space left under the limit.
func (b *Backups) Allowance(sizes []int64) (int, error) {
	if b.limit <= 0 {
		return len(sizes), nil
	}
	used, err := Usage(b.root)
	if err != nil {
		return 0, err
	}
	available := b.limit - used
	count := 0
	for _, size := range sizes {
		if size > available {
			break
		}
		available -= size
		count++
	}
	return count, nil
}

// Limit returns the configured ceiling in bytes.
func (b *Backups) Limit() int64 {
	return b.limit
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.0f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// Package contenthash computes SHA-256 digests of audiobook files and caches
// them in a small sidecar file ("<file>.sha256") next to each file.
package contenthash

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"bookshelf/internal/logging"
)

// SidecarExt is the suffix appended to a file path to form its cache path.
const SidecarExt = ".sha256"

const digestHexLen = sha256.Size * 2

// File streams path through SHA-256 and returns the lowercase hex digest.
func File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SidecarPath returns the cache path for path.
func SidecarPath(path string) string {
	return path + SidecarExt
}

// ReadSidecar returns the cached digest for path. A missing or malformed
// sidecar reports ok=false with a nil error.
func ReadSidecar(path string) (digest string, ok bool, err error) {
	data, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read hash sidecar: %w", err)
	}
	digest = strings.ToLower(strings.TrimSpace(string(data)))
	if !ValidDigest(digest) {
		return "", false, nil
	}
	return digest, true, nil
}

// WriteSidecar stores digest next to path.
func WriteSidecar(path, digest string) error {
	if !ValidDigest(digest) {
		return fmt.Errorf("refusing to cache malformed digest %q", digest)
	}
	if err := os.WriteFile(SidecarPath(path), []byte(digest+"\n"), 0o644); err != nil {
		return fmt.Errorf("write hash sidecar: %w", err)
	}
	return nil
}

// RemoveSidecar deletes the cache for path. A missing sidecar is not an error.
func RemoveSidecar(path string) error {
	if err := os.Remove(SidecarPath(path)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove hash sidecar: %w", err)
	}
	return nil
}

// ValidDigest reports whether s looks like a hex SHA-256 digest.
func ValidDigest(s string) bool {
	if len(s) != digestHexLen {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// Hasher resolves digests through the sidecar cache.
type Hasher struct {
	// WriteCache stores newly computed digests in a sidecar.
	WriteCache bool
	logger     *slog.Logger
}

// NewHasher returns a Hasher that writes sidecars when writeCache is set.
func NewHasher(writeCache bool, logger *slog.Logger) *Hasher {
	return &Hasher{
		WriteCache: writeCache,
		logger:     logging.NewComponentLogger(logger, "contenthash"),
	}
}

// Hash returns the cached digest for path, computing it when no valid
// sidecar exists. A failed cache write is logged, not returned.
func (h *Hasher) Hash(path string) (string, error) {
	if cached, ok, err := ReadSidecar(path); err == nil && ok {
		return cached, nil
	}
	digest, err := File(path)
	if err != nil {
		return "", err
	}
	if h != nil && h.WriteCache {
		if err := WriteSidecar(path, digest); err != nil && h.logger != nil {
			h.logger.Warn("hash sidecar not written",
				logging.String(logging.FieldPath, path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "hash_cache_write_failed"),
				logging.String(logging.FieldErrorHint, "check directory permissions"),
			)
		}
	}
	return digest, nil
}

// Refresh recomputes the digest for path and overwrites its sidecar.
func Refresh(path string) (string, error) {
	digest, err := File(path)
	if err != nil {
		return "", err
	}
	if err := WriteSidecar(path, digest); err != nil {
		return "", err
	}
	return digest, nil
}

// Verify recomputes the digest of path and compares it to the sidecar.
// ok is false when there is no usable sidecar.
func Verify(path string) (match bool, ok bool, err error) {
	cached, ok, err := ReadSidecar(path)
	if err != nil || !ok {
		return false, ok, err
	}
	digest, err := File(path)
	if err != nil {
		return false, true, err
	}
	return digest == cached, true, nil
}

// IsOrphanSidecar reports whether path is a sidecar and, if so, whether the
// file it describes is gone.
func IsOrphanSidecar(path string) (isSidecar bool, orphan bool) {
	if !strings.HasSuffix(path, SidecarExt) {
		return false, false
	}
	target := strings.TrimSuffix(path, SidecarExt)
	if target == "" {
		return false, false
	}
	if _, err := os.Stat(target); err != nil && errors.Is(err, fs.ErrNotExist) {
		return true, true
	}
	return true, false
}

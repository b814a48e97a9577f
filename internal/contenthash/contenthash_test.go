package contenthash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	helloWorldDigest = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	emptyDigest      = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestFileKnownContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.m4b")
	writeFile(t, path, "hello world")
	digest, err := File(path)
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	if digest != helloWorldDigest {
		t.Fatalf("unexpected digest %s", digest)
	}

	empty := filepath.Join(dir, "empty.m4b")
	writeFile(t, empty, "")
	digest, err = File(empty)
	if err != nil {
		t.Fatalf("File returned error: %v", err)
	}
	if digest != emptyDigest {
		t.Fatalf("unexpected empty digest %s", digest)
	}
}

func TestFileMissing(t *testing.T) {
	if _, err := File(filepath.Join(t.TempDir(), "missing.m4b")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestHasherWritesAndReusesSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	writeFile(t, path, "hello world")

	h := NewHasher(true, nil)
	digest, err := h.Hash(path)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if digest != helloWorldDigest {
		t.Fatalf("unexpected digest %s", digest)
	}
	data, err := os.ReadFile(SidecarPath(path))
	if err != nil {
		t.Fatalf("expected sidecar: %v", err)
	}
	if strings.TrimSpace(string(data)) != helloWorldDigest {
		t.Fatalf("unexpected sidecar content %q", data)
	}

	// A cached digest wins over file content.
	fake := strings.Repeat("a", 64)
	if err := WriteSidecar(path, fake); err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}
	digest, err = h.Hash(path)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if digest != fake {
		t.Fatalf("expected cached digest, got %s", digest)
	}
}

func TestHasherWithoutCacheWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	writeFile(t, path, "hello world")

	if _, err := NewHasher(false, nil).Hash(path); err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if _, err := os.Stat(SidecarPath(path)); !os.IsNotExist(err) {
		t.Fatalf("expected no sidecar, stat err=%v", err)
	}
}

func TestMalformedSidecarIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	writeFile(t, path, "hello world")
	writeFile(t, SidecarPath(path), "not-a-hash\n")

	if _, ok, err := ReadSidecar(path); ok || err != nil {
		t.Fatalf("expected malformed sidecar to read as missing, ok=%v err=%v", ok, err)
	}
	digest, err := NewHasher(true, nil).Hash(path)
	if err != nil {
		t.Fatalf("Hash returned error: %v", err)
	}
	if digest != helloWorldDigest {
		t.Fatalf("unexpected digest %s", digest)
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	writeFile(t, path, "hello world")

	if _, ok, err := Verify(path); ok || err != nil {
		t.Fatalf("expected no sidecar, ok=%v err=%v", ok, err)
	}
	if _, err := Refresh(path); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	match, ok, err := Verify(path)
	if err != nil || !ok || !match {
		t.Fatalf("expected verified match, match=%v ok=%v err=%v", match, ok, err)
	}
	writeFile(t, path, "changed")
	match, _, _ = Verify(path)
	if match {
		t.Fatal("expected mismatch after content change")
	}
}

func TestIsOrphanSidecar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.m4b")
	writeFile(t, path, "x")

	if isSidecar, _ := IsOrphanSidecar(path); isSidecar {
		t.Fatal("m4b should not be treated as sidecar")
	}
	if isSidecar, orphan := IsOrphanSidecar(SidecarPath(path)); !isSidecar || orphan {
		t.Fatalf("expected live sidecar, got sidecar=%v orphan=%v", isSidecar, orphan)
	}
	gone := filepath.Join(dir, "gone.m4b.sha256")
	if isSidecar, orphan := IsOrphanSidecar(gone); !isSidecar || !orphan {
		t.Fatalf("expected orphan sidecar, got sidecar=%v orphan=%v", isSidecar, orphan)
	}
	if err := RemoveSidecar(filepath.Join(dir, "never.m4b")); err != nil {
		t.Fatalf("RemoveSidecar on missing file: %v", err)
	}
}

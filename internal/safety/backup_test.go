package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bookshelf/internal/services"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCreateAndRemoveBackup(t *testing.T) {
	dir := t.TempDir()
	book := filepath.Join(dir, "book.m4b")
	writeFile(t, book, 10)

	backup, err := CreateBackup(book)
	if err != nil {
		t.Fatalf("CreateBackup returned error: %v", err)
	}
	if backup != book+".bak" || !HasBackup(book) {
		t.Fatalf("unexpected backup path %q", backup)
	}
	writeFile(t, book, 20)
	if _, err := CreateBackup(book); err != nil {
		t.Fatalf("CreateBackup should replace an older backup: %v", err)
	}
	info, _ := os.Stat(backup)
	if info.Size() != 20 {
		t.Fatalf("expected refreshed backup, got %d bytes", info.Size())
	}

	removed, err := RemoveBackup(book)
	if err != nil || !removed {
		t.Fatalf("RemoveBackup = %v, %v", removed, err)
	}
	if removed, _ := RemoveBackup(book); removed {
		t.Fatal("second RemoveBackup should report nothing removed")
	}
}

func TestListBackupsAndUsage(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b", "two.m4b.bak"), 200)
	writeFile(t, filepath.Join(dir, "a", "one.M4B.bak"), 100)
	writeFile(t, filepath.Join(dir, "notes.txt.bak"), 999)

	backups, err := ListBackups(dir)
	if err != nil {
		t.Fatalf("ListBackups returned error: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %#v", backups)
	}
	if backups[0].Original != filepath.Join(dir, "a", "one.M4B") || backups[1].Size != 200 {
		t.Fatalf("unexpected backups %#v", backups)
	}
	used, err := Usage(dir)
	if err != nil || used != 300 {
		t.Fatalf("Usage = %d, %v", used, err)
	}
}

func TestBackupsEnforceLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.m4b.bak"), 60)
	book := filepath.Join(dir, "book.m4b")
	writeFile(t, book, 50)

	limited := NewBackups(dir, 100, nil)
	_, err := limited.Create(book)
	if !errors.Is(err, ErrBackupLimit) || !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if HasBackup(book) {
		t.Fatal("no backup should be written past the limit")
	}

	roomy := NewBackups(dir, 110, nil)
	if _, err := roomy.Create(book); err != nil {
		t.Fatalf("Create within limit returned error: %v", err)
	}
	// Replacing the same backup does not count twice.
	if _, err := roomy.Create(book); err != nil {
		t.Fatalf("Create replacing backup returned error: %v", err)
	}

	unlimited := NewBackups(dir, 0, nil)
	if n, _ := unlimited.Allowance([]int64{1 << 40, 1 << 40}); n != 2 {
		t.Fatalf("expected unlimited allowance, got %d", n)
	}
}

func TestBackupsAllowance(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "old.m4b.bak"), 40)
	b := NewBackups(dir, 100, nil)
	n, err := b.Allowance([]int64{30, 20, 20, 5})
	if err != nil {
		t.Fatalf("Allowance returned error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 files to fit, got %d", n)
	}
}

func TestFormatSize(t *testing.T) {
	cases := map[int64]string{
		500:               "500 bytes",
		1024:              "1 KB",
		1024 * 1024:       "1 MB",
		523 * 1024 * 1024: "523 MB",
		1 << 30:           "1.0 GB",
	}
	for in, want := range cases {
		if got := FormatSize(in); got != want {
			t.Fatalf("FormatSize(%d) = %q, want %q", in, got, want)
		}
	}
}

package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bookshelf/internal/testsupport"
)

func TestBackupsList(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.sourceDir()
	testsupport.WriteFile(t, filepath.Join(dir, "Dune.m4b.bak"), 2048)
	testsupport.WriteFile(t, filepath.Join(dir, "nested", "Mistborn.m4b.bak"), 1024)
	testsupport.WriteText(t, filepath.Join(dir, "notes.txt.bak"), "not an audiobook backup")

	out, _, err := runCLI(t, env, "backups", "list", dir)
	if err != nil {
		t.Fatalf("backups list: %v", err)
	}
	requireContains(t, out, "Dune.m4b.bak")
	requireContains(t, out, "Mistborn.m4b.bak")
	requireNotContains(t, out, "notes.txt.bak")
	requireContains(t, out, "2 backups, 3 KB total (limit 2.0 GB)")
}

func TestBackupsListDefaultsToLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "backups", "list")
	if err != nil {
		t.Fatalf("backups list: %v", err)
	}
	requireContains(t, out, "No backups found in "+env.cfg.Organize.Dest)
}

func TestBackupsCleanAll(t *testing.T) {
	env := setupCLITestEnv(t)
	backup := filepath.Join(env.sourceDir(), "Dune.m4b.bak")
	testsupport.WriteFile(t, backup, 512)

	out, _, err := runCLI(t, env, "backups", "clean", "--all", "--yes", env.sourceDir())
	if err != nil {
		t.Fatalf("backups clean: %v", err)
	}
	requireContains(t, out, "Deleted 1 backup, freed 512 bytes.")
	if _, err := os.Stat(backup); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected backup removed, got %v", err)
	}
}

func TestBackupsCleanPromptsPerFile(t *testing.T) {
	env := setupCLITestEnv(t)
	keep := filepath.Join(env.sourceDir(), "A.m4b.bak")
	drop := filepath.Join(env.sourceDir(), "B.m4b.bak")
	testsupport.WriteFile(t, keep, 10)
	testsupport.WriteFile(t, drop, 10)

	out, _, err := runCLIWithInput(t, env, "n\ny\n", "backups", "clean", env.sourceDir())
	if err != nil {
		t.Fatalf("backups clean: %v", err)
	}
	requireContains(t, out, "Deleted 1 backup")
	if _, err := os.Stat(keep); err != nil {
		t.Fatalf("declined backup removed: %v", err)
	}
	if _, err := os.Stat(drop); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("confirmed backup kept: %v", err)
	}
}

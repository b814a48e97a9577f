package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"bookshelf/internal/contenthash"
	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
	"bookshelf/internal/testsupport"
)

func seedLibrary(t *testing.T, env *cliTestEnv) string {
	t.Helper()
	root := env.cfg.Organize.Dest
	env.addBook(t, filepath.Join(root, "Frank Herbert", "Dune", "Dune.m4b"), 64, duneRecord())
	env.addBook(t, filepath.Join(root, "Brandon Sanderson", "Mistborn", "Mistborn.m4b"), 96, mistbornRecord())
	return root
}

func TestIndexAndSearch(t *testing.T) {
	env := setupCLITestEnv(t)
	root := seedLibrary(t, env)

	out, _, err := runCLI(t, env, "index", root)
	if err != nil {
		t.Fatalf("index: %v", err)
	}
	requireContains(t, out, "Indexed 2 files: 2 added, 0 updated, 0 unchanged.")
	requireContains(t, out, "Index now holds 2 audiobooks.")
	if _, ok, _ := contenthash.ReadSidecar(filepath.Join(root, "Frank Herbert", "Dune", "Dune.m4b")); !ok {
		t.Fatalf("expected index to cache the digest in a sidecar")
	}

	out, _, err = runCLI(t, env, "index", root)
	if err != nil {
		t.Fatalf("second index: %v", err)
	}
	requireContains(t, out, "0 added, 0 updated, 2 unchanged")

	out, _, err = runCLI(t, env, "search", "--dest", root, "dune")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Frank Herbert")
	requireContains(t, out, "Dune #1")
	requireNotContains(t, out, "Mistborn")
	requireContains(t, out, "1 match.")
}

func TestSearchFiltersAsJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	root := seedLibrary(t, env)
	if _, _, err := runCLI(t, env, "index", root); err != nil {
		t.Fatalf("index: %v", err)
	}

	out, _, err := runCLI(t, env, "search", "--dest", root, "--author", "sanderson", "--json")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var results []searchResult
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	want := filepath.Join(root, "Brandon Sanderson", "Mistborn", "Mistborn.m4b")
	if results[0].Path != want {
		t.Fatalf("expected path %s, got %s", want, results[0].Path)
	}
	if results[0].Size != 96 || !contenthash.ValidDigest(results[0].SHA256) {
		t.Fatalf("unexpected result %+v", results[0])
	}

	out, _, err = runCLI(t, env, "search", "--dest", root, "--year", "1965")
	if err != nil {
		t.Fatalf("search --year: %v", err)
	}
	requireContains(t, out, "Dune")
	requireNotContains(t, out, "Mistborn")
}

func TestSearchFallsBackToConfiguredLibrary(t *testing.T) {
	env := setupCLITestEnv(t)
	root := seedLibrary(t, env)
	if _, _, err := runCLI(t, env, "index", root); err != nil {
		t.Fatalf("index: %v", err)
	}
	if err := os.MkdirAll(env.sourceDir(), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(env.sourceDir())

	out, _, err := runCLI(t, env, "search", "mistborn")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Brandon Sanderson")
}

func TestSearchErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env, "search", "--dest", env.cfg.Organize.Dest)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error without a query, got %v", err)
	}

	_, _, err = runCLI(t, env, "search", "--dest", env.cfg.Organize.Dest, "dune")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found without an index, got %v", err)
	}
}

func TestIndexUpdatesAndPrunes(t *testing.T) {
	env := setupCLITestEnv(t)
	root := seedLibrary(t, env)
	if _, _, err := runCLI(t, env, "index", root); err != nil {
		t.Fatalf("index: %v", err)
	}

	dune := filepath.Join(root, "Frank Herbert", "Dune", "Dune.m4b")
	updated := duneRecord()
	updated.Narrator = metadata.Text("Scott Brick")
	env.tags.Set(dune, updated)
	if err := os.Remove(filepath.Join(root, "Brandon Sanderson", "Mistborn", "Mistborn.m4b")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	out, _, err := runCLI(t, env, "index", "--full", "--prune", root)
	if err != nil {
		t.Fatalf("index --full --prune: %v", err)
	}
	requireContains(t, out, "0 added, 1 updated, 0 unchanged")
	requireContains(t, out, "Pruned 1 missing entry.")
	requireContains(t, out, "Index now holds 1 audiobook.")

	store := testsupport.MustOpenLibrary(t, root)
	entry, ok, err := store.Get(t.Context(), "Frank Herbert/Dune/Dune.m4b")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if entry.Metadata.Narrator == nil || *entry.Metadata.Narrator != "Scott Brick" {
		t.Fatalf("expected refreshed narrator, got %v", entry.Metadata.Narrator)
	}
}

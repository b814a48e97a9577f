package main

import (
	"errors"
	"path/filepath"
	"testing"

	"bookshelf/internal/metadata"
	"bookshelf/internal/services"
	"bookshelf/internal/testsupport"
)

const (
	testASIN = "B0TESTASIN"

	duneAudnexusBody = `{
		"asin": "B0TESTASIN",
		"title": "Dune",
		"authors": [{"name": "Frank Herbert"}],
		"narrators": [{"name": "Scott Brick"}],
		"seriesPrimary": {"name": "Dune", "position": "1"},
		"releaseDate": "2006-08-01"
	}`
)

func setupLookupEnv(t *testing.T, body string) *cliTestEnv {
	t.Helper()
	server := newLookupServer(t, testASIN, body)
	return setupCLITestEnv(t, testsupport.WithLookupServer(server.URL))
}

func TestLookupTrustedSourceApplies(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Dune ["+testASIN+"].m4b"), 64, duneRecord())

	out, _, err := runCLI(t, env, "lookup", "--trust-source", "audnexus", "--apply", "--yes", path)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "Found ASIN in filename: "+testASIN)
	requireContains(t, out, `Trusted source "audnexus": applying`)
	requireContains(t, out, "Applied.")

	got, _ := env.tags.Get(path)
	if got.Narrator == nil || *got.Narrator != "Scott Brick" {
		t.Fatalf("narrator not written: %v", got.Narrator)
	}
	if got.Year == nil || *got.Year != 2006 {
		t.Fatalf("expected trusted year 2006, got %v", got.Year)
	}
	if got.ASIN == nil || *got.ASIN != testASIN {
		t.Fatalf("asin not written: %v", got.ASIN)
	}
}

func TestLookupTrustedSourceDryRunSavesPending(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	env.cfg.Lookup.TrustedSource = "audnexus"
	env.rewriteConfig(t)
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Dune ["+testASIN+"].m4b"), 64, duneRecord())

	out, _, err := runCLI(t, env, "lookup", path)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "Saved to pending edits")
	if writes := env.tags.Writes(); len(writes) != 0 {
		t.Fatalf("dry run wrote tags: %v", writes)
	}

	out, _, err = runCLI(t, env, "pending", "apply", "--yes", path)
	if err != nil {
		t.Fatalf("pending apply: %v", err)
	}
	requireContains(t, out, "Changes applied successfully.")
	got, _ := env.tags.Get(path)
	if got.Year == nil || *got.Year != 2006 {
		t.Fatalf("expected pending trusted year 2006, got %v", got.Year)
	}
}

func TestLookupTrustedSourceWithoutDataSkips(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Dune ["+testASIN+"].m4b"), 64, duneRecord())

	out, _, err := runCLI(t, env, "lookup", "--trust-source", "audible", "--apply", "--yes", path)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, `trusted source "audible" returned no results`)
	if writes := env.tags.Writes(); len(writes) != 0 {
		t.Fatalf("skipped lookup wrote tags: %v", writes)
	}
}

func TestLookupInteractiveSavesPending(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Dune ["+testASIN+"].m4b"), 64, duneRecord())

	out, _, err := runCLI(t, env, "lookup", path)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "Opening editor...")
	requireContains(t, out, "Scott Brick")
	requireContains(t, out, "Changes saved to pending edits.")
}

func TestLookupSkipsMatchingFile(t *testing.T) {
	env := setupLookupEnv(t, `{"asin": "B0TESTASIN", "title": "Dune", "authors": [{"name": "Frank Herbert"}]}`)
	record := metadata.Record{
		Title:  metadata.Text("Dune"),
		Author: metadata.Text("Frank Herbert"),
		ASIN:   metadata.Text(testASIN),
	}
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Dune.m4b"), 64, record)

	out, _, err := runCLI(t, env, "lookup", path)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	requireContains(t, out, "metadata matches [audnexus] - skipping")
}

func TestLookupNoResults(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Unknown.m4b"), 64, metadata.Record{
		Title: metadata.Text("Unknown"),
	})

	_, _, err := runCLI(t, env, "lookup", path)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLookupRejectsUnknownTrustedSource(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Dune.m4b"), 64, duneRecord())

	_, _, err := runCLI(t, env, "lookup", "--trust-source", "goodreads", path)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLookupAllAutoAccept(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	path := env.addBook(t, filepath.Join(env.sourceDir(), "Dune ["+testASIN+"].m4b"), 64, metadata.Record{
		Title:  metadata.Text("Dune"),
		Author: metadata.Text("Frank Herbert"),
	})
	other := env.addBook(t, filepath.Join(env.sourceDir(), "Other.m4b"), 64, metadata.Record{
		Title: metadata.Text("Unknown"),
	})

	out, _, err := runCLI(t, env, "lookup-all", "--auto-accept", "--apply", "--yes", env.sourceDir())
	if err != nil {
		t.Fatalf("lookup-all: %v", err)
	}
	requireContains(t, out, "Found 2 audiobook files.")
	requireContains(t, out, "[1/2] Checking")
	requireContains(t, out, "Auto-accept: applying")
	requireContains(t, out, "1 errors")

	got, _ := env.tags.Get(path)
	if got.Narrator == nil || *got.Narrator != "Scott Brick" {
		t.Fatalf("narrator not written: %v", got.Narrator)
	}
	if got.Year == nil || *got.Year != 2006 {
		t.Fatalf("year not written: %v", got.Year)
	}
	for _, written := range env.tags.Writes() {
		if written == other {
			t.Fatalf("book without results was written")
		}
	}
}

func TestLookupAllConflictsOpenEditor(t *testing.T) {
	env := setupLookupEnv(t, duneAudnexusBody)
	env.addBook(t, filepath.Join(env.sourceDir(), "Dune ["+testASIN+"].m4b"), 64, duneRecord())

	out, _, err := runCLI(t, env, "lookup-all", "--auto-accept", env.sourceDir())
	if err != nil {
		t.Fatalf("lookup-all: %v", err)
	}
	requireContains(t, out, "Has conflicts - opening editor...")
	requireContains(t, out, "Changes saved to pending edits.")
}

func TestLookupAllRespectsBackupLimit(t *testing.T) {
	server := newLookupServer(t, testASIN, duneAudnexusBody)
	env := setupCLITestEnv(t, testsupport.WithLookupServer(server.URL), testsupport.WithBackupLimit(100))
	env.addBook(t, filepath.Join(env.sourceDir(), "Dune ["+testASIN+"].m4b"), 64, metadata.Record{
		Title:  metadata.Text("Dune"),
		Author: metadata.Text("Frank Herbert"),
	})
	testsupport.WriteFile(t, filepath.Join(env.sourceDir(), "Old.m4b.bak"), 80)

	out, _, err := runCLI(t, env, "lookup-all", "--auto-accept", "--apply", "--yes", env.sourceDir())
	if err != nil {
		t.Fatalf("lookup-all: %v", err)
	}
	requireContains(t, out, "Cannot process any files - backup limit reached.")
	if writes := env.tags.Writes(); len(writes) != 0 {
		t.Fatalf("expected no writes over the backup limit, got %v", writes)
	}
}

package planner

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildFixClassifiesFiles(t *testing.T) {
	root := t.TempDir()
	compliant := filepath.Join(root, "Andy Weir", "The Martian", "book.m4b")
	misplaced := filepath.Join(root, "misc", "phm.m4b")
	writeFile(t, compliant, "a")
	writeFile(t, misplaced, "b")

	files := []File{
		book(compliant, "Andy Weir", "The Martian"),
		book(misplaced, "Andy Weir", "Project Hail Mary"),
		{Path: filepath.Join(root, "unknown.m4b"), Filename: "unknown.m4b"},
	}
	plan := BuildFix(files, authorTitle, root)

	if diff := cmp.Diff([]string{compliant}, plan.Compliant); diff != "" {
		t.Fatalf("compliant mismatch (-want +got):\n%s", diff)
	}
	want := []PlannedOperation{{Source: misplaced, Dest: filepath.Join(root, "Andy Weir", "Project Hail Mary", "phm.m4b")}}
	if diff := cmp.Diff(want, plan.Moves); diff != "" {
		t.Fatalf("moves mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Uncategorized) != 1 || plan.Uncategorized[0].MissingFields[0] != "author" {
		t.Fatalf("unexpected uncategorized %+v", plan.Uncategorized)
	}
	if plan.HasIssues() {
		t.Fatalf("unexpected conflicts %+v", plan.Conflicts)
	}
}

func TestBuildFixOccupiedDestinationIsConflict(t *testing.T) {
	root := t.TempDir()
	occupant := filepath.Join(root, "Author", "Title", "book.m4b")
	mover := filepath.Join(root, "old", "book.m4b")
	writeFile(t, occupant, "a")
	writeFile(t, mover, "b")

	// The occupant itself has different metadata, so it is not compliant either.
	files := []File{
		book(mover, "Author", "Title"),
		book(occupant, "Other", "Thing"),
	}
	plan := BuildFix(files, authorTitle, root)
	want := []Conflict{{Dest: occupant, Sources: []string{mover}, ExistsOnDisk: true}}
	if diff := cmp.Diff(want, plan.Conflicts); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Moves) != 1 || plan.Moves[0].Source != occupant {
		t.Fatalf("expected the occupant's own move to be planned, got %+v", plan.Moves)
	}
}

func TestBuildFixSharedDestination(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "x", "book.m4b")
	b := filepath.Join(root, "y", "book.m4b")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	plan := BuildFix([]File{book(b, "Author", "Title"), book(a, "Author", "Title")}, authorTitle, root)
	want := []Conflict{{Dest: filepath.Join(root, "Author", "Title", "book.m4b"), Sources: []string{a, b}}}
	if diff := cmp.Diff(want, plan.Conflicts); diff != "" {
		t.Fatalf("conflicts mismatch (-want +got):\n%s", diff)
	}
	if len(plan.Moves) != 0 {
		t.Fatalf("conflicting files must not move, got %+v", plan.Moves)
	}
}

func TestBuildFixCarriesAuxiliaryFiles(t *testing.T) {
	root := t.TempDir()
	mover := filepath.Join(root, "old", "book.m4b")
	writeFile(t, mover, "b")
	file := book(mover, "Author", "Title")
	file.Auxiliary = []AuxiliaryFile{{Path: filepath.Join(root, "old", "book.cue"), RelativePath: "book.cue"}}

	plan := BuildFix([]File{file}, authorTitle, root)
	if len(plan.Moves) != 1 || len(plan.Moves[0].Auxiliary) != 1 {
		t.Fatalf("expected one move with auxiliary, got %+v", plan.Moves)
	}
	if got := plan.Moves[0].Auxiliary[0].Dest; got != filepath.Join(root, "Author", "Title", "book.cue") {
		t.Fatalf("unexpected auxiliary dest %q", got)
	}
}

package testsupport

import (
	"context"
	"testing"

	"bookshelf/internal/library"
)

// MustOpenLibrary opens the index at root for tests and registers cleanup.
func MustOpenLibrary(t testing.TB, root string) *library.Store {
	t.Helper()

	store, err := library.Open(context.Background(), root)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

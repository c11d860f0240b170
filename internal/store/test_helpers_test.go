package store

import (
	"context"
	"path/filepath"
	"testing"

	"clipkeep/internal/vault"
)

// createTestStore creates a file-backed store with a test vault.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	v, err := vault.New([]byte("test-secret"))
	if err != nil {
		t.Fatalf("vault.New() failed: %v", err)
	}
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, v)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCollection creates a collection and returns its id.
func createTestCollection(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.CreateCollection(context.Background(), name)
	if err != nil {
		t.Fatalf("CreateCollection(%q) failed: %v", name, err)
	}
	return id
}

// createTestList creates a list in a fresh or existing collection.
func createTestList(t *testing.T, s *Store, collectionID int64, name string) int64 {
	t.Helper()
	id, err := s.CreateList(context.Background(), collectionID, name, "")
	if err != nil {
		t.Fatalf("CreateList(%q) failed: %v", name, err)
	}
	return id
}

// createTestTable creates a table and returns its id.
func createTestTable(t *testing.T, s *Store, name string) int64 {
	t.Helper()
	id, err := s.CreateTable(context.Background(), name, "")
	if err != nil {
		t.Fatalf("CreateTable(%q) failed: %v", name, err)
	}
	return id
}

// createTestSteps appends steps labeled by the given contents and returns
// their item ids in order.
func createTestSteps(t *testing.T, s *Store, listID int64, contents ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(contents))
	for _, c := range contents {
		id, err := s.CreateListStep(context.Background(), listID, NewStep{Label: c, Content: c})
		if err != nil {
			t.Fatalf("CreateListStep(%q) failed: %v", c, err)
		}
		ids = append(ids, id)
	}
	return ids
}

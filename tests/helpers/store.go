// Package helpers provides shared fixtures for package tests.
package helpers

import (
	"testing"

	"github.com/xiaot623/clompanion/internal/repository"
)

// NewTestSQLiteStore returns an isolated in-memory SQLite store closed at test end.
func NewTestSQLiteStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()

	s, err := repository.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create sqlite store: %v", err)
	}

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

// NewTestMemoryStore returns a small sharded memory store.
func NewTestMemoryStore(t *testing.T) *repository.MemoryStore {
	t.Helper()
	return repository.NewMemoryStore(4)
}

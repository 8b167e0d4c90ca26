// Package testutil provides shared helpers for tests that need a vault
// directory or an index database.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/starford/muninn/internal/index"
	"github.com/starford/muninn/internal/storage"
)

// TestDB opens a throwaway SQLite index database under t.TempDir.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	db, err := index.Open(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("open index: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates an empty vault directory and a provider rooted in it.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	files, err := storage.NewFS(dir)
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}
	return dir, files
}

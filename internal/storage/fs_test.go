package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	f, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return f
}

func TestWriteAndRead(t *testing.T) {
	f := tempVault(t)

	content := []byte("# Hello\n\nSome note body.\n")
	if err := f.Write("note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := f.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("Read = %q, want %q", got, content)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	f := tempVault(t)

	path := filepath.Join("01 - Notes", "01a - Atomic", "20240115103000.md")
	if err := f.Write(path, []byte("nested")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := f.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "nested" {
		t.Errorf("Read = %q, want %q", got, "nested")
	}
}

func TestExists(t *testing.T) {
	f := tempVault(t)

	ok, err := f.Exists("missing.md")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("Exists = true for missing file")
	}

	if err := f.Write("present.md", []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	ok, err = f.Exists("present.md")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if !ok {
		t.Error("Exists = false for written file")
	}
}

func TestDelete(t *testing.T) {
	f := tempVault(t)

	if err := f.Write("doomed.md", []byte("bye")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Delete("doomed.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	ok, err := f.Exists("doomed.md")
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	if ok {
		t.Error("file still exists after Delete")
	}
}

func TestListDirectChildrenOnly(t *testing.T) {
	f := tempVault(t)

	files := []string{
		"02 - MOCs/20240101000000.md",
		"02 - MOCs/20240102000000.md",
		"02 - MOCs/deeper/20240103000000.md",
	}
	for _, p := range files {
		if err := f.Write(p, []byte("x")); err != nil {
			t.Fatalf("Write %s: %v", p, err)
		}
	}
	if err := f.Write("02 - MOCs/skipme.txt", []byte("not markdown")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := f.List("02 - MOCs")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("List returned %d entries, want 2: %v", len(got), got)
	}
	for _, p := range got {
		if strings.Contains(p, "deeper") {
			t.Errorf("List descended into subdirectory: %s", p)
		}
		if !strings.HasSuffix(p, ".md") {
			t.Errorf("List returned non-markdown file: %s", p)
		}
	}
}

func TestListMissingDir(t *testing.T) {
	f := tempVault(t)

	got, err := f.List("04 - Areas")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("List of missing dir = %v, want empty", got)
	}
}

func TestWalkRecursive(t *testing.T) {
	f := tempVault(t)

	files := []string{
		"00 - Inbox/00a - Active/20240101000000.md",
		"00 - Inbox/00t - Thoughts/20240102000000.md",
		"01 - Notes/01a - Atomic/sub/20240103000000.md",
	}
	for _, p := range files {
		if err := f.Write(p, []byte("x")); err != nil {
			t.Fatalf("Write %s: %v", p, err)
		}
	}

	got, err := f.Walk("")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Walk returned %d entries, want 3: %v", len(got), got)
	}

	got, err = f.Walk("00 - Inbox")
	if err != nil {
		t.Fatalf("Walk: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Walk of subdir returned %d entries, want 2: %v", len(got), got)
	}
}

func TestFind(t *testing.T) {
	f := tempVault(t)

	path := filepath.Join("01 - Notes", "01a - Atomic", "archive", "20240115103000.md")
	if err := f.Write(path, []byte("x")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok, err := f.Find("01 - Notes", "20240115103000.md")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !ok {
		t.Fatal("Find did not locate the file")
	}
	if got != path {
		t.Errorf("Find = %q, want %q", got, path)
	}

	_, ok, err = f.Find("01 - Notes", "nope.md")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if ok {
		t.Error("Find reported a missing file as found")
	}

	_, ok, err = f.Find("99 - Nowhere", "20240115103000.md")
	if err != nil {
		t.Fatalf("Find in missing dir: %v", err)
	}
	if ok {
		t.Error("Find reported a hit in a missing directory")
	}
}

func TestEnsureDir(t *testing.T) {
	f := tempVault(t)

	if err := f.EnsureDir("05 - Resources/05r - Repos"); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	info, err := os.Stat(filepath.Join(f.root, "05 - Resources", "05r - Repos"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.IsDir() {
		t.Error("EnsureDir did not create a directory")
	}

	if err := f.EnsureDir("05 - Resources/05r - Repos"); err != nil {
		t.Fatalf("EnsureDir twice: %v", err)
	}
}

func TestTraversalBlocked(t *testing.T) {
	f := tempVault(t)

	for _, path := range []string{"../../etc/passwd", "../outside.md", "/etc/shadow"} {
		if _, err := f.Read(path); err == nil {
			t.Errorf("Read(%q) succeeded, want traversal error", path)
		}
		if err := f.Write(path, []byte("x")); err == nil {
			t.Errorf("Write(%q) succeeded, want traversal error", path)
		}
		if err := f.Delete(path); err == nil {
			t.Errorf("Delete(%q) succeeded, want traversal error", path)
		}
	}
}

func TestAtomicWriteNoCorruption(t *testing.T) {
	f := tempVault(t)

	if err := f.Write("note.md", []byte("first")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := f.Write("note.md", []byte("second")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := f.Read("note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "second" {
		t.Errorf("Read = %q, want %q", got, "second")
	}

	// A successful write must not leave temp files behind.
	leftovers, err := filepath.Glob(filepath.Join(f.root, ".muninn-tmp-*"))
	if err != nil {
		t.Fatalf("Glob: %v", err)
	}
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("NewFS succeeded on a non-existent directory")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.md")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := NewFS(path); err == nil {
		t.Error("NewFS succeeded on a plain file")
	}
}

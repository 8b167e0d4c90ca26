// Package storage defines the vault file-system abstraction.
package storage

// Provider is the interface for vault file operations. All paths are
// relative to the vault root.
type Provider interface {
	// List returns the paths of .md files directly inside dir.
	List(dir string) ([]string, error)
	// Walk returns the paths of every .md file under dir, recursively.
	// An empty dir walks the whole vault.
	Walk(dir string) ([]string, error)
	// Find searches dir recursively for a file with the given base name and
	// returns its path. The boolean reports whether it was found.
	Find(dir, name string) (string, bool, error)
	// Exists reports whether a file exists at exactly path.
	Exists(path string) (bool, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// EnsureDir creates dir and any missing parents.
	EnsureDir(dir string) error
}

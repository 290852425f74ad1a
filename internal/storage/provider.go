// Package storage is the file-system layer behind the explorer: directory
// listing, file and folder creation, removal, moves and copies, plus the
// atomic document writes used by the record stores.
package storage

import "github.com/starford/fileexpo/internal/models"

// Provider is the interface for explorer file operations. All paths are
// absolute.
type Provider interface {
	// List returns the entries of dir, hidden ones included.
	List(dir string) ([]models.Entry, error)
	// Stat returns the entry describing a single path.
	Stat(path string) (models.Entry, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the content of path.
	Write(path string, content []byte) error
	// CreateFile creates an empty file and fails if path exists.
	CreateFile(path string) error
	// Mkdir creates a single directory and fails if path exists.
	Mkdir(path string) error
	// Delete removes a file or a whole directory tree.
	Delete(path string) error
	// Move renames oldPath to newPath, copying across devices when needed.
	Move(oldPath, newPath string) error
	// Copy duplicates a file (mode and times kept) or a directory tree.
	Copy(src, dst string) error
}

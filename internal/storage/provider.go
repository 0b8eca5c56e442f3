// Package storage defines the vault file-system abstraction.
package storage

import "github.com/timmcelreath/obsidian-journal-analyzer/internal/models"

// Provider abstracts vault file access. Paths are slash-separated and
// relative to the vault root; implementations must refuse paths that
// escape it.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Read returns the raw bytes of the note at path.
	Read(path string) ([]byte, error)
	// Write replaces the note at path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the note at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)
	// EnsureDir creates the directory at path (and parents) if absent.
	EnsureDir(path string) error
}

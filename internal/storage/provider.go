// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/notesplit/internal/models"

// Provider is the interface for vault file operations. Paths are relative
// to the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every non-ignored .md file under dir.
	List(dir string) ([]models.NoteMetadata, error)
	// Paths returns the path of every non-ignored .md file under dir.
	Paths(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
}

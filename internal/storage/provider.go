// Package storage defines the workspace file-system abstraction.
package storage

import "time"

// FileInfo is lightweight metadata for one Markdown file.
type FileInfo struct {
	Path     string
	Checksum string
	ModTime  time.Time
}

// Provider is the interface for workspace file operations. All paths are
// relative to the workspace root.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}

package storage

import (
	"errors"
	"io"
)

// ErrFileNotFound reports an unknown document ID.
var ErrFileNotFound = errors.New("file not found")

// FileInfo describes a stored document.
type FileInfo struct {
	ID       string // unique identifier
	Name     string // original filename
	Size     int64  // size in bytes
	MimeType string // MIME type, best-effort
	Path     string // implementation-specific storage path
}

// Storage archives uploaded documents. Implementations exist for the
// local filesystem and MinIO.
type Storage interface {
	// Save stores the document and returns its metadata.
	Save(reader io.Reader, filename string) (FileInfo, error)

	// Get returns the document content.
	Get(id string) (io.ReadCloser, error)

	// Delete removes the document.
	Delete(id string) error

	// List returns all stored documents.
	List() ([]FileInfo, error)

	// Exists reports whether a document with the given ID is stored.
	Exists(id string) (bool, error)
}

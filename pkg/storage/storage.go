// Package storage keeps generated spreadsheets on disk until they are
// downloaded or expire.
package storage

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
)

// FileInfo contains metadata about a stored export
type FileInfo struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	Path        string    `json:"path"` // Internal storage path
	CreatedAt   time.Time `json:"created_at"`
}

// Store defines the interface for export file storage
type Store interface {
	// Put stores a file and returns its metadata
	Put(ctx context.Context, filename string, contentType string, r io.Reader) (*FileInfo, error)

	// Open retrieves a file by its ID
	Open(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error)

	// Delete removes a file by its ID
	Delete(ctx context.Context, fileID uuid.UUID) error

	// List returns all stored files
	List(ctx context.Context) ([]*FileInfo, error)

	// DeleteOlderThan removes files created before the cutoff and returns
	// how many were deleted
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

package index

import (
	"context"

	"github.com/starford/fileexpo/internal/models"
)

// FileIndex defines the interface for file catalogue operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type FileIndex interface {
	UpsertFile(r FileRow) error
	DeleteFile(path string) error
	GetStamp(path string) (string, error)
	AllStamps() (map[string]string, error)
	Count() (int, error)
	Search(ctx context.Context, query string, limit int) ([]models.Entry, error)
	Close() error
}

// Verify *DB satisfies FileIndex at compile time.
var _ FileIndex = (*DB)(nil)

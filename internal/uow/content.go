package uow

import (
	"context"
	"io"

	"github.com/sharethis/service/internal/storage"
)

// ContentRepository gives a unit of work access to stored objects. Its
// operations go straight to the backend and are never rolled back.
type ContentRepository struct {
	backend storage.Backend
}

// NewContentRepository wraps backend.
func NewContentRepository(backend storage.Backend) *ContentRepository {
	return &ContentRepository{backend: backend}
}

// Upload stores r under key.
func (c *ContentRepository) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	return c.backend.Upload(ctx, key, r, contentType)
}

// BulkDelete removes keys; an empty set never reaches the backend.
func (c *ContentRepository) BulkDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.backend.BulkDelete(ctx, keys)
}

// PresignedDownloadLink returns a temporary link that downloads key under
// fileName.
func (c *ContentRepository) PresignedDownloadLink(ctx context.Context, key, contentType, fileName string) (string, error) {
	return c.backend.TemporaryLink(ctx, key, storage.LinkOptions{
		ContentType:        contentType,
		ContentDisposition: storage.AttachmentDisposition(fileName),
	})
}

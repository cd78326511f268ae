// Package storagetest provides an in-memory storage.Backend for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"sync"

	"github.com/sharethis/service/internal/storage"
)

// BaseURL is the scheme and host of links issued by Backend.
const BaseURL = "http://storage.internal:9000"

// Backend keeps objects in memory and records every call. Set the *Err
// fields to make the matching operation fail with storage.ErrStorage.
type Backend struct {
	mu      sync.Mutex
	objects map[string][]byte

	UploadErr error
	LinkErr   error
	DeleteErr error

	Uploads     []string
	Links       []string
	BulkDeletes [][]string
}

// New returns an empty Backend.
func New() *Backend {
	return &Backend{objects: make(map[string][]byte)}
}

var _ storage.Backend = (*Backend)(nil)

// Upload stores the stream under key.
func (b *Backend) Upload(_ context.Context, key string, r io.Reader, _ string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Uploads = append(b.Uploads, key)
	if b.UploadErr != nil {
		return fmt.Errorf("%w: %w", storage.ErrStorage, b.UploadErr)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("%w: read upload: %w", storage.ErrStorage, err)
	}
	b.objects[key] = data
	return nil
}

// TemporaryLink returns a fake presigned URL that embeds key and opts.
func (b *Backend) TemporaryLink(_ context.Context, key string, opts storage.LinkOptions) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.Links = append(b.Links, key)
	if b.LinkErr != nil {
		return "", fmt.Errorf("%w: %w", storage.ErrStorage, b.LinkErr)
	}
	q := url.Values{}
	q.Set("response-content-type", opts.ContentType)
	q.Set("response-content-disposition", opts.ContentDisposition)
	q.Set("X-Amz-Expires", fmt.Sprint(int(storage.LinkTTL.Seconds())))
	return BaseURL + "/bucket/" + url.PathEscape(key) + "?" + q.Encode(), nil
}

// BulkDelete removes keys. Every call is recorded, empty ones included, so
// tests can tell whether a caller reached the backend at all.
func (b *Backend) BulkDelete(_ context.Context, keys []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.BulkDeletes = append(b.BulkDeletes, append([]string(nil), keys...))
	if b.DeleteErr != nil {
		return fmt.Errorf("%w: %w", storage.ErrStorage, b.DeleteErr)
	}
	for _, key := range keys {
		delete(b.objects, key)
	}
	return nil
}

// Object returns the stored bytes for key.
func (b *Backend) Object(key string) ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, ok := b.objects[key]
	return bytes.Clone(data), ok
}

// Len reports how many objects are stored.
func (b *Backend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// Package storage defines the interface for object storage operations.
// Swap implementations by changing the provider selected at startup:
// the MinIO implementation works with any S3-compatible provider (AWS S3,
// MinIO), the Azure implementation with Azure Blob Storage.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// LinkTTL is how long a temporary link stays valid.
const LinkTTL = 2 * time.Minute

// ErrStorage wraps every failure reported by an object storage backend.
var ErrStorage = errors.New("object storage failure")

// LinkOptions are response overrides baked into a temporary link.
type LinkOptions struct {
	// ContentType is served as the response Content-Type.
	ContentType string
	// ContentDisposition is served as the response Content-Disposition,
	// e.g. `attachment; filename=report.pdf`.
	ContentDisposition string
}

// Backend stores objects in a single bucket or container.
type Backend interface {
	// Upload streams r to the store under key, replacing any existing object.
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	// TemporaryLink returns a URL that allows an unauthenticated read of key
	// for LinkTTL.
	TemporaryLink(ctx context.Context, key string, opts LinkOptions) (string, error)
	// BulkDelete removes keys. Missing keys are not an error and an empty
	// set makes no request.
	BulkDelete(ctx context.Context, keys []string) error
}

// AttachmentDisposition builds a Content-Disposition value that makes
// browsers download the object under fileName.
func AttachmentDisposition(fileName string) string {
	return "attachment; filename=" + fileName
}

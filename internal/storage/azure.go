package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
	"golang.org/x/sync/errgroup"
)

// deleteConcurrency caps parallel DeleteBlob calls in BulkDelete.
const deleteConcurrency = 8

// AzureConfig configures an AzureBackend.
type AzureConfig struct {
	AccountName string
	AccountKey  string
	// ServiceURL overrides the public endpoint, e.g. for Azurite.
	ServiceURL string
	Container  string
}

// AzureBackend implements Backend on an Azure Blob Storage container.
type AzureBackend struct {
	client    *azblob.Client
	cred      *azblob.SharedKeyCredential
	container string
	logger    *slog.Logger
}

// NewAzureBackend creates a blob client authorized with the account key,
// ensures the container exists and returns a ready-to-use AzureBackend.
func NewAzureBackend(ctx context.Context, cfg AzureConfig, logger *slog.Logger) (*AzureBackend, error) {
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, fmt.Errorf("create azure credential: %w", err)
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	}
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}

	b := &AzureBackend{
		client:    client,
		cred:      cred,
		container: cfg.Container,
		logger:    logger.With(slog.String("component", "storage"), slog.String("container", cfg.Container)),
	}
	if err := b.createContainer(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *AzureBackend) createContainer(ctx context.Context) error {
	_, err := b.client.CreateContainer(ctx, b.container, nil)
	switch {
	case err == nil:
		b.logger.Info("storage: created container")
		return nil
	case bloberror.HasCode(err, bloberror.ContainerAlreadyExists):
		b.logger.Debug("storage: container already exists")
		return nil
	default:
		return fmt.Errorf("%w: create container %q: %w", ErrStorage, b.container, err)
	}
}

// Upload streams r to a block blob named key.
func (b *AzureBackend) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	_, err := b.client.UploadStream(ctx, b.container, key, r, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		b.logger.Warn("storage: upload failed", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("%w: upload blob %q: %w", ErrStorage, key, err)
	}
	return nil
}

// TemporaryLink signs a read-only blob SAS for key.
func (b *AzureBackend) TemporaryLink(_ context.Context, key string, opts LinkOptions) (string, error) {
	params, err := sas.BlobSignatureValues{
		Protocol:           sas.ProtocolHTTPSandHTTP,
		ExpiryTime:         time.Now().UTC().Add(LinkTTL),
		Permissions:        (&sas.BlobPermissions{Read: true}).String(),
		ContainerName:      b.container,
		BlobName:           key,
		ContentType:        opts.ContentType,
		ContentDisposition: opts.ContentDisposition,
	}.SignWithSharedKey(b.cred)
	if err != nil {
		b.logger.Warn("storage: sas creation failed", slog.String("key", key), slog.Any("error", err))
		return "", fmt.Errorf("%w: sign sas for %q: %w", ErrStorage, key, err)
	}

	blobURL := b.client.ServiceClient().NewContainerClient(b.container).NewBlobClient(key).URL()
	return blobURL + "?" + params.Encode(), nil
}

// BulkDelete deletes keys concurrently. Every key is attempted; failures
// are reported together.
func (b *AzureBackend) BulkDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(deleteConcurrency)
	for _, key := range keys {
		g.Go(func() error {
			_, err := b.client.DeleteBlob(gctx, b.container, key, nil)
			if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
				mu.Lock()
				errs = append(errs, fmt.Errorf("delete %q: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(errs) > 0 {
		b.logger.Warn("storage: bulk delete failed", slog.Int("failed", len(errs)), slog.Int("requested", len(keys)))
		return fmt.Errorf("%w: bulk delete: %w", ErrStorage, errors.Join(errs...))
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// uploadPartSize bounds the memory used to buffer streams of unknown length.
const uploadPartSize = 16 << 20

// MinioConfig configures a MinioBackend.
type MinioConfig struct {
	// URL of the S3 endpoint, e.g. "https://s3.eu-central-1.amazonaws.com"
	// or "http://minio:9000". The scheme decides whether TLS is used.
	URL       string
	AccessKey string
	SecretKey string
	Bucket    string
	// Region is sent with signed requests. Setting it also spares presigning
	// a bucket-location lookup.
	Region string
}

// MinioBackend implements Backend using a MinIO (or any S3-compatible) client.
type MinioBackend struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewMinioBackend creates a MinIO client, ensures the bucket exists and
// returns a ready-to-use MinioBackend.
func NewMinioBackend(ctx context.Context, cfg MinioConfig, logger *slog.Logger) (*MinioBackend, error) {
	endpoint, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse storage url %q: %w", cfg.URL, err)
	}
	if endpoint.Host == "" {
		return nil, fmt.Errorf("storage url %q has no host", cfg.URL)
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: endpoint.Scheme == "https",
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	b := &MinioBackend{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With(slog.String("component", "storage"), slog.String("bucket", cfg.Bucket)),
	}
	if err := b.createBucket(ctx, region); err != nil {
		return nil, err
	}
	return b, nil
}

// createBucket creates the bucket, treating "already exists" as success.
func (b *MinioBackend) createBucket(ctx context.Context, region string) error {
	err := b.client.MakeBucket(ctx, b.bucket, minio.MakeBucketOptions{Region: region})
	if err == nil {
		b.logger.Info("storage: created bucket")
		return nil
	}

	switch minio.ToErrorResponse(err).Code {
	case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
		b.logger.Debug("storage: bucket already exists")
		return nil
	}
	return fmt.Errorf("%w: create bucket %q: %w", ErrStorage, b.bucket, err)
}

// Upload streams r to the bucket under key.
func (b *MinioBackend) Upload(ctx context.Context, key string, r io.Reader, contentType string) error {
	_, err := b.client.PutObject(ctx, b.bucket, key, r, -1, minio.PutObjectOptions{
		ContentType: contentType,
		PartSize:    uploadPartSize,
	})
	if err != nil {
		b.logger.Warn("storage: upload failed", slog.String("key", key), slog.Any("error", err))
		return fmt.Errorf("%w: put object %q: %w", ErrStorage, key, err)
	}
	return nil
}

// TemporaryLink presigns a GET for key with response header overrides.
func (b *MinioBackend) TemporaryLink(ctx context.Context, key string, opts LinkOptions) (string, error) {
	params := make(url.Values)
	if opts.ContentDisposition != "" {
		params.Set("response-content-disposition", opts.ContentDisposition)
	}
	if opts.ContentType != "" {
		params.Set("response-content-type", opts.ContentType)
	}

	u, err := b.client.PresignedGetObject(ctx, b.bucket, key, LinkTTL, params)
	if err != nil {
		b.logger.Warn("storage: presigned url creation failed", slog.String("key", key), slog.Any("error", err))
		return "", fmt.Errorf("%w: presign %q: %w", ErrStorage, key, err)
	}
	return u.String(), nil
}

// BulkDelete removes keys with multi-object delete requests.
func (b *MinioBackend) BulkDelete(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	objects := make(chan minio.ObjectInfo, len(keys))
	for _, key := range keys {
		objects <- minio.ObjectInfo{Key: key}
	}
	close(objects)

	var errs []error
	for rerr := range b.client.RemoveObjects(ctx, b.bucket, objects, minio.RemoveObjectsOptions{}) {
		if minio.ToErrorResponse(rerr.Err).Code == "NoSuchKey" {
			continue
		}
		errs = append(errs, fmt.Errorf("remove %q: %w", rerr.ObjectName, rerr.Err))
	}
	if len(errs) > 0 {
		b.logger.Warn("storage: bulk delete failed", slog.Int("failed", len(errs)), slog.Int("requested", len(keys)))
		return fmt.Errorf("%w: bulk delete: %w", ErrStorage, errors.Join(errs...))
	}
	return nil
}

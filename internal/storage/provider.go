package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Provider names an object storage implementation.
type Provider string

const (
	// ProviderS3 is any S3-compatible service, served by MinioBackend.
	ProviderS3 Provider = "S3"
	// ProviderAzure is Azure Blob Storage, served by AzureBackend.
	ProviderAzure Provider = "AZURE"
)

// ParseProvider maps a configuration value to a Provider. AWS and MINIO are
// accepted as aliases of S3.
func ParseProvider(s string) (Provider, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "S3", "AWS", "MINIO":
		return ProviderS3, nil
	case "AZURE":
		return ProviderAzure, nil
	default:
		return "", fmt.Errorf("invalid object storage provider %q, valid options are: AWS, S3, MINIO, AZURE", s)
	}
}

// Config selects and configures one backend.
type Config struct {
	Provider Provider
	S3       MinioConfig
	Azure    AzureConfig
}

// New builds the backend selected by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (Backend, error) {
	switch cfg.Provider {
	case ProviderS3:
		return NewMinioBackend(ctx, cfg.S3, logger)
	case ProviderAzure:
		return NewAzureBackend(ctx, cfg.Azure, logger)
	default:
		return nil, fmt.Errorf("unsupported object storage provider %q", cfg.Provider)
	}
}

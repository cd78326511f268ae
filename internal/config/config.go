// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/joho/godotenv"

	"github.com/sharethis/service/internal/storage"
)

// ErrInvalid is returned when the environment does not describe a usable
// configuration.
var ErrInvalid = errors.New("improperly configured")

// Database drivers accepted in DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all runtime configuration for the service.
type Config struct {
	AppEnv       string `env:"APP_ENV,default=development"`
	Port         string `env:"PORT,default=8080"`
	Debug        bool   `env:"DEBUG,default=false"`
	WebAppDomain string `env:"WEB_APP_DOMAIN,default=https://www.demo.sharethis.space"`

	DBDriver           string `env:"DB_DRIVER,default=postgres"`
	DBConnectionString string `env:"DB_CONNECTION_STRING"`

	// Object storage. Provider is one of AWS, S3, MINIO or AZURE.
	StorageProvider      string `env:"OBJECT_STORAGE_PROVIDER"`
	StorageAccessibleURL string `env:"OBJECT_STORAGE_ACCESSIBLE_URL"`

	AWSBucketURL  string `env:"AWS_BUCKET_URL"`
	AWSAccessKey  string `env:"AWS_ACCESS_KEY"`
	AWSSecretKey  string `env:"AWS_SECRET_KEY"`
	AWSBucketName string `env:"AWS_BUCKET_NAME"`
	AWSRegion     string `env:"AWS_REGION"`

	AzureAccountName string `env:"AZURE_ACCOUNT_NAME"`
	AzureAccountKey  string `env:"AZURE_ACCOUNT_KEY"`
	AzureServiceURL  string `env:"AZURE_SERVICE_URL"`
	AzureContainer   string `env:"AZURE_BLOB_NAME"`

	// MailService is "mock" or the URL of the notification service.
	MailService string `env:"MAIL_SERVICE,default=mock"`

	ReaperIntervalSeconds int    `env:"REAPER_INTERVAL_SECONDS,default=5"`
	ReaperMetricsAddr     string `env:"REAPER_METRICS_ADDR"`

	MaxUploadMemoryMB int `env:"MAX_UPLOAD_MEMORY_MB,default=32"`

	provider storage.Provider
}

// Load reads configuration from a .env file (if present) and environment
// variables, then validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var problems []string
	missing := func(pairs ...string) {
		for i := 0; i < len(pairs); i += 2 {
			if pairs[i+1] == "" {
				problems = append(problems, pairs[i]+" is required")
			}
		}
	}

	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER %q is not one of postgres, sqlite", c.DBDriver))
	}
	missing("DB_CONNECTION_STRING", c.DBConnectionString)

	provider, err := storage.ParseProvider(c.StorageProvider)
	if err != nil {
		problems = append(problems, err.Error())
	}
	c.provider = provider
	switch provider {
	case storage.ProviderS3:
		missing(
			"AWS_BUCKET_URL", c.AWSBucketURL,
			"AWS_ACCESS_KEY", c.AWSAccessKey,
			"AWS_SECRET_KEY", c.AWSSecretKey,
			"AWS_BUCKET_NAME", c.AWSBucketName,
		)
	case storage.ProviderAzure:
		missing(
			"AZURE_ACCOUNT_NAME", c.AzureAccountName,
			"AZURE_ACCOUNT_KEY", c.AzureAccountKey,
			"AZURE_BLOB_NAME", c.AzureContainer,
		)
	}

	if c.ReaperIntervalSeconds < 1 {
		problems = append(problems, "REAPER_INTERVAL_SECONDS must be at least 1")
	}
	if c.MaxUploadMemoryMB < 1 {
		problems = append(problems, "MAX_UPLOAD_MEMORY_MB must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Storage returns the backend configuration for the selected provider.
func (c *Config) Storage() storage.Config {
	return storage.Config{
		Provider: c.provider,
		S3: storage.MinioConfig{
			URL:       c.AWSBucketURL,
			AccessKey: c.AWSAccessKey,
			SecretKey: c.AWSSecretKey,
			Bucket:    c.AWSBucketName,
			Region:    c.AWSRegion,
		},
		Azure: storage.AzureConfig{
			AccountName: c.AzureAccountName,
			AccountKey:  c.AzureAccountKey,
			ServiceURL:  c.AzureServiceURL,
			Container:   c.AzureContainer,
		},
	}
}

// ReaperInterval is the pause between reaper ticks.
func (c *Config) ReaperInterval() time.Duration {
	return time.Duration(c.ReaperIntervalSeconds) * time.Second
}

// MaxUploadMemory is the multipart in-memory limit in bytes.
func (c *Config) MaxUploadMemory() int64 {
	return int64(c.MaxUploadMemoryMB) << 20
}

package storage

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
)

func setupMinio(t *testing.T) *MinioBackend {
	t.Helper()

	if os.Getenv("TEST_INTEGRATION") == "" {
		t.Skip("skipping integration test: TEST_INTEGRATION is not set")
	}

	ctx := context.Background()
	container, err := tcminio.Run(ctx,
		"minio/minio:RELEASE.2024-01-16T16-07-38Z",
		tcminio.WithUsername("sharethis"),
		tcminio.WithPassword("sharethis-secret"),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("terminate container: %v", err)
		}
	})

	hostPort, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := MinioConfig{
		URL:       "http://" + hostPort,
		AccessKey: "sharethis",
		SecretKey: "sharethis-secret",
		Bucket:    "uploads",
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	backend, err := NewMinioBackend(ctx, cfg, logger)
	require.NoError(t, err)

	// A second backend on the same bucket must swallow "already exists".
	_, err = NewMinioBackend(ctx, cfg, logger)
	require.NoError(t, err)

	return backend
}

func TestMinioBackend_RoundTrip(t *testing.T) {
	backend := setupMinio(t)
	ctx := context.Background()

	require.NoError(t, backend.Upload(ctx, "k1", strings.NewReader("hello"), "text/plain"))
	require.NoError(t, backend.Upload(ctx, "k1", strings.NewReader("hello again"), "text/plain"))

	link, err := backend.TemporaryLink(ctx, "k1", LinkOptions{
		ContentType:        "text/plain",
		ContentDisposition: AttachmentDisposition("greeting.txt"),
	})
	require.NoError(t, err)
	assert.Contains(t, link, "/uploads/k1")

	resp, err := http.Get(link)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello again", string(body))
	assert.Equal(t, "attachment; filename=greeting.txt", resp.Header.Get("Content-Disposition"))

	require.NoError(t, backend.BulkDelete(ctx, nil))
	require.NoError(t, backend.BulkDelete(ctx, []string{"k1", "never-uploaded"}))

	_, err = backend.client.StatObject(ctx, backend.bucket, "k1", minio.StatObjectOptions{})
	assert.Error(t, err)
}

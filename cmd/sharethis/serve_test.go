package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharethis/service/internal/config"
	"github.com/sharethis/service/internal/metadata"
	"github.com/sharethis/service/internal/notify"
	"github.com/sharethis/service/internal/share"
	"github.com/sharethis/service/internal/storage/storagetest"
	"github.com/sharethis/service/internal/uow"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store, err := metadata.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	factory := uow.NewFactory(store, storagetest.New(), logger)
	downloader, err := share.NewDownloader(factory, "", logger)
	require.NoError(t, err)
	h := share.NewHandler(
		share.NewUploader(factory, notify.NewMock(logger), "https://www.demo.sharethis.space", logger),
		downloader, 1<<20, logger,
	)

	a := &app{cfg: &config.Config{}, logger: logger}
	return a.router(h, store)
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRouter_CORSOnAPI(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/download/missing", nil)
	req.Header.Set("Origin", "https://www.demo.sharethis.space")
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sharethis_http_requests_total")
	assert.Contains(t, rec.Body.String(), "sharethis_reaper_ticks_total")
}

func TestRouter_SwaggerDoc(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/download/{key}")
}

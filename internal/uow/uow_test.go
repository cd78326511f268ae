package uow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharethis/service/internal/metadata"
	"github.com/sharethis/service/internal/storage"
	"github.com/sharethis/service/internal/storage/storagetest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func setup(t *testing.T) (*Factory, *metadata.SQLiteStore, *storagetest.Backend) {
	t.Helper()

	store, err := metadata.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	backend := storagetest.New()
	return NewFactory(store, backend, discard), store, backend
}

func record(key string, expires time.Time) *metadata.Record {
	return &metadata.Record{Key: key, Name: key + ".txt", ContentType: "text/plain", ExpirationDate: expires}
}

func exists(t *testing.T, f *Factory, key string, now time.Time) bool {
	t.Helper()

	var found bool
	err := f.Run(context.Background(), func(ctx context.Context, u *UnitOfWork) error {
		_, err := u.Records.RetrieveNonExpiredByKey(ctx, key, now)
		if errors.Is(err, metadata.ErrNotFound) {
			return nil
		}
		found = err == nil
		return err
	})
	require.NoError(t, err)
	return found
}

func TestRun_CommitsOnSuccess(t *testing.T) {
	f, _, backend := setup(t)
	now := time.Now()

	err := f.Run(context.Background(), func(ctx context.Context, u *UnitOfWork) error {
		if err := u.Records.Add(ctx, record("k", now.Add(time.Hour))); err != nil {
			return err
		}
		return u.Content.Upload(ctx, "k", strings.NewReader("data"), "text/plain")
	})
	require.NoError(t, err)

	assert.True(t, exists(t, f, "k", now))
	data, ok := backend.Object("k")
	require.True(t, ok)
	assert.Equal(t, "data", string(data))
}

func TestRun_RollsBackWhenUploadFails(t *testing.T) {
	f, _, backend := setup(t)
	backend.UploadErr = errors.New("connection reset")
	now := time.Now()

	err := f.Run(context.Background(), func(ctx context.Context, u *UnitOfWork) error {
		if err := u.Records.Add(ctx, record("k", now.Add(time.Hour))); err != nil {
			return err
		}
		return u.Content.Upload(ctx, "k", strings.NewReader("data"), "text/plain")
	})
	require.ErrorIs(t, err, storage.ErrStorage)

	assert.False(t, exists(t, f, "k", now), "no dangling record after failed upload")
}

func TestRun_RollsBackAndRepanics(t *testing.T) {
	f, _, _ := setup(t)
	now := time.Now()

	assert.PanicsWithValue(t, "boom", func() {
		_ = f.Run(context.Background(), func(ctx context.Context, u *UnitOfWork) error {
			require.NoError(t, u.Records.Add(ctx, record("k", now.Add(time.Hour))))
			panic("boom")
		})
	})

	// The single SQLite connection is free again only if the tx was released.
	assert.False(t, exists(t, f, "k", now))
}

func TestRun_ExplicitCommitSurvivesLaterError(t *testing.T) {
	f, _, backend := setup(t)
	backend.DeleteErr = errors.New("throttled")
	now := time.Now()

	require.NoError(t, f.Run(context.Background(), func(ctx context.Context, u *UnitOfWork) error {
		return u.Records.Add(ctx, record("old", now.Add(-time.Minute)))
	}))

	var swept []string
	err := f.Run(context.Background(), func(ctx context.Context, u *UnitOfWork) error {
		keys, err := u.Records.DeleteExpired(ctx, now)
		if err != nil {
			return err
		}
		swept = keys
		if err := u.Commit(ctx); err != nil {
			return err
		}
		return u.Content.BulkDelete(ctx, keys)
	})
	require.ErrorIs(t, err, storage.ErrStorage)
	assert.Equal(t, []string{"old"}, swept)

	// The metadata deletion stayed committed.
	err = f.Run(context.Background(), func(ctx context.Context, u *UnitOfWork) error {
		keys, err := u.Records.DeleteExpired(ctx, now)
		assert.Empty(t, keys)
		return err
	})
	require.NoError(t, err)
}

func TestContentRepository_EmptyBulkDeleteSkipsBackend(t *testing.T) {
	backend := storagetest.New()
	repo := NewContentRepository(backend)

	require.NoError(t, repo.BulkDelete(context.Background(), nil))
	require.NoError(t, repo.BulkDelete(context.Background(), []string{}))
	assert.Empty(t, backend.BulkDeletes)

	require.NoError(t, repo.BulkDelete(context.Background(), []string{"a"}))
	assert.Equal(t, [][]string{{"a"}}, backend.BulkDeletes)
}

func TestContentRepository_PresignedDownloadLink(t *testing.T) {
	backend := storagetest.New()
	repo := NewContentRepository(backend)

	link, err := repo.PresignedDownloadLink(context.Background(), "abc", "image/png", "cat.png")
	require.NoError(t, err)
	assert.Contains(t, link, "/abc?")
	assert.Contains(t, link, "response-content-disposition=attachment%3B+filename%3Dcat.png")
	assert.Contains(t, link, "response-content-type=image%2Fpng")
}

type failingStore struct{ metadata.Store }

func (failingStore) Begin(context.Context) (metadata.Tx, error) {
	return nil, metadata.ErrPersistence
}

func TestRun_BeginFailure(t *testing.T) {
	f := NewFactory(failingStore{}, storagetest.New(), discard)
	called := false

	err := f.Run(context.Background(), func(context.Context, *UnitOfWork) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, metadata.ErrPersistence)
	assert.False(t, called)
}

package share

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sharethis/service/internal/metadata"
	"github.com/sharethis/service/internal/storage/storagetest"
	"github.com/sharethis/service/internal/uow"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// clock is a settable time source shared by the coordinators under test.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingNotifier remembers calls and returns err.
type recordingNotifier struct {
	calls [][2]string
	err   error
}

func (n *recordingNotifier) NewUpload(_ context.Context, url, email string) error {
	n.calls = append(n.calls, [2]string{url, email})
	return n.err
}

type fixture struct {
	store      *metadata.SQLiteStore
	backend    *storagetest.Backend
	factory    *uow.Factory
	uploader   *Uploader
	downloader *Downloader
	notifier   *recordingNotifier
	clock      *clock
}

func newFixture(t *testing.T, accessibleURL string) *fixture {
	t.Helper()

	store, err := metadata.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	f := &fixture{
		store:    store,
		backend:  storagetest.New(),
		notifier: &recordingNotifier{},
		clock:    &clock{now: time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)},
	}
	f.factory = uow.NewFactory(store, f.backend, discard)

	f.uploader = NewUploader(f.factory, f.notifier, "https://www.demo.sharethis.space", discard)
	f.uploader.now = f.clock.Now

	f.downloader, err = NewDownloader(f.factory, accessibleURL, discard)
	require.NoError(t, err)
	f.downloader.now = f.clock.Now

	return f
}

var errInjected = errors.New("injected failure")

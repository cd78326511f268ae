package share

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/sharethis/service/internal/uow"
)

// DownloadResult is what a recipient needs to fetch and decrypt content.
type DownloadResult struct {
	URL              string  `json:"url"`
	EncryptionMethod *string `json:"encryption_method"`
	FileName         string  `json:"file_name"`
}

// Downloader issues temporary links for live content.
type Downloader struct {
	uow        *uow.Factory
	accessible *url.URL
	now        func() time.Time
	logger     *slog.Logger
}

// NewDownloader creates a Downloader. When accessibleURL is not empty, the
// scheme and host of every issued link are replaced with its own.
func NewDownloader(factory *uow.Factory, accessibleURL string, logger *slog.Logger) (*Downloader, error) {
	d := &Downloader{
		uow:    factory,
		now:    time.Now,
		logger: logger.With(slog.String("component", "download")),
	}
	if accessibleURL != "" {
		u, err := url.Parse(accessibleURL)
		if err != nil {
			return nil, fmt.Errorf("parse accessible url %q: %w", accessibleURL, err)
		}
		d.accessible = u
	}
	return d, nil
}

// Download looks up the live record for key and returns a temporary link to
// its content. Unknown and expired keys yield metadata.ErrNotFound before
// the backend is contacted.
func (d *Downloader) Download(ctx context.Context, key string) (*DownloadResult, error) {
	var res *DownloadResult
	err := d.uow.Run(ctx, func(ctx context.Context, w *uow.UnitOfWork) error {
		rec, err := w.Records.RetrieveNonExpiredByKey(ctx, key, d.now())
		if err != nil {
			return err
		}
		link, err := w.Content.PresignedDownloadLink(ctx, rec.Key, rec.ContentType, rec.Name)
		if err != nil {
			return err
		}
		res = &DownloadResult{
			URL:              link,
			EncryptionMethod: rec.EncryptionMethod,
			FileName:         rec.Name,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("download %q: %w", key, err)
	}

	res.URL, err = rewriteHost(res.URL, d.accessible)
	if err != nil {
		return nil, err
	}
	d.logger.Debug("download link issued", slog.String("key", key))
	return res, nil
}

// rewriteHost swaps the scheme and host of link for those of target,
// leaving path and query alone. A nil target returns link unchanged.
func rewriteHost(link string, target *url.URL) (string, error) {
	if target == nil {
		return link, nil
	}
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("parse storage link: %w", err)
	}
	u.Scheme = target.Scheme
	u.Host = target.Host
	return u.String(), nil
}

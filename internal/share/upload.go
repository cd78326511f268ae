package share

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/sharethis/service/internal/metadata"
	"github.com/sharethis/service/internal/uow"
)

// sniffLen is how much of a stream is inspected to detect its content type.
const sniffLen = 3072

// Notifier tells a recipient about a new upload.
type Notifier interface {
	NewUpload(ctx context.Context, url, email string) error
}

// UploadInput is one upload request. TimeToLive must already be validated.
type UploadInput struct {
	Content          io.Reader
	FileName         string
	ContentType      string
	TimeToLive       time.Duration
	EncryptionMethod *string
	NotifyEmail      string
}

// Uploader stores new content and its record.
type Uploader struct {
	uow      *uow.Factory
	notifier Notifier
	keyURL   string
	now      func() time.Time
	logger   *slog.Logger
}

// NewUploader creates an Uploader. webAppDomain is the base of the link sent
// in notification mails.
func NewUploader(factory *uow.Factory, notifier Notifier, webAppDomain string, logger *slog.Logger) *Uploader {
	return &Uploader{
		uow:      factory,
		notifier: notifier,
		keyURL:   webAppDomain + "/key/",
		now:      time.Now,
		logger:   logger.With(slog.String("component", "upload")),
	}
}

// Upload stores in.Content under a new key and returns the key.
func (u *Uploader) Upload(ctx context.Context, in UploadInput) (string, error) {
	key := NewKey()

	content, contentType, err := resolveContentType(in.Content, in.ContentType, in.FileName)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	counter := &countingReader{r: content}

	rec := &metadata.Record{
		Key:              key,
		Name:             in.FileName,
		ContentType:      contentType,
		ExpirationDate:   u.now().UTC().Add(in.TimeToLive),
		EncryptionMethod: in.EncryptionMethod,
	}

	uploaded := false
	err = u.uow.Run(ctx, func(ctx context.Context, w *uow.UnitOfWork) error {
		if err := w.Records.Add(ctx, rec); err != nil {
			return err
		}
		if err := w.Content.Upload(ctx, key, counter, contentType); err != nil {
			return err
		}
		uploaded = true
		return nil
	})
	if err != nil {
		if uploaded {
			u.logger.Warn("record commit failed after upload, object is orphaned",
				slog.String("key", key), slog.Any("error", err))
		}
		return "", fmt.Errorf("upload %q: %w", in.FileName, err)
	}

	u.logger.Info("content uploaded",
		slog.String("key", key),
		slog.String("content_type", contentType),
		slog.String("size", humanize.Bytes(uint64(counter.n))),
		slog.Time("expires", rec.ExpirationDate),
	)

	u.notify(ctx, key, in.NotifyEmail)
	return key, nil
}

// notify sends the new-upload mail. Failures never affect the upload.
func (u *Uploader) notify(ctx context.Context, key, email string) {
	if email == "" || u.notifier == nil {
		return
	}
	if err := u.notifier.NewUpload(ctx, u.keyURL+key, email); err != nil {
		u.logger.Error("could not send new upload mail", slog.String("key", key), slog.Any("error", err))
	}
}

// resolveContentType keeps a declared type, otherwise sniffs the head of r
// and falls back to the file extension. The returned reader replays the
// sniffed bytes.
func resolveContentType(r io.Reader, declared, fileName string) (io.Reader, string, error) {
	if declared != "" && declared != "application/octet-stream" {
		return r, declared, nil
	}

	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", err
	}

	detected := mimetype.Detect(head)
	if !detected.Is("application/octet-stream") {
		return br, detected.String(), nil
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fileName)); byExt != "" {
		return br, byExt, nil
	}
	return br, "application/octet-stream", nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// Package uow binds one metadata transaction and the object storage backend
// for the duration of a single operation.
//
// Object storage calls are not part of the transaction and are never rolled
// back. Callers order their work so that a failure leaves an orphan object
// rather than a record pointing at missing content:
//
//   - upload: add the record, upload the object, commit;
//   - delete: delete the records, commit, then delete the objects.
package uow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sharethis/service/internal/metadata"
	"github.com/sharethis/service/internal/storage"
)

// UnitOfWork is valid only inside the function passed to Factory.Run.
type UnitOfWork struct {
	// Records is bound to the unit's transaction.
	Records metadata.Repository
	// Content is bound directly to the storage backend.
	Content *ContentRepository

	tx   metadata.Tx
	done bool
}

// Commit commits the transaction before the scope ends. After Commit the
// scope exit has nothing left to do.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Commit(ctx)
}

// Factory opens units of work on one metadata store and one backend.
type Factory struct {
	store   metadata.Store
	content *ContentRepository
	logger  *slog.Logger
}

// NewFactory creates a Factory.
func NewFactory(store metadata.Store, backend storage.Backend, logger *slog.Logger) *Factory {
	return &Factory{
		store:   store,
		content: NewContentRepository(backend),
		logger:  logger.With(slog.String("component", "uow")),
	}
}

// Run opens a transaction and calls fn with a unit of work bound to it.
// When fn returns nil the transaction is committed, otherwise it is rolled
// back and fn's error is returned. A panic in fn rolls back and re-panics.
// The transaction is released on every path.
func (f *Factory) Run(ctx context.Context, fn func(ctx context.Context, u *UnitOfWork) error) (err error) {
	tx, err := f.store.Begin(ctx)
	if err != nil {
		return err
	}
	u := &UnitOfWork{
		Records: tx.Records(),
		Content: f.content,
		tx:      tx,
	}

	defer func() {
		if p := recover(); p != nil {
			f.rollback(ctx, u)
			panic(p)
		}
	}()

	if err := fn(ctx, u); err != nil {
		f.rollback(ctx, u)
		return err
	}
	if err := u.Commit(ctx); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	f.logger.Debug("uow commit")
	return nil
}

// rollback ends the transaction if it is still open. Rollback errors are
// logged; the caller's error is what gets returned.
func (f *Factory) rollback(ctx context.Context, u *UnitOfWork) {
	if u.done {
		return
	}
	u.done = true
	// The rollback must run even if ctx was cancelled mid-operation.
	if err := u.tx.Rollback(context.WithoutCancel(ctx)); err != nil {
		f.logger.Error("uow rollback failed", slog.Any("error", err))
		return
	}
	f.logger.Debug("uow rollback")
}

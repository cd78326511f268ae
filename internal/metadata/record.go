// Package metadata persists content records: the rows that describe each
// upload and decide when it expires.
package metadata

import (
	"context"
	"errors"
	"time"
)

// Record describes one upload. Key doubles as the object name in the
// storage backend.
type Record struct {
	Key              string
	Name             string
	ContentType      string
	ExpirationDate   time.Time
	EncryptionMethod *string
}

// Expired reports whether the record is no longer downloadable at now.
func (r *Record) Expired(now time.Time) bool {
	return !r.ExpirationDate.After(now)
}

var (
	// ErrNotFound is returned when no live record matches a key.
	ErrNotFound = errors.New("content record not found")

	// ErrDuplicateKey is returned when a record with the same key exists.
	ErrDuplicateKey = errors.New("content record key already exists")

	// ErrAmbiguousKey is returned when more than one record matches a key.
	// Keys are unique, so this is an internal consistency fault.
	ErrAmbiguousKey = errors.New("content record key is ambiguous")

	// ErrPersistence wraps every other failure of the metadata store.
	ErrPersistence = errors.New("metadata store failure")
)

// Repository is the set of record operations available inside a transaction.
type Repository interface {
	// Add inserts a new record.
	Add(ctx context.Context, rec *Record) error
	// DeleteByKey removes the record with key. Absent keys are not an error.
	DeleteByKey(ctx context.Context, key string) error
	// DeleteExpired removes every record with expiration_date <= now and
	// returns the removed keys. Selection and deletion are one statement.
	DeleteExpired(ctx context.Context, now time.Time) ([]string, error)
	// RetrieveNonExpiredByKey returns the record for key unless it is
	// missing or already expired at now.
	RetrieveNonExpiredByKey(ctx context.Context, key string, now time.Time) (*Record, error)
}

// Tx is one open metadata transaction.
type Tx interface {
	Records() Repository
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store opens transactions against the metadata database.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	Ping(ctx context.Context) error
	Close()
}

package metadata

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
)

//go:embed sqlite_schema.sql
var sqliteSchema string

// SQLiteStore keeps records in a SQLite database. It holds a single
// connection, so transactions are serialized; this suits local development
// and tests, not a multi-process deployment.
//
// Expiration dates are stored as Unix nanoseconds so comparisons do not
// depend on how timestamps are rendered as text.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens dsn (":memory:" or "file:path.db") and applies the schema.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrPersistence, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: apply sqlite schema: %w", ErrPersistence, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Begin opens a transaction on the store's connection.
func (s *SQLiteStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %w", ErrPersistence, err)
	}
	return &sqliteTx{tx: tx}, nil
}

// Ping checks that the database is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrPersistence, err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	_ = s.db.Close()
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) Records() Repository {
	return &sqliteRepository{tx: t.tx}
}

func (t *sqliteTx) Commit(context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

func (t *sqliteTx) Rollback(context.Context) error {
	err := t.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("%w: rollback: %w", ErrPersistence, err)
	}
	return nil
}

type sqliteRepository struct {
	tx *sql.Tx
}

func (r *sqliteRepository) Add(ctx context.Context, rec *Record) error {
	_, err := r.tx.ExecContext(ctx,
		`INSERT INTO content_meta (key, name, content_type, expiration_date, encryption_method)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.Key, rec.Name, rec.ContentType, rec.ExpirationDate.UnixNano(), rec.EncryptionMethod,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrDuplicateKey
		}
		return fmt.Errorf("%w: add record: %w", ErrPersistence, err)
	}
	return nil
}

func (r *sqliteRepository) DeleteByKey(ctx context.Context, key string) error {
	if _, err := r.tx.ExecContext(ctx, `DELETE FROM content_meta WHERE key = ?`, key); err != nil {
		return fmt.Errorf("%w: delete record %q: %w", ErrPersistence, key, err)
	}
	return nil
}

func (r *sqliteRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.tx.QueryContext(ctx,
		`DELETE FROM content_meta WHERE expiration_date <= ? RETURNING key`,
		now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: delete expired: %w", ErrPersistence, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("%w: scan expired key: %w", ErrPersistence, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: delete expired: %w", ErrPersistence, err)
	}
	return keys, nil
}

func (r *sqliteRepository) RetrieveNonExpiredByKey(ctx context.Context, key string, now time.Time) (*Record, error) {
	rows, err := r.tx.QueryContext(ctx,
		`SELECT key, name, content_type, expiration_date, encryption_method
		 FROM content_meta
		 WHERE key = ? AND expiration_date > ?
		 LIMIT 2`,
		key, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve record %q: %w", ErrPersistence, key, err)
	}
	defer rows.Close()

	var recs []*Record
	for rows.Next() {
		rec := &Record{}
		var expiresAt int64
		var encryption sql.NullString
		if err := rows.Scan(&rec.Key, &rec.Name, &rec.ContentType, &expiresAt, &encryption); err != nil {
			return nil, fmt.Errorf("%w: scan record %q: %w", ErrPersistence, key, err)
		}
		rec.ExpirationDate = time.Unix(0, expiresAt).UTC()
		if encryption.Valid {
			rec.EncryptionMethod = &encryption.String
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: retrieve record %q: %w", ErrPersistence, key, err)
	}
	return single(recs)
}

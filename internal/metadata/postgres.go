package metadata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps records in the content_meta table of a PostgreSQL
// database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a PostgresStore with the given connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Begin opens a transaction on a pooled connection.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: begin tx: %w", ErrPersistence, err)
	}
	return &postgresTx{tx: tx}, nil
}

// Ping checks that the database is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping: %w", ErrPersistence, err)
	}
	return nil
}

// Close releases the pool.
func (s *PostgresStore) Close() {
	s.db.Close()
}

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) Records() Repository {
	return &postgresRepository{tx: t.tx}
}

func (t *postgresTx) Commit(ctx context.Context) error {
	if err := t.tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrPersistence, err)
	}
	return nil
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("%w: rollback: %w", ErrPersistence, err)
	}
	return nil
}

// postgresRepository runs record queries inside one transaction.
type postgresRepository struct {
	tx pgx.Tx
}

func (r *postgresRepository) Add(ctx context.Context, rec *Record) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO content_meta (key, name, content_type, expiration_date, encryption_method)
		 VALUES ($1, $2, $3, $4, $5)`,
		rec.Key, rec.Name, rec.ContentType, rec.ExpirationDate.UTC(), rec.EncryptionMethod,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("%w: add record: %w", ErrPersistence, err)
	}
	return nil
}

func (r *postgresRepository) DeleteByKey(ctx context.Context, key string) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM content_meta WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("%w: delete record %q: %w", ErrPersistence, key, err)
	}
	return nil
}

func (r *postgresRepository) DeleteExpired(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := r.tx.Query(ctx,
		`DELETE FROM content_meta WHERE expiration_date <= $1 RETURNING key`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: delete expired: %w", ErrPersistence, err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%w: collect expired keys: %w", ErrPersistence, err)
	}
	return keys, nil
}

func (r *postgresRepository) RetrieveNonExpiredByKey(ctx context.Context, key string, now time.Time) (*Record, error) {
	// LIMIT 2 is enough to tell "one" from "more than one".
	rows, err := r.tx.Query(ctx,
		`SELECT key, name, content_type, expiration_date, encryption_method
		 FROM content_meta
		 WHERE key = $1 AND expiration_date > $2
		 LIMIT 2`,
		key, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: retrieve record %q: %w", ErrPersistence, key, err)
	}
	recs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*Record, error) {
		rec := &Record{}
		err := row.Scan(&rec.Key, &rec.Name, &rec.ContentType, &rec.ExpirationDate, &rec.EncryptionMethod)
		return rec, err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: scan record %q: %w", ErrPersistence, key, err)
	}
	return single(recs)
}

func single(recs []*Record) (*Record, error) {
	switch len(recs) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return recs[0], nil
	default:
		return nil, ErrAmbiguousKey
	}
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

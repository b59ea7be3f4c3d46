package db

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"foodcourt-backoffice/internal/domain"
)

// DB is the store handle the engines depend on. *pgxpool.Pool satisfies it;
// package tests script it with dbtest.Fake.
type DB interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnLifetime = time.Hour
	cfg.MaxConnIdleTime = 5 * time.Minute
	return pgxpool.NewWithConfig(ctx, cfg)
}

var retryBackoff = []time.Duration{20 * time.Millisecond, 100 * time.Millisecond, 500 * time.Millisecond}

// WithSerializableTx runs fn inside a serializable transaction. Serialization
// failures are retried up to three times with jittered backoff; after the
// last attempt the caller sees Conflict.
func WithSerializableTx(ctx context.Context, pool DB, fn func(ctx context.Context, tx pgx.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < len(retryBackoff); attempt++ {
		lastErr = runTx(ctx, pool, fn)
		if lastErr == nil {
			return nil
		}
		if !IsSerializationFailure(lastErr) {
			return lastErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sleepWithJitter(ctx, retryBackoff[attempt])
	}
	if IsSerializationFailure(lastErr) {
		return domain.Conflict("Concurrent update, retry the request")
	}
	return lastErr
}

func runTx(ctx context.Context, pool DB, fn func(ctx context.Context, tx pgx.Tx) error) error {
	tx, err := pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// IsSerializationFailure matches SQLSTATE 40001 (serialization failure) and
// 40P01 (deadlock detected).
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	return false
}

func sleepWithJitter(ctx context.Context, base time.Duration) {
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	select {
	case <-time.After(base + jitter):
	case <-ctx.Done():
	}
}

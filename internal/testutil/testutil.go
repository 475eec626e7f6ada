// Package testutil holds helpers shared by the integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/sethvargo/go-retry"
)

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 390254

// AcquireDBLock grabs a global advisory lock to serialize DB tests across
// packages sharing one database.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(context.Background(), "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema drops every object in the public schema, including the
// migration ledger, leaving an empty database.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "DROP SCHEMA public CASCADE; CREATE SCHEMA public"); err != nil {
		return fmt.Errorf("reset public schema: %w", err)
	}
	return nil
}

// DropTable drops a single table if it exists.
func DropTable(ctx context.Context, pool *pgxpool.Pool, table string) error {
	if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+pq.QuoteIdentifier(table)); err != nil {
		return fmt.Errorf("drop table %s: %w", table, err)
	}
	return nil
}

// WaitOptions bounds WaitFor.
type WaitOptions struct {
	Attempts uint64
	Interval time.Duration
}

// DefaultWait polls once a second for up to 100 attempts.
var DefaultWait = WaitOptions{Attempts: 100, Interval: time.Second}

// WaitFor calls check until it succeeds or the attempts run out, returning
// the last error.
func WaitFor(ctx context.Context, opts WaitOptions, check func(ctx context.Context) error) error {
	if opts.Attempts == 0 {
		opts.Attempts = DefaultWait.Attempts
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultWait.Interval
	}

	backoff := retry.WithMaxRetries(opts.Attempts-1, retry.NewConstant(opts.Interval))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := check(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// UniqueName generates a unique identifier for tests.
func UniqueName(prefix string) string {
	return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
}

//go:build integration

package migrator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/registra/registra/internal/apperr"
	"github.com/registra/registra/internal/metrics"
	"github.com/registra/registra/internal/testutil"
)

func newIntegrationEnv(t *testing.T) (context.Context, string, *pgxpool.Pool) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	unlock, err := testutil.AcquireDBLock(ctx, pool)
	require.NoError(t, err)
	t.Cleanup(func() { _ = unlock() })

	require.NoError(t, testutil.ResetSchema(ctx, pool))
	return ctx, dbURL, pool
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIntegrationMigrator_ListRunList(t *testing.T) {
	ctx, dbURL, pool := newIntegrationEnv(t)
	recorder := metrics.NewInMemory()
	m := New(Config{DatabaseURL: dbURL, Logger: quietLogger(), Metrics: recorder})

	pending, err := m.ListPending(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, pending)
	assert.Equal(t, "create_users", pending[0].Name)

	var usersTable *string
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('public.users')::text").Scan(&usersTable))
	assert.Nil(t, usersTable, "listing must not create tables")

	applied, err := m.RunPending(ctx)
	require.NoError(t, err)
	assert.Len(t, applied, len(pending))

	again, err := m.RunPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, again)

	pending, err = m.ListPending(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	all, err := m.Status(ctx)
	require.NoError(t, err)
	for _, mig := range all {
		assert.NotNil(t, mig.AppliedAt, "migration %d should have applied_at", mig.Version)
	}

	var ledgerRows int
	require.NoError(t, pool.QueryRow(ctx, "SELECT count(*) FROM pgmigrations WHERE version_id > 0").Scan(&ledgerRows))
	assert.Equal(t, len(applied), ledgerRows)

	assert.Equal(t, uint64(len(applied)), recorder.Snapshot().MigrationsApplied)
}

func TestIntegrationMigrator_FailureKeepsEarlierScripts(t *testing.T) {
	ctx, dbURL, pool := newIntegrationEnv(t)

	fsys := fstest.MapFS{
		"00001_first.sql":  {Data: []byte("-- +goose Up\nCREATE TABLE first_table (id int);\n")},
		"00002_broken.sql": {Data: []byte("-- +goose Up\nCREATE TABLEE broken (id int);\n")},
		"00003_third.sql":  {Data: []byte("-- +goose Up\nCREATE TABLE third_table (id int);\n")},
	}
	m := New(Config{DatabaseURL: dbURL, Table: "test_ledger", FS: fsys, Logger: quietLogger()})

	_, err := m.RunPending(ctx)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))

	var first, third *string
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('public.first_table')::text").Scan(&first))
	require.NoError(t, pool.QueryRow(ctx, "SELECT to_regclass('public.third_table')::text").Scan(&third))
	assert.NotNil(t, first, "scripts before the failure stay applied")
	assert.Nil(t, third, "scripts after the failure are not attempted")

	pending, err := m.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "broken", pending[0].Name)
}

func TestIntegrationMigrator_UnreachableDatabase(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	m := New(Config{
		DatabaseURL: "postgres://registra@127.0.0.1:1/registra?sslmode=disable&connect_timeout=1",
		Logger:      quietLogger(),
	})

	_, err := m.ListPending(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindService))
}

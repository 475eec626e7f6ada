// Package repository provides database access layer.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQL error code for unique_violation.
const uniqueViolationCode = "23505"

// Repository provides database access methods.
type Repository struct {
	pool *pgxpool.Pool
}

// Result is the outcome of a raw query.
type Result struct {
	// RowCount is the number of rows returned or affected.
	RowCount int64
	Rows     []map[string]any
}

// DatabaseStatus describes the database dependency for the status endpoint.
type DatabaseStatus struct {
	Version           string `json:"version"`
	MaxConnections    int    `json:"max_connections"`
	OpenedConnections int    `json:"opened_connections"`
}

// New creates a new Repository with a connection pool.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Repository{pool: pool}, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close closes the database connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

// withConn acquires a connection for the duration of fn and always releases it.
func (r *Repository) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	return fn(conn)
}

// Query runs a parameterized statement and collects every row.
func (r *Repository) Query(ctx context.Context, sql string, args ...any) (*Result, error) {
	var result *Result

	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, sql, args...)
		if err != nil {
			return err
		}

		data, err := pgx.CollectRows(rows, pgx.RowToMap)
		if err != nil {
			return err
		}

		result = &Result{
			RowCount: rows.CommandTag().RowsAffected(),
			Rows:     data,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}

	return result, nil
}

// DatabaseStatus reports server version and connection usage.
func (r *Repository) DatabaseStatus(ctx context.Context) (*DatabaseStatus, error) {
	status := &DatabaseStatus{}

	err := r.withConn(ctx, func(conn *pgxpool.Conn) error {
		if err := conn.QueryRow(ctx, "SHOW server_version").Scan(&status.Version); err != nil {
			return fmt.Errorf("server_version: %w", err)
		}

		var maxConns string
		if err := conn.QueryRow(ctx, "SHOW max_connections").Scan(&maxConns); err != nil {
			return fmt.Errorf("max_connections: %w", err)
		}
		n, err := strconv.Atoi(maxConns)
		if err != nil {
			return fmt.Errorf("max_connections %q: %w", maxConns, err)
		}
		status.MaxConnections = n

		err = conn.QueryRow(ctx,
			"SELECT count(*)::int FROM pg_stat_activity WHERE datname = current_database()",
		).Scan(&status.OpenedConnections)
		if err != nil {
			return fmt.Errorf("opened_connections: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read database status: %w", err)
	}

	return status, nil
}

// uniqueConstraint returns the violated constraint name, if err is a
// unique violation.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return pgErr.ConstraintName, true
	}
	return "", false
}

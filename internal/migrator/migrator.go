// Package migrator applies the embedded schema migrations with goose.
//
// Every operation opens its own database handle and closes it before
// returning, whatever the outcome. Failures are reported as ServiceErrors
// wrapping the underlying cause.
package migrator

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/oklog/ulid/v2"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"

	"github.com/registra/registra/internal/apperr"
	"github.com/registra/registra/internal/metrics"
	"github.com/registra/registra/internal/migrations"
	"github.com/registra/registra/internal/model"
)

// DefaultTable is the ledger table recording applied migrations.
const DefaultTable = "pgmigrations"

// provider is the subset of *goose.Provider the migrator uses.
type provider interface {
	Status(ctx context.Context) ([]*goose.MigrationStatus, error)
	Up(ctx context.Context) ([]*goose.MigrationResult, error)
}

// Config configures a Migrator.
type Config struct {
	DatabaseURL string
	// Table is the ledger table name. Defaults to DefaultTable.
	Table string
	// FS holds the migration scripts. Defaults to the embedded set.
	FS      fs.FS
	Logger  *slog.Logger
	Metrics metrics.Recorder
}

// Migrator lists and applies pending migrations.
type Migrator struct {
	dsn     string
	table   string
	fsys    fs.FS
	logger  *slog.Logger
	metrics metrics.Recorder

	openDB      func(ctx context.Context, dsn string) (*sql.DB, error)
	newProvider func(db *sql.DB, fsys fs.FS, table string) (provider, error)
}

// New creates a Migrator.
func New(cfg Config) *Migrator {
	m := &Migrator{
		dsn:         cfg.DatabaseURL,
		table:       cfg.Table,
		fsys:        cfg.FS,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
		openDB:      openPostgres,
		newProvider: newGooseProvider,
	}
	if m.table == "" {
		m.table = DefaultTable
	}
	if m.fsys == nil {
		m.fsys = migrations.FS
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	if m.metrics == nil {
		m.metrics = metrics.NewNoop()
	}
	return m
}

func openPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func newGooseProvider(db *sql.DB, fsys fs.FS, table string) (provider, error) {
	store, err := database.NewStore(database.DialectPostgres, table)
	if err != nil {
		return nil, fmt.Errorf("create ledger store: %w", err)
	}

	// The dialect comes from the store, so it must be left empty here.
	p, err := goose.NewProvider("", db, fsys,
		goose.WithStore(store),
		goose.WithDisableGlobalRegistry(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create migration provider: %w", err)
	}
	return p, nil
}

// withProvider opens a database handle, builds a provider and always
// closes the handle. A close failure is logged and never replaces err.
func (m *Migrator) withProvider(ctx context.Context, fn func(p provider) error) (err error) {
	db, err := m.openDB(ctx, m.dsn)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			m.logger.WarnContext(ctx, "failed to close migration connection", "error", closeErr)
		}
	}()

	p, err := m.newProvider(db, m.fsys, m.table)
	if err != nil {
		return err
	}

	return fn(p)
}

// ListPending returns the migrations that RunPending would apply, in
// order, without applying anything.
func (m *Migrator) ListPending(ctx context.Context) ([]model.Migration, error) {
	pending := []model.Migration{}

	err := m.withProvider(ctx, func(p provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			if st.State == goose.StatePending {
				pending = append(pending, fromStatus(st))
			}
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Service("Failed to list pending migrations.", err)
	}

	return pending, nil
}

// Status returns every known migration with its state and, for applied
// ones, the time recorded in the ledger.
func (m *Migrator) Status(ctx context.Context) ([]model.Migration, error) {
	all := []model.Migration{}

	err := m.withProvider(ctx, func(p provider) error {
		statuses, err := p.Status(ctx)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			all = append(all, fromStatus(st))
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Service("Failed to read migration status.", err)
	}

	return all, nil
}

// RunPending applies every pending migration in version order and returns
// the ones applied by this call. It returns an empty slice when nothing was
// pending. A failing script stops the run; scripts applied before it stay
// applied.
func (m *Migrator) RunPending(ctx context.Context) ([]model.Migration, error) {
	runID := ulid.Make().String()
	logger := m.logger.With("run_id", runID)
	start := time.Now()

	applied := []model.Migration{}

	err := m.withProvider(ctx, func(p provider) error {
		results, err := p.Up(ctx)
		if err != nil {
			var partial *goose.PartialError
			if errors.As(err, &partial) {
				for _, r := range partial.Applied {
					applied = append(applied, fromResult(r))
				}
			}
			return err
		}
		for _, r := range results {
			applied = append(applied, fromResult(r))
		}
		return nil
	})

	duration := time.Since(start)
	m.metrics.ObserveMigrationRunDuration(duration)
	m.metrics.IncMigrationsApplied(len(applied))

	for _, mig := range applied {
		logger.InfoContext(ctx, "migration_applied",
			"version", mig.Version,
			"name", mig.Name,
		)
	}

	if err != nil {
		m.metrics.IncMigrationRunFailed()
		logger.ErrorContext(ctx, "migration_run_failed",
			"applied_count", len(applied),
			"error", err,
		)
		return nil, apperr.Service("Failed to run pending migrations.", err)
	}

	logger.InfoContext(ctx, "migrations_applied",
		"count", len(applied),
		"duration_ms", float64(duration.Microseconds())/1000,
	)

	return applied, nil
}

func fromStatus(st *goose.MigrationStatus) model.Migration {
	mig := describe(st.Source)
	switch st.State {
	case goose.StateApplied:
		mig.State = model.MigrationApplied
		if !st.AppliedAt.IsZero() {
			at := st.AppliedAt.UTC()
			mig.AppliedAt = &at
		}
	default:
		mig.State = model.MigrationPending
	}
	return mig
}

func fromResult(r *goose.MigrationResult) model.Migration {
	mig := describe(r.Source)
	mig.State = model.MigrationApplied
	ms := float64(r.Duration.Microseconds()) / 1000
	mig.DurationMs = &ms
	return mig
}

// describe builds the descriptor for a source file such as
// "20250810223200_create_users.sql" (name "create_users").
func describe(src *goose.Source) model.Migration {
	if src == nil {
		return model.Migration{}
	}
	base := path.Base(src.Path)
	name := strings.TrimSuffix(base, path.Ext(base))
	if _, rest, ok := strings.Cut(name, "_"); ok {
		name = rest
	}
	return model.Migration{
		Version: src.Version,
		Name:    name,
		Path:    src.Path,
	}
}

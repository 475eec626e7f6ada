// Command migrate lists and applies the embedded schema migrations without
// going through the HTTP API.
//
// Usage:
//
//	migrate [flags] list|status|up
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/registra/registra/internal/logging"
	"github.com/registra/registra/internal/migrator"
	"github.com/registra/registra/internal/model"
)

// runner is the part of *migrator.Migrator the command drives.
type runner interface {
	ListPending(ctx context.Context) ([]model.Migration, error)
	Status(ctx context.Context) ([]model.Migration, error)
	RunPending(ctx context.Context) ([]model.Migration, error)
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		table       = flag.String("table", envOr("MIGRATIONS_TABLE", migrator.DefaultTable), "Migration ledger table")
		format      = flag.String("format", "plain", "Output format: plain or json")
		timeout     = flag.Duration("timeout", time.Minute, "Overall timeout")
		logLevel    = flag.String("log-level", envOr("LOG_LEVEL", "warn"), "Log level")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] list|status|up\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *format != "plain" && *format != "json" {
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, *logLevel, "text")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	m := migrator.New(migrator.Config{
		DatabaseURL: *databaseURL,
		Table:       *table,
		Logger:      logger,
	})

	if err := run(ctx, m, flag.Arg(0), *format, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, logging.SanitizeError(err, *databaseURL))
		os.Exit(1)
	}
}

func run(ctx context.Context, m runner, command, format string, out io.Writer) error {
	var (
		migrations []model.Migration
		err        error
	)
	switch command {
	case "list":
		migrations, err = m.ListPending(ctx)
	case "status":
		migrations, err = m.Status(ctx)
	case "up":
		migrations, err = m.RunPending(ctx)
	default:
		return fmt.Errorf("unknown command %q", command)
	}
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(migrations)
	}
	return printPlain(out, command, migrations)
}

func printPlain(out io.Writer, command string, migrations []model.Migration) error {
	if len(migrations) == 0 {
		switch command {
		case "up":
			_, err := fmt.Fprintln(out, "no pending migrations; schema is up to date")
			return err
		case "list":
			_, err := fmt.Fprintln(out, "no pending migrations")
			return err
		default:
			_, err := fmt.Fprintln(out, "no migrations found")
			return err
		}
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tSTATE\tAPPLIED AT")
	for _, mig := range migrations {
		appliedAt := "-"
		if mig.AppliedAt != nil {
			appliedAt = mig.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", mig.Version, mig.Name, mig.State, appliedAt)
	}
	return tw.Flush()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

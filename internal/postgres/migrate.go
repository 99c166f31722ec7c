package postgres

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	ierr "github.com/rentdesk/rentdesk/internal/errors"
	"github.com/samber/lo"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version     VARCHAR(100) PRIMARY KEY,
    applied_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Migration is one embedded SQL file, applied in name order
type Migration struct {
	Version string
	SQL     string
}

// Migrations lists the embedded migrations in apply order
func Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to read embedded migrations").
			Mark(ierr.ErrSystem)
	}

	names := lo.FilterMap(entries, func(e fs.DirEntry, _ int) (string, bool) {
		return e.Name(), !e.IsDir() && strings.HasSuffix(e.Name(), ".sql")
	})
	sort.Strings(names)

	migrations := make([]Migration, 0, len(names))
	for _, name := range names {
		body, err := migrationFiles.ReadFile("migrations/" + name)
		if err != nil {
			return nil, ierr.WithError(err).
				WithMessagef("failed to read migration %s", name).
				Mark(ierr.ErrSystem)
		}
		migrations = append(migrations, Migration{
			Version: strings.TrimSuffix(name, ".sql"),
			SQL:     string(body),
		})
	}
	return migrations, nil
}

// Migrate applies pending migrations, each in its own transaction. With dryRun
// the pending SQL is written to out instead and nothing is executed.
func (db *DB) Migrate(ctx context.Context, dryRun bool, out io.Writer) ([]string, error) {
	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, migrationsTable); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to create schema_migrations").
			Mark(ierr.ErrDatabase)
	}

	var applied []string
	if err := db.SelectContext(ctx, &applied, `SELECT version FROM schema_migrations`); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to read applied migrations").
			Mark(ierr.ErrDatabase)
	}

	pending := lo.Filter(migrations, func(m Migration, _ int) bool {
		return !lo.Contains(applied, m.Version)
	})

	var done []string
	for _, m := range pending {
		if dryRun {
			fmt.Fprintf(out, "-- %s\n%s\n", m.Version, m.SQL)
			done = append(done, m.Version)
			continue
		}

		err := db.WithTx(ctx, func(ctx context.Context) error {
			q := db.GetQuerier(ctx)
			if _, err := q.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := q.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version)
			return err
		})
		if err != nil {
			return done, ierr.WithError(err).
				WithMessagef("migration %s failed", m.Version).
				Mark(ierr.ErrDatabase)
		}
		db.logger.Infow("applied migration", "version", m.Version)
		done = append(done, m.Version)
	}
	return done, nil
}

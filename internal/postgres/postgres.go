package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rentdesk/rentdesk/internal/config"
	"github.com/rentdesk/rentdesk/internal/logger"
)

// DB wraps sqlx.DB to provide transaction management
type DB struct {
	*sqlx.DB
	logger *logger.Logger
}

// Querier interface defines all database operations.
// Both *sqlx.DB and *sqlx.Tx implement these methods.
type Querier interface {
	sqlx.ExtContext
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// NewDB opens the pool and verifies connectivity
func NewDB(cfg *config.Configuration, logger *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Postgres.GetDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Postgres.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Postgres.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Postgres.ConnMaxLifetimeMinutes) * time.Minute)

	return &DB{DB: db, logger: logger}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns either the transaction from context or the base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	if tx, ok := GetTx(ctx); ok {
		return NewTracedQuerier(tx.Tx, db.logger, tx.ID)
	}
	return NewTracedQuerier(db.DB, db.logger, "")
}

// NamedExecContext runs a named statement on the current querier
func (db *DB) NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error) {
	return db.GetQuerier(ctx).NamedExecContext(ctx, query, arg)
}

// NamedQueryContext runs a named query on the current querier
func (db *DB) NamedQueryContext(ctx context.Context, query string, arg interface{}) (*sqlx.Rows, error) {
	return sqlx.NamedQueryContext(ctx, db.GetQuerier(ctx), query, arg)
}

// NamedGetContext scans a single row of a named query into dest
func (db *DB) NamedGetContext(ctx context.Context, dest interface{}, query string, arg interface{}) error {
	rows, err := db.NamedQueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return err
		}
		return sql.ErrNoRows
	}
	return rows.StructScan(dest)
}

// NamedSelectContext scans all rows of a named query into dest, a pointer to a
// slice. Slice parameters are expanded for IN clauses.
func (db *DB) NamedSelectContext(ctx context.Context, dest interface{}, query string, arg interface{}) error {
	q := db.GetQuerier(ctx)
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return err
	}
	bound, args, err = sqlx.In(bound, args...)
	if err != nil {
		return err
	}
	return q.SelectContext(ctx, dest, q.Rebind(bound), args...)
}

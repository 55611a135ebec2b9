package repository

import (
	"context"
	"errors"
	"fmt"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNoSymbol = errors.New("symbol not set")
)

// conn is the part of *pgxpool.Pool the repository uses.
type conn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Database persists completed tables to Postgres.
type Database struct {
	conn conn
	pool *pgxpool.Pool
}

// NewDatabase opens a pool on dbURL. Every pooled connection decodes
// numeric columns into decimal.Decimal.
func NewDatabase(ctx context.Context, dbURL string) (Database, error) {
	poolCfg, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return Database{}, fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.AfterConnect = func(_ context.Context, c *pgx.Conn) error {
		pgxdecimal.Register(c.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return Database{}, fmt.Errorf("open pool: %w", err)
	}
	// The pool connects lazily; fail here rather than on the first write.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return Database{}, fmt.Errorf("ping: %w", err)
	}
	return Database{conn: pool, pool: pool}, nil
}

func (db *Database) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS bars (
	symbol text        NOT NULL,
	ts     timestamptz NOT NULL,
	open   numeric     NOT NULL,
	high   numeric     NOT NULL,
	low    numeric     NOT NULL,
	close  numeric     NOT NULL,
	volume bigint      NOT NULL,
	PRIMARY KEY (symbol, ts)
);
CREATE TABLE IF NOT EXISTS indicator_values (
	symbol      text        NOT NULL,
	ts          timestamptz NOT NULL,
	column_name text        NOT NULL,
	value       numeric,
	PRIMARY KEY (symbol, ts, column_name)
);`

// Migrate creates the tables SaveTable writes to.
func (db *Database) Migrate(ctx context.Context) error {
	if _, err := db.conn.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

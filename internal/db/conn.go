// Package db opens the relational store behind the auth service, runs its
// schema migrations and provides the transaction helper used by repositories.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

type Driver string

const (
	Postgres Driver = "postgres"
	SQLite   Driver = "sqlite"
)

// Conn is an open database handle together with the driver it speaks.
type Conn struct {
	DB     *sql.DB
	Driver Driver
	pool   *pgxpool.Pool
}

func (c *Conn) Close() error {
	err := c.DB.Close()
	if c.pool != nil {
		c.pool.Close()
	}
	return err
}

// DriverFor reports which driver a DATABASE_URL selects.
func DriverFor(url string) (Driver, error) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return Postgres, nil
	case strings.HasPrefix(url, "sqlite://"), strings.HasPrefix(url, "file:"):
		return SQLite, nil
	}
	return "", fmt.Errorf("unsupported database url scheme: %q", redact(url))
}

// Open connects to url. Postgres goes through a pgxpool exposed as *sql.DB.
func Open(ctx context.Context, url string) (*Conn, error) {
	driver, err := DriverFor(url)
	if err != nil {
		return nil, err
	}
	switch driver {
	case Postgres:
		pool, err := NewPool(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("postgres connect: %w", err)
		}
		return &Conn{DB: stdlib.OpenDBFromPool(pool), Driver: Postgres, pool: pool}, nil
	default:
		return OpenSQLite(ctx, sqliteDSN(url))
	}
}

// OpenSQLite opens a modernc sqlite database with foreign keys enforced.
func OpenSQLite(ctx context.Context, dsn string) (*Conn, error) {
	dsn = withParam(dsn, "foreign_keys", "_pragma=foreign_keys(1)")
	dsn = withParam(dsn, "_time_format", "_time_format=sqlite")
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one writer; also keeps in-memory databases alive for the process lifetime
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxIdleTime(0)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &Conn{DB: sqlDB, Driver: SQLite}, nil
}

func withParam(dsn, key, param string) string {
	if strings.Contains(dsn, key) {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + param
	}
	return dsn + "?" + param
}

func sqliteDSN(url string) string {
	if rest, ok := strings.CutPrefix(url, "sqlite://"); ok {
		if rest == ":memory:" || rest == "" {
			return "file::memory:?cache=shared"
		}
		return "file:" + rest
	}
	return url
}

func redact(url string) string {
	if i := strings.Index(url, "@"); i >= 0 {
		if j := strings.Index(url, "://"); j >= 0 && j < i {
			return url[:j+3] + "***" + url[i:]
		}
	}
	return url
}

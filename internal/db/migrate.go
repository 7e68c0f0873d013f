package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

var gooseDialects = map[Driver]string{
	Postgres: "postgres",
	SQLite:   "sqlite3",
}

// goose keeps its base FS and dialect in package state.
var migrateMu sync.Mutex

// gooseUpContext is a seam for tests.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations applies every pending migration for the connection's driver.
func RunMigrations(ctx context.Context, c *Conn) error {
	dialect, ok := gooseDialects[c.Driver]
	if !ok {
		return fmt.Errorf("no migrations for driver %q", c.Driver)
	}

	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(slogGoose{})
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, c.DB, "migrations/"+string(c.Driver)); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

type slogGoose struct{}

func (slogGoose) Printf(format string, v ...any) {
	slog.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (slogGoose) Fatalf(format string, v ...any) {
	slog.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}

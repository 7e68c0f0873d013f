package sqlstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/baharkarakas/auth-backend/internal/db"
	"github.com/baharkarakas/auth-backend/internal/repository"
)

// Dialect adapts queries and driver errors of one database engine.
type Dialect interface {
	// Rebind rewrites $N placeholders into the engine's syntax.
	Rebind(query string) string
	// Classify maps constraint violations onto repository sentinels.
	Classify(err error) error
}

func DialectFor(d db.Driver) (Dialect, error) {
	switch d {
	case db.Postgres:
		return Postgres{}, nil
	case db.SQLite:
		return SQLite{}, nil
	}
	return nil, fmt.Errorf("no dialect for driver %q", d)
}

type Postgres struct{}

func (Postgres) Rebind(query string) string { return query }

func (Postgres) Classify(err error) error {
	if classified(err) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: %s", repository.ErrDuplicate, pgErr.ConstraintName)
		case "23503":
			return fmt.Errorf("%w: %s", repository.ErrForeignKey, pgErr.ConstraintName)
		}
		return err
	}
	// the error may arrive wrapped in a way that hides PgError
	switch msg := err.Error(); {
	case strings.Contains(msg, "SQLSTATE 23505"):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	case strings.Contains(msg, "SQLSTATE 23503"):
		return fmt.Errorf("%w: %v", repository.ErrForeignKey, err)
	}
	return err
}

type SQLite struct{}

func (SQLite) Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (SQLite) Classify(err error) error {
	if classified(err) {
		return err
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", repository.ErrForeignKey, err)
		}
		return err
	}
	switch msg := err.Error(); {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %v", repository.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %v", repository.ErrForeignKey, err)
	}
	return err
}

func classified(err error) bool {
	return err == nil || errors.Is(err, repository.ErrDuplicate) || errors.Is(err, repository.ErrForeignKey)
}

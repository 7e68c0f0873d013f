// Package sqlstore implements the repository interfaces over database/sql.
// The same queries serve Postgres (pgx stdlib) and SQLite (modernc); engine
// differences are confined to a Dialect.
package sqlstore

import (
	"context"
	"database/sql"

	"github.com/baharkarakas/auth-backend/internal/db"
	"github.com/baharkarakas/auth-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	q  db.DBTX
	d  Dialect
	tx bool
}

func New(conn *sql.DB, d Dialect) *Store {
	return &Store{db: conn, q: conn, d: d}
}

func (s *Store) Users() repository.Users { return &usersRepo{q: s.q, d: s.d} }
func (s *Store) Roles() repository.Roles { return &rolesRepo{q: s.q, d: s.d} }

// WithTx runs fn against repositories bound to one transaction. Constraint
// violations raised at commit are classified like statement errors.
func (s *Store) WithTx(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx {
		return fn(s)
	}
	err := db.WithTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		return fn(&Store{db: s.db, q: tx, d: s.d, tx: true})
	})
	return s.d.Classify(err)
}

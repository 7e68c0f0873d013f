package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/baharkarakas/auth-backend/internal/db"
	"github.com/baharkarakas/auth-backend/internal/models"
	"github.com/baharkarakas/auth-backend/internal/repository"
)

type usersRepo struct {
	q db.DBTX
	d Dialect
}

const userColumns = `id, name, lastname, email, password_hash, is_banned, role_id, created_at, updated_at`

func (r *usersRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	const op = "sqlstore.users.FindByEmail"
	row := r.q.QueryRowContext(ctx, r.d.Rebind(`SELECT `+userColumns+` FROM users WHERE email = $1`), email)
	return scanUser(op, row)
}

func (r *usersRepo) FindByID(ctx context.Context, id int64) (models.User, error) {
	const op = "sqlstore.users.FindByID"
	row := r.q.QueryRowContext(ctx, r.d.Rebind(`SELECT `+userColumns+` FROM users WHERE id = $1`), id)
	return scanUser(op, row)
}

func (r *usersRepo) Insert(ctx context.Context, u models.User) (models.User, error) {
	const op = "sqlstore.users.Insert"
	q := r.d.Rebind(`INSERT INTO users (name, lastname, email, password_hash, is_banned, role_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`)
	err := r.q.QueryRowContext(ctx, q,
		u.Name, u.Lastname, u.Email, u.PasswordHash, u.IsBanned, u.EffectiveRoleID(), u.CreatedAt, u.UpdatedAt,
	).Scan(&u.ID)
	if err != nil {
		return models.User{}, fmt.Errorf("%s: %w", op, r.d.Classify(err))
	}
	u.RoleID = u.EffectiveRoleID()
	return u, nil
}

func scanUser(op string, row *sql.Row) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Lastname, &u.Email, &u.PasswordHash, &u.IsBanned, &u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("%s: db error: %w", op, err)
	}
	return u, nil
}

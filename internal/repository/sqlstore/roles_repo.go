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

type rolesRepo struct {
	q db.DBTX
	d Dialect
}

func (r *rolesRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, r.d.Rebind(`SELECT EXISTS(SELECT 1 FROM roles WHERE id = $1)`), id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlstore.roles.Exists: db error: %w", err)
	}
	return exists, nil
}

func (r *rolesRepo) GetByID(ctx context.Context, id int64) (models.Role, error) {
	var role models.Role
	err := r.q.QueryRowContext(ctx, r.d.Rebind(`SELECT id, name FROM roles WHERE id = $1`), id).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Role{}, fmt.Errorf("sqlstore.roles.GetByID: %w", repository.ErrNotFound)
		}
		return models.Role{}, fmt.Errorf("sqlstore.roles.GetByID: db error: %w", err)
	}
	return role, nil
}

package repository

import (
	"context"
	"errors"

	"github.com/baharkarakas/auth-backend/internal/models"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrDuplicate  = errors.New("duplicate key")
	ErrForeignKey = errors.New("foreign key violation")
)

type Users interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	// Insert stores u and returns it with the generated id.
	Insert(ctx context.Context, u models.User) (models.User, error)
}

type Roles interface {
	Exists(ctx context.Context, id int64) (bool, error)
	GetByID(ctx context.Context, id int64) (models.Role, error)
}

// Store hands out repositories and runs work inside a single transaction.
type Store interface {
	Users() Users
	Roles() Roles
	WithTx(ctx context.Context, fn func(tx Store) error) error
}

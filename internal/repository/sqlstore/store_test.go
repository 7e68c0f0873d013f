package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/auth-backend/internal/db"
	"github.com/baharkarakas/auth-backend/internal/models"
	"github.com/baharkarakas/auth-backend/internal/repository"
)

func newSQLiteStore(t *testing.T) (*Store, *db.Conn) {
	t.Helper()
	ctx := context.Background()
	conn, err := db.OpenSQLite(ctx, "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn))
	return New(conn.DB, SQLite{}), conn
}

func testUser(email string) models.User {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	u := models.User{
		Name:         "Ada",
		Lastname:     "Lovelace",
		Email:        email,
		PasswordHash: "pbkdf2:sha256:1$salt$00",
		CreatedAt:    now,
	}
	u.Touch(now)
	return u
}

func TestUsers_InsertAndFind(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	u, err := s.Users().Insert(ctx, testUser("a@x.com"))
	require.NoError(t, err)
	require.Positive(t, u.ID)
	require.Equal(t, models.DefaultRoleID, u.RoleID)

	byEmail, err := s.Users().FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)
	require.Equal(t, "Ada", byEmail.Name)
	require.Equal(t, "Lovelace", byEmail.Lastname)
	require.Equal(t, u.PasswordHash, byEmail.PasswordHash)
	require.False(t, byEmail.IsBanned)
	require.True(t, u.CreatedAt.Equal(byEmail.CreatedAt))
	require.False(t, byEmail.UpdatedAt.Before(byEmail.CreatedAt))

	byID, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "a@x.com", byID.Email)
}

func TestUsers_EmailIsCaseSensitive(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	_, err := s.Users().Insert(ctx, testUser("a@x.com"))
	require.NoError(t, err)

	_, err = s.Users().FindByEmail(ctx, "A@X.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_NotFound(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	_, err := s.Users().FindByID(ctx, 404)
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Users().FindByEmail(ctx, "nobody@x.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUsers_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	_, err := s.Users().Insert(ctx, testUser("dup@x.com"))
	require.NoError(t, err)
	_, err = s.Users().Insert(ctx, testUser("dup@x.com"))
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUsers_UnknownRole(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	u := testUser("r@x.com")
	u.RoleID = 77
	_, err := s.Users().Insert(ctx, u)
	require.ErrorIs(t, err, repository.ErrForeignKey)
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	ok, err := s.Roles().Exists(ctx, models.DefaultRoleID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Roles().Exists(ctx, 2)
	require.NoError(t, err)
	require.False(t, ok)

	r, err := s.Roles().GetByID(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "user", r.Name)

	_, err = s.Roles().GetByID(ctx, 2)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_WithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().Insert(ctx, testUser("tx@x.com")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.Users().FindByEmail(ctx, "tx@x.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestStore_WithTxCommitsAndNests(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	err := s.WithTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().Insert(ctx, testUser("one@x.com")); err != nil {
			return err
		}
		// nested calls join the outer transaction
		return tx.WithTx(ctx, func(inner repository.Store) error {
			_, err := inner.Users().Insert(ctx, testUser("two@x.com"))
			return err
		})
	})
	require.NoError(t, err)

	for _, email := range []string{"one@x.com", "two@x.com"} {
		_, err := s.Users().FindByEmail(ctx, email)
		require.NoError(t, err)
	}
}

func TestStore_WithTxClassifiesDuplicate(t *testing.T) {
	ctx := context.Background()
	s, _ := newSQLiteStore(t)

	_, err := s.Users().Insert(ctx, testUser("c@x.com"))
	require.NoError(t, err)

	err = s.WithTx(ctx, func(tx repository.Store) error {
		_, err := tx.Users().Insert(ctx, testUser("c@x.com"))
		return err
	})
	require.ErrorIs(t, err, repository.ErrDuplicate)
}

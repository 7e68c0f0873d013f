// Package services implements the credential and session flow: registration,
// authentication, ending a session and resolving the current user.
package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/baharkarakas/auth-backend/internal/auth"
	"github.com/baharkarakas/auth-backend/internal/metrics"
	"github.com/baharkarakas/auth-backend/internal/models"
	"github.com/baharkarakas/auth-backend/internal/repository"
)

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(encoded, plain string) bool
}

type AuthService struct {
	store          repository.Store
	hasher         PasswordHasher
	strategy       auth.Strategy
	log            *slog.Logger
	now            func() time.Time
	roleSelfAssign bool

	dummyOnce sync.Once
	dummyHash string
}

type Option func(*AuthService)

func WithClock(now func() time.Time) Option { return func(s *AuthService) { s.now = now } }

func WithLogger(l *slog.Logger) Option { return func(s *AuthService) { s.log = l } }

// WithRoleSelfAssign lets registration payloads pick their own role_id.
func WithRoleSelfAssign(allow bool) Option {
	return func(s *AuthService) { s.roleSelfAssign = allow }
}

func NewAuthService(store repository.Store, hasher PasswordHasher, strategy auth.Strategy, opts ...Option) *AuthService {
	s := &AuthService{
		store:    store,
		hasher:   hasher,
		strategy: strategy,
		log:      slog.Default(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *AuthService) SessionKind() auth.Kind { return s.strategy.Kind() }

type RegisterInput struct {
	Name     string
	Lastname string
	Email    string
	Password string
	RoleID   *int64
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (u models.User, err error) {
	const op = "services.Register"
	defer func() { metrics.AuthEvents.WithLabelValues("register", outcome(err)).Inc() }()

	if in.Email == "" || in.Password == "" {
		return models.User{}, newError(ErrInvalidInput, MsgMissingData)
	}
	log := s.log.With(slog.String("op", op), slog.String("email", in.Email))

	_, err = s.store.Users().FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		log.Info("email already registered")
		return models.User{}, newError(ErrConflict, MsgEmailTaken)
	case !errors.Is(err, repository.ErrNotFound):
		log.Error("lookup by email failed", slog.Any("err", err))
		return models.User{}, newError(ErrStorage, MsgInternal)
	}

	roleID, err := s.resolveRole(ctx, log, in.RoleID)
	if err != nil {
		return models.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("err", err))
		return models.User{}, newError(ErrStorage, MsgInternal)
	}

	now := s.now().UTC()
	u = models.User{
		Name:         in.Name,
		Lastname:     in.Lastname,
		Email:        in.Email,
		PasswordHash: hash,
		RoleID:       roleID,
		CreatedAt:    now,
	}
	u.Touch(now)

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		var txErr error
		u, txErr = tx.Users().Insert(ctx, u)
		return txErr
	})
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrDuplicate):
		// lost the race against a concurrent registration
		log.Info("email registered concurrently")
		return models.User{}, newError(ErrConflict, MsgEmailTaken)
	case errors.Is(err, repository.ErrForeignKey):
		return models.User{}, newError(ErrInvalidInput, MsgUnknownRole)
	default:
		log.Error("failed to save user", slog.Any("err", err))
		return models.User{}, newError(ErrStorage, MsgInternal)
	}

	log.Info("user registered", slog.Int64("user_id", u.ID))
	return u, nil
}

func (s *AuthService) resolveRole(ctx context.Context, log *slog.Logger, requested *int64) (int64, error) {
	if requested == nil {
		return models.DefaultRoleID, nil
	}
	if !s.roleSelfAssign {
		log.Debug("ignoring role_id from payload", slog.Int64("role_id", *requested))
		return models.DefaultRoleID, nil
	}
	if *requested <= 0 {
		return 0, newError(ErrInvalidInput, MsgUnknownRole)
	}
	ok, err := s.store.Roles().Exists(ctx, *requested)
	if err != nil {
		log.Error("role lookup failed", slog.Any("err", err))
		return 0, newError(ErrStorage, MsgInternal)
	}
	if !ok {
		return 0, newError(ErrInvalidInput, MsgUnknownRole)
	}
	return *requested, nil
}

// Authenticate checks credentials and opens a session with the configured
// strategy. Unknown email, wrong password and banned account are
// indistinguishable to the caller.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (g auth.Grant, err error) {
	const op = "services.Authenticate"
	defer func() { metrics.AuthEvents.WithLabelValues("login", outcome(err)).Inc() }()

	if email == "" || password == "" {
		return auth.Grant{}, newError(ErrInvalidInput, MsgMissingData)
	}
	log := s.log.With(slog.String("op", op), slog.String("email", email))

	user, err := s.store.Users().FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// unknown emails pay the same hashing cost as wrong passwords
			s.hasher.Verify(s.dummy(), password)
			log.Info("user not found")
			return auth.Grant{}, newError(ErrUnauthorized, MsgInvalidCredentials)
		}
		log.Error("failed to get user", slog.Any("err", err))
		return auth.Grant{}, newError(ErrStorage, MsgInternal)
	}

	if !s.hasher.Verify(user.PasswordHash, password) {
		log.Info("invalid credentials")
		return auth.Grant{}, newError(ErrUnauthorized, MsgInvalidCredentials)
	}
	if user.IsBanned {
		log.Warn("banned user attempted login", slog.Int64("user_id", user.ID))
		return auth.Grant{}, newError(ErrUnauthorized, MsgInvalidCredentials)
	}

	g, err = s.strategy.Begin(ctx, auth.Identity{UserID: user.ID, RoleID: user.EffectiveRoleID()})
	if err != nil {
		log.Error("failed to begin session", slog.Any("err", err))
		return auth.Grant{}, newError(ErrStorage, MsgInternal)
	}

	log.Info("user logged in", slog.Int64("user_id", user.ID), slog.String("strategy", string(g.Kind)))
	return g, nil
}

// EndSession closes the session named by credential. Token sessions hold no
// server state; stateful ones are idempotent.
func (s *AuthService) EndSession(ctx context.Context, credential string) (err error) {
	defer func() { metrics.AuthEvents.WithLabelValues("logout", outcome(err)).Inc() }()
	if err := s.strategy.End(ctx, credential); err != nil {
		s.log.Error("failed to end session", slog.String("op", "services.EndSession"), slog.Any("err", err))
		return newError(ErrStorage, MsgInternal)
	}
	return nil
}

// WhoAmI loads the user behind an already verified identity.
func (s *AuthService) WhoAmI(ctx context.Context, id auth.Identity) (u models.User, err error) {
	const op = "services.WhoAmI"
	defer func() { metrics.AuthEvents.WithLabelValues("whoami", outcome(err)).Inc() }()

	u, err = s.store.Users().FindByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.User{}, newError(ErrNotFound, MsgUserNotFound)
		}
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("err", err))
		return models.User{}, newError(ErrStorage, MsgInternal)
	}
	return u, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash("not-a-real-password")
		if err == nil {
			s.dummyHash = h
		}
	})
	return s.dummyHash
}

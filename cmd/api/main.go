package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/auth-backend/internal/api"
	"github.com/baharkarakas/auth-backend/internal/auth"
	"github.com/baharkarakas/auth-backend/internal/config"
	"github.com/baharkarakas/auth-backend/internal/db"
	"github.com/baharkarakas/auth-backend/internal/logger"
	"github.com/baharkarakas/auth-backend/internal/metrics"
	"github.com/baharkarakas/auth-backend/internal/middleware"
	"github.com/baharkarakas/auth-backend/internal/repository/sqlstore"
	"github.com/baharkarakas/auth-backend/internal/services"
)

const sweepInterval = time.Minute

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("err", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logger.New(cfg.Env, cfg.Debug)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer conn.Close()

	if cfg.Migrate {
		if err := db.RunMigrations(ctx, conn); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
	}

	dialect, err := sqlstore.DialectFor(conn.Driver)
	if err != nil {
		return err
	}
	store := sqlstore.New(conn.DB, dialect)

	alg, _ := auth.ParseAlgorithm(cfg.PasswordHash) // checked by config.Validate
	hasher, err := auth.NewHasher(alg, cfg.PasswordIterations)
	if err != nil {
		return fmt.Errorf("hasher: %w", err)
	}

	metrics.Init()

	strategy, err := newStrategy(ctx, cfg)
	if err != nil {
		return err
	}

	svc := services.NewAuthService(store, hasher, strategy,
		services.WithLogger(log),
		services.WithRoleSelfAssign(cfg.AllowRoleSelect),
	)
	ident := middleware.NewIdentity(strategy, cfg.CookieName)
	r := api.NewRouter(cfg, svc, ident)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			slog.String("addr", srv.Addr),
			slog.String("env", cfg.Env),
			slog.String("db", string(conn.Driver)),
			slog.String("strategy", string(strategy.Kind())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}

	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newStrategy(ctx context.Context, cfg config.Config) (auth.Strategy, error) {
	kind, err := auth.ParseKind(cfg.SessionStrategy)
	if err != nil {
		return nil, err
	}
	if kind == auth.KindToken {
		return auth.NewTokenStrategy(auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)), nil
	}

	sessions := auth.NewSessionStore(cfg.SessionTTL)
	metrics.RegisterActiveSessions(sessions.Len)
	go sessions.RunSweeper(ctx, sweepInterval, func(n int) {
		metrics.SessionsSwept.Add(float64(n))
		slog.Debug("expired sessions swept", slog.Int("removed", n))
	})
	return auth.NewSessionStrategy(sessions), nil
}

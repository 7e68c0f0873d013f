package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/auth-backend/internal/api/handlers"
	"github.com/baharkarakas/auth-backend/internal/auth"
	"github.com/baharkarakas/auth-backend/internal/config"
	"github.com/baharkarakas/auth-backend/internal/metrics"
	"github.com/baharkarakas/auth-backend/internal/middleware"
	"github.com/baharkarakas/auth-backend/internal/services"
)

func NewRouter(cfg config.Config, svc *services.AuthService, ident *middleware.Identity) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: svc.SessionKind() == auth.KindStateful,
		MaxAge:           300,
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	h := handlers.NewAuthHandler(svc, ident, handlers.CookieConfig{
		Name:   cfg.CookieName,
		Secure: cfg.CookieSecure,
	})

	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	if svc.SessionKind() == auth.KindToken {
		r.Post("/logout", ident.Require(func(w http.ResponseWriter, r *http.Request, _ auth.Identity) {
			h.Logout(w, r)
		}))
	} else {
		r.Post("/logout", h.Logout)
	}
	r.Get("/user", ident.Require(h.WhoAmI))

	return r
}

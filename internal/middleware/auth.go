package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/baharkarakas/auth-backend/internal/api/httpx"
	"github.com/baharkarakas/auth-backend/internal/auth"
)

// IdentityHandler is an endpoint that runs only for an authenticated caller.
type IdentityHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// Identity resolves the caller of a request through the configured session
// strategy. Token deployments read the Authorization bearer header; stateful
// deployments read the session cookie.
type Identity struct {
	Strategy   auth.Strategy
	CookieName string
}

func NewIdentity(s auth.Strategy, cookieName string) *Identity {
	return &Identity{Strategy: s, CookieName: cookieName}
}

// Credential returns the raw credential carried by r, or "" when there is none.
func (m *Identity) Credential(r *http.Request) string {
	if m.Strategy.Kind() == auth.KindStateful {
		c, err := r.Cookie(m.CookieName)
		if err != nil {
			return ""
		}
		return c.Value
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	ah := r.Header.Get("Authorization")
	if len(ah) < len("Bearer ") || !strings.EqualFold(ah[:len("Bearer ")], "bearer ") {
		return ""
	}
	return strings.TrimSpace(ah[len("Bearer "):])
}

// Require adapts h into a plain handler that answers 401 unless the request
// resolves to an identity.
func (m *Identity) Require(h IdentityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cred := m.Credential(r)
		if cred == "" {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", m.missingMsg(), nil)
			return
		}
		id, err := m.Strategy.Resolve(r.Context(), cred)
		if err != nil {
			msg := "invalid or expired credentials"
			if errors.Is(err, auth.ErrTokenExpired) {
				msg = "token expired"
			}
			slog.Debug("credential rejected",
				slog.String("request_id", RequestIDFrom(r.Context())),
				slog.Any("err", err),
			)
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", msg, nil)
			return
		}
		h(w, r, id)
	}
}

func (m *Identity) missingMsg() string {
	if m.Strategy.Kind() == auth.KindStateful {
		return "not logged in"
	}
	return "missing bearer token"
}

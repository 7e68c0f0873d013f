package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/baharkarakas/auth-backend/internal/api/httpx"
	"github.com/baharkarakas/auth-backend/internal/api/validate"
	"github.com/baharkarakas/auth-backend/internal/auth"
	"github.com/baharkarakas/auth-backend/internal/middleware"
	"github.com/baharkarakas/auth-backend/internal/services"
)

type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	svc    *services.AuthService
	ident  *middleware.Identity
	cookie CookieConfig
}

func NewAuthHandler(svc *services.AuthService, ident *middleware.Identity, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, ident: ident, cookie: cookie}
}

type registerReq struct {
	Name     string `json:"name"`
	Lastname string `json:"lastname"`
	Email    string `json:"email"`
	Password string `json:"password"`
	RoleID   *int64 `json:"role_id,omitempty"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type messageResp struct {
	Message string `json:"message"`
}

type tokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type loginFailure struct {
	Authenticated bool   `json:"authenticated"`
	Error         string `json:"error"`
	Code          string `json:"code"`
}

type userResp struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func credentialErrs(email, password string) error {
	var errs validate.Errs
	errs.Add(validate.Required("email", email))
	errs.Add(validate.Required("password", password))
	return errs.Err()
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", services.MsgMissingData, nil)
		return
	}
	if err := credentialErrs(req.Email, req.Password); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", services.MsgMissingData, err)
		return
	}

	_, err := h.svc.Register(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Lastname: req.Lastname,
		Email:    req.Email,
		Password: req.Password,
		RoleID:   req.RoleID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, messageResp{Message: "User registered successfully"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", services.MsgMissingData, nil)
		return
	}
	if err := credentialErrs(req.Email, req.Password); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", services.MsgMissingData, err)
		return
	}

	g, err := h.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	switch g.Kind {
	case auth.KindStateful:
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie.Name,
			Value:    g.Credential,
			Path:     "/",
			Expires:  g.ExpiresAt,
			HttpOnly: true,
			Secure:   h.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
		httpx.WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": true})
	default:
		httpx.WriteJSON(w, http.StatusOK, tokenResp{
			AccessToken: g.Credential,
			TokenType:   "Bearer",
			ExpiresIn:   int64(time.Until(g.ExpiresAt).Round(time.Second).Seconds()),
		})
	}
}

// Logout ends the caller's session. Stateful deployments route it unguarded
// so that logging out without a session still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.EndSession(r.Context(), h.ident.Credential(r)); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if h.svc.SessionKind() == auth.KindStateful {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie.Name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   h.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	httpx.WriteJSON(w, http.StatusOK, messageResp{Message: "Logged out successfully"})
}

func (h *AuthHandler) WhoAmI(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	u, err := h.svc.WhoAmI(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, userResp{ID: u.ID, Name: u.Name})
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	msg := services.Message(err)
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_input", msg, nil)
	case errors.Is(err, services.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, "conflict", msg, nil)
	case errors.Is(err, services.ErrUnauthorized):
		httpx.WriteJSON(w, http.StatusUnauthorized, loginFailure{Authenticated: false, Error: msg, Code: "unauthorized"})
	case errors.Is(err, services.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", msg, nil)
	default:
		slog.Error("request failed",
			slog.String("request_id", middleware.RequestIDFrom(r.Context())),
			slog.Any("err", err),
		)
		httpx.WriteError(w, http.StatusInternalServerError, "storage_error", services.MsgInternal, nil)
	}
}

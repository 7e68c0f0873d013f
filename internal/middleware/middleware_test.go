package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/baharkarakas/auth-backend/internal/auth"
	"github.com/baharkarakas/auth-backend/internal/metrics"
)

type stubStrategy struct {
	kind auth.Kind
	ids  map[string]auth.Identity
	err  error
}

func (s stubStrategy) Kind() auth.Kind { return s.kind }
func (s stubStrategy) Begin(context.Context, auth.Identity) (auth.Grant, error) {
	return auth.Grant{}, nil
}
func (s stubStrategy) Resolve(_ context.Context, cred string) (auth.Identity, error) {
	if s.err != nil {
		return auth.Identity{}, s.err
	}
	id, ok := s.ids[cred]
	if !ok {
		return auth.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}
func (s stubStrategy) End(context.Context, string) error { return nil }

func TestIdentity_Credential(t *testing.T) {
	token := NewIdentity(stubStrategy{kind: auth.KindToken}, "session")
	stateful := NewIdentity(stubStrategy{kind: auth.KindStateful}, "session")

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer abc ")
	r.AddCookie(&http.Cookie{Name: "session", Value: "sid"})

	require.Equal(t, "abc", token.Credential(r))
	require.Equal(t, "sid", stateful.Credential(r))

	bare := httptest.NewRequest(http.MethodGet, "/", nil)
	bare.Header.Set("Authorization", "Basic dTpw")
	require.Empty(t, token.Credential(bare))
	require.Empty(t, stateful.Credential(bare))
}

func TestIdentity_Require(t *testing.T) {
	m := NewIdentity(stubStrategy{
		kind: auth.KindToken,
		ids:  map[string]auth.Identity{"good": {UserID: 7}},
	}, "session")

	var got auth.Identity
	h := m.Require(func(w http.ResponseWriter, r *http.Request, id auth.Identity) {
		got = id
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "invalid", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "valid", header: "Bearer good", status: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/user", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h(rec, r)
			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Equal(t, "unauthorized", body["code"])
				require.NotEmpty(t, body["error"])
			}
		})
	}
	require.Equal(t, int64(7), got.UserID)
}

func TestIdentity_RequireExpired(t *testing.T) {
	m := NewIdentity(stubStrategy{kind: auth.KindToken, err: auth.ErrTokenExpired}, "session")
	h := m.Require(func(http.ResponseWriter, *http.Request, auth.Identity) {
		t.Fatal("handler must not run")
	})

	r := httptest.NewRequest(http.MethodGet, "/user", nil)
	r.Header.Set("Authorization", "Bearer old")
	rec := httptest.NewRecorder()
	h(rec, r)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "token expired")
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("kaboom"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "kaboom")
	require.Contains(t, rec.Body.String(), "internal_error")
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestIDFrom(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	// malformed incoming ids are replaced
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	require.NotEqual(t, "<script>", seen)
}

func counterValue(t *testing.T, route, method, status string) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.RequestsTotal.WithLabelValues(route, method, status).Write(&m))
	return m.GetCounter().GetValue()
}

func TestHTTPMetrics_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetrics)
	r.Get("/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })

	before := counterValue(t, "/items/{id}", http.MethodGet, "418")
	for _, p := range []string{"/items/1", "/items/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}
	require.Equal(t, before+2, counterValue(t, "/items/{id}", http.MethodGet, "418"))
}

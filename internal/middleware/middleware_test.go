package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/stretchr/testify/assert"
)

type tokenTable map[string]auth.UserContext

func (t tokenTable) Authorize(_ context.Context, token string) auth.UserContext {
	if u, ok := t[token]; ok {
		return u
	}
	return auth.Anonymous
}

func (tokenTable) Login(context.Context, *dto.LoginInput) (*dto.Session, error) { return nil, nil }

func (tokenTable) CreateUser(context.Context, *dto.CreateUserInput) (*model.User, error) {
	return nil, nil
}

func TestAuthenticateThenRequireRoles(t *testing.T) {
	users := tokenTable{"k": {Username: "kitchen", Role: model.RoleKitchen}}
	var seen auth.UserContext
	h := Authenticate(users)(RequireRoles(logger.NewNop(), model.RoleKitchen)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = auth.GetUser(r.Context())
			w.WriteHeader(http.StatusNoContent)
		}),
	))

	for token, want := range map[string]int{"": http.StatusUnauthorized, "bogus": http.StatusUnauthorized, "k": http.StatusNoContent} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, "token %q", token)
	}
	assert.Equal(t, "kitchen", seen.Username)
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	h := RequestLogger(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

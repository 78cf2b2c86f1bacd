package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/forecast"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/handler"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/lock"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/repository"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/usecase"
	authDto "github.com/fekuna/omnipos-restaurant-service/internal/auth/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/middleware"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/testutil"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) (http.Handler, func(model.Role) string) {
	t.Helper()
	s := testutil.NewStack(t)
	uc := usecase.NewAnalyticsUseCase(
		repository.NewSQLRepository(s.DB),
		s.TxM,
		forecast.NewForestTrainer(forecast.ForestConfig{Trees: 5}),
		lock.NewLocalLocker(),
		time.UTC,
		usecase.Config{MinTrainingOrders: 10},
		s.Log,
	)

	r := chi.NewRouter()
	r.Use(middleware.Authenticate(s.Auth))
	handler.NewAnalyticsHandler(uc, time.UTC, 30, s.Log).Routes(r)

	login := func(role model.Role) string {
		ctx := context.Background()
		_, err := s.Auth.CreateUser(ctx, &authDto.CreateUserInput{Username: string(role), Password: "pw", Role: role})
		require.NoError(t, err)
		session, err := s.Auth.Login(ctx, &authDto.LoginInput{Username: string(role), Password: "pw"})
		require.NoError(t, err)
		return session.Token
	}
	return r, login
}

func get(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorKind(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Kind
}

func TestAnalyticsRoutes_AdminOnly(t *testing.T) {
	h, login := newRouter(t)
	admin := login(model.RoleAdmin)
	cashier := login(model.RoleCashier)

	assert.Equal(t, http.StatusUnauthorized, get(h, http.MethodGet, "/analytics/daily", "").Code)
	assert.Equal(t, http.StatusForbidden, get(h, http.MethodGet, "/analytics/daily", cashier).Code)

	rec := get(h, http.MethodGet, "/analytics/daily?date=2026-03-02", admin)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var daily dto.DailyStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &daily))
	assert.Equal(t, "2026-03-02", daily.Date)
	assert.Zero(t, daily.OrderCount)

	rec = get(h, http.MethodGet, "/analytics/monthly?month=2026-02", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	var monthly dto.MonthlyStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &monthly))
	assert.Len(t, monthly.DailyBreakdown, 28)
}

func TestAnalyticsRoutes_Errors(t *testing.T) {
	h, login := newRouter(t)
	admin := login(model.RoleAdmin)

	cases := []struct {
		method, path string
		status       int
		kind         string
	}{
		{http.MethodGet, "/analytics/daily?date=03-02-2026", http.StatusBadRequest, "validation_error"},
		{http.MethodGet, "/analytics/popular-items?limit=-3", http.StatusBadRequest, "validation_error"},
		{http.MethodGet, "/analytics/predict?category=dessert", http.StatusBadRequest, "validation_error"},
		{http.MethodGet, "/analytics/predict?category=drinks&hours=2", http.StatusConflict, "model_not_trained"},
		{http.MethodGet, "/analytics/predictions", http.StatusConflict, "model_not_trained"},
		{http.MethodPost, "/analytics/train", http.StatusConflict, "insufficient_data"},
	}
	for _, tc := range cases {
		rec := get(h, tc.method, tc.path, admin)
		assert.Equal(t, tc.status, rec.Code, tc.path)
		assert.Equal(t, tc.kind, errorKind(t, rec), tc.path)
	}
}

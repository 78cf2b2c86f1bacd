package handler

import (
	"net/http"

	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/middleware"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/response"
	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	uc      auth.UseCase
	limiter *middleware.RateLimiter
	logger  logger.ZapLogger
}

// NewAuthHandler builds the login endpoint. A nil limiter leaves it unthrottled.
func NewAuthHandler(uc auth.UseCase, limiter *middleware.RateLimiter, log logger.ZapLogger) *AuthHandler {
	return &AuthHandler{
		uc:      uc,
		limiter: limiter,
		logger:  log,
	}
}

func (h *AuthHandler) Routes(r chi.Router) {
	if h.limiter != nil {
		r = r.With(h.limiter.Middleware)
	}
	r.Post("/auth/login", h.Login)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input dto.LoginInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, h.logger, err)
		return
	}

	session, err := h.uc.Login(r.Context(), &input)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, session)
}

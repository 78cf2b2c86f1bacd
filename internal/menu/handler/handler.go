package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/middleware"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/response"
	"github.com/go-chi/chi/v5"
)

type MenuHandler struct {
	uc     menu.UseCase
	logger logger.ZapLogger
}

func NewMenuHandler(uc menu.UseCase, log logger.ZapLogger) *MenuHandler {
	return &MenuHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *MenuHandler) Routes(r chi.Router) {
	anyone := middleware.RequireRoles(h.logger, middleware.AnyRole...)
	r.With(anyone).Get("/menu", h.GetMenu)
	r.With(anyone).Get("/menu/{id}", h.GetMenuItem)

	puncher := middleware.RequireRoles(h.logger, model.RolePuncher)
	r.With(puncher).Post("/menu", h.AddMenuItem)
	r.With(puncher).Put("/menu/{id}", h.UpdateMenuItem)
}

func (h *MenuHandler) GetMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.uc.GetMenu(r.Context())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

func (h *MenuHandler) GetMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := MenuItemID(r)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	item, err := h.uc.GetMenuItem(r.Context(), id)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

func (h *MenuHandler) AddMenuItem(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateMenuItemInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	input.Actor = auth.GetUsername(r.Context())

	item, err := h.uc.AddMenuItem(r.Context(), &input)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, item)
}

func (h *MenuHandler) UpdateMenuItem(w http.ResponseWriter, r *http.Request) {
	id, err := MenuItemID(r)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	var input dto.UpdateMenuItemInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	input.ID = id
	input.Actor = auth.GetUsername(r.Context())

	item, err := h.uc.UpdateMenuItem(r.Context(), &input)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, item)
}

// MenuItemID parses the {id} path parameter.
func MenuItemID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.New(apperror.KindValidation, "invalid menu item id %q", raw)
	}
	return id, nil
}

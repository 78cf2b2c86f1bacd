package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	"github.com/fekuna/omnipos-restaurant-service/internal/middleware"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order"
	"github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/response"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	uc     order.UseCase
	logger logger.ZapLogger
}

func NewOrderHandler(uc order.UseCase, log logger.ZapLogger) *OrderHandler {
	return &OrderHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *OrderHandler) Routes(r chi.Router) {
	r.With(middleware.RequireRoles(h.logger, model.RoleCashier)).Post("/orders", h.CreateOrder)

	readers := middleware.RequireRoles(h.logger, model.RoleCashier, model.RoleKitchen, model.RoleAdmin)
	r.With(readers).Get("/orders", h.ListOrders)
	r.With(readers).Get("/orders/{id}", h.GetOrder)
	r.With(readers).Patch("/orders/{id}/status", h.AdvanceStatus)
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input dto.CreateOrderInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	input.Actor = auth.GetUsername(r.Context())

	o, err := h.uc.CreateOrder(r.Context(), &input)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	o, err := h.uc.GetOrder(r.Context(), id)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, o)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	filters := &dto.OrderFilters{Status: model.OrderStatus(r.URL.Query().Get("status"))}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			response.Error(w, h.logger, apperror.New(apperror.KindValidation, "limit must be a non-negative integer"))
			return
		}
		filters.Limit = limit
	}

	orders, err := h.uc.ListOrders(r.Context(), filters)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *OrderHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := orderID(r)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	var input dto.AdvanceStatusInput
	if err := response.Decode(r, &input); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	user := auth.GetUser(r.Context())
	input.OrderID = id
	input.Actor = user.Username
	input.Role = user.Role

	o, err := h.uc.AdvanceStatus(r.Context(), &input)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, o)
}

func orderID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.New(apperror.KindValidation, "invalid order id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

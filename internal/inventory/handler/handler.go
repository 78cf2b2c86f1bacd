package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	menuHandler "github.com/fekuna/omnipos-restaurant-service/internal/menu/handler"
	"github.com/fekuna/omnipos-restaurant-service/internal/middleware"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/response"
	"github.com/go-chi/chi/v5"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

type adjustStockRequest struct {
	QuantityChange int    `json:"quantity_change"`
	Notes          string `json:"notes"`
}

type movementsResponse struct {
	Movements []model.StockMovement `json:"movements"`
	Total     int                   `json:"total"`
}

func (h *InventoryHandler) Routes(r chi.Router) {
	r.With(middleware.RequireRoles(h.logger, model.RolePuncher)).Patch("/menu/{id}/stock", h.AdjustStock)

	auditors := middleware.RequireRoles(h.logger, model.RolePuncher, model.RoleAdmin)
	r.With(auditors).Get("/stock/movements", h.ListMovements)
	r.With(auditors).Get("/stock/reconcile", h.Reconcile)
}

func (h *InventoryHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := menuHandler.MenuItemID(r)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}

	var req adjustStockRequest
	if err := response.Decode(r, &req); err != nil {
		response.Error(w, h.logger, err)
		return
	}

	movement, err := h.uc.AdjustStock(r.Context(), &dto.AdjustStockInput{
		MenuItemID:     id,
		QuantityChange: req.QuantityChange,
		Reason:         req.Notes,
		Actor:          auth.GetUsername(r.Context()),
	})
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, movement)
}

func (h *InventoryHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := &dto.MovementFilters{Cause: model.MovementCause(q.Get("cause"))}

	var err error
	if filters.MenuItemID, err = optionalID(q.Get("menu_item_id")); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	if filters.OrderID, err = optionalID(q.Get("order_id")); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	if filters.StartDate, err = optionalDate(q.Get("from")); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	if filters.EndDate, err = optionalDate(q.Get("to")); err != nil {
		response.Error(w, h.logger, err)
		return
	}
	filters.Page, _ = strconv.Atoi(q.Get("page"))
	filters.PageSize, _ = strconv.Atoi(q.Get("page_size"))
	if filters.PageSize <= 0 {
		filters.PageSize = 100
	}

	movements, total, err := h.uc.ListMovements(r.Context(), filters)
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, movementsResponse{Movements: movements, Total: total})
}

func (h *InventoryHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	rows, err := h.uc.Reconcile(r.Context())
	if err != nil {
		response.Error(w, h.logger, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]interface{}{"items": rows})
}

func optionalID(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid id %q", raw)
	}
	return &id, nil
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "invalid timestamp %q, expected RFC3339", raw)
	}
	return &t, nil
}

package dto

import (
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/shopspring/decimal"
)

type LineInput struct {
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	SideOption string `json:"side_option,omitempty"`
}

type CreateOrderInput struct {
	CustomerName  string      `json:"customer_name"`
	Lines         []LineInput `json:"items"`
	PaymentMethod string      `json:"payment_method"`
	// ClientTotal is advisory; the stored total is always recomputed.
	ClientTotal *decimal.Decimal `json:"total,omitempty"`
	Actor       string           `json:"-"`
}

type AdvanceStatusInput struct {
	OrderID int64             `json:"-"`
	Target  model.OrderStatus `json:"status"`
	Actor   string            `json:"-"`
	Role    model.Role        `json:"-"`
}

type OrderFilters struct {
	Status model.OrderStatus
	Limit  int
}

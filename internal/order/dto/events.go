package dto

import (
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

type OrderCreatedPayload struct {
	OrderID   int64              `json:"order_id"`
	Total     string             `json:"total"`
	Items     []OrderItemPayload `json:"items"`
	CreatedBy string             `json:"created_by"`
	CreatedAt time.Time          `json:"created_at"`
}

type OrderItemPayload struct {
	MenuItemID int64  `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	SideOption string `json:"side_option,omitempty"`
}

type StatusChangedPayload struct {
	OrderID   int64             `json:"order_id"`
	From      model.OrderStatus `json:"from"`
	To        model.OrderStatus `json:"to"`
	Actor     string            `json:"actor"`
	ChangedAt time.Time         `json:"changed_at"`
}

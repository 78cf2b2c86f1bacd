package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending  OrderStatus = "pending"
	StatusReady    OrderStatus = "ready"
	StatusComplete OrderStatus = "complete"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReady, StatusComplete:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCash || p == PaymentCard
}

type Order struct {
	ID            int64           `db:"id" json:"id"`
	CustomerName  string          `db:"customer_name" json:"customer_name"`
	Total         decimal.Decimal `db:"total" json:"total"`
	Status        OrderStatus     `db:"status" json:"status"`
	PaymentMethod PaymentMethod   `db:"payment_method" json:"payment_method"`
	CreatedBy     string          `db:"created_by" json:"created_by"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	ReadyAt       *time.Time      `db:"ready_at" json:"ready_at,omitempty"`
	CompletedAt   *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	Items         []OrderItem     `db:"-" json:"items"`
}

// OrderItem snapshots the catalog at order time so later price edits never rewrite history.
type OrderItem struct {
	ID            int64           `db:"id" json:"id"`
	OrderID       int64           `db:"order_id" json:"order_id"`
	MenuItemID    int64           `db:"menu_item_id" json:"menu_item_id"`
	MenuItemName  string          `db:"menu_item_name" json:"menu_item_name"`
	Category      Category        `db:"category" json:"category"`
	Quantity      int             `db:"quantity" json:"quantity"`
	BasePrice     decimal.Decimal `db:"base_price" json:"base_price"`
	SideOption    *string         `db:"side_option" json:"side_option,omitempty"`
	SideSurcharge decimal.Decimal `db:"side_surcharge" json:"side_surcharge"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

package model

import "time"

type MovementCause string

const (
	CauseInitial    MovementCause = "initial"
	CauseSale       MovementCause = "sale"
	CauseRestock    MovementCause = "restock"
	CauseAdjustment MovementCause = "adjustment"
)

func (c MovementCause) Valid() bool {
	switch c {
	case CauseInitial, CauseSale, CauseRestock, CauseAdjustment:
		return true
	}
	return false
}

type StockMovement struct {
	ID             string        `db:"id" json:"id"`
	MenuItemID     int64         `db:"menu_item_id" json:"menu_item_id"`
	MenuItemName   string        `db:"menu_item_name" json:"menu_item_name"`
	QuantityChange int           `db:"quantity_change" json:"quantity_change"`
	StockBefore    int           `db:"stock_before" json:"stock_before"`
	StockAfter     int           `db:"stock_after" json:"stock_after"`
	Cause          MovementCause `db:"cause" json:"cause"`
	OrderID        *int64        `db:"order_id" json:"order_id,omitempty"`
	Notes          string        `db:"notes" json:"notes"`
	CreatedBy      string        `db:"created_by" json:"created_by"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
}

// StockReconciliation compares an item's stock with the replay of its movements.
type StockReconciliation struct {
	MenuItemID    int64  `db:"menu_item_id" json:"menu_item_id"`
	MenuItemName  string `db:"menu_item_name" json:"menu_item_name"`
	CurrentStock  int    `db:"current_stock" json:"current_stock"`
	ReplayedStock int    `db:"replayed_stock" json:"replayed_stock"`
	Consistent    bool   `db:"-" json:"consistent"`
}

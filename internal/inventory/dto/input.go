package dto

type ReserveStockInput struct {
	MenuItemID int64
	Quantity   int
	OrderID    *int64
	Actor      string
}

type ReleaseStockInput struct {
	MenuItemID int64
	Quantity   int
	OrderID    *int64
	Reason     string
	Actor      string
}

type RestockInput struct {
	MenuItemID int64
	Quantity   int
	Reason     string
	Actor      string
}

// AdjustStockInput carries a signed change from a stock count. Positive values are
// recorded as restocks, negative ones as adjustments.
type AdjustStockInput struct {
	MenuItemID     int64
	QuantityChange int
	Reason         string
	Actor          string
}

type InitialStockInput struct {
	MenuItemID int64
	Name       string
	Quantity   int
	Actor      string
}

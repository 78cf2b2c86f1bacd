package dto

import (
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/shopspring/decimal"
)

// SaleLine is one order line of a completed order, joined with its order header.
type SaleLine struct {
	OrderID      int64           `db:"order_id"`
	OrderTotal   decimal.Decimal `db:"order_total"`
	CreatedAt    time.Time       `db:"created_at"`
	MenuItemID   int64           `db:"menu_item_id"`
	MenuItemName string          `db:"menu_item_name"`
	Category     model.Category  `db:"category"`
	Quantity     int             `db:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
}

func (l SaleLine) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type DailyStats struct {
	Date          string          `json:"date"`
	OrderCount    int             `json:"order_count"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	ItemsSold     map[int64]int   `json:"items_sold"`
}

type MonthlyStats struct {
	Month          string                             `json:"month"`
	OrderCount     int                                `json:"order_count"`
	TotalRevenue   decimal.Decimal                    `json:"total_revenue"`
	DailyBreakdown []DailyStats                       `json:"daily_breakdown"`
	TopCategories  map[model.Category]decimal.Decimal `json:"top_categories"`
}

type HourStat struct {
	Hour       int             `json:"hour"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type PopularItem struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Category   model.Category  `json:"category"`
	Quantity   int             `json:"quantity"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type CategoryStat struct {
	Category  model.Category  `json:"category"`
	Revenue   decimal.Decimal `json:"revenue"`
	ItemsSold int             `json:"items_sold"`
}

type DayPoint struct {
	Date       string          `json:"date"`
	OrderCount int             `json:"order_count"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type SalesTrends struct {
	Days []DayPoint `json:"days"`
	// Mean day-over-day percentage change; days with a zero predecessor are skipped.
	RevenueChangePct float64         `json:"revenue_change_pct"`
	OrderChangePct   float64         `json:"order_change_pct"`
	AvgDailyRevenue  decimal.Decimal `json:"avg_daily_revenue"`
	AvgDailyOrders   float64         `json:"avg_daily_orders"`
}

type PredictionWindow struct {
	Start time.Time
	Hours int
}

type Prediction struct {
	Category model.Category `json:"category"`
	Start    time.Time      `json:"start"`
	Hours    int            `json:"hours"`
	Quantity int            `json:"quantity"`
}

type Recommendation struct {
	Category        model.Category `json:"category"`
	PredictedDemand int            `json:"predicted_demand"`
	SuggestedStock  int            `json:"suggested_stock"`
}

type TrainingReport struct {
	Orders    int       `json:"orders"`
	Samples   int       `json:"samples"`
	TrainMAE  float64   `json:"train_mae"`
	TrainedAt time.Time `json:"trained_at"`
}

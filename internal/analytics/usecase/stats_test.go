package usecase

import (
	"testing"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sast = time.FixedZone("SAST", 2*60*60)

func sale(orderID int64, at time.Time, total string, itemID int64, category model.Category, qty int, unit string) dto.SaleLine {
	return dto.SaleLine{
		OrderID:      orderID,
		OrderTotal:   decimal.RequireFromString(total),
		CreatedAt:    at,
		MenuItemID:   itemID,
		MenuItemName: "item",
		Category:     category,
		Quantity:     qty,
		UnitPrice:    decimal.RequireFromString(unit),
	}
}

func TestGroupOrders_KeepsOneTotalPerOrder(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	orders := groupOrders([]dto.SaleLine{
		sale(1, at, "70", 1, model.CategoryDrink, 2, "25"),
		sale(1, at, "70", 2, model.CategorySide, 1, "20"),
		sale(2, at, "25", 1, model.CategoryDrink, 1, "25"),
	}, sast)

	require.Len(t, orders, 2)
	assert.Len(t, orders[0].Lines, 2)
	assert.Equal(t, 12, orders[0].CreatedAt.Hour())

	daily := dailyStats(orders, time.Date(2026, 3, 2, 0, 0, 0, 0, sast))
	assert.Equal(t, 2, daily.OrderCount)
	assert.True(t, decimal.NewFromInt(95).Equal(daily.TotalRevenue))
	assert.True(t, decimal.RequireFromString("47.5").Equal(daily.AvgOrderValue))
	assert.Equal(t, 3, daily.ItemsSold[1])
}

func TestPeakHours_OrderedByCountThenHour(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, sast)
	mk := func(id int64, hour int) saleOrder {
		return saleOrder{ID: id, Total: decimal.NewFromInt(10), CreatedAt: day.Add(time.Duration(hour) * time.Hour)}
	}
	orders := []saleOrder{mk(1, 18), mk(2, 12), mk(3, 12), mk(4, 9), mk(5, 18), mk(6, 20)}

	hours := peakHours(orders, time.Time{})
	require.Len(t, hours, 4)
	assert.Equal(t, []int{12, 18, 9, 20}, []int{hours[0].Hour, hours[1].Hour, hours[2].Hour, hours[3].Hour})
	assert.Equal(t, 2, hours[0].OrderCount)
	assert.True(t, decimal.NewFromInt(20).Equal(hours[0].Revenue))

	recent := peakHours(orders, day.Add(19*time.Hour))
	require.Len(t, recent, 1)
	assert.Equal(t, 20, recent[0].Hour)
}

func TestSalesTrends_DayOverDayChange(t *testing.T) {
	first := time.Date(2026, 3, 1, 0, 0, 0, 0, sast)
	mk := func(id int64, day int, total int64) saleOrder {
		return saleOrder{ID: id, Total: decimal.NewFromInt(total), CreatedAt: first.AddDate(0, 0, day).Add(13 * time.Hour)}
	}
	orders := []saleOrder{mk(1, 0, 100), mk(2, 1, 100), mk(3, 1, 50), mk(4, 2, 75), mk(5, 5, 999)}

	trends := salesTrends(orders, first, 3)
	require.Len(t, trends.Days, 3)
	assert.Equal(t, "2026-03-01", trends.Days[0].Date)
	assert.Equal(t, 2, trends.Days[1].OrderCount)
	// revenue: +50% then -50%; orders: +100% then -50%
	assert.Equal(t, 0.0, trends.RevenueChangePct)
	assert.Equal(t, 25.0, trends.OrderChangePct)
	assert.True(t, decimal.RequireFromString("108.33").Equal(trends.AvgDailyRevenue), trends.AvgDailyRevenue.String())
	assert.Equal(t, 1.33, trends.AvgDailyOrders)
}

func TestCategoryPerformance_SortedByRevenue(t *testing.T) {
	at := time.Date(2026, 3, 2, 10, 0, 0, 0, sast)
	orders := groupOrders([]dto.SaleLine{
		sale(1, at, "185", 1, model.CategoryMeat, 1, "140"),
		sale(1, at, "185", 2, model.CategoryDrink, 1, "25"),
		sale(1, at, "185", 3, model.CategorySide, 1, "20"),
	}, sast)

	stats := categoryPerformance(orders)
	require.Len(t, stats, 3)
	assert.Equal(t, model.CategoryMeat, stats[0].Category)
	assert.Equal(t, model.CategoryDrink, stats[1].Category)
	assert.Equal(t, model.CategorySide, stats[2].Category)
}

func TestBuildSamples_RollingDemandUsesPreviousBuckets(t *testing.T) {
	day := time.Date(2026, 3, 2, 0, 0, 0, 0, sast)
	var lines []dto.SaleLine
	for i, qty := range []int{2, 4, 6, 8} {
		at := day.Add(time.Duration(10+i) * time.Hour)
		lines = append(lines, sale(int64(i+1), at, "10", 1, model.CategoryDrink, qty, "5"))
	}

	samples, recent := buildSamples(groupOrders(lines, sast))
	require.Len(t, samples, 4)

	rolling := []float64{0, 2, 3, 4}
	for i, s := range samples {
		assert.Equal(t, float64(model.CategoryDrink.Index()), s.Features[0])
		assert.Equal(t, float64(10+i), s.Features[1])
		assert.Equal(t, float64(time.Monday), s.Features[2])
		assert.Equal(t, float64(time.March), s.Features[3])
		assert.Equal(t, rolling[i], s.Features[4])
	}
	assert.Equal(t, []float64{4, 6, 8}, recent[model.CategoryDrink])
	assert.Empty(t, recent[model.CategoryMeat])
}

package usecase

import (
	"math"
	"sort"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// saleOrder is a completed order with its lines, timestamped in the restaurant timezone.
type saleOrder struct {
	ID        int64
	Total     decimal.Decimal
	CreatedAt time.Time
	Lines     []dto.SaleLine
}

func groupOrders(lines []dto.SaleLine, loc *time.Location) []saleOrder {
	var orders []saleOrder
	index := make(map[int64]int)
	for _, l := range lines {
		i, ok := index[l.OrderID]
		if !ok {
			i = len(orders)
			index[l.OrderID] = i
			orders = append(orders, saleOrder{
				ID:        l.OrderID,
				Total:     l.OrderTotal,
				CreatedAt: l.CreatedAt.In(loc),
			})
		}
		orders[i].Lines = append(orders[i].Lines, l)
	}
	return orders
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func within(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func dailyStats(orders []saleOrder, day time.Time) dto.DailyStats {
	next := day.AddDate(0, 0, 1)
	s := dto.DailyStats{
		Date:          day.Format(dateLayout),
		TotalRevenue:  decimal.Zero,
		AvgOrderValue: decimal.Zero,
		ItemsSold:     make(map[int64]int),
	}
	for _, o := range orders {
		if !within(o.CreatedAt, day, next) {
			continue
		}
		s.OrderCount++
		s.TotalRevenue = s.TotalRevenue.Add(o.Total)
		for _, l := range o.Lines {
			s.ItemsSold[l.MenuItemID] += l.Quantity
		}
	}
	if s.OrderCount > 0 {
		s.AvgOrderValue = roundMoney(s.TotalRevenue.Div(decimal.NewFromInt(int64(s.OrderCount))))
	}
	return s
}

func monthlyStats(orders []saleOrder, year int, month time.Month, loc *time.Location) *dto.MonthlyStats {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	next := first.AddDate(0, 1, 0)

	s := &dto.MonthlyStats{
		Month:         first.Format("2006-01"),
		TotalRevenue:  decimal.Zero,
		TopCategories: make(map[model.Category]decimal.Decimal),
	}
	for day := first; day.Before(next); day = day.AddDate(0, 0, 1) {
		daily := dailyStats(orders, day)
		s.OrderCount += daily.OrderCount
		s.TotalRevenue = s.TotalRevenue.Add(daily.TotalRevenue)
		s.DailyBreakdown = append(s.DailyBreakdown, daily)
	}
	for _, o := range orders {
		if !within(o.CreatedAt, first, next) {
			continue
		}
		for _, l := range o.Lines {
			s.TopCategories[l.Category] = s.TopCategories[l.Category].Add(l.LineTotal())
		}
	}
	return s
}

// peakHours counts orders per hour of day since the given time (zero for all history).
func peakHours(orders []saleOrder, since time.Time) []dto.HourStat {
	var buckets [24]dto.HourStat
	for h := range buckets {
		buckets[h] = dto.HourStat{Hour: h, Revenue: decimal.Zero}
	}
	for _, o := range orders {
		if !since.IsZero() && o.CreatedAt.Before(since) {
			continue
		}
		b := &buckets[o.CreatedAt.Hour()]
		b.OrderCount++
		b.Revenue = b.Revenue.Add(o.Total)
	}

	var out []dto.HourStat
	for _, b := range buckets {
		if b.OrderCount > 0 {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrderCount != out[j].OrderCount {
			return out[i].OrderCount > out[j].OrderCount
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

func popularItems(orders []saleOrder, limit int) []dto.PopularItem {
	byID := make(map[int64]*dto.PopularItem)
	for _, o := range orders {
		for _, l := range o.Lines {
			p, ok := byID[l.MenuItemID]
			if !ok {
				p = &dto.PopularItem{MenuItemID: l.MenuItemID, Revenue: decimal.Zero}
				byID[l.MenuItemID] = p
			}
			// Lines arrive oldest first, so the latest name wins.
			p.Name = l.MenuItemName
			p.Category = l.Category
			p.Quantity += l.Quantity
			p.Revenue = p.Revenue.Add(l.LineTotal())
		}
	}

	out := make([]dto.PopularItem, 0, len(byID))
	for _, p := range byID {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Quantity != out[j].Quantity {
			return out[i].Quantity > out[j].Quantity
		}
		return out[i].MenuItemID < out[j].MenuItemID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func categoryPerformance(orders []saleOrder) []dto.CategoryStat {
	stats := make([]dto.CategoryStat, len(model.Categories))
	for i, c := range model.Categories {
		stats[i] = dto.CategoryStat{Category: c, Revenue: decimal.Zero}
	}
	for _, o := range orders {
		for _, l := range o.Lines {
			i := l.Category.Index()
			if i < 0 {
				continue
			}
			stats[i].Revenue = stats[i].Revenue.Add(l.LineTotal())
			stats[i].ItemsSold += l.Quantity
		}
	}
	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].Revenue.GreaterThan(stats[j].Revenue)
	})
	return stats
}

func salesTrends(orders []saleOrder, first time.Time, days int) *dto.SalesTrends {
	t := &dto.SalesTrends{
		Days:            make([]dto.DayPoint, days),
		AvgDailyRevenue: decimal.Zero,
	}
	for i := range t.Days {
		day := first.AddDate(0, 0, i)
		t.Days[i] = dto.DayPoint{Date: day.Format(dateLayout), Revenue: decimal.Zero}
	}

	end := first.AddDate(0, 0, days)
	totalRevenue := decimal.Zero
	totalOrders := 0
	for _, o := range orders {
		if !within(o.CreatedAt, first, end) {
			continue
		}
		i := dayIndex(first, o.CreatedAt)
		if i < 0 || i >= days {
			continue
		}
		t.Days[i].OrderCount++
		t.Days[i].Revenue = t.Days[i].Revenue.Add(o.Total)
		totalRevenue = totalRevenue.Add(o.Total)
		totalOrders++
	}

	var revChanges, orderChanges []float64
	for i := 1; i < days; i++ {
		prev, cur := t.Days[i-1], t.Days[i]
		if prev.Revenue.IsPositive() {
			change, _ := cur.Revenue.Sub(prev.Revenue).Div(prev.Revenue).Float64()
			revChanges = append(revChanges, change*100)
		}
		if prev.OrderCount > 0 {
			orderChanges = append(orderChanges, float64(cur.OrderCount-prev.OrderCount)/float64(prev.OrderCount)*100)
		}
	}
	t.RevenueChangePct = round2(mean(revChanges))
	t.OrderChangePct = round2(mean(orderChanges))
	t.AvgDailyRevenue = roundMoney(totalRevenue.Div(decimal.NewFromInt(int64(days))))
	t.AvgDailyOrders = round2(float64(totalOrders) / float64(days))
	return t
}

// dayIndex counts calendar days from first to t, both in the same location.
func dayIndex(first, t time.Time) int {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	fy, fm, fd := first.Date()
	from := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	return int(day.Sub(from).Hours() / 24)
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

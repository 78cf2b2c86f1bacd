package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/forecast"
	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/fekuna/omnipos-restaurant-service/pkg/observability"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPopularLimit = 10
	defaultTrendDays    = 7
	maxTrendDays        = 366
)

type Config struct {
	// ModelPath is where the trained predictor is persisted. Empty keeps it in memory only.
	ModelPath         string
	MinTrainingOrders int
}

type analyticsUseCase struct {
	repo    analytics.Repository
	txm     *database.TxManager
	trainer forecast.Trainer
	locker  analytics.Locker
	loc     *time.Location
	cfg     Config
	tracer  trace.Tracer
	logger  logger.ZapLogger
	now     func() time.Time

	mu      sync.RWMutex
	current *demandModel
}

func NewAnalyticsUseCase(
	repo analytics.Repository,
	txm *database.TxManager,
	trainer forecast.Trainer,
	locker analytics.Locker,
	loc *time.Location,
	cfg Config,
	log logger.ZapLogger,
) analytics.UseCase {
	if loc == nil {
		loc = time.UTC
	}
	if cfg.MinTrainingOrders <= 0 {
		cfg.MinTrainingOrders = 10
	}
	return &analyticsUseCase{
		repo:    repo,
		txm:     txm,
		trainer: trainer,
		locker:  locker,
		loc:     loc,
		cfg:     cfg,
		tracer:  observability.Tracer("analytics"),
		logger:  log.Named("analytics"),
		now:     time.Now,
	}
}

// completedOrders reads the ledger in one snapshot and regroups lines by order.
func (uc *analyticsUseCase) completedOrders(ctx context.Context) ([]saleOrder, error) {
	var lines []dto.SaleLine
	err := uc.txm.WithSnapshot(ctx, func(ctx context.Context) error {
		var err error
		lines, err = uc.repo.CompletedSales(ctx)
		return err
	})
	if err != nil {
		return nil, apperror.Internal(err, "read completed sales")
	}
	return groupOrders(lines, uc.loc), nil
}

func (uc *analyticsUseCase) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := uc.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(apperror.KindOf(err)))
		}
		span.End()
	}
}

func (uc *analyticsUseCase) DailyStats(ctx context.Context, date time.Time) (stats *dto.DailyStats, err error) {
	ctx, end := uc.startSpan(ctx, "analytics.daily")
	defer func() { end(err) }()

	orders, err := uc.completedOrders(ctx)
	if err != nil {
		return nil, err
	}
	day := startOfDay(date.In(uc.loc))
	s := dailyStats(orders, day)
	return &s, nil
}

func (uc *analyticsUseCase) MonthlyStats(ctx context.Context, year int, month time.Month) (stats *dto.MonthlyStats, err error) {
	ctx, end := uc.startSpan(ctx, "analytics.monthly")
	defer func() { end(err) }()

	if month < time.January || month > time.December {
		return nil, apperror.New(apperror.KindValidation, "month must be between 1 and 12")
	}
	orders, err := uc.completedOrders(ctx)
	if err != nil {
		return nil, err
	}
	return monthlyStats(orders, year, month, uc.loc), nil
}

func (uc *analyticsUseCase) PeakHours(ctx context.Context, lookbackDays int) (hours []dto.HourStat, err error) {
	ctx, end := uc.startSpan(ctx, "analytics.peak_hours")
	defer func() { end(err) }()

	if lookbackDays < 0 {
		return nil, apperror.New(apperror.KindValidation, "lookback days must not be negative")
	}
	orders, err := uc.completedOrders(ctx)
	if err != nil {
		return nil, err
	}

	var since time.Time
	if lookbackDays > 0 {
		since = uc.now().In(uc.loc).AddDate(0, 0, -lookbackDays)
	}
	return peakHours(orders, since), nil
}

func (uc *analyticsUseCase) PopularItems(ctx context.Context, limit int) (items []dto.PopularItem, err error) {
	ctx, end := uc.startSpan(ctx, "analytics.popular_items")
	defer func() { end(err) }()

	if limit <= 0 {
		limit = defaultPopularLimit
	}
	orders, err := uc.completedOrders(ctx)
	if err != nil {
		return nil, err
	}
	return popularItems(orders, limit), nil
}

func (uc *analyticsUseCase) CategoryPerformance(ctx context.Context) (stats []dto.CategoryStat, err error) {
	ctx, end := uc.startSpan(ctx, "analytics.category_performance")
	defer func() { end(err) }()

	orders, err := uc.completedOrders(ctx)
	if err != nil {
		return nil, err
	}
	return categoryPerformance(orders), nil
}

func (uc *analyticsUseCase) SalesTrends(ctx context.Context, days int) (trends *dto.SalesTrends, err error) {
	ctx, end := uc.startSpan(ctx, "analytics.trends")
	defer func() { end(err) }()

	switch {
	case days == 0:
		days = defaultTrendDays
	case days < 0 || days > maxTrendDays:
		return nil, apperror.New(apperror.KindValidation, "days must be between 1 and %d", maxTrendDays)
	}
	orders, err := uc.completedOrders(ctx)
	if err != nil {
		return nil, err
	}
	today := startOfDay(uc.now().In(uc.loc))
	return salesTrends(orders, today.AddDate(0, 0, -(days-1)), days), nil
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

package analytics

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type UseCase interface {
	DailyStats(ctx context.Context, date time.Time) (*dto.DailyStats, error)
	MonthlyStats(ctx context.Context, year int, month time.Month) (*dto.MonthlyStats, error)
	PeakHours(ctx context.Context, lookbackDays int) ([]dto.HourStat, error)
	PopularItems(ctx context.Context, limit int) ([]dto.PopularItem, error)
	CategoryPerformance(ctx context.Context) ([]dto.CategoryStat, error)
	SalesTrends(ctx context.Context, days int) (*dto.SalesTrends, error)

	TrainDemandModel(ctx context.Context) (*dto.TrainingReport, error)
	PredictDemand(ctx context.Context, category model.Category, window dto.PredictionWindow) (*dto.Prediction, error)
	Recommendations(ctx context.Context, at time.Time) ([]dto.Recommendation, error)
	// LoadModel restores a previously persisted predictor, if any.
	LoadModel(ctx context.Context) error
}

// Locker serialises training runs. unlock is safe to call once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

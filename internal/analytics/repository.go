package analytics

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
)

type Repository interface {
	// CompletedSales returns every line of every complete order, oldest order first.
	CompletedSales(ctx context.Context) ([]dto.SaleLine, error)
	CountCompleted(ctx context.Context) (int, error)
}

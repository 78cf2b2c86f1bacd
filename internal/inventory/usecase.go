package inventory

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type UseCase interface {
	ReserveStock(ctx context.Context, input *dto.ReserveStockInput) (*model.StockMovement, error)
	ReleaseStock(ctx context.Context, input *dto.ReleaseStockInput) (*model.StockMovement, error)
	Restock(ctx context.Context, input *dto.RestockInput) (*model.StockMovement, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockMovement, error)
	RecordInitialStock(ctx context.Context, input *dto.InitialStockInput) (*model.StockMovement, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	Reconcile(ctx context.Context) ([]model.StockReconciliation, error)
}

// CatalogInvalidator drops any cached catalog after stock changes commit.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context)
}

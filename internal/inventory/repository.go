package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type Repository interface {
	GetItemStock(ctx context.Context, itemID int64) (*dto.ItemStock, error)

	// Core stock operations. Decrement only applies when enough stock is on hand and
	// reports ok=false otherwise; Increment reports ok=false for an unknown item.
	Decrement(ctx context.Context, itemID int64, qty int, at time.Time) (item *dto.ItemStock, ok bool, err error)
	Increment(ctx context.Context, itemID int64, qty int, at time.Time) (item *dto.ItemStock, ok bool, err error)

	// Movements / Audit
	LogMovement(ctx context.Context, movement *model.StockMovement) error
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error)
	Reconcile(ctx context.Context) ([]model.StockReconciliation, error)
}

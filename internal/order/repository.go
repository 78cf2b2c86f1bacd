package order

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
)

// Repository is the append-only order ledger. Orders are never deleted; only their
// status and status timestamps change.
type Repository interface {
	Create(ctx context.Context, order *model.Order) error
	CreateItems(ctx context.Context, items []model.OrderItem) error
	FindByID(ctx context.Context, id int64) (*model.Order, error)
	FindAll(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, error)
	// TransitionStatus moves the order from one status to another and reports false when
	// the order was no longer in the from status.
	TransitionStatus(ctx context.Context, id int64, from, to model.OrderStatus, at time.Time) (bool, error)
}

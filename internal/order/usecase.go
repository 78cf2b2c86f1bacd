package order

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
)

type UseCase interface {
	CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error)
	AdvanceStatus(ctx context.Context, input *dto.AdvanceStatusInput) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, error)
}

// EventPublisher delivers order events after they commit. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, key, eventType string, payload interface{}) error
}

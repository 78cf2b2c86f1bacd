package menu

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, item *model.MenuItem) error
	FindByID(ctx context.Context, id int64) (*model.MenuItem, error)
	FindByIDs(ctx context.Context, ids []int64) ([]model.MenuItem, error)
	FindAll(ctx context.Context) ([]model.MenuItem, error)
	// Update rewrites catalog fields and side options. Stock is never touched here.
	Update(ctx context.Context, item *model.MenuItem) error
	Count(ctx context.Context) (int, error)
}

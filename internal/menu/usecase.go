package menu

import (
	"context"

	"github.com/fekuna/omnipos-restaurant-service/internal/menu/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
)

type UseCase interface {
	GetMenu(ctx context.Context) ([]model.MenuItem, error)
	GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error)
	// GetMenuItems bypasses the cache and joins any transaction carried by ctx.
	GetMenuItems(ctx context.Context, ids []int64) (map[int64]*model.MenuItem, error)
	AddMenuItem(ctx context.Context, input *dto.CreateMenuItemInput) (*model.MenuItem, error)
	UpdateMenuItem(ctx context.Context, input *dto.UpdateMenuItemInput) (*model.MenuItem, error)
}

// CatalogCache holds the full catalog between mutations. Every Invalidate starts a new
// generation; Set only stores a catalog loaded within the generation it was handed.
type CatalogCache interface {
	// Get returns the cached catalog, or on a miss the generation a subsequent Set must carry.
	Get(ctx context.Context) ([]model.MenuItem, uint64, bool)
	Set(ctx context.Context, gen uint64, items []model.MenuItem)
	Invalidate(ctx context.Context)
}

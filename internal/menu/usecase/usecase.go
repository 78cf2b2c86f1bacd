package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory"
	invDto "github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"go.uber.org/zap"
)

const maxNameLength = 100

type menuUseCase struct {
	repo   menu.Repository
	stock  inventory.UseCase
	txm    *database.TxManager
	cache  menu.CatalogCache
	logger logger.ZapLogger
}

func NewMenuUseCase(repo menu.Repository, stock inventory.UseCase, txm *database.TxManager, cache menu.CatalogCache, log logger.ZapLogger) menu.UseCase {
	return &menuUseCase{
		repo:   repo,
		stock:  stock,
		txm:    txm,
		cache:  cache,
		logger: log.Named("menu"),
	}
}

func (uc *menuUseCase) GetMenu(ctx context.Context) ([]model.MenuItem, error) {
	items, gen, ok := uc.cache.Get(ctx)
	if ok {
		return items, nil
	}

	items, err := uc.repo.FindAll(ctx)
	if err != nil {
		return nil, apperror.Internal(err, "load menu")
	}
	uc.cache.Set(ctx, gen, items)
	return items, nil
}

func (uc *menuUseCase) GetMenuItem(ctx context.Context, id int64) (*model.MenuItem, error) {
	item, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Internal(err, "load menu item")
	}
	if item == nil {
		return nil, apperror.New(apperror.KindNotFound, "menu item %d not found", id).ForItem(id)
	}
	return item, nil
}

func (uc *menuUseCase) GetMenuItems(ctx context.Context, ids []int64) (map[int64]*model.MenuItem, error) {
	items, err := uc.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperror.Internal(err, "load menu items")
	}
	out := make(map[int64]*model.MenuItem, len(items))
	for i := range items {
		out[items[i].ID] = &items[i]
	}
	return out, nil
}

func (uc *menuUseCase) AddMenuItem(ctx context.Context, input *dto.CreateMenuItemInput) (*model.MenuItem, error) {
	if input.Stock < 0 {
		return nil, apperror.New(apperror.KindValidation, "stock must not be negative")
	}

	now := time.Now().UTC()
	item := &model.MenuItem{
		BaseModel:    model.BaseModel{CreatedAt: now, UpdatedAt: now},
		Name:         strings.TrimSpace(input.Name),
		Price:        input.Price,
		Stock:        input.Stock,
		RequiresSide: input.RequiresSide,
	}
	category, err := model.ParseCategory(input.Category)
	if err != nil {
		return nil, apperror.New(apperror.KindValidation, "%s", err.Error())
	}
	item.Category = category
	item.SideOptions = toSideOptions(input.SideOptions)

	err = uc.txm.WithTx(ctx, func(ctx context.Context) error {
		if err := uc.validate(ctx, item); err != nil {
			return err
		}
		if err := uc.repo.Create(ctx, item); err != nil {
			return apperror.Internal(err, "create menu item")
		}
		_, err := uc.stock.RecordInitialStock(ctx, &invDto.InitialStockInput{
			MenuItemID: item.ID,
			Name:       item.Name,
			Quantity:   item.Stock,
			Actor:      input.Actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	uc.cache.Invalidate(ctx)
	uc.logger.Info("menu item added",
		zap.Int64("menu_item_id", item.ID),
		zap.String("name", item.Name),
		zap.String("actor", input.Actor),
	)
	return item, nil
}

func (uc *menuUseCase) UpdateMenuItem(ctx context.Context, input *dto.UpdateMenuItemInput) (*model.MenuItem, error) {
	var item *model.MenuItem

	err := uc.txm.WithTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = uc.GetMenuItem(ctx, input.ID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			item.Name = strings.TrimSpace(*input.Name)
		}
		if input.Category != nil {
			category, err := model.ParseCategory(*input.Category)
			if err != nil {
				return apperror.New(apperror.KindValidation, "%s", err.Error())
			}
			item.Category = category
		}
		if input.Price != nil {
			item.Price = *input.Price
		}
		if input.RequiresSide != nil {
			item.RequiresSide = *input.RequiresSide
		}
		if input.SideOptions != nil {
			item.SideOptions = toSideOptions(*input.SideOptions)
		}
		item.UpdatedAt = time.Now().UTC()

		if err := uc.validate(ctx, item); err != nil {
			return err
		}
		if err := uc.repo.Update(ctx, item); err != nil {
			return apperror.Internal(err, "update menu item")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.cache.Invalidate(ctx)
	uc.logger.Info("menu item updated", zap.Int64("menu_item_id", item.ID), zap.String("actor", input.Actor))
	return item, nil
}

func (uc *menuUseCase) validate(ctx context.Context, item *model.MenuItem) error {
	if item.Name == "" {
		return apperror.New(apperror.KindValidation, "name is required")
	}
	if len(item.Name) > maxNameLength {
		return apperror.New(apperror.KindValidation, "name must be at most %d characters", maxNameLength)
	}
	if item.Price.IsNegative() {
		return apperror.New(apperror.KindValidation, "price must not be negative")
	}
	if item.Category != model.CategoryMeat {
		if len(item.SideOptions) > 0 {
			return apperror.New(apperror.KindValidation, "side options are only allowed on %s items", model.CategoryMeat)
		}
		if item.RequiresSide {
			return apperror.New(apperror.KindValidation, "only %s items can require a side", model.CategoryMeat)
		}
	}
	if item.RequiresSide && len(item.SideOptions) == 0 {
		return apperror.New(apperror.KindValidation, "an item that requires a side needs at least one side option")
	}

	seen := make(map[string]bool, len(item.SideOptions))
	var consumed []int64
	for _, opt := range item.SideOptions {
		if opt.Name == "" {
			return apperror.New(apperror.KindValidation, "side option name is required")
		}
		if seen[opt.Name] {
			return apperror.New(apperror.KindValidation, "duplicate side option %q", opt.Name)
		}
		seen[opt.Name] = true
		if opt.Surcharge.IsNegative() {
			return apperror.New(apperror.KindValidation, "surcharge for %q must not be negative", opt.Name)
		}
		if opt.ConsumesItemID != nil {
			if item.ID != 0 && *opt.ConsumesItemID == item.ID {
				return apperror.New(apperror.KindValidation, "side option %q cannot consume its own item", opt.Name)
			}
			consumed = append(consumed, *opt.ConsumesItemID)
		}
	}

	if len(consumed) == 0 {
		return nil
	}
	found, err := uc.GetMenuItems(ctx, consumed)
	if err != nil {
		return err
	}
	for _, id := range consumed {
		if _, ok := found[id]; !ok {
			return apperror.UnknownItem(id)
		}
	}
	return nil
}

func toSideOptions(in []dto.SideOptionInput) []model.SideOption {
	out := make([]model.SideOption, 0, len(in))
	for _, opt := range in {
		out = append(out, model.SideOption{
			Name:           strings.TrimSpace(opt.Name),
			Surcharge:      opt.Surcharge,
			ConsumesItemID: opt.ConsumesItemID,
		})
	}
	return out
}

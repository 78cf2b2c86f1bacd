package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const systemActor = "system"

type inventoryUseCase struct {
	repo    inventory.Repository
	txm     *database.TxManager
	catalog inventory.CatalogInvalidator
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewInventoryUseCase(repo inventory.Repository, txm *database.TxManager, catalog inventory.CatalogInvalidator, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:    repo,
		txm:     txm,
		catalog: catalog,
		logger:  log.Named("inventory"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// stockChange is one signed mutation of an item's stock and the movement that records it.
type stockChange struct {
	itemID  int64
	delta   int
	cause   model.MovementCause
	orderID *int64
	notes   string
	actor   string
}

func (uc *inventoryUseCase) ReserveStock(ctx context.Context, input *dto.ReserveStockInput) (*model.StockMovement, error) {
	if input.Quantity <= 0 {
		return nil, apperror.New(apperror.KindValidation, "reserve quantity must be positive, got %d", input.Quantity)
	}
	return uc.apply(ctx, stockChange{
		itemID:  input.MenuItemID,
		delta:   -input.Quantity,
		cause:   model.CauseSale,
		orderID: input.OrderID,
		actor:   input.Actor,
	})
}

// ReleaseStock gives back stock taken outside a transaction that can still be rolled back.
func (uc *inventoryUseCase) ReleaseStock(ctx context.Context, input *dto.ReleaseStockInput) (*model.StockMovement, error) {
	if input.Quantity <= 0 {
		return nil, apperror.New(apperror.KindValidation, "release quantity must be positive, got %d", input.Quantity)
	}
	notes := input.Reason
	if notes == "" {
		notes = "reservation released"
	}
	return uc.apply(ctx, stockChange{
		itemID:  input.MenuItemID,
		delta:   input.Quantity,
		cause:   model.CauseAdjustment,
		orderID: input.OrderID,
		notes:   notes,
		actor:   input.Actor,
	})
}

func (uc *inventoryUseCase) Restock(ctx context.Context, input *dto.RestockInput) (*model.StockMovement, error) {
	if input.Quantity <= 0 {
		return nil, apperror.New(apperror.KindValidation, "restock quantity must be positive, got %d", input.Quantity)
	}
	return uc.apply(ctx, stockChange{
		itemID: input.MenuItemID,
		delta:  input.Quantity,
		cause:  model.CauseRestock,
		notes:  input.Reason,
		actor:  input.Actor,
	})
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.StockMovement, error) {
	if input.QuantityChange == 0 {
		return nil, apperror.New(apperror.KindValidation, "quantity change must not be zero")
	}
	cause := model.CauseAdjustment
	if input.QuantityChange > 0 {
		cause = model.CauseRestock
	}
	return uc.apply(ctx, stockChange{
		itemID: input.MenuItemID,
		delta:  input.QuantityChange,
		cause:  cause,
		notes:  input.Reason,
		actor:  input.Actor,
	})
}

// RecordInitialStock logs the opening balance of a freshly inserted item. It must run in
// the transaction that inserted the item.
func (uc *inventoryUseCase) RecordInitialStock(ctx context.Context, input *dto.InitialStockInput) (*model.StockMovement, error) {
	movement := &model.StockMovement{
		ID:             uuid.New().String(),
		MenuItemID:     input.MenuItemID,
		MenuItemName:   input.Name,
		QuantityChange: input.Quantity,
		StockBefore:    0,
		StockAfter:     input.Quantity,
		Cause:          model.CauseInitial,
		Notes:          "initial stock",
		CreatedBy:      actorOrSystem(input.Actor),
		CreatedAt:      uc.now(),
	}
	if err := uc.repo.LogMovement(ctx, movement); err != nil {
		return nil, apperror.Internal(err, "log initial stock movement")
	}
	return movement, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.StockMovement, int, error) {
	if filters.Cause != "" && !filters.Cause.Valid() {
		return nil, 0, apperror.New(apperror.KindValidation, "unknown movement cause %q", filters.Cause)
	}
	items, count, err := uc.repo.ListMovements(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Internal(err, "list stock movements")
	}
	return items, count, nil
}

func (uc *inventoryUseCase) Reconcile(ctx context.Context) ([]model.StockReconciliation, error) {
	var rows []model.StockReconciliation
	err := uc.txm.WithSnapshot(ctx, func(ctx context.Context) error {
		var err error
		rows, err = uc.repo.Reconcile(ctx)
		return err
	})
	if err != nil {
		return nil, apperror.Internal(err, "reconcile stock")
	}
	for _, row := range rows {
		if !row.Consistent {
			uc.logger.Warn("stock does not match movement replay",
				zap.Int64("menu_item_id", row.MenuItemID),
				zap.Int("current", row.CurrentStock),
				zap.Int("replayed", row.ReplayedStock),
			)
		}
	}
	return rows, nil
}

func (uc *inventoryUseCase) apply(ctx context.Context, change stockChange) (*model.StockMovement, error) {
	var movement *model.StockMovement

	err := uc.txm.WithTx(ctx, func(ctx context.Context) error {
		now := uc.now()

		var (
			item *dto.ItemStock
			ok   bool
			err  error
		)
		if change.delta < 0 {
			item, ok, err = uc.repo.Decrement(ctx, change.itemID, -change.delta, now)
		} else {
			item, ok, err = uc.repo.Increment(ctx, change.itemID, change.delta, now)
		}
		if err != nil {
			return apperror.Internal(err, "update stock")
		}
		if !ok {
			return uc.explainRejected(ctx, change)
		}

		movement = &model.StockMovement{
			ID:             uuid.New().String(),
			MenuItemID:     item.ID,
			MenuItemName:   item.Name,
			QuantityChange: change.delta,
			StockBefore:    item.Stock - change.delta,
			StockAfter:     item.Stock,
			Cause:          change.cause,
			OrderID:        change.orderID,
			Notes:          change.notes,
			CreatedBy:      actorOrSystem(change.actor),
			CreatedAt:      now,
		}
		if err := uc.repo.LogMovement(ctx, movement); err != nil {
			return apperror.Internal(err, "log stock movement")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.catalog.Invalidate(ctx)
	uc.logger.Debug("stock changed",
		zap.Int64("menu_item_id", movement.MenuItemID),
		zap.Int("delta", movement.QuantityChange),
		zap.Int("stock_after", movement.StockAfter),
		zap.String("cause", string(movement.Cause)),
	)
	return movement, nil
}

// explainRejected turns a guarded update that matched no row into the domain error.
func (uc *inventoryUseCase) explainRejected(ctx context.Context, change stockChange) error {
	current, err := uc.repo.GetItemStock(ctx, change.itemID)
	if err != nil {
		return apperror.Internal(err, "load item stock")
	}
	if current == nil {
		return apperror.UnknownItem(change.itemID)
	}
	return apperror.InsufficientStock(current.ID, current.Name, -change.delta, current.Stock)
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return systemActor
	}
	return actor
}

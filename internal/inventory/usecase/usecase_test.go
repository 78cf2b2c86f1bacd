package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/testutil"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveStock_DecrementsAndLogsSale(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	beer := s.AddItem(t, "Beer", model.CategoryDrink, "25", 10)

	o := &model.Order{
		Total:         decimal.NewFromInt(75),
		Status:        model.StatusPending,
		PaymentMethod: model.PaymentCash,
		CreatedBy:     "cashier",
		CreatedAt:     time.Now().UTC(),
	}
	require.NoError(t, s.OrderRepo.Create(ctx, o))
	orderID := o.ID

	mv, err := s.Inventory.ReserveStock(ctx, &dto.ReserveStockInput{MenuItemID: beer.ID, Quantity: 3, OrderID: &orderID, Actor: "cashier"})
	require.NoError(t, err)

	assert.Equal(t, -3, mv.QuantityChange)
	assert.Equal(t, 10, mv.StockBefore)
	assert.Equal(t, 7, mv.StockAfter)
	assert.Equal(t, model.CauseSale, mv.Cause)
	require.NotNil(t, mv.OrderID)
	assert.Equal(t, orderID, *mv.OrderID)
	assert.Equal(t, 7, s.Stock(t, beer.ID))
}

func TestReserveStock_Insufficient(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	beer := s.AddItem(t, "Beer", model.CategoryDrink, "25", 2)

	_, err := s.Inventory.ReserveStock(ctx, &dto.ReserveStockInput{MenuItemID: beer.ID, Quantity: 3})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	require.NotNil(t, appErr.ItemID)
	assert.Equal(t, beer.ID, *appErr.ItemID)
	assert.Equal(t, 2, s.Stock(t, beer.ID))

	sales, total, err := s.Inventory.ListMovements(ctx, &dto.MovementFilters{Cause: model.CauseSale})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, sales)
}

func TestReserveStock_Validation(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()

	_, err := s.Inventory.ReserveStock(ctx, &dto.ReserveStockInput{MenuItemID: 1, Quantity: 0})
	assert.True(t, apperror.Is(err, apperror.KindValidation))

	_, err = s.Inventory.ReserveStock(ctx, &dto.ReserveStockInput{MenuItemID: 999, Quantity: 1})
	assert.True(t, apperror.Is(err, apperror.KindUnknownItem))
}

func TestReserveStock_ConcurrentNeverOversells(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	beer := s.AddItem(t, "Beer", model.CategoryDrink, "25", 10)

	const attempts = 25
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Inventory.ReserveStock(ctx, &dto.ReserveStockInput{MenuItemID: beer.ID, Quantity: 1})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperror.Is(err, apperror.KindInsufficientStock) {
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.Equal(t, attempts-10, rejected)
	assert.Equal(t, 0, s.Stock(t, beer.ID))
}

func TestAdjustStock_Causes(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	salad := s.AddItem(t, "Salad", model.CategorySide, "30", 5)

	up, err := s.Inventory.AdjustStock(ctx, &dto.AdjustStockInput{MenuItemID: salad.ID, QuantityChange: 4, Reason: "delivery", Actor: "puncher"})
	require.NoError(t, err)
	assert.Equal(t, model.CauseRestock, up.Cause)
	assert.Equal(t, 9, up.StockAfter)

	down, err := s.Inventory.AdjustStock(ctx, &dto.AdjustStockInput{MenuItemID: salad.ID, QuantityChange: -2, Reason: "spoiled"})
	require.NoError(t, err)
	assert.Equal(t, model.CauseAdjustment, down.Cause)
	assert.Equal(t, "system", down.CreatedBy)
	assert.Equal(t, 7, s.Stock(t, salad.ID))

	_, err = s.Inventory.AdjustStock(ctx, &dto.AdjustStockInput{MenuItemID: salad.ID, QuantityChange: -8})
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	_, err = s.Inventory.AdjustStock(ctx, &dto.AdjustStockInput{MenuItemID: salad.ID})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestReleaseStock_RestoresAsAdjustment(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	jeqe := s.AddItem(t, "Jeqe", model.CategorySide, "30", 4)

	_, err := s.Inventory.ReserveStock(ctx, &dto.ReserveStockInput{MenuItemID: jeqe.ID, Quantity: 3})
	require.NoError(t, err)
	mv, err := s.Inventory.ReleaseStock(ctx, &dto.ReleaseStockInput{MenuItemID: jeqe.ID, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, model.CauseAdjustment, mv.Cause)
	assert.Equal(t, "reservation released", mv.Notes)
	assert.Equal(t, 4, s.Stock(t, jeqe.ID))
}

func TestListMovements_Filters(t *testing.T) {
	s := testutil.NewStack(t)
	ctx := context.Background()
	beer := s.AddItem(t, "Beer", model.CategoryDrink, "25", 10)
	wors := s.AddItem(t, "Wors", model.CategoryDrink, "80", 10)

	_, err := s.Inventory.Restock(ctx, &dto.RestockInput{MenuItemID: beer.ID, Quantity: 5})
	require.NoError(t, err)
	_, err = s.Inventory.ReserveStock(ctx, &dto.ReserveStockInput{MenuItemID: wors.ID, Quantity: 1})
	require.NoError(t, err)

	all, total, err := s.Inventory.ListMovements(ctx, &dto.MovementFilters{PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 4, total)
	assert.Len(t, all, 4)

	beerOnly, total, err := s.Inventory.ListMovements(ctx, &dto.MovementFilters{MenuItemID: &beer.ID, PageSize: 100})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	for _, m := range beerOnly {
		assert.Equal(t, beer.ID, m.MenuItemID)
	}

	_, _, err = s.Inventory.ListMovements(ctx, &dto.MovementFilters{Cause: "theft"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

func TestReconcile_ReplayReproducesStock(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("replaying movements reproduces current stock", prop.ForAll(
		func(initial int, changes []int) bool {
			s := testutil.NewStack(t)
			ctx := context.Background()
			item := s.AddItem(t, "Usu", model.CategoryDrink, "100", initial)

			expected := initial
			for _, delta := range changes {
				if delta == 0 {
					continue
				}
				_, err := s.Inventory.AdjustStock(ctx, &dto.AdjustStockInput{MenuItemID: item.ID, QuantityChange: delta})
				if expected+delta < 0 {
					if !apperror.Is(err, apperror.KindInsufficientStock) {
						return false
					}
					continue
				}
				if err != nil {
					return false
				}
				expected += delta
			}

			rows, err := s.Inventory.Reconcile(ctx)
			if err != nil || len(rows) != 1 {
				return false
			}
			r := rows[0]
			return r.Consistent && r.CurrentStock == expected && r.ReplayedStock == expected && expected >= 0
		},
		gen.IntRange(0, 20),
		gen.SliceOf(gen.IntRange(-8, 8)),
	))

	properties.TestingRun(t)
}

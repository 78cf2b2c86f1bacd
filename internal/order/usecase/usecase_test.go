package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-restaurant-service/internal/apperror"
	invDto "github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	menuDto "github.com/fekuna/omnipos-restaurant-service/internal/menu/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order"
	"github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type menuFixture struct {
	beef    *model.MenuItem
	uphuthu *model.MenuItem
	beer    *model.MenuItem
	salad   *model.MenuItem
}

func seedMenu(t *testing.T, s *testutil.Stack) menuFixture {
	t.Helper()
	var f menuFixture
	f.uphuthu = s.AddItem(t, "Uphuthu", model.CategorySide, "20", 10)
	f.beer = s.AddItem(t, "Beer", model.CategoryDrink, "25", 5)
	f.salad = s.AddItem(t, "Salad", model.CategorySide, "30", 1)
	f.beef = s.AddItem(t, "Boiled Beef", model.CategoryMeat, "140", 5,
		testutil.Side("Uphuthu", "20", &f.uphuthu.ID),
		testutil.Side("Jeqe", "30", nil),
	)
	return f
}

func TestCreateOrder_PricesSideOptionAndReservesStock(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)

	o, err := s.Orders.CreateOrder(context.Background(), &dto.CreateOrderInput{
		CustomerName: "Thabo",
		Lines:        []dto.LineInput{{MenuItemID: f.beef.ID, Quantity: 3, SideOption: "Uphuthu"}},
		Actor:        "cashier",
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, o.Status)
	assert.Equal(t, model.PaymentCash, o.PaymentMethod)
	require.Len(t, o.Items, 1)
	line := o.Items[0]
	assert.True(t, decimal.NewFromInt(160).Equal(line.UnitPrice), "unit price %s", line.UnitPrice)
	assert.True(t, decimal.NewFromInt(480).Equal(line.LineTotal()))
	assert.True(t, decimal.NewFromInt(480).Equal(o.Total))
	require.NotNil(t, line.SideOption)
	assert.Equal(t, "Uphuthu", *line.SideOption)

	assert.Equal(t, 2, s.Stock(t, f.beef.ID))
	assert.Equal(t, 7, s.Stock(t, f.uphuthu.ID), "linked side stock is consumed too")

	sales, _, err := s.Inventory.ListMovements(context.Background(), &invDto.MovementFilters{OrderID: &o.ID})
	require.NoError(t, err)
	assert.Len(t, sales, 2)
	for _, m := range sales {
		assert.Equal(t, model.CauseSale, m.Cause)
	}
}

func TestCreateOrder_SideOptionRules(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	ctx := context.Background()

	cases := []struct {
		name string
		line dto.LineInput
	}{
		{"missing required side", dto.LineInput{MenuItemID: f.beef.ID, Quantity: 1}},
		{"unknown side", dto.LineInput{MenuItemID: f.beef.ID, Quantity: 1, SideOption: "Chips"}},
		{"side on a drink", dto.LineInput{MenuItemID: f.beer.ID, Quantity: 1, SideOption: "Uphuthu"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Orders.CreateOrder(ctx, &dto.CreateOrderInput{Lines: []dto.LineInput{tc.line}})
			require.Error(t, err)
			assert.True(t, apperror.Is(err, apperror.KindInvalidSideOption), err.Error())
		})
	}
	assert.Equal(t, 0, s.CountRows(t, "orders"))
	assert.Equal(t, 5, s.Stock(t, f.beef.ID))
}

func TestCreateOrder_Validation(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	ctx := context.Background()

	cases := map[string]*dto.CreateOrderInput{
		"no lines":       {},
		"zero quantity":  {Lines: []dto.LineInput{{MenuItemID: f.beer.ID, Quantity: 0}}},
		"long name":      {CustomerName: strings.Repeat("x", 101), Lines: []dto.LineInput{{MenuItemID: f.beer.ID, Quantity: 1}}},
		"unknown method": {PaymentMethod: "voucher", Lines: []dto.LineInput{{MenuItemID: f.beer.ID, Quantity: 1}}},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Orders.CreateOrder(ctx, input)
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
		})
	}
}

func TestCreateOrder_QuantityCapsKeepLedgerAndStockAligned(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	ctx := context.Background()

	huge := 1 << 62
	cases := map[string][]dto.LineInput{
		"line over cap": {{MenuItemID: f.beer.ID, Quantity: 1001}},
		"wrapping sum": {
			{MenuItemID: f.beer.ID, Quantity: huge},
			{MenuItemID: f.beer.ID, Quantity: huge},
			{MenuItemID: f.beer.ID, Quantity: huge},
			{MenuItemID: f.beer.ID, Quantity: huge + 5},
		},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.Orders.CreateOrder(ctx, &dto.CreateOrderInput{Lines: lines})
			assert.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
		})
	}

	var many []dto.LineInput
	for i := 0; i < 11; i++ {
		many = append(many, dto.LineInput{MenuItemID: f.beef.ID, Quantity: 1000, SideOption: "Uphuthu"})
	}
	_, err := s.Orders.CreateOrder(ctx, &dto.CreateOrderInput{Lines: many})
	require.True(t, apperror.Is(err, apperror.KindValidation), "got %v", err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	require.NotNil(t, appErr.ItemID)

	assert.Equal(t, 0, s.CountRows(t, "orders"))
	assert.Equal(t, 5, s.Stock(t, f.beer.ID))
	assert.Equal(t, 5, s.Stock(t, f.beef.ID))
	assert.Equal(t, 10, s.Stock(t, f.uphuthu.ID))
}

func TestCreateOrder_UnknownItem(t *testing.T) {
	s := testutil.NewStack(t)
	seedMenu(t, s)

	_, err := s.Orders.CreateOrder(context.Background(), &dto.CreateOrderInput{
		Lines: []dto.LineInput{{MenuItemID: 404, Quantity: 1}},
	})
	assert.True(t, apperror.Is(err, apperror.KindUnknownItem))
	assert.Equal(t, 0, s.CountRows(t, "orders"))
}

func TestCreateOrder_InsufficientStockIsAllOrNothing(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)

	_, err := s.Orders.CreateOrder(context.Background(), &dto.CreateOrderInput{
		Lines: []dto.LineInput{
			{MenuItemID: f.beer.ID, Quantity: 2},
			{MenuItemID: f.salad.ID, Quantity: 2},
		},
	})
	require.Error(t, err)
	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.KindInsufficientStock, appErr.Kind)
	require.NotNil(t, appErr.ItemID)
	assert.Equal(t, f.salad.ID, *appErr.ItemID)

	assert.Equal(t, 5, s.Stock(t, f.beer.ID))
	assert.Equal(t, 1, s.Stock(t, f.salad.ID))
	assert.Equal(t, 0, s.CountRows(t, "orders"))
	assert.Equal(t, 0, s.CountRows(t, "order_items"))

	_, sales, err := s.Inventory.ListMovements(context.Background(), &invDto.MovementFilters{Cause: model.CauseSale})
	require.NoError(t, err)
	assert.Zero(t, sales)
	assert.Empty(t, s.Events.Events())
}

func TestCreateOrder_LastUnitGoesToExactlyOneOrder(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	ctx := context.Background()

	const buyers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		refused int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Orders.CreateOrder(ctx, &dto.CreateOrderInput{
				Lines: []dto.LineInput{{MenuItemID: f.salad.ID, Quantity: 1}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case apperror.Is(err, apperror.KindInsufficientStock):
				refused++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, buyers-1, refused)
	assert.Equal(t, 0, s.Stock(t, f.salad.ID))
	assert.Equal(t, 1, s.CountRows(t, "orders"))
}

func TestCreateOrder_TotalIsRecomputed(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)

	bogus := decimal.NewFromInt(1)
	o, err := s.Orders.CreateOrder(context.Background(), &dto.CreateOrderInput{
		Lines:         []dto.LineInput{{MenuItemID: f.beer.ID, Quantity: 2}},
		PaymentMethod: "Card",
		ClientTotal:   &bogus,
	})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(50).Equal(o.Total))
	assert.Equal(t, model.PaymentCard, o.PaymentMethod)
}

func TestCreateOrder_PriceSnapshotSurvivesMenuEdits(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	ctx := context.Background()

	o, err := s.Orders.CreateOrder(ctx, &dto.CreateOrderInput{
		Lines: []dto.LineInput{{MenuItemID: f.beer.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	newPrice := decimal.NewFromInt(99)
	_, err = s.Menu.UpdateMenuItem(ctx, &menuDto.UpdateMenuItemInput{ID: f.beer.ID, Price: &newPrice})
	require.NoError(t, err)

	stored, err := s.Orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(25).Equal(stored.Items[0].UnitPrice))
	assert.True(t, decimal.NewFromInt(25).Equal(stored.Total))
}

func TestCreateOrder_PublishesCreatedEvent(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)

	o, err := s.Orders.CreateOrder(context.Background(), &dto.CreateOrderInput{
		Lines: []dto.LineInput{{MenuItemID: f.beer.ID, Quantity: 1}},
		Actor: "cashier",
	})
	require.NoError(t, err)

	events := s.Events.Events()
	require.Len(t, events, 1)
	assert.Equal(t, dto.EventOrderCreated, events[0].EventType)
	payload, ok := events[0].Payload.(*dto.OrderCreatedPayload)
	require.True(t, ok)
	assert.Equal(t, o.ID, payload.OrderID)
	assert.Equal(t, "25", payload.Total)
}

type failingItemsRepo struct {
	order.Repository
}

func (failingItemsRepo) CreateItems(context.Context, []model.OrderItem) error {
	return errors.New("disk full")
}

func TestCreateOrder_PersistenceFailureRestoresStock(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	orders := s.NewOrderUseCase(failingItemsRepo{Repository: s.OrderRepo})

	_, err := orders.CreateOrder(context.Background(), &dto.CreateOrderInput{
		Lines: []dto.LineInput{
			{MenuItemID: f.beef.ID, Quantity: 2, SideOption: "Uphuthu"},
			{MenuItemID: f.beer.ID, Quantity: 1},
		},
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInternal))

	assert.Equal(t, 5, s.Stock(t, f.beef.ID))
	assert.Equal(t, 10, s.Stock(t, f.uphuthu.ID))
	assert.Equal(t, 5, s.Stock(t, f.beer.ID))
	assert.Equal(t, 0, s.CountRows(t, "orders"))

	rows, err := s.Inventory.Reconcile(context.Background())
	require.NoError(t, err)
	for _, r := range rows {
		assert.True(t, r.Consistent, "item %d", r.MenuItemID)
	}
}

func newPendingOrder(t *testing.T, s *testutil.Stack, f menuFixture) *model.Order {
	t.Helper()
	o, err := s.Orders.CreateOrder(context.Background(), &dto.CreateOrderInput{
		Lines: []dto.LineInput{{MenuItemID: f.beer.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	return o
}

func TestAdvanceStatus_RoleAndEdgeMatrix(t *testing.T) {
	cases := []struct {
		name string
		role model.Role
		path []model.OrderStatus
		want apperror.Kind
	}{
		{"kitchen prepares", model.RoleKitchen, []model.OrderStatus{model.StatusReady}, ""},
		{"kitchen completes ready", model.RoleKitchen, []model.OrderStatus{model.StatusReady, model.StatusComplete}, ""},
		{"kitchen cannot shortcut", model.RoleKitchen, []model.OrderStatus{model.StatusComplete}, apperror.KindForbidden},
		{"cashier walk-up sale", model.RoleCashier, []model.OrderStatus{model.StatusComplete}, ""},
		{"cashier cannot mark ready", model.RoleCashier, []model.OrderStatus{model.StatusReady}, apperror.KindForbidden},
		{"admin shortcut", model.RoleAdmin, []model.OrderStatus{model.StatusComplete}, ""},
		{"back to pending", model.RoleAdmin, []model.OrderStatus{model.StatusPending}, apperror.KindInvalidTransition},
		{"ready to pending", model.RoleAdmin, []model.OrderStatus{model.StatusReady, model.StatusPending}, apperror.KindInvalidTransition},
		{"puncher", model.RolePuncher, []model.OrderStatus{model.StatusReady}, apperror.KindForbidden},
		{"anonymous", model.RoleAnonymous, []model.OrderStatus{model.StatusReady}, apperror.KindUnauthenticated},
		{"unknown target", model.RoleAdmin, []model.OrderStatus{"served"}, apperror.KindValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := testutil.NewStack(t)
			f := seedMenu(t, s)
			o := newPendingOrder(t, s, f)

			var err error
			var got *model.Order
			for _, target := range tc.path {
				got, err = s.Orders.AdvanceStatus(context.Background(), &dto.AdvanceStatusInput{
					OrderID: o.ID, Target: target, Role: tc.role, Actor: string(tc.role),
				})
				if err != nil {
					break
				}
			}
			if tc.want == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.path[len(tc.path)-1], got.Status)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tc.want, apperror.KindOf(err), err.Error())
		})
	}
}

func TestAdvanceStatus_CompleteTwiceIsRejected(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	o := newPendingOrder(t, s, f)
	ctx := context.Background()

	done, err := s.Orders.AdvanceStatus(ctx, &dto.AdvanceStatusInput{OrderID: o.ID, Target: model.StatusComplete, Role: model.RoleCashier})
	require.NoError(t, err)
	require.NotNil(t, done.CompletedAt)
	firstCompletion := *done.CompletedAt

	_, err = s.Orders.AdvanceStatus(ctx, &dto.AdvanceStatusInput{OrderID: o.ID, Target: model.StatusComplete, Role: model.RoleCashier})
	assert.True(t, apperror.Is(err, apperror.KindInvalidTransition))

	stored, err := s.Orders.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, firstCompletion.Equal(*stored.CompletedAt))
}

func TestAdvanceStatus_ConcurrentCompletionCountsOnce(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	o := newPendingOrder(t, s, f)
	ctx := context.Background()

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Orders.AdvanceStatus(ctx, &dto.AdvanceStatusInput{OrderID: o.ID, Target: model.StatusComplete, Role: model.RoleAdmin})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)

	var changed int
	for _, e := range s.Events.Events() {
		if e.EventType == dto.EventOrderStatusChanged {
			changed++
		}
	}
	assert.Equal(t, 1, changed)
}

func TestAdvanceStatus_NotFound(t *testing.T) {
	s := testutil.NewStack(t)
	_, err := s.Orders.AdvanceStatus(context.Background(), &dto.AdvanceStatusInput{OrderID: 42, Target: model.StatusReady, Role: model.RoleKitchen})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestListOrders_FiltersByStatus(t *testing.T) {
	s := testutil.NewStack(t)
	f := seedMenu(t, s)
	ctx := context.Background()

	first := newPendingOrder(t, s, f)
	newPendingOrder(t, s, f)
	_, err := s.Orders.AdvanceStatus(ctx, &dto.AdvanceStatusInput{OrderID: first.ID, Target: model.StatusReady, Role: model.RoleKitchen})
	require.NoError(t, err)

	ready, err := s.Orders.ListOrders(ctx, &dto.OrderFilters{Status: model.StatusReady})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, first.ID, ready[0].ID)

	all, err := s.Orders.ListOrders(ctx, &dto.OrderFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = s.Orders.ListOrders(ctx, &dto.OrderFilters{Status: "lost"})
	assert.True(t, apperror.Is(err, apperror.KindValidation))
}

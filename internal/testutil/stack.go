// Package testutil wires the full engine over a throwaway SQLite file for tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/auth"
	authRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/auth/repository"
	authUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/auth/usecase"
	"github.com/fekuna/omnipos-restaurant-service/internal/inventory"
	invRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-restaurant-service/internal/menu"
	menuCachePkg "github.com/fekuna/omnipos-restaurant-service/internal/menu/cache"
	menuDto "github.com/fekuna/omnipos-restaurant-service/internal/menu/dto"
	menuRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/menu/repository"
	menuUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/menu/usecase"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order"
	orderRepoPkg "github.com/fekuna/omnipos-restaurant-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-restaurant-service/internal/order/usecase"
	"github.com/fekuna/omnipos-restaurant-service/internal/testutil/testdb"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/fekuna/omnipos-restaurant-service/pkg/logger"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const JWTSecret = "test-secret"

type Stack struct {
	DB        *sqlx.DB
	TxM       *database.TxManager
	Catalog   *menuCachePkg.MemoryCatalogCache
	Events    *RecordingPublisher
	Log       logger.ZapLogger
	AuthRepo  *authRepoPkg.SQLRepository
	MenuRepo  *menuRepoPkg.SQLRepository
	InvRepo   *invRepoPkg.SQLRepository
	OrderRepo *orderRepoPkg.SQLRepository
	Auth      auth.UseCase
	Inventory inventory.UseCase
	Menu      menu.UseCase
	Orders    order.UseCase
}

func NewStack(t testing.TB) *Stack {
	t.Helper()

	db, snapshots := testdb.NewWithSnapshots(t)
	s := &Stack{
		DB:      db,
		Catalog: menuCachePkg.NewMemoryCatalogCache(),
		Events:  &RecordingPublisher{},
		Log:     logger.NewNop(),
	}
	s.TxM = database.NewTxManager(s.DB, database.SnapshotPool(snapshots))
	s.AuthRepo = authRepoPkg.NewSQLRepository(s.DB)
	s.MenuRepo = menuRepoPkg.NewSQLRepository(s.DB)
	s.InvRepo = invRepoPkg.NewSQLRepository(s.DB)
	s.OrderRepo = orderRepoPkg.NewSQLRepository(s.DB)

	s.Auth = authUCPkg.NewAuthUseCase(s.AuthRepo, JWTSecret, time.Hour, s.Log)
	s.Inventory = invUCPkg.NewInventoryUseCase(s.InvRepo, s.TxM, s.Catalog, s.Log)
	s.Menu = menuUCPkg.NewMenuUseCase(s.MenuRepo, s.Inventory, s.TxM, s.Catalog, s.Log)
	s.Orders = s.NewOrderUseCase(s.OrderRepo)
	return s
}

// NewOrderUseCase builds an order engine over repo, e.g. a fault-injecting wrapper.
func (s *Stack) NewOrderUseCase(repo order.Repository) order.UseCase {
	return orderUCPkg.NewOrderUseCase(repo, s.Menu, s.Inventory, s.TxM, s.Catalog, s.Events, s.Log)
}

func (s *Stack) AddItem(t testing.TB, name string, category model.Category, price string, stock int, sides ...menuDto.SideOptionInput) *model.MenuItem {
	t.Helper()
	item, err := s.Menu.AddMenuItem(context.Background(), &menuDto.CreateMenuItemInput{
		Name:         name,
		Category:     string(category),
		Price:        decimal.RequireFromString(price),
		Stock:        stock,
		RequiresSide: len(sides) > 0,
		SideOptions:  sides,
		Actor:        "puncher",
	})
	require.NoError(t, err)
	return item
}

func Side(name, surcharge string, consumes *int64) menuDto.SideOptionInput {
	return menuDto.SideOptionInput{Name: name, Surcharge: decimal.RequireFromString(surcharge), ConsumesItemID: consumes}
}

func (s *Stack) Stock(t testing.TB, itemID int64) int {
	t.Helper()
	var stock int
	require.NoError(t, s.DB.Get(&stock, `SELECT stock FROM menu_items WHERE id = ?`, itemID))
	return stock
}

func (s *Stack) CountRows(t testing.TB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB.Get(&n, `SELECT COUNT(*) FROM `+table))
	return n
}

type PublishedEvent struct {
	Key       string
	EventType string
	Payload   interface{}
}

// RecordingPublisher keeps every event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []PublishedEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, key, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, PublishedEvent{Key: key, EventType: eventType, Payload: payload})
	return nil
}

func (p *RecordingPublisher) Events() []PublishedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]PublishedEvent, len(p.events))
	copy(out, p.events)
	return out
}

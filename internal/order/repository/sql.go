package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/internal/order/dto"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

const defaultListLimit = 50

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) Create(ctx context.Context, o *model.Order) error {
	q := database.Executor(ctx, r.DB)

	query, args, err := q.BindNamed(`
        INSERT INTO orders (customer_name, total, status, payment_method, created_by, created_at)
        VALUES (:customer_name, :total, :status, :payment_method, :created_by, :created_at)
        RETURNING id
    `, o)
	if err != nil {
		return err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&o.ID); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (r *SQLRepository) CreateItems(ctx context.Context, items []model.OrderItem) error {
	q := database.Executor(ctx, r.DB)

	query := `
        INSERT INTO order_items (
            order_id, menu_item_id, menu_item_name, category, quantity,
            base_price, side_option, side_surcharge, unit_price
        )
        VALUES (
            :order_id, :menu_item_id, :menu_item_name, :category, :quantity,
            :base_price, :side_option, :side_surcharge, :unit_price
        )
    `
	for i := range items {
		if _, err := q.NamedExecContext(ctx, query, items[i]); err != nil {
			return fmt.Errorf("insert order item %d: %w", items[i].MenuItemID, err)
		}
	}
	return nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*model.Order, error) {
	q := database.Executor(ctx, r.DB)

	var o model.Order
	err := q.GetContext(ctx, &o, q.Rebind(`SELECT * FROM orders WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	orders := []model.Order{o}
	if err := r.attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, error) {
	q := database.Executor(ctx, r.DB)

	query := `SELECT * FROM orders`
	args := []interface{}{}
	if f.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, f.Status)
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` ORDER BY id DESC LIMIT %d`, limit)

	orders := []model.Order{}
	if err := q.SelectContext(ctx, &orders, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *SQLRepository) TransitionStatus(ctx context.Context, id int64, from, to model.OrderStatus, at time.Time) (bool, error) {
	q := database.Executor(ctx, r.DB)

	// Each status owns its own timestamp column, so a repeated transition can never move it.
	query := `UPDATE orders SET status = ?`
	switch to {
	case model.StatusReady:
		query += `, ready_at = ?`
	case model.StatusComplete:
		query += `, completed_at = ?`
	default:
		return false, fmt.Errorf("no transition into status %q", to)
	}
	query += ` WHERE id = ? AND status = ?`

	res, err := q.ExecContext(ctx, q.Rebind(query), to, at, id, from)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows == 1, nil
}

func (r *SQLRepository) attachItems(ctx context.Context, q database.Querier, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	byID := make(map[int64]*model.Order, len(orders))
	ids := make([]int64, 0, len(orders))
	for i := range orders {
		orders[i].Items = []model.OrderItem{}
		byID[orders[i].ID] = &orders[i]
		ids = append(ids, orders[i].ID)
	}

	query, args, err := sqlx.In(`SELECT * FROM order_items WHERE order_id IN (?) ORDER BY order_id, id`, ids)
	if err != nil {
		return err
	}
	var items []model.OrderItem
	if err := q.SelectContext(ctx, &items, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	for _, item := range items {
		if o, ok := byID[item.OrderID]; ok {
			o.Items = append(o.Items, item)
		}
	}
	return nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-restaurant-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-restaurant-service/internal/model"
	"github.com/fekuna/omnipos-restaurant-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) GetItemStock(ctx context.Context, itemID int64) (*dto.ItemStock, error) {
	q := database.Executor(ctx, r.DB)

	var item dto.ItemStock
	err := q.GetContext(ctx, &item, q.Rebind(`SELECT id, name, stock FROM menu_items WHERE id = ?`), itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *SQLRepository) Decrement(ctx context.Context, itemID int64, qty int, at time.Time) (*dto.ItemStock, bool, error) {
	// The stock guard sits in the WHERE clause so check and decrement are one statement.
	query := `
        UPDATE menu_items
        SET stock = stock - ?, updated_at = ?
        WHERE id = ? AND stock >= ?
        RETURNING id, name, stock
    `
	return r.updateStock(ctx, query, qty, at, itemID, qty)
}

func (r *SQLRepository) Increment(ctx context.Context, itemID int64, qty int, at time.Time) (*dto.ItemStock, bool, error) {
	query := `
        UPDATE menu_items
        SET stock = stock + ?, updated_at = ?
        WHERE id = ?
        RETURNING id, name, stock
    `
	return r.updateStock(ctx, query, qty, at, itemID)
}

func (r *SQLRepository) updateStock(ctx context.Context, query string, args ...interface{}) (*dto.ItemStock, bool, error) {
	q := database.Executor(ctx, r.DB)

	var item dto.ItemStock
	err := q.QueryRowxContext(ctx, q.Rebind(query), args...).StructScan(&item)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &item, true, nil
}

func (r *SQLRepository) LogMovement(ctx context.Context, m *model.StockMovement) error {
	query := `
        INSERT INTO stock_movements (
            id, menu_item_id, menu_item_name, quantity_change, stock_before, stock_after,
            cause, order_id, notes, created_by, created_at
        )
        VALUES (
            :id, :menu_item_id, :menu_item_name, :quantity_change, :stock_before, :stock_after,
            :cause, :order_id, :notes, :created_by, :created_at
        )
    `
	_, err := database.Executor(ctx, r.DB).NamedExecContext(ctx, query, m)
	return err
}

func (r *SQLRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	q := database.Executor(ctx, r.DB)

	conditions := []string{}
	args := map[string]interface{}{}

	if f.MenuItemID != nil {
		conditions = append(conditions, "menu_item_id = :menu_item_id")
		args["menu_item_id"] = *f.MenuItemID
	}
	if f.Cause != "" {
		conditions = append(conditions, "cause = :cause")
		args["cause"] = f.Cause
	}
	if f.OrderID != nil {
		conditions = append(conditions, "order_id = :order_id")
		args["order_id"] = *f.OrderID
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = f.StartDate.UTC()
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < :end_date")
		args["end_date"] = f.EndDate.UTC()
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery, countArgs, err := sqlx.Named("SELECT count(*) FROM stock_movements"+whereClause, args)
	if err != nil {
		return nil, 0, err
	}
	var count int
	if err := q.GetContext(ctx, &count, q.Rebind(countQuery), countArgs...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	listQuery, listArgs, err := sqlx.Named(query, args)
	if err != nil {
		return nil, 0, err
	}
	items := []model.StockMovement{}
	if err := q.SelectContext(ctx, &items, q.Rebind(listQuery), listArgs...); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *SQLRepository) Reconcile(ctx context.Context) ([]model.StockReconciliation, error) {
	q := database.Executor(ctx, r.DB)

	query := `
        SELECT m.id AS menu_item_id,
               m.name AS menu_item_name,
               m.stock AS current_stock,
               COALESCE(SUM(s.quantity_change), 0) AS replayed_stock
        FROM menu_items m
        LEFT JOIN stock_movements s ON s.menu_item_id = m.id
        GROUP BY m.id, m.name, m.stock
        ORDER BY m.id
    `
	rows := []model.StockReconciliation{}
	if err := q.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Consistent = rows[i].CurrentStock == rows[i].ReplayedStock
	}
	return rows, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-restaurant-service/internal/analytics/dto"
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

func (r *SQLRepository) CompletedSales(ctx context.Context) ([]dto.SaleLine, error) {
	q := database.Executor(ctx, r.DB)

	query := q.Rebind(`
        SELECT o.id AS order_id, o.total AS order_total, o.created_at AS created_at,
               i.menu_item_id, i.menu_item_name, i.category, i.quantity, i.unit_price
        FROM orders o
        JOIN order_items i ON i.order_id = o.id
        WHERE o.status = ?
        ORDER BY o.created_at ASC, o.id ASC, i.id ASC
    `)

	var lines []dto.SaleLine
	if err := q.SelectContext(ctx, &lines, query, model.StatusComplete); err != nil {
		return nil, fmt.Errorf("select completed sales: %w", err)
	}
	return lines, nil
}

func (r *SQLRepository) CountCompleted(ctx context.Context) (int, error) {
	q := database.Executor(ctx, r.DB)

	var count int
	if err := q.GetContext(ctx, &count, q.Rebind(`SELECT COUNT(*) FROM orders WHERE status = ?`), model.StatusComplete); err != nil {
		return 0, fmt.Errorf("count completed orders: %w", err)
	}
	return count, nil
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

func (r *SQLRepository) Create(ctx context.Context, item *model.MenuItem) error {
	q := database.Executor(ctx, r.DB)

	query, args, err := q.BindNamed(`
        INSERT INTO menu_items (name, category, price, stock, requires_side, created_at, updated_at)
        VALUES (:name, :category, :price, :stock, :requires_side, :created_at, :updated_at)
        RETURNING id
    `, item)
	if err != nil {
		return err
	}
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&item.ID); err != nil {
		return fmt.Errorf("insert menu item: %w", err)
	}

	return r.insertSideOptions(ctx, q, item)
}

func (r *SQLRepository) Update(ctx context.Context, item *model.MenuItem) error {
	q := database.Executor(ctx, r.DB)

	query := `
        UPDATE menu_items
        SET name = :name, category = :category, price = :price,
            requires_side = :requires_side, updated_at = :updated_at
        WHERE id = :id
    `
	if _, err := q.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update menu item: %w", err)
	}

	if _, err := q.ExecContext(ctx, q.Rebind(`DELETE FROM menu_item_side_options WHERE menu_item_id = ?`), item.ID); err != nil {
		return fmt.Errorf("clear side options: %w", err)
	}
	return r.insertSideOptions(ctx, q, item)
}

func (r *SQLRepository) insertSideOptions(ctx context.Context, q database.Querier, item *model.MenuItem) error {
	query := `
        INSERT INTO menu_item_side_options (menu_item_id, name, surcharge, consumes_item_id)
        VALUES (:menu_item_id, :name, :surcharge, :consumes_item_id)
    `
	for i := range item.SideOptions {
		item.SideOptions[i].MenuItemID = item.ID
		if _, err := q.NamedExecContext(ctx, query, item.SideOptions[i]); err != nil {
			return fmt.Errorf("insert side option %q: %w", item.SideOptions[i].Name, err)
		}
	}
	return nil
}

func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*model.MenuItem, error) {
	q := database.Executor(ctx, r.DB)

	var item model.MenuItem
	err := q.GetContext(ctx, &item, q.Rebind(`SELECT * FROM menu_items WHERE id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	items := []model.MenuItem{item}
	if err := r.attachSideOptions(ctx, q, items); err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (r *SQLRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.MenuItem, error) {
	if len(ids) == 0 {
		return []model.MenuItem{}, nil
	}
	q := database.Executor(ctx, r.DB)

	query, args, err := sqlx.In(`SELECT * FROM menu_items WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}

	items := []model.MenuItem{}
	if err := q.SelectContext(ctx, &items, q.Rebind(query), args...); err != nil {
		return nil, err
	}
	if err := r.attachSideOptions(ctx, q, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SQLRepository) FindAll(ctx context.Context) ([]model.MenuItem, error) {
	q := database.Executor(ctx, r.DB)

	items := []model.MenuItem{}
	if err := q.SelectContext(ctx, &items, `SELECT * FROM menu_items ORDER BY category, name`); err != nil {
		return nil, err
	}
	if err := r.attachSideOptions(ctx, q, items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *SQLRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := database.Executor(ctx, r.DB).GetContext(ctx, &count, `SELECT count(*) FROM menu_items`)
	return count, err
}

func (r *SQLRepository) attachSideOptions(ctx context.Context, q database.Querier, items []model.MenuItem) error {
	if len(items) == 0 {
		return nil
	}

	byID := make(map[int64]*model.MenuItem, len(items))
	ids := make([]int64, 0, len(items))
	for i := range items {
		items[i].SideOptions = []model.SideOption{}
		byID[items[i].ID] = &items[i]
		ids = append(ids, items[i].ID)
	}

	query, args, err := sqlx.In(`
        SELECT * FROM menu_item_side_options
        WHERE menu_item_id IN (?)
        ORDER BY menu_item_id, name
    `, ids)
	if err != nil {
		return err
	}

	var options []model.SideOption
	if err := q.SelectContext(ctx, &options, q.Rebind(query), args...); err != nil {
		return fmt.Errorf("load side options: %w", err)
	}
	for _, opt := range options {
		if item, ok := byID[opt.MenuItemID]; ok {
			item.SideOptions = append(item.SideOptions, opt)
		}
	}
	return nil
}

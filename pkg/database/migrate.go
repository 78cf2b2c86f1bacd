package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        role TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS menu_items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        name TEXT NOT NULL,
        category TEXT NOT NULL,
        price TEXT NOT NULL,
        stock INTEGER NOT NULL CHECK (stock >= 0),
        requires_side BOOLEAN NOT NULL DEFAULT 0,
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS menu_item_side_options (
        menu_item_id INTEGER NOT NULL REFERENCES menu_items(id),
        name TEXT NOT NULL,
        surcharge TEXT NOT NULL,
        consumes_item_id INTEGER REFERENCES menu_items(id),
        PRIMARY KEY (menu_item_id, name)
    )`,
	`CREATE TABLE IF NOT EXISTS orders (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        customer_name TEXT NOT NULL DEFAULT '',
        total TEXT NOT NULL,
        status TEXT NOT NULL,
        payment_method TEXT NOT NULL,
        created_by TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMP NOT NULL,
        ready_at TIMESTAMP,
        completed_at TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS order_items (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        order_id INTEGER NOT NULL REFERENCES orders(id),
        menu_item_id INTEGER NOT NULL REFERENCES menu_items(id),
        menu_item_name TEXT NOT NULL,
        category TEXT NOT NULL,
        quantity INTEGER NOT NULL CHECK (quantity > 0),
        base_price TEXT NOT NULL,
        side_option TEXT,
        side_surcharge TEXT NOT NULL,
        unit_price TEXT NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
        id TEXT PRIMARY KEY,
        menu_item_id INTEGER NOT NULL REFERENCES menu_items(id),
        menu_item_name TEXT NOT NULL,
        quantity_change INTEGER NOT NULL,
        stock_before INTEGER NOT NULL,
        stock_after INTEGER NOT NULL,
        cause TEXT NOT NULL,
        order_id INTEGER REFERENCES orders(id),
        notes TEXT NOT NULL DEFAULT '',
        created_by TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMP NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_item ON stock_movements (menu_item_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id BIGSERIAL PRIMARY KEY,
        username TEXT NOT NULL UNIQUE,
        password_hash TEXT NOT NULL,
        role TEXT NOT NULL,
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS menu_items (
        id BIGSERIAL PRIMARY KEY,
        name TEXT NOT NULL,
        category TEXT NOT NULL,
        price NUMERIC(12,2) NOT NULL,
        stock INTEGER NOT NULL CHECK (stock >= 0),
        requires_side BOOLEAN NOT NULL DEFAULT FALSE,
        created_at TIMESTAMPTZ NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS menu_item_side_options (
        menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
        name TEXT NOT NULL,
        surcharge NUMERIC(12,2) NOT NULL,
        consumes_item_id BIGINT REFERENCES menu_items(id),
        PRIMARY KEY (menu_item_id, name)
    )`,
	`CREATE TABLE IF NOT EXISTS orders (
        id BIGSERIAL PRIMARY KEY,
        customer_name TEXT NOT NULL DEFAULT '',
        total NUMERIC(12,2) NOT NULL,
        status TEXT NOT NULL,
        payment_method TEXT NOT NULL,
        created_by TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL,
        ready_at TIMESTAMPTZ,
        completed_at TIMESTAMPTZ
    )`,
	`CREATE TABLE IF NOT EXISTS order_items (
        id BIGSERIAL PRIMARY KEY,
        order_id BIGINT NOT NULL REFERENCES orders(id),
        menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
        menu_item_name TEXT NOT NULL,
        category TEXT NOT NULL,
        quantity INTEGER NOT NULL CHECK (quantity > 0),
        base_price NUMERIC(12,2) NOT NULL,
        side_option TEXT,
        side_surcharge NUMERIC(12,2) NOT NULL,
        unit_price NUMERIC(12,2) NOT NULL
    )`,
	`CREATE TABLE IF NOT EXISTS stock_movements (
        id UUID PRIMARY KEY,
        menu_item_id BIGINT NOT NULL REFERENCES menu_items(id),
        menu_item_name TEXT NOT NULL,
        quantity_change INTEGER NOT NULL,
        stock_before INTEGER NOT NULL,
        stock_after INTEGER NOT NULL,
        cause TEXT NOT NULL,
        order_id BIGINT REFERENCES orders(id),
        notes TEXT NOT NULL DEFAULT '',
        created_by TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMPTZ NOT NULL
    )`,
	`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status)`,
	`CREATE INDEX IF NOT EXISTS idx_stock_movements_item ON stock_movements (menu_item_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	schema := sqliteSchema
	if db.DriverName() == DriverPostgres {
		schema = postgresSchema
	}
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration step %d: %w", i, err)
		}
	}
	return nil
}

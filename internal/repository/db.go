package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates every table the repositories use. It is idempotent.
const Schema = `
	CREATE TABLE IF NOT EXISTS products (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		category TEXT,
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0),
		special_status BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);

	CREATE TABLE IF NOT EXISTS restaurants (
		id BIGSERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS restaurant_menu_items (
		restaurant_id BIGINT NOT NULL REFERENCES restaurants(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
		availability BOOLEAN NOT NULL DEFAULT TRUE,
		PRIMARY KEY (restaurant_id, product_id)
	);
	CREATE INDEX IF NOT EXISTS idx_menu_items_product ON restaurant_menu_items(product_id);

	CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY,
		firstname TEXT NOT NULL,
		lastname TEXT NOT NULL,
		phonenumber TEXT NOT NULL,
		address TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'NEW',
		payment_type TEXT NOT NULL DEFAULT 'cash',
		restaurant_id BIGINT REFERENCES restaurants(id) ON DELETE SET NULL,
		comment TEXT NOT NULL DEFAULT '',
		registered_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		called_at TIMESTAMPTZ,
		delivered_at TIMESTAMPTZ,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);

	CREATE TABLE IF NOT EXISTS order_items (
		seq BIGSERIAL,
		id UUID PRIMARY KEY,
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity >= 1),
		price NUMERIC(10,2) NOT NULL CHECK (price >= 0)
	);
	CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS addresses (
		address TEXT PRIMARY KEY,
		longitude DOUBLE PRECISION,
		latitude DOUBLE PRECISION,
		requested_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
`

// CreateSchema applies Schema.
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

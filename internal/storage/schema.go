package storage

import (
	"context"
	"database/sql"

	"tableserve/internal/domain"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS hotels (
		id SERIAL PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		owner TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id SERIAL PRIMARY KEY,
		hotel_id INT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS offers (
		id SERIAL PRIMARY KEY,
		hotel_id INT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		description TEXT,
		type TEXT NOT NULL,
		discount_type TEXT NOT NULL,
		value DOUBLE PRECISION NOT NULL,
		applied_above DOUBLE PRECISION NOT NULL DEFAULT 0,
		start_date TIMESTAMPTZ NOT NULL,
		end_date TIMESTAMPTZ NOT NULL,
		disable BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS dishes (
		id SERIAL PRIMARY KEY,
		hotel_id INT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
		category_id INT REFERENCES categories(id) ON DELETE SET NULL,
		name TEXT NOT NULL,
		description TEXT,
		price DOUBLE PRECISION NOT NULL,
		ingredients TEXT[] NOT NULL DEFAULT '{}',
		out_of_stock BOOLEAN NOT NULL DEFAULT FALSE,
		applied_offer_id INT REFERENCES offers(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS customers (
		id SERIAL PRIMARY KEY,
		hotel_id INT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
		table_id INT NOT NULL,
		bill_id INT NOT NULL,
		name TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	// One live customer per table: the loser of a racing first order hits
	// this index instead of seating a second party.
	`CREATE UNIQUE INDEX IF NOT EXISTS customers_table_id_key ON customers(table_id)`,
	`CREATE TABLE IF NOT EXISTS tables (
		id SERIAL PRIMARY KEY,
		hotel_id INT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
		sequence INT NOT NULL,
		capacity INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'free',
		customer_id INT REFERENCES customers(id) ON DELETE SET NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (hotel_id, sequence)
	)`,
	`CREATE TABLE IF NOT EXISTS bills (
		id SERIAL PRIMARY KEY,
		hotel_id INT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
		table_id INT NOT NULL,
		customer_id INT,
		customer_name TEXT NOT NULL DEFAULT '',
		global_offer_id INT REFERENCES offers(id) ON DELETE SET NULL,
		global_offer_discount DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		total_discount DOUBLE PRECISION NOT NULL DEFAULT 0,
		custom_discount DOUBLE PRECISION NOT NULL DEFAULT 0,
		final_amount DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'unpaid',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS bill_items (
		bill_id INT NOT NULL REFERENCES bills(id) ON DELETE CASCADE,
		dish_id INT NOT NULL REFERENCES dishes(id),
		quantity INT NOT NULL,
		PRIMARY KEY (bill_id, dish_id)
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id SERIAL PRIMARY KEY,
		hotel_id INT NOT NULL REFERENCES hotels(id) ON DELETE CASCADE,
		table_id INT NOT NULL,
		customer_id INT NOT NULL,
		bill_id INT NOT NULL,
		status TEXT NOT NULL DEFAULT 'draft',
		note TEXT,
		is_first_order BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id INT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		dish_id INT NOT NULL REFERENCES dishes(id),
		quantity INT NOT NULL,
		note TEXT,
		PRIMARY KEY (order_id, dish_id)
	)`,
	`CREATE INDEX IF NOT EXISTS orders_table_id_idx ON orders(table_id)`,
	`CREATE INDEX IF NOT EXISTS bills_table_id_idx ON bills(table_id)`,
}

// EnsureSchema creates all tables on startup. Statements are idempotent so a
// restart against an existing database is a no-op.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return domain.NewServerError("failed to ensure schema", err)
		}
	}
	return nil
}

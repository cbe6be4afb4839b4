// Package db embeds the database schema so the binaries can bootstrap a fresh
// Postgres instance without shipping migration files alongside them.
package db

import _ "embed"

// Schema holds the DDL for the customers, products, orders, order_items,
// order_discounts, and api_keys tables. The API server applies it on startup
// before accepting traffic.
//
//go:embed migrations/001_schema.sql
var Schema string

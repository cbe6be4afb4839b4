// Command seed-db loads a development data set: the product catalog from a
// JSON file, a few customers, and a default API key. Existing rows with the
// same name are left untouched, so the command is safe to re-run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ordersvc/ordersvc/internal/domain/auth"
	"github.com/ordersvc/ordersvc/internal/postgres"
)

type productJSON struct {
	Name     string          `json:"name"`
	Category int             `json:"category"`
	Price    decimal.Decimal `json:"price"`
	Stock    int             `json:"stock"`
}

type customerJSON struct {
	Name    string          `json:"name"`
	Since   int             `json:"since"`
	Revenue decimal.Decimal `json:"revenue"`
}

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or ORDERS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ORDERS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("ORDERS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or ORDERS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("ORDERS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}

	if err := seedCustomers(ctx, pool); err != nil {
		return errors.Wrap(err, "seed customers")
	}

	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("inserting products", slog.Int("count", len(products)))

	const query = `
		INSERT INTO products (name, category, price, stock)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1)`

	for _, p := range products {
		if _, err := pool.Exec(ctx, query, p.Name, p.Category, p.Price, p.Stock); err != nil {
			return errors.Wrapf(err, "insert product %s", p.Name)
		}

		slog.Info("inserted product", slog.String("name", p.Name), slog.Int("category", p.Category))
	}

	return nil
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding customers")

	customers := []customerJSON{
		{Name: "Ada Lovelace", Since: 2019, Revenue: decimal.Zero},
		{Name: "Grace Hopper", Since: 2021, Revenue: decimal.Zero},
		{Name: "Alan Turing", Since: 2023, Revenue: decimal.Zero},
	}

	const query = `
		INSERT INTO customers (name, since, revenue)
		SELECT $1, $2, $3
		WHERE NOT EXISTS (SELECT 1 FROM customers WHERE name = $1)`

	for _, c := range customers {
		if _, err := pool.Exec(ctx, query, c.Name, c.Since, c.Revenue); err != nil {
			return errors.Wrapf(err, "insert customer %s", c.Name)
		}

		slog.Info("inserted customer", slog.String("name", c.Name), slog.Int("since", c.Since))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	keyHash := auth.HashKey(apiKey, []byte(pepper))

	const query = `
		INSERT INTO api_keys (key_hash, name)
		VALUES ($1, $2)
		ON CONFLICT (key_hash) DO UPDATE SET name = EXCLUDED.name`

	if _, err := pool.Exec(ctx, query, keyHash, "Default test key"); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("name", "Default test key"))

	return nil
}

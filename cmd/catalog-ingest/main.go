// Command catalog-ingest bulk-loads product catalogs from gzip-compressed
// JSON Lines supplier feeds. Feeds are parsed concurrently; a bloom filter
// keeps memory bounded while deduplicating product names across feeds, and a
// database existence check covers the filter's false positives.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/ordersvc/ordersvc/internal/postgres"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	progressEvery = 100_000
)

// feedProduct is one record of a supplier feed line.
type feedProduct struct {
	Name     string
	Category int
	Price    decimal.Decimal
	Stock    int
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz feed files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "glob feed files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	slog.Info("ingesting feeds", slog.Int("files", len(files)))

	// Producers parse feeds concurrently; a single consumer owns the bloom
	// filter and the insert path, so no locking is needed.
	records := make(chan feedProduct, 1024)

	g, ctx := errgroup.WithContext(ctx)
	parsers, parseCtx := errgroup.WithContext(ctx)
	for _, f := range files {
		parsers.Go(parseFeed(parseCtx, f, records))
	}
	g.Go(func() error {
		defer close(records)
		return parsers.Wait()
	})
	g.Go(func() error {
		return insertProducts(ctx, pool, records)
	})

	return g.Wait()
}

// parseFeed streams one gzipped JSONL file and sends each record to out.
func parseFeed(ctx context.Context, path string, out chan<- feedProduct) func() error {
	return func() error {
		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "create gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		var (
			count   uint64
			skipped uint64
		)

		scanner := bufio.NewScanner(gz)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			p, err := decodeFeedLine(line)
			if err != nil {
				skipped++
				continue
			}
			if p.Name == "" || p.Category < 1 || p.Price.IsNegative() || p.Stock < 0 {
				skipped++
				continue
			}

			select {
			case out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}

			count++
			if count%progressEvery == 0 {
				slog.Info("parse progress", slog.String("file", filepath.Base(path)), slog.Uint64("records", count))
			}
		}

		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}

		slog.Info("feed parsed",
			slog.String("file", filepath.Base(path)),
			slog.Uint64("records", count),
			slog.Uint64("skipped", skipped),
		)

		return nil
	}
}

func decodeFeedLine(line []byte) (feedProduct, error) {
	var p feedProduct
	d := jx.DecodeBytes(line)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			if err != nil {
				return errors.Wrap(err, "name")
			}
			p.Name = v
			return nil
		case "category":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "category")
			}
			p.Category = v
			return nil
		case "price":
			n, err := d.Num()
			if err != nil {
				return errors.Wrap(err, "price")
			}
			v, err := decimal.NewFromString(n.String())
			if err != nil {
				return errors.Wrap(err, "price")
			}
			p.Price = v
			return nil
		case "stock":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "stock")
			}
			p.Stock = v
			return nil
		default:
			return d.Skip()
		}
	}); err != nil {
		return feedProduct{}, err
	}
	return p, nil
}

// insertProducts drains the record channel, deduplicating names via the bloom
// filter. A filter hit may be a false positive, so those names fall through to
// an INSERT guarded by a NOT EXISTS check.
func insertProducts(ctx context.Context, pool *pgxpool.Pool, records <-chan feedProduct) error {
	const query = `
		INSERT INTO products (name, category, price, stock)
		SELECT $1, $2, $3, $4
		WHERE NOT EXISTS (SELECT 1 FROM products WHERE name = $1)`

	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)

	var (
		inserted uint64
		deduped  uint64
	)

	for p := range records {
		if seen.TestString(p.Name) {
			deduped++
			continue
		}
		seen.AddString(p.Name)

		if _, err := pool.Exec(ctx, query, p.Name, p.Category, p.Price, p.Stock); err != nil {
			return errors.Wrapf(err, "insert product %s", p.Name)
		}

		inserted++
		if inserted%progressEvery == 0 {
			slog.Info("insert progress", slog.Uint64("inserted", inserted))
		}
	}

	slog.Info("ingest complete", slog.Uint64("inserted", inserted), slog.Uint64("deduplicated", deduped))

	return nil
}

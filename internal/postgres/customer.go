package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordersvc/ordersvc/internal/domain/customer"
)

const (
	listCustomersSQL = `SELECT id, name, since, revenue
		FROM customers ORDER BY id LIMIT $1 OFFSET $2`

	countCustomersSQL = `SELECT count(*) FROM customers`

	getCustomerSQL = `SELECT id, name, since, revenue
		FROM customers WHERE id = $1`

	createCustomerSQL = `INSERT INTO customers (name, since, revenue)
		VALUES ($1, $2, $3) RETURNING id`

	deleteCustomerSQL = `DELETE FROM customers WHERE id = $1`
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

// List returns one page of customers ordered by id, plus the total count.
func (r *CustomerRepository) List(ctx context.Context, page, perPage int) ([]customer.Customer, int64, error) {
	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx, listCustomersSQL, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing customers: %w", err)
	}
	customers, err := pgx.CollectRows(rows, scanCustomer)
	if err != nil {
		return nil, 0, fmt.Errorf("listing customers: %w", err)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, countCustomersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting customers: %w", err)
	}
	return customers, total, nil
}

// GetByID returns a single customer by its identifier.
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*customer.Customer, error) {
	rows, err := r.pool.Query(ctx, getCustomerSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCustomer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %d: %w", id, err)
	}
	return &c, nil
}

// Create persists a new customer and sets its generated id.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	err := r.pool.QueryRow(ctx, createCustomerSQL, c.Name, c.Since, c.Revenue).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("creating customer %q: %w", c.Name, err)
	}
	return nil
}

// Delete removes the customer and reports whether it existed.
func (r *CustomerRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, deleteCustomerSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting customer %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanCustomer(row pgx.CollectableRow) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Name, &c.Since, &c.Revenue)
	return c, err
}

package customer

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer represents a buyer. Revenue is the cumulative net payable total of
// all orders the customer has placed; it only ever grows.
type Customer struct {
	ID      int64
	Name    string
	Since   int
	Revenue decimal.Decimal
}

// Repository defines customer operations outside of an order transaction.
type Repository interface {
	List(ctx context.Context, page, perPage int) ([]Customer, int64, error)
	GetByID(ctx context.Context, id int64) (*Customer, error)
	Create(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id int64) (bool, error)
}

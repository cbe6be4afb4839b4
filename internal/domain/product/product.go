package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Category codes driving discount rule eligibility.
const (
	CategoryTools    = 1
	CategorySwitches = 2
)

// Product represents a catalog item available for purchase. Stock is debited
// when an order is placed and never restored; it must stay non-negative.
type Product struct {
	ID       int64
	Name     string
	Category int
	Price    decimal.Decimal
	Stock    int
}

// Repository defines catalog operations outside of an order transaction.
type Repository interface {
	List(ctx context.Context, page, perPage int) ([]Product, int64, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) (bool, error)
}

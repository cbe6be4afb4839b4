package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ordersvc/ordersvc/internal/domain/customer"
	"github.com/ordersvc/ordersvc/internal/domain/discount"
	"github.com/ordersvc/ordersvc/internal/domain/product"
)

// Sentinel errors for order validation and lookup.
var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyItems = errors.New("items required")
)

// ProductNotFoundError indicates a requested product does not exist.
type ProductNotFoundError struct {
	ProductID int64
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %d", e.ProductID)
}

// InsufficientStockError indicates a product cannot cover the requested
// quantity. It names the product so the caller can surface it.
type InsufficientStockError struct {
	ProductName string
	Stock       int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: %d available, %d requested",
		e.ProductName, e.Stock, e.Requested)
}

// Order is a purchase transaction for one customer. Total is fixed once the
// items are created; TotalDiscount and DiscountedTotal are mutated only by
// the discount engine. A zero DiscountedTotal means no discount was applied.
type Order struct {
	ID              int64
	CustomerID      int64
	Total           decimal.Decimal
	TotalDiscount   decimal.Decimal
	DiscountedTotal decimal.Decimal
	Items           []OrderItem
	CreatedAt       time.Time
}

// OrderItem is one product line within an order. UnitPrice and Total are
// snapshots taken at order time; the product's later price changes do not
// affect them.
type OrderItem struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	Quantity        int
	UnitPrice       decimal.Decimal
	Total           decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountedTotal decimal.Decimal
}

// DiscountEntry is one append-only discount ledger row. OrderItemID is nil
// for order-level discounts. Subtotal snapshots the order's running
// discounted total at the time the entry was written.
type DiscountEntry struct {
	ID          int64
	OrderID     int64
	OrderItemID *int64
	Reason      discount.Reason
	Amount      decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}

// DiscountReport is the aggregated discount view for one order.
type DiscountReport struct {
	OrderID         int64
	Entries         []DiscountEntry
	Total           decimal.Decimal
	TotalDiscount   decimal.Decimal
	DiscountedTotal decimal.Decimal
}

// Tx is the single-transaction surface used while creating one order. Every
// call runs inside the same database transaction; the row returned by
// ProductForUpdate stays locked until the transaction ends.
type Tx interface {
	CustomerForUpdate(ctx context.Context, id int64) (*customer.Customer, error)
	ProductForUpdate(ctx context.Context, id int64) (*product.Product, error)
	CreateOrder(ctx context.Context, o *Order) error
	CreateItem(ctx context.Context, item *OrderItem) error
	UpdateOrderTotals(ctx context.Context, o *Order) error
	UpdateItemDiscount(ctx context.Context, item *OrderItem) error
	SetProductStock(ctx context.Context, id int64, stock int) error
	AppendDiscount(ctx context.Context, e *DiscountEntry) error
	SetCustomerRevenue(ctx context.Context, id int64, revenue decimal.Decimal) error
}

// Store persists orders. CreateTx runs fn inside one transaction and commits
// only when fn returns nil; any error rolls back every write fn performed.
type Store interface {
	CreateTx(ctx context.Context, fn func(tx Tx) error) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	List(ctx context.Context, page, perPage int) ([]Order, int64, error)
	ListDiscounts(ctx context.Context, orderID int64) ([]DiscountEntry, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

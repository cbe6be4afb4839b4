package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ordersvc/ordersvc/internal/domain/customer"
	"github.com/ordersvc/ordersvc/internal/domain/order"
	"github.com/ordersvc/ordersvc/internal/domain/product"
)

const (
	customerForUpdateSQL = `SELECT id, name, since, revenue
		FROM customers WHERE id = $1 FOR UPDATE`

	productForUpdateSQL = `SELECT id, name, category, price, stock
		FROM products WHERE id = $1 FOR UPDATE`

	insertOrderSQL = `INSERT INTO orders (customer_id)
		VALUES ($1) RETURNING id, created_at`

	insertItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price, total)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	updateOrderTotalsSQL = `UPDATE orders
		SET total = $2, total_discount = $3, discounted_total = $4 WHERE id = $1`

	updateItemDiscountSQL = `UPDATE order_items
		SET discount_amount = $2, discounted_total = $3 WHERE id = $1`

	setProductStockSQL = `UPDATE products SET stock = $2 WHERE id = $1`

	insertDiscountSQL = `INSERT INTO order_discounts
		(order_id, order_item_id, discount_reason, discount_amount, subtotal)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`

	setCustomerRevenueSQL = `UPDATE customers SET revenue = $2 WHERE id = $1`

	getOrderSQL = `SELECT id, customer_id, total, total_discount, discounted_total, created_at
		FROM orders WHERE id = $1`

	listOrdersSQL = `SELECT id, customer_id, total, total_discount, discounted_total, created_at
		FROM orders ORDER BY id LIMIT $1 OFFSET $2`

	countOrdersSQL = `SELECT count(*) FROM orders`

	listItemsSQL = `SELECT id, order_id, product_id, quantity, unit_price, total, discount_amount, discounted_total
		FROM order_items WHERE order_id = ANY($1) ORDER BY id`

	listDiscountsSQL = `SELECT id, order_id, order_item_id, discount_reason, discount_amount, subtotal, created_at
		FROM order_discounts WHERE order_id = $1 ORDER BY id`

	deleteOrderSQL = `DELETE FROM orders WHERE id = $1`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL. Order creation runs
// in a single transaction; deleting an order cascades to its items and
// discount ledger through the schema's foreign keys.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// CreateTx starts a transaction, runs fn against it, and commits only when fn
// returns nil. Any error from fn (or from commit) rolls everything back.
func (s *OrderStore) CreateTx(ctx context.Context, fn func(tx order.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order transaction: %w", err)
	}
	return nil
}

// GetByID returns an order with its items.
func (s *OrderStore) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", id, err)
	}

	items, err := s.itemsForOrders(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	o.Items = items[id]
	return &o, nil
}

// List returns one page of orders with their items, plus the total count.
func (s *OrderStore) List(ctx context.Context, page, perPage int) ([]order.Order, int64, error) {
	offset := (page - 1) * perPage
	rows, err := s.pool.Query(ctx, listOrdersSQL, perPage, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	ordersPage, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}

	ids := make([]int64, len(ordersPage))
	for i := range ordersPage {
		ids[i] = ordersPage[i].ID
	}
	if len(ids) > 0 {
		items, err := s.itemsForOrders(ctx, ids)
		if err != nil {
			return nil, 0, err
		}
		for i := range ordersPage {
			ordersPage[i].Items = items[ordersPage[i].ID]
		}
	}

	var total int64
	if err := s.pool.QueryRow(ctx, countOrdersSQL).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}
	return ordersPage, total, nil
}

// ListDiscounts returns the order's discount ledger in insertion order.
func (s *OrderStore) ListDiscounts(ctx context.Context, orderID int64) ([]order.DiscountEntry, error) {
	rows, err := s.pool.Query(ctx, listDiscountsSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing discounts for order %d: %w", orderID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.DiscountEntry, error) {
		var e order.DiscountEntry
		err := row.Scan(&e.ID, &e.OrderID, &e.OrderItemID, &e.Reason, &e.Amount, &e.Subtotal, &e.CreatedAt)
		return e, err
	})
}

// Delete removes the order, cascading items and discount entries, and reports
// whether an order with that id existed.
func (s *OrderStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, deleteOrderSQL, id)
	if err != nil {
		return false, fmt.Errorf("deleting order %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *OrderStore) itemsForOrders(ctx context.Context, ids []int64) (map[int64][]order.OrderItem, error) {
	rows, err := s.pool.Query(ctx, listItemsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}

	byOrder := make(map[int64][]order.OrderItem, len(ids))
	for _, item := range items {
		byOrder[item.OrderID] = append(byOrder[item.OrderID], item)
	}
	return byOrder, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.Total, &o.TotalDiscount, &o.DiscountedTotal, &o.CreatedAt)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.OrderItem, error) {
	var item order.OrderItem
	err := row.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity,
		&item.UnitPrice, &item.Total, &item.DiscountAmount, &item.DiscountedTotal)
	return item, err
}

var _ order.Tx = (*orderTx)(nil)

// orderTx exposes the order-creation writes on one pgx transaction. Rows
// fetched with the ForUpdate queries stay locked until the transaction ends,
// which serializes concurrent stock debits per product.
type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) CustomerForUpdate(ctx context.Context, id int64) (*customer.Customer, error) {
	var c customer.Customer
	err := t.tx.QueryRow(ctx, customerForUpdateSQL, id).Scan(&c.ID, &c.Name, &c.Since, &c.Revenue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("locking customer %d: %w", id, err)
	}
	return &c, nil
}

func (t *orderTx) ProductForUpdate(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	err := t.tx.QueryRow(ctx, productForUpdateSQL, id).Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("locking product %d: %w", id, err)
	}
	return &p, nil
}

func (t *orderTx) CreateOrder(ctx context.Context, o *order.Order) error {
	err := t.tx.QueryRow(ctx, insertOrderSQL, o.CustomerID).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (t *orderTx) CreateItem(ctx context.Context, item *order.OrderItem) error {
	err := t.tx.QueryRow(ctx, insertItemSQL,
		item.OrderID, item.ProductID, item.Quantity, item.UnitPrice, item.Total,
	).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("inserting order item: %w", err)
	}
	return nil
}

func (t *orderTx) UpdateOrderTotals(ctx context.Context, o *order.Order) error {
	_, err := t.tx.Exec(ctx, updateOrderTotalsSQL, o.ID, o.Total, o.TotalDiscount, o.DiscountedTotal)
	if err != nil {
		return fmt.Errorf("updating order %d totals: %w", o.ID, err)
	}
	return nil
}

func (t *orderTx) UpdateItemDiscount(ctx context.Context, item *order.OrderItem) error {
	_, err := t.tx.Exec(ctx, updateItemDiscountSQL, item.ID, item.DiscountAmount, item.DiscountedTotal)
	if err != nil {
		return fmt.Errorf("updating item %d discount: %w", item.ID, err)
	}
	return nil
}

func (t *orderTx) SetProductStock(ctx context.Context, id int64, stock int) error {
	_, err := t.tx.Exec(ctx, setProductStockSQL, id, stock)
	if err != nil {
		return fmt.Errorf("updating product %d stock: %w", id, err)
	}
	return nil
}

func (t *orderTx) AppendDiscount(ctx context.Context, e *order.DiscountEntry) error {
	err := t.tx.QueryRow(ctx, insertDiscountSQL,
		e.OrderID, e.OrderItemID, string(e.Reason), e.Amount, e.Subtotal,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("inserting discount entry: %w", err)
	}
	return nil
}

func (t *orderTx) SetCustomerRevenue(ctx context.Context, id int64, revenue decimal.Decimal) error {
	_, err := t.tx.Exec(ctx, setCustomerRevenueSQL, id, revenue)
	if err != nil {
		return fmt.Errorf("updating customer %d revenue: %w", id, err)
	}
	return nil
}

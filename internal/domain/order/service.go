package order

import (
	"context"
	"sort"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/ordersvc/ordersvc/internal/domain/discount"
	"github.com/ordersvc/ordersvc/internal/domain/product"
)

// ItemRequest is one requested order line.
type ItemRequest struct {
	ProductID int64
	Quantity  int
}

// CreateRequest holds the input for creating an order.
type CreateRequest struct {
	CustomerID int64
	Items      []ItemRequest
}

// Service orchestrates order creation, deletion, and the discount views.
// All writes for one order go through a single Store transaction.
type Service struct {
	store Store
}

// NewService creates an order Service backed by the given store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates the request, creates the order and its items, debits
// product stock, applies the discount rules, and posts the net payable total
// to the customer's revenue. The whole sequence runs in one transaction:
// on any error nothing is persisted.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: item.ProductID}
		}
	}

	var created *Order
	err := s.store.CreateTx(ctx, func(tx Tx) error {
		cust, err := tx.CustomerForUpdate(ctx, req.CustomerID)
		if err != nil {
			return err
		}

		products, err := lockProducts(ctx, tx, req.Items)
		if err != nil {
			return err
		}

		// Stock check against the locked rows. Quantities for repeated
		// product lines accumulate, so an order cannot oversell itself.
		remaining := make(map[int64]int, len(products))
		for id, p := range products {
			remaining[id] = p.Stock
		}
		for _, item := range req.Items {
			p := products[item.ProductID]
			if remaining[p.ID] < item.Quantity {
				return &InsufficientStockError{
					ProductName: p.Name,
					Stock:       remaining[p.ID],
					Requested:   item.Quantity,
				}
			}
			remaining[p.ID] -= item.Quantity
		}

		o := &Order{CustomerID: req.CustomerID}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		for _, item := range req.Items {
			p := products[item.ProductID]
			qty := decimal.NewFromInt(int64(item.Quantity))
			line := OrderItem{
				OrderID:   o.ID,
				ProductID: p.ID,
				Quantity:  item.Quantity,
				UnitPrice: p.Price,
				Total:     p.Price.Mul(qty),
			}
			if err := tx.CreateItem(ctx, &line); err != nil {
				return errors.Wrapf(err, "create item for product %d", p.ID)
			}
			o.Total = o.Total.Add(line.Total)
			o.Items = append(o.Items, line)
		}
		for id := range products {
			if err := tx.SetProductStock(ctx, id, remaining[id]); err != nil {
				return errors.Wrapf(err, "debit stock for product %d", id)
			}
		}
		if err := tx.UpdateOrderTotals(ctx, o); err != nil {
			return errors.Wrap(err, "persist order total")
		}

		if err := s.applyDiscounts(ctx, tx, o, products); err != nil {
			return err
		}

		// Net payable: discounted total when a discount was applied,
		// otherwise the raw total.
		net := o.Total
		if o.DiscountedTotal.IsPositive() {
			net = o.DiscountedTotal
		}
		if err := tx.SetCustomerRevenue(ctx, cust.ID, cust.Revenue.Add(net)); err != nil {
			return errors.Wrap(err, "update customer revenue")
		}

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// lockProducts locks each distinct product row in ascending id order, so
// concurrent order creations against the same products always acquire locks
// in the same sequence.
func lockProducts(ctx context.Context, tx Tx, items []ItemRequest) (map[int64]*product.Product, error) {
	ids := make([]int64, 0, len(items))
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[int64]*product.Product, len(ids))
	for _, id := range ids {
		p, err := tx.ProductForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: id}
			}
			return nil, errors.Wrapf(err, "lock product %d", id)
		}
		products[id] = p
	}
	return products, nil
}

// applyDiscounts runs the discount engine against the fully-priced order and
// persists its mutations: running totals on the order and items, plus one
// ledger row per rule application.
func (s *Service) applyDiscounts(ctx context.Context, tx Tx, o *Order, products map[int64]*product.Product) error {
	working := &discount.Order{
		ID:    o.ID,
		Total: o.Total,
		Items: make([]*discount.Item, len(o.Items)),
	}
	for i := range o.Items {
		item := &o.Items[i]
		working.Items[i] = &discount.Item{
			ID:        item.ID,
			Category:  products[item.ProductID].Category,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     item.Total,
		}
	}

	entries := discount.Apply(working)

	o.TotalDiscount = working.TotalDiscount
	o.DiscountedTotal = working.DiscountedTotal
	for i, w := range working.Items {
		o.Items[i].DiscountAmount = w.DiscountAmount
		o.Items[i].DiscountedTotal = w.DiscountedTotal
	}

	if len(entries) == 0 {
		return nil
	}
	if err := tx.UpdateOrderTotals(ctx, o); err != nil {
		return errors.Wrap(err, "persist discounted totals")
	}
	for i := range o.Items {
		if err := tx.UpdateItemDiscount(ctx, &o.Items[i]); err != nil {
			return errors.Wrapf(err, "persist item %d discount", o.Items[i].ID)
		}
	}
	for _, e := range entries {
		row := &DiscountEntry{
			OrderID:     o.ID,
			OrderItemID: e.ItemID,
			Reason:      e.Reason,
			Amount:      e.Amount,
			Subtotal:    e.Subtotal,
		}
		if err := tx.AppendDiscount(ctx, row); err != nil {
			return errors.Wrap(err, "append discount entry")
		}
	}
	return nil
}

// Delete removes the order, cascading its items and discount ledger. It
// reports whether an order with that id existed. Stock and customer revenue
// are deliberately left untouched: deletion is a hard remove, not a
// compensating transaction.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	return s.store.Delete(ctx, id)
}

// List returns one page of orders with their items, plus the total order
// count.
func (s *Service) List(ctx context.Context, page, perPage int) ([]Order, int64, error) {
	return s.store.List(ctx, page, perPage)
}

// GetDiscounts returns the discount ledger and totals for one order. It is
// read-only: calling it repeatedly yields identical results.
func (s *Service) GetDiscounts(ctx context.Context, orderID int64) (*DiscountReport, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.ListDiscounts(ctx, orderID)
	if err != nil {
		return nil, errors.Wrapf(err, "list discounts for order %d", orderID)
	}
	return &DiscountReport{
		OrderID:         o.ID,
		Entries:         entries,
		Total:           o.Total,
		TotalDiscount:   o.TotalDiscount,
		DiscountedTotal: o.DiscountedTotal,
	}, nil
}

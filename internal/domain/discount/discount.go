package discount

import (
	"github.com/shopspring/decimal"

	"github.com/ordersvc/ordersvc/internal/domain/product"
)

// Reason identifies which promotion produced a ledger entry. The set is
// closed: persisted rows only ever carry one of the declared constants.
type Reason string

const (
	// ReasonOver1000 is the 10% discount on orders totalling 1000 or more.
	ReasonOver1000 Reason = "OVER_1000"
	// ReasonBuy5Get1 grants one free unit on category-2 items bought six or
	// more at a time.
	ReasonBuy5Get1 Reason = "BUY_5_GET_1"
	// ReasonCategory1 is the 20% discount on the cheapest of two or more
	// category-1 items. The source system declared a CHEAPEST_20_PERCENT
	// enumeration case for this rule but persisted this literal instead;
	// this literal is the canonical one.
	ReasonCategory1 Reason = "CATEGORY_1_DISCOUNT"
	// ReasonCheapest20 is declared for ledger compatibility with historical
	// rows. No rule emits it.
	ReasonCheapest20 Reason = "CHEAPEST_20_PERCENT"
)

// descriptions is the closed lookup table for human-readable reason text.
var descriptions = map[Reason]string{
	ReasonOver1000:   "10% off orders of 1000 or more",
	ReasonBuy5Get1:   "one free unit on 6+ of a category-2 item",
	ReasonCategory1:  "20% off the cheapest of 2+ category-1 items",
	ReasonCheapest20: "20% off the cheapest of 2+ category-1 items",
}

// Description returns the human-readable text for the reason, or an empty
// string for unknown values.
func (r Reason) Description() string {
	return descriptions[r]
}

// Valid reports whether r is one of the declared reasons.
func (r Reason) Valid() bool {
	_, ok := descriptions[r]
	return ok
}

// Item is the discount engine's working view of one order line. ID, Category,
// Quantity, UnitPrice and Total are snapshots fixed at order creation;
// DiscountAmount and DiscountedTotal are running values mutated by Apply.
type Item struct {
	ID              int64
	Category        int
	Quantity        int
	UnitPrice       decimal.Decimal
	Total           decimal.Decimal
	DiscountAmount  decimal.Decimal
	DiscountedTotal decimal.Decimal
}

// Order is the discount engine's working view of a fully-priced order.
// Total is fixed; TotalDiscount and DiscountedTotal are running values.
// A zero DiscountedTotal means "equal to Total": the first applied discount
// seeds it from Total (see Reconcile).
type Order struct {
	ID              int64
	Total           decimal.Decimal
	TotalDiscount   decimal.Decimal
	DiscountedTotal decimal.Decimal
	Items           []*Item
}

// Entry is one append-only discount ledger row. ItemID is nil for order-level
// discounts. Subtotal snapshots the order's running discounted total right
// after the rule applied.
type Entry struct {
	ItemID   *int64
	Reason   Reason
	Amount   decimal.Decimal
	Subtotal decimal.Decimal
}

var (
	threshold  = decimal.NewFromInt(1000)
	tenPercent = decimal.NewFromFloat(0.10)
	twentyPct  = decimal.NewFromFloat(0.20)
)

// Apply runs the three promotion rules against o in their fixed order,
// mutating the running totals on the order and its items, and returns the
// ledger entries produced. Each rule's amount is computed against the
// original totals, never against already-discounted values; only the running
// DiscountedTotal/DiscountAmount fields accumulate.
func Apply(o *Order) []Entry {
	var entries []Entry

	if o.Total.GreaterThanOrEqual(threshold) {
		entries = append(entries, applyOrderTotal(o))
	}
	entries = append(entries, applyCategory2(o)...)
	if e := applyCategory1(o); e != nil {
		entries = append(entries, *e)
	}

	return entries
}

// applyOrderTotal grants 10% of the order total, distributed across items
// proportionally to their share of the total.
func applyOrderTotal(o *Order) Entry {
	amount := o.Total.Mul(tenPercent).Round(2)
	applyToOrder(o, amount)

	for _, item := range o.Items {
		share := decimal.Zero
		if o.Total.IsPositive() {
			share = item.Total.Div(o.Total).Mul(amount).Round(2)
		}
		applyToItem(item, share)
	}

	return Entry{
		Reason:   ReasonOver1000,
		Amount:   amount,
		Subtotal: o.DiscountedTotal,
	}
}

// applyCategory2 grants one free unit on every category-2 item with six or
// more units, one ledger entry per qualifying item.
func applyCategory2(o *Order) []Entry {
	var entries []Entry
	for _, item := range o.Items {
		if item.Category != product.CategorySwitches || item.Quantity < 6 {
			continue
		}

		amount := item.UnitPrice
		applyToOrder(o, amount)
		applyToItem(item, amount)

		id := item.ID
		entries = append(entries, Entry{
			ItemID:   &id,
			Reason:   ReasonBuy5Get1,
			Amount:   amount,
			Subtotal: o.DiscountedTotal,
		})
	}
	return entries
}

// applyCategory1 grants 20% off the cheapest category-1 item when the order
// holds at least two of them. Ties on Total keep the earliest item: items are
// iterated in creation order, so the winner has the lowest total and, among
// equals, the lowest item id.
func applyCategory1(o *Order) *Entry {
	var cheapest *Item
	count := 0
	for _, item := range o.Items {
		if item.Category != product.CategoryTools {
			continue
		}
		count++
		if cheapest == nil || item.Total.LessThan(cheapest.Total) {
			cheapest = item
		}
	}
	if count < 2 {
		return nil
	}

	amount := cheapest.Total.Mul(twentyPct).Round(2)
	applyToOrder(o, amount)
	applyToItem(cheapest, amount)

	id := cheapest.ID
	return &Entry{
		ItemID:   &id,
		Reason:   ReasonCategory1,
		Amount:   amount,
		Subtotal: o.DiscountedTotal,
	}
}

func applyToOrder(o *Order, amount decimal.Decimal) {
	o.DiscountedTotal = Reconcile(o.Total, o.DiscountedTotal, amount)
	o.TotalDiscount = o.TotalDiscount.Add(amount)
}

func applyToItem(item *Item, amount decimal.Decimal) {
	item.DiscountedTotal = Reconcile(item.Total, item.DiscountedTotal, amount)
	item.DiscountAmount = item.DiscountAmount.Add(amount)
}

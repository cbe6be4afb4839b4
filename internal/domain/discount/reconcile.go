package discount

import "github.com/shopspring/decimal"

// Reconcile computes the new running discounted total after subtracting
// amount. A zero (unseeded) current value means "equal to base", so the first
// discount subtracts from base; later discounts subtract from the running
// value. The result never drops below zero, even though the cumulative
// discount tracked alongside it may exceed base.
func Reconcile(base, current, amount decimal.Decimal) decimal.Decimal {
	next := base.Sub(amount)
	if current.IsPositive() {
		next = current.Sub(amount)
	}
	if next.IsNegative() {
		return decimal.Zero
	}
	return next
}

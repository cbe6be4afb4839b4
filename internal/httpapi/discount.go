package httpapi

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/ordersvc/ordersvc/internal/domain/order"
	"github.com/ordersvc/ordersvc/pkg/money"
)

// getOrderDiscounts returns the discount ledger view for one order: every
// ledger row plus the order's totals, all money values formatted.
func (h *Handler) getOrderDiscounts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "order id must be a positive integer")
		return
	}

	report, err := h.orders.GetDiscounts(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(report.OrderID) })
			e.Field("discounts", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, entry := range report.Entries {
						e.Obj(func(e *jx.Encoder) {
							e.Field("discountReason", func(e *jx.Encoder) { e.Str(string(entry.Reason)) })
							e.Field("discountAmount", func(e *jx.Encoder) { e.Str(money.Format(entry.Amount)) })
							e.Field("subtotal", func(e *jx.Encoder) { e.Str(money.Format(entry.Subtotal)) })
						})
					}
				})
			})
			e.Field("total", func(e *jx.Encoder) { e.Str(money.Format(report.Total)) })
			e.Field("totalDiscount", func(e *jx.Encoder) { e.Str(money.Format(report.TotalDiscount)) })
			e.Field("discountedTotal", func(e *jx.Encoder) { e.Str(money.Format(report.DiscountedTotal)) })
		})
	})
}

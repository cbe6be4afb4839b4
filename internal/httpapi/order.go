package httpapi

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/ordersvc/ordersvc/internal/domain/customer"
	"github.com/ordersvc/ordersvc/internal/domain/order"
	"github.com/ordersvc/ordersvc/pkg/money"
)

// decodeOrderRequest parses the order creation body:
// {"customer_id": 1, "items": [{"product_id": 100, "quantity": 10}]}.
func decodeOrderRequest(body []byte) (order.CreateRequest, error) {
	var req order.CreateRequest
	d := jx.DecodeBytes(body)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "customer_id":
			v, err := d.Int64()
			req.CustomerID = v
			return err
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				var item order.ItemRequest
				if err := d.Obj(func(d *jx.Decoder, key string) error {
					switch key {
					case "product_id":
						v, err := d.Int64()
						item.ProductID = v
						return err
					case "quantity":
						v, err := d.Int()
						item.Quantity = v
						return err
					default:
						return d.Skip()
					}
				}); err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		default:
			return d.Skip()
		}
	})
	return req, err
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}
	req, err := decodeOrderRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed order request")
		return
	}

	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("order created") })
			e.Field("order_id", func(e *jx.Encoder) { e.Int64(o.ID) })
			e.Field("total", func(e *jx.Encoder) { e.Str(money.Format(o.Total)) })
			e.Field("totalDiscount", func(e *jx.Encoder) { e.Str(money.Format(o.TotalDiscount)) })
			e.Field("discountedTotal", func(e *jx.Encoder) { e.Str(money.Format(o.DiscountedTotal)) })
		})
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)

	list, total, err := h.orders.List(r.Context(), page, perPage)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("data", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range list {
						encodeOrder(e, &list[i])
					}
				})
			})
			e.Field("page", func(e *jx.Encoder) { e.Int(page) })
			e.Field("perPage", func(e *jx.Encoder) { e.Int(perPage) })
			e.Field("total", func(e *jx.Encoder) { e.Int64(total) })
		})
	})
}

func encodeOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(o.ID) })
		e.Field("customerId", func(e *jx.Encoder) { e.Int64(o.CustomerID) })
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, item := range o.Items {
					e.Obj(func(e *jx.Encoder) {
						e.Field("productId", func(e *jx.Encoder) { e.Int64(item.ProductID) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(item.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { e.Str(money.Format(item.UnitPrice)) })
						e.Field("total", func(e *jx.Encoder) { e.Str(money.Format(item.Total)) })
						e.Field("discountAmount", func(e *jx.Encoder) { e.Str(money.Format(item.DiscountAmount)) })
						e.Field("discountedTotal", func(e *jx.Encoder) { e.Str(money.Format(item.DiscountedTotal)) })
					})
				}
			})
		})
		e.Field("total", func(e *jx.Encoder) { e.Str(money.Format(o.Total)) })
		e.Field("totalDiscount", func(e *jx.Encoder) { e.Str(money.Format(o.TotalDiscount)) })
		e.Field("discountedTotal", func(e *jx.Encoder) { e.Str(money.Format(o.DiscountedTotal)) })
	})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "order id must be a positive integer")
		return
	}

	existed, err := h.orders.Delete(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("order deleted") })
		})
	})
}

// mapOrderError translates order-creation failures to API responses:
// missing referents are 404, validation failures 422, the rest 500.
func (h *Handler) mapOrderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, customer.ErrNotFound) {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	var pnfErr *order.ProductNotFoundError
	if errors.As(err, &pnfErr) {
		writeError(w, http.StatusUnprocessableEntity, pnfErr.Error())
		return
	}

	if errors.Is(err, order.ErrEmptyItems) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var iqErr *order.InvalidQuantityError
	if errors.As(err, &iqErr) {
		writeError(w, http.StatusUnprocessableEntity, iqErr.Error())
		return
	}

	var isErr *order.InsufficientStockError
	if errors.As(err, &isErr) {
		writeError(w, http.StatusUnprocessableEntity, isErr.Error())
		return
	}

	writeInternalError(w, r, err)
}

package httpapi

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/ordersvc/ordersvc/internal/domain/customer"
	"github.com/ordersvc/ordersvc/pkg/money"
)

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)

	customers, total, err := h.customers.List(r.Context(), page, perPage)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("data", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, c := range customers {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Int64(c.ID) })
							e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
							e.Field("since", func(e *jx.Encoder) { e.Int(c.Since) })
							e.Field("revenue", func(e *jx.Encoder) { e.Str(money.Format(c.Revenue)) })
						})
					}
				})
			})
			e.Field("page", func(e *jx.Encoder) { e.Int(page) })
			e.Field("perPage", func(e *jx.Encoder) { e.Int(perPage) })
			e.Field("total", func(e *jx.Encoder) { e.Int64(total) })
		})
	})
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "customer id must be a positive integer")
		return
	}

	c, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, customer.ErrNotFound) {
			writeError(w, http.StatusNotFound, "customer not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(c.ID) })
			e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
			e.Field("since", func(e *jx.Encoder) { e.Int(c.Since) })
			e.Field("revenue", func(e *jx.Encoder) { e.Str(money.Format(c.Revenue)) })
		})
	})
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	var c customer.Customer
	d := jx.DecodeBytes(body)
	decodeErr := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			c.Name = v
			return err
		case "since":
			v, err := d.Int()
			c.Since = v
			return err
		case "revenue":
			n, err := d.Num()
			if err != nil {
				return err
			}
			c.Revenue, err = decimal.NewFromString(n.String())
			return err
		default:
			return d.Skip()
		}
	})
	if decodeErr != nil {
		writeError(w, http.StatusBadRequest, "malformed customer request")
		return
	}
	if c.Name == "" || c.Revenue.IsNegative() {
		writeError(w, http.StatusUnprocessableEntity, "name required, revenue must be non-negative")
		return
	}

	if err := h.customers.Create(r.Context(), &c); err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("customer created") })
			e.Field("customer_id", func(e *jx.Encoder) { e.Int64(c.ID) })
		})
	})
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "customer id must be a positive integer")
		return
	}

	existed, err := h.customers.Delete(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("customer deleted") })
		})
	})
}

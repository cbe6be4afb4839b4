package httpapi

import (
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/ordersvc/ordersvc/internal/domain/product"
	"github.com/ordersvc/ordersvc/pkg/money"
)

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	page, perPage := pageParams(r)

	products, total, err := h.products.List(r.Context(), page, perPage)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("data", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, p := range products {
						e.Obj(func(e *jx.Encoder) {
							e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
							e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
							e.Field("category", func(e *jx.Encoder) { e.Int(p.Category) })
							e.Field("price", func(e *jx.Encoder) { e.Str(money.Format(p.Price)) })
							e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
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

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "product id must be a positive integer")
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(p.ID) })
			e.Field("name", func(e *jx.Encoder) { e.Str(p.Name) })
			e.Field("category", func(e *jx.Encoder) { e.Int(p.Category) })
			e.Field("price", func(e *jx.Encoder) { e.Str(money.Format(p.Price)) })
			e.Field("stock", func(e *jx.Encoder) { e.Int(p.Stock) })
		})
	})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read request body")
		return
	}

	var p product.Product
	d := jx.DecodeBytes(body)
	decodeErr := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "name":
			v, err := d.Str()
			p.Name = v
			return err
		case "category":
			v, err := d.Int()
			p.Category = v
			return err
		case "price":
			n, err := d.Num()
			if err != nil {
				return err
			}
			p.Price, err = decimal.NewFromString(n.String())
			return err
		case "stock":
			v, err := d.Int()
			p.Stock = v
			return err
		default:
			return d.Skip()
		}
	})
	if decodeErr != nil {
		writeError(w, http.StatusBadRequest, "malformed product request")
		return
	}
	if p.Name == "" || p.Price.IsNegative() || p.Stock < 0 {
		writeError(w, http.StatusUnprocessableEntity, "name required, price and stock must be non-negative")
		return
	}

	if err := h.products.Create(r.Context(), &p); err != nil {
		writeInternalError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("product created") })
			e.Field("product_id", func(e *jx.Encoder) { e.Int64(p.ID) })
		})
	})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "product id must be a positive integer")
		return
	}

	existed, err := h.products.Delete(r.Context(), id)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if !existed {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("message", func(e *jx.Encoder) { e.Str("product deleted") })
		})
	})
}

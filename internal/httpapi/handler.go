// Package httpapi exposes the order, product, and customer services over
// HTTP. Handlers translate between JSON and the domain types; business rules
// live in the domain packages.
package httpapi

import (
	"net/http"

	"github.com/ordersvc/ordersvc/internal/domain/customer"
	"github.com/ordersvc/ordersvc/internal/domain/order"
	"github.com/ordersvc/ordersvc/internal/domain/product"
)

// Pagination defaults for the list endpoints.
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Handler implements the HTTP API, delegating to the order service and the
// product/customer repositories.
type Handler struct {
	orders    *order.Service
	products  product.Repository
	customers customer.Repository
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(orders *order.Service, products product.Repository, customers customer.Repository) *Handler {
	return &Handler{
		orders:    orders,
		products:  products,
		customers: customers,
	}
}

// Routes returns the API route table. Authentication is applied by the
// caller (see NewSecurityMiddleware); these routes assume it already ran.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/order", h.createOrder)
	mux.HandleFunc("GET /api/order", h.listOrders)
	mux.HandleFunc("DELETE /api/order/{id}", h.deleteOrder)

	mux.HandleFunc("GET /api/discounted/{id}", h.getOrderDiscounts)

	mux.HandleFunc("GET /api/product", h.listProducts)
	mux.HandleFunc("GET /api/product/{id}", h.getProduct)
	mux.HandleFunc("POST /api/product", h.createProduct)
	mux.HandleFunc("DELETE /api/product/{id}", h.deleteProduct)

	mux.HandleFunc("GET /api/customer", h.listCustomers)
	mux.HandleFunc("GET /api/customer/{id}", h.getCustomer)
	mux.HandleFunc("POST /api/customer", h.createCustomer)
	mux.HandleFunc("DELETE /api/customer/{id}", h.deleteCustomer)

	return mux
}

// Package handler exposes the HTTP API. Handlers convert JSON payloads to
// domain requests, delegate to the domain services and repositories, and map
// domain errors back to status codes.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lmarind/tienda-api/internal/domain/coupon"
	"github.com/lmarind/tienda-api/internal/domain/order"
	"github.com/lmarind/tienda-api/internal/domain/product"
)

// Handler serves the /api/v1 surface.
type Handler struct {
	products   product.Repository
	categories product.CategoryRepository
	orders     order.Repository
	coupons    coupon.Repository
	checkout   *order.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	products product.Repository,
	categories product.CategoryRepository,
	orders order.Repository,
	coupons coupon.Repository,
	checkout *order.Service,
) *Handler {
	return &Handler{
		products:   products,
		categories: categories,
		orders:     orders,
		coupons:    coupons,
		checkout:   checkout,
	}
}

// Register mounts every API route on mux. auth wraps each route; pass the
// identity middleware so /api/v1 stays key-protected while probes remain open.
func (h *Handler) Register(mux *http.ServeMux, auth func(http.Handler) http.Handler) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, auth(fn))
	}

	route("GET /api/v1/products", h.ListProducts)
	route("GET /api/v1/products/{slug}", h.GetProduct)
	route("GET /api/v1/categories", h.ListCategories)
	route("GET /api/v1/choices", h.Choices)
	route("GET /api/v1/coupons/{code}", h.GetCoupon)
	route("POST /api/v1/orders", h.CreateOrder)
	route("GET /api/v1/orders", h.ListOrders)
	route("GET /api/v1/orders/{id}", h.GetOrder)
	route("POST /api/v1/orders/{id}/refunds", h.CreateRefund)
}

// errorResponse is the uniform error payload.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Code: status, Message: message})
}

// decodeBody parses the request body into v, rejecting unknown fields. A false
// return means the 400 response has already been written.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		zctx.From(r.Context()).Debug("malformed request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, "malformed request body")
		return false
	}
	return true
}

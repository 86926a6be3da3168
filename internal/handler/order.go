package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lmarind/tienda-api/internal/domain/coupon"
	"github.com/lmarind/tienda-api/internal/domain/order"
	"github.com/lmarind/tienda-api/internal/domain/product"
)

// CreateOrder handles POST /api/v1/orders: the full checkout. On success the
// created order is returned with items, payments and addresses attached.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}

	method, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	lines := make([]order.Line, len(req.Products))
	for i, p := range req.Products {
		lines[i] = order.Line{ProductID: p.ProductID, Quantity: p.Qty}
	}

	created, err := h.checkout.Checkout(r.Context(), order.CheckoutRequest{
		UserID:     userID,
		Address:    req.Address.fields(),
		Lines:      lines,
		Method:     method,
		Notes:      req.Notes,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		h.writeCheckoutError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(created))
}

// writeCheckoutError maps domain checkout errors to status codes. Validation
// failures carry their own message; anything else is reported opaquely with
// the cause logged.
func (h *Handler) writeCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrEmptyLines):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, order.ErrInvalidQuantity):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, coupon.ErrInvalid):
		writeError(w, http.StatusUnprocessableEntity, "invalid coupon code")
		return
	}

	var notFound *product.NotFoundError
	if errors.As(err, &notFound) {
		writeError(w, http.StatusUnprocessableEntity, notFound.Error())
		return
	}
	var insufficient *product.InsufficientStockError
	if errors.As(err, &insufficient) {
		writeError(w, http.StatusUnprocessableEntity, insufficient.Error())
		return
	}

	zctx.From(r.Context()).Error("checkout failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "could not create order")
}

// ListOrders handles GET /api/v1/orders: the caller's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orders, err := h.orders.ListByUser(r.Context(), userID)
	if err != nil {
		zctx.From(r.Context()).Error("list orders", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list orders")
		return
	}

	out := make([]orderResponse, len(orders))
	for i := range orders {
		out[i] = toOrderResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// GetOrder handles GET /api/v1/orders/{id}.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	o, err := h.orders.GetByID(r.Context(), userID, orderID)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		zctx.From(r.Context()).Error("get order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not get order")
		return
	}

	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

// CreateRefund handles POST /api/v1/orders/{id}/refunds. Refund requests are
// recorded as not accepted; review happens outside this service.
func (h *Handler) CreateRefund(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	orderID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req createRefundRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Reason == "" {
		writeError(w, http.StatusUnprocessableEntity, "reason required")
		return
	}

	refund := &order.Refund{OrderID: orderID, Reason: req.Reason}
	if err := h.orders.CreateRefund(r.Context(), userID, refund); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			writeError(w, http.StatusNotFound, "order not found")
			return
		}
		zctx.From(r.Context()).Error("create refund", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create refund")
		return
	}

	writeJSON(w, http.StatusCreated, refundResponse{
		ID:        refund.ID,
		Reason:    refund.Reason,
		Accepted:  refund.Accepted,
		CreatedAt: refund.CreatedAt.Format(createdAtLayout),
	})
}

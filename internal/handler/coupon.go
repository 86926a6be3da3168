package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lmarind/tienda-api/internal/domain/coupon"
)

type couponResponse struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Valid    bool   `json:"valid"`
	ValidTo  string `json:"valid_to"`
}

// GetCoupon handles GET /api/v1/coupons/{code}: coupon pre-validation for the
// cart, before checkout commits to the code. Attaching the coupon to an order
// is re-validated inside the checkout transaction regardless.
func (h *Handler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.FindByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		if errors.Is(err, coupon.ErrNotFound) {
			writeError(w, http.StatusNotFound, "coupon not found")
			return
		}
		zctx.From(r.Context()).Error("get coupon", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not get coupon")
		return
	}

	writeJSON(w, http.StatusOK, couponResponse{
		Code:     c.Code,
		Discount: c.Discount.String(),
		Valid:    c.IsValid(time.Now()),
		ValidTo:  c.ValidTo.Format(time.RFC3339),
	})
}

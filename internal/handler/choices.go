package handler

import (
	"net/http"

	"github.com/lmarind/tienda-api/internal/domain/order"
)

// Choices handles GET /api/v1/choices: the enumerated code tables clients
// need to render address and order forms. With no query parameters every
// table is returned; naming tables (?localities&payment_methods) narrows the
// response to just those.
func (h *Handler) Choices(w http.ResponseWriter, r *http.Request) {
	tables := map[string][]order.Choice{
		"localities":      order.Localities,
		"street_types":    order.StreetTypes,
		"order_statuses":  order.OrderStatuses,
		"payment_methods": order.PaymentMethods,
	}

	q := r.URL.Query()
	out := make(map[string][]order.Choice, len(tables))
	for name, choices := range tables {
		if _, ok := q[name]; ok || len(q) == 0 {
			out[name] = choices
		}
	}

	writeJSON(w, http.StatusOK, out)
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/lmarind/tienda-api/internal/domain/product"
)

// ListProducts handles GET /api/v1/products. Supports ?category=<slug>,
// boolean flags ?new=1&top=1&featured=1 and ?limit/?offset paging.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := product.ListFilter{
		CategorySlug: q.Get("category"),
		OnlyNew:      boolParam(q.Get("new")),
		OnlyTop:      boolParam(q.Get("top")),
		OnlyFeatured: boolParam(q.Get("featured")),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}

	products, err := h.products.List(r.Context(), filter)
	if err != nil {
		zctx.From(r.Context()).Error("list products", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list products")
		return
	}

	now := time.Now()
	out := make([]productResponse, len(products))
	for i := range products {
		out[i] = toProductResponse(&products[i], now)
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct handles GET /api/v1/products/{slug}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			writeError(w, http.StatusNotFound, "product not found")
			return
		}
		zctx.From(r.Context()).Error("get product", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not get product")
		return
	}

	writeJSON(w, http.StatusOK, toProductResponse(p, time.Now()))
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.ListCategories(r.Context())
	if err != nil {
		zctx.From(r.Context()).Error("list categories", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list categories")
		return
	}

	out := make([]categoryResponse, len(categories))
	for i, c := range categories {
		out[i] = categoryResponse{
			ID:       c.ID,
			Name:     c.Name,
			Slug:     c.Slug,
			ImageURL: c.ImageURL,
			ParentID: c.ParentID,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func boolParam(v string) bool {
	return v == "1" || v == "true"
}

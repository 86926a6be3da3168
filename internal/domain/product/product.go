package product

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// NotFoundError identifies the missing product when an order line references
// an unknown id.
type NotFoundError struct {
	ProductID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %d not found", e.ProductID)
}

// Product represents a catalog item available for purchase.
type Product struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	// Discount is a percentage in [0, 100]. It only takes effect while
	// DiscountEndsAt is set and in the future.
	Discount       int
	DiscountEndsAt *time.Time
	Stock          int
	IsNew          bool
	IsTop          bool
	IsFeatured     bool
	CategoryID     *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	CategorySlug string
	OnlyNew      bool
	OnlyTop      bool
	OnlyFeatured bool
	Limit        int
	Offset       int
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
}

// Category is a catalog grouping. Categories form a tree via ParentID;
// tree maintenance is handled elsewhere, this is the read model.
type Category struct {
	ID       int64
	Name     string
	Slug     string
	ImageURL string
	ParentID *int64
}

// CategoryRepository defines read operations for categories.
type CategoryRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
}

// Package coupon holds the coupon model. Coupons attach to orders at
// checkout; their discount does not change item or payment amounts.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrInvalid is returned when a coupon exists but is inactive or outside
	// its validity window.
	ErrInvalid = errors.New("invalid coupon")
)

// Coupon is a promotional code with a percentage discount and a validity
// window.
type Coupon struct {
	ID        int64
	Code      string
	Discount  decimal.Decimal
	ValidFrom time.Time
	ValidTo   time.Time
	Active    bool
}

// IsValid reports whether the coupon may be attached to an order at the given
// instant.
func (c *Coupon) IsValid(now time.Time) bool {
	return c.Active && !now.Before(c.ValidFrom) && !now.After(c.ValidTo)
}

// Repository provides coupon lookups.
type Repository interface {
	// FindByCode looks up a coupon by code, case-insensitively.
	// Returns ErrNotFound when no such coupon exists.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}

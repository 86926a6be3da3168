package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lmarind/tienda-api/internal/domain/coupon"
)

const getCouponByCodeSQL = `SELECT id, code, discount, valid_from, valid_to, active
	FROM coupons WHERE UPPER(code) = UPPER($1)`

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool DB
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool DB) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by its code, case-insensitively.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var (
		c        coupon.Coupon
		discount decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, getCouponByCodeSQL, code).Scan(
		&c.ID, &c.Code, &discount, &c.ValidFrom, &c.ValidTo, &c.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrapf(err, "finding coupon %q", code)
	}
	c.Discount = discount
	return &c, nil
}

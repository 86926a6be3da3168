package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lmarind/tienda-api/internal/domain/coupon"
	"github.com/lmarind/tienda-api/internal/domain/order"
	"github.com/lmarind/tienda-api/internal/domain/product"
)

const (
	findAddressSQL = `SELECT id, user_id, kind, first_name, last_name, email, phone,
		locality, street_type, street_value, number, complement
		FROM addresses
		WHERE user_id = $1 AND first_name = $2 AND last_name = $3 AND email = $4 AND phone = $5
		  AND locality = $6 AND street_type = $7 AND street_value = $8 AND number = $9 AND complement = $10
		LIMIT 1`

	insertAddressSQL = `INSERT INTO addresses (user_id, kind, first_name, last_name, email, phone,
		locality, street_type, street_value, number, complement)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	insertOrderSQL = `INSERT INTO orders (user_id, status, billing_address_id, shipping_address_id, notes, coupon_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	// FOR UPDATE serializes concurrent checkouts touching the same product:
	// the stock check and decrement below happen against a value no other
	// transaction can move until this one commits or rolls back.
	getProductForUpdateSQL = `SELECT id, name, slug, price, discount, discount_ends_at, stock
		FROM products WHERE id = $1 FOR UPDATE`

	updateProductStockSQL = `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	insertPaymentSQL = `INSERT INTO payments (order_id, amount, shipping_cost, payment_method, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	findCouponByCodeSQL = `SELECT id, code, discount, valid_from, valid_to, active
		FROM coupons WHERE UPPER(code) = UPPER($1)`
)

var _ order.Store = (*CheckoutStore)(nil)

// CheckoutStore implements order.Store: it opens one database transaction per
// checkout and hands the service a Tx bound to it.
type CheckoutStore struct {
	pool DB
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool DB) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// WithinCheckout runs fn inside a database transaction. A nil return commits;
// any error rolls back everything fn did, including address creation and
// stock decrements.
func (s *CheckoutStore) WithinCheckout(ctx context.Context, fn func(tx order.Tx) error) (err error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin checkout")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	err = fn(&checkoutTx{tx: tx})
	return err
}

var _ order.Tx = (*checkoutTx)(nil)

// checkoutTx implements order.Tx on a pgx transaction.
type checkoutTx struct {
	tx pgx.Tx
}

func (c *checkoutTx) FindAddress(ctx context.Context, userID int64, f order.AddressFields) (*order.Address, error) {
	var a order.Address
	err := c.tx.QueryRow(ctx, findAddressSQL,
		userID, f.FirstName, f.LastName, f.Email, f.Phone,
		f.Locality, f.StreetType, f.StreetValue, f.Number, f.Complement,
	).Scan(
		&a.ID, &a.UserID, &a.Kind, &a.FirstName, &a.LastName, &a.Email, &a.Phone,
		&a.Locality, &a.StreetType, &a.StreetValue, &a.Number, &a.Complement,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrAddressNotFound
		}
		return nil, errors.Wrap(err, "finding address")
	}
	return &a, nil
}

func (c *checkoutTx) CreateAddress(ctx context.Context, a *order.Address) error {
	err := c.tx.QueryRow(ctx, insertAddressSQL,
		a.UserID, a.Kind, a.FirstName, a.LastName, a.Email, a.Phone,
		a.Locality, a.StreetType, a.StreetValue, a.Number, a.Complement,
	).Scan(&a.ID)
	if err != nil {
		return errors.Wrap(err, "creating address")
	}
	return nil
}

func (c *checkoutTx) CreateOrder(ctx context.Context, o *order.Order) error {
	err := c.tx.QueryRow(ctx, insertOrderSQL,
		o.UserID, o.Status, o.BillingAddressID, o.ShippingAddressID, o.Notes, o.CouponID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "creating order")
	}
	return nil
}

func (c *checkoutTx) GetProductForUpdate(ctx context.Context, id int64) (*product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := c.tx.QueryRow(ctx, getProductForUpdateSQL, id).Scan(
		&p.ID, &p.Name, &p.Slug, &price, &p.Discount, &p.DiscountEndsAt, &p.Stock,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &product.NotFoundError{ProductID: id}
		}
		return nil, errors.Wrapf(err, "locking product %d", id)
	}
	p.Price = price
	return &p, nil
}

func (c *checkoutTx) SaveProductStock(ctx context.Context, p *product.Product) error {
	_, err := c.tx.Exec(ctx, updateProductStockSQL, p.ID, p.Stock)
	if err != nil {
		return errors.Wrapf(err, "updating stock for product %d", p.ID)
	}
	return nil
}

func (c *checkoutTx) AddItem(ctx context.Context, item *order.Item) error {
	err := c.tx.QueryRow(ctx, insertOrderItemSQL,
		item.OrderID, item.ProductID, item.Quantity, item.Price,
	).Scan(&item.ID)
	if err != nil {
		return errors.Wrap(err, "creating order item")
	}
	return nil
}

func (c *checkoutTx) CreatePayment(ctx context.Context, p *order.Payment) error {
	err := c.tx.QueryRow(ctx, insertPaymentSQL,
		p.OrderID, p.Amount, p.ShippingCost, p.Method, p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return errors.Wrap(err, "creating payment")
	}
	return nil
}

func (c *checkoutTx) FindCouponByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	var cp coupon.Coupon
	err := c.tx.QueryRow(ctx, findCouponByCodeSQL, code).Scan(
		&cp.ID, &cp.Code, &cp.Discount, &cp.ValidFrom, &cp.ValidTo, &cp.Active,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, errors.Wrapf(err, "finding coupon %q", code)
	}
	return &cp, nil
}

package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/lmarind/tienda-api/internal/domain/order"
)

const (
	getOrderSQL = `SELECT id, user_id, status, created_at, billing_address_id, shipping_address_id, notes, coupon_id
		FROM orders WHERE id = $1 AND user_id = $2`

	listOrdersByUserSQL = `SELECT id, user_id, status, created_at, billing_address_id, shipping_address_id, notes, coupon_id
		FROM orders WHERE user_id = $1 ORDER BY created_at DESC`

	listItemsSQL = `SELECT i.id, i.order_id, i.product_id, p.name, p.slug, i.quantity, i.price
		FROM order_items i JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1) ORDER BY i.id`

	listPaymentsSQL = `SELECT id, order_id, amount, shipping_cost, payment_method, status, created_at
		FROM payments WHERE order_id = ANY($1) ORDER BY id`

	listRefundsSQL = `SELECT id, order_id, reason, accepted, created_at
		FROM refunds WHERE order_id = ANY($1) ORDER BY id`

	getAddressesSQL = `SELECT id, user_id, kind, first_name, last_name, email, phone,
		locality, street_type, street_value, number, complement
		FROM addresses WHERE id = ANY($1)`

	insertRefundSQL = `INSERT INTO refunds (order_id, reason)
		SELECT o.id, $3 FROM orders o WHERE o.id = $1 AND o.user_id = $2
		RETURNING id, created_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Creation
// is handled by CheckoutStore; this covers reads and refunds.
type OrderRepository struct {
	pool DB
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool DB) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// GetByID loads one of the user's orders with items, payments, refunds and
// addresses attached. Returns order.ErrNotFound when the order does not exist
// or belongs to someone else.
func (r *OrderRepository) GetByID(ctx context.Context, userID, orderID int64) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, orderID, userID)
	if err != nil {
		return nil, errors.Wrapf(err, "getting order %d", orderID)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "getting order %d", orderID)
	}

	if err := r.populate(ctx, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByUser loads the user's orders, newest first, fully populated.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersByUserSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	if len(orders) == 0 {
		return orders, nil
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.populate(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateRefund attaches a refund request to one of the user's orders.
// Returns order.ErrNotFound when the order is not theirs.
func (r *OrderRepository) CreateRefund(ctx context.Context, userID int64, refund *order.Refund) error {
	err := r.pool.QueryRow(ctx, insertRefundSQL, refund.OrderID, userID, refund.Reason).
		Scan(&refund.ID, &refund.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return order.ErrNotFound
		}
		return errors.Wrapf(err, "creating refund for order %d", refund.OrderID)
	}
	return nil
}

// populate batch-loads items, payments, refunds and addresses for the given
// orders with one query per child table.
func (r *OrderRepository) populate(ctx context.Context, orders []*order.Order) error {
	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	addressIDs := make([]int64, 0, len(orders)*2)
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
		if o.BillingAddressID != nil {
			addressIDs = append(addressIDs, *o.BillingAddressID)
		}
		if o.ShippingAddressID != nil {
			addressIDs = append(addressIDs, *o.ShippingAddressID)
		}
	}

	rows, err := r.pool.Query(ctx, listItemsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "listing order items")
	}
	items, err := pgx.CollectRows(rows, scanItem)
	if err != nil {
		return errors.Wrap(err, "listing order items")
	}
	for _, item := range items {
		o := byID[item.OrderID]
		o.Items = append(o.Items, item)
	}

	rows, err = r.pool.Query(ctx, listPaymentsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	payments, err := pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return errors.Wrap(err, "listing payments")
	}
	for _, p := range payments {
		o := byID[p.OrderID]
		o.Payments = append(o.Payments, p)
	}

	rows, err = r.pool.Query(ctx, listRefundsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "listing refunds")
	}
	refunds, err := pgx.CollectRows(rows, scanRefund)
	if err != nil {
		return errors.Wrap(err, "listing refunds")
	}
	for _, rf := range refunds {
		o := byID[rf.OrderID]
		o.Refunds = append(o.Refunds, rf)
	}

	if len(addressIDs) == 0 {
		return nil
	}
	rows, err = r.pool.Query(ctx, getAddressesSQL, addressIDs)
	if err != nil {
		return errors.Wrap(err, "listing addresses")
	}
	addresses, err := pgx.CollectRows(rows, scanAddress)
	if err != nil {
		return errors.Wrap(err, "listing addresses")
	}
	addrByID := make(map[int64]*order.Address, len(addresses))
	for i := range addresses {
		addrByID[addresses[i].ID] = &addresses[i]
	}
	for _, o := range orders {
		if o.BillingAddressID != nil {
			o.BillingAddress = addrByID[*o.BillingAddressID]
		}
		if o.ShippingAddressID != nil {
			o.ShippingAddress = addrByID[*o.ShippingAddressID]
		}
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.CreatedAt,
		&o.BillingAddressID, &o.ShippingAddressID, &o.Notes, &o.CouponID,
	)
	return o, err
}

func scanItem(row pgx.CollectableRow) (order.Item, error) {
	var (
		item  order.Item
		price decimal.Decimal
	)
	err := row.Scan(
		&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.ProductSlug,
		&item.Quantity, &price,
	)
	item.Price = price
	return item, err
}

func scanPayment(row pgx.CollectableRow) (order.Payment, error) {
	var (
		p                order.Payment
		amount, shipping decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.OrderID, &amount, &shipping, &p.Method, &p.Status, &p.CreatedAt)
	p.Amount = amount
	p.ShippingCost = shipping
	return p, err
}

func scanRefund(row pgx.CollectableRow) (order.Refund, error) {
	var rf order.Refund
	err := row.Scan(&rf.ID, &rf.OrderID, &rf.Reason, &rf.Accepted, &rf.CreatedAt)
	return rf, err
}

func scanAddress(row pgx.CollectableRow) (order.Address, error) {
	var a order.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.Kind, &a.FirstName, &a.LastName, &a.Email, &a.Phone,
		&a.Locality, &a.StreetType, &a.StreetValue, &a.Number, &a.Complement,
	)
	return a, err
}

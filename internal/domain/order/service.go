package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/lmarind/tienda-api/internal/domain/coupon"
	"github.com/lmarind/tienda-api/internal/domain/product"
)

// Sentinel errors for checkout validation.
var (
	ErrEmptyLines      = errors.New("products required")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrAddressNotFound = errors.New("address not found")
)

// Line is one requested (product, quantity) pair. Duplicate product ids are
// allowed and are not merged: each line becomes its own order item with its
// own lock acquisition and stock decrement.
type Line struct {
	ProductID int64
	Quantity  int
}

// CheckoutRequest is the full input to order creation.
type CheckoutRequest struct {
	UserID     int64
	Address    AddressFields
	Lines      []Line
	Method     PaymentMethod
	Notes      string
	CouponCode string
}

// Tx is the set of persistence operations available inside one checkout
// transaction. Every call shares the same underlying database transaction;
// nothing becomes visible to other transactions before the surrounding
// WithinCheckout returns nil.
type Tx interface {
	// FindAddress returns the user's address matching every field exactly,
	// or ErrAddressNotFound.
	FindAddress(ctx context.Context, userID int64, fields AddressFields) (*Address, error)
	// CreateAddress persists a new address and fills in its ID.
	CreateAddress(ctx context.Context, addr *Address) error
	// CreateOrder persists the order header and fills in ID and CreatedAt.
	CreateOrder(ctx context.Context, o *Order) error
	// GetProductForUpdate loads a product under an exclusive row lock held
	// until the transaction ends. Returns *product.NotFoundError for unknown
	// ids.
	GetProductForUpdate(ctx context.Context, id int64) (*product.Product, error)
	// SaveProductStock persists the product's current stock value.
	SaveProductStock(ctx context.Context, p *product.Product) error
	// AddItem persists one order line and fills in its ID.
	AddItem(ctx context.Context, item *Item) error
	// CreatePayment persists the payment record and fills in ID and CreatedAt.
	CreatePayment(ctx context.Context, payment *Payment) error
	// FindCouponByCode looks up a coupon; coupon.ErrNotFound when absent.
	FindCouponByCode(ctx context.Context, code string) (*coupon.Coupon, error)
}

// Store provides the checkout transaction boundary. The callback either
// completes fully (commit) or has no visible effect (rollback).
type Store interface {
	WithinCheckout(ctx context.Context, fn func(tx Tx) error) error
}

// Service is the checkout orchestrator: it turns a cart request into
// persisted Order, OrderItem and Payment rows inside one transaction.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a checkout Service backed by the given Store.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Checkout executes the order-creation workflow as a single all-or-nothing
// unit:
//
//  1. Resolve the address by value (reuse an existing row when every field
//     matches, create otherwise); the same address serves billing and
//     shipping.
//  2. Create the order with status Pending.
//  3. Per line, in input order: lock the product row, decrement stock,
//     snapshot the current display price into an order item.
//  4. Create the payment with amount = subtotal + shipping surcharge.
//
// Validation failures surface as typed errors (*product.NotFoundError,
// *product.InsufficientStockError, coupon.ErrInvalid); any of them aborts the
// whole transaction, leaving no partial stock decrements or rows behind.
func (s *Service) Checkout(ctx context.Context, req CheckoutRequest) (*Order, error) {
	if len(req.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, errors.Wrapf(ErrInvalidQuantity, "product %d", line.ProductID)
		}
	}
	if _, ok := paymentMethodWire[req.Method]; !ok {
		return nil, errors.Wrapf(ErrUnknownPaymentMethod, "%q", string(req.Method))
	}

	now := s.now()

	var created *Order
	err := s.store.WithinCheckout(ctx, func(tx Tx) error {
		addr, err := s.resolveAddress(ctx, tx, req.UserID, req.Address)
		if err != nil {
			return errors.Wrap(err, "resolve address")
		}

		var couponID *int64
		if req.CouponCode != "" {
			c, err := tx.FindCouponByCode(ctx, req.CouponCode)
			if err != nil {
				if errors.Is(err, coupon.ErrNotFound) {
					return coupon.ErrInvalid
				}
				return errors.Wrap(err, "find coupon")
			}
			if !c.IsValid(now) {
				return coupon.ErrInvalid
			}
			couponID = &c.ID
		}

		o := &Order{
			UserID:            req.UserID,
			Status:            StatusPending,
			BillingAddressID:  &addr.ID,
			ShippingAddressID: &addr.ID,
			Notes:             req.Notes,
			CouponID:          couponID,
			BillingAddress:    addr,
			ShippingAddress:   addr,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		subtotal := decimal.Zero
		for _, line := range req.Lines {
			p, err := tx.GetProductForUpdate(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if err := p.DecrementStock(line.Quantity); err != nil {
				return err
			}
			if err := tx.SaveProductStock(ctx, p); err != nil {
				return errors.Wrapf(err, "save stock for product %d", p.ID)
			}

			// Price is re-evaluated here, at order time: the discount window
			// is time-dependent.
			display, _ := p.DisplayPrice(now)
			item := &Item{
				OrderID:     o.ID,
				ProductID:   p.ID,
				ProductName: p.Name,
				ProductSlug: p.Slug,
				Quantity:    line.Quantity,
				Price:       display,
			}
			if err := tx.AddItem(ctx, item); err != nil {
				return errors.Wrapf(err, "add item for product %d", p.ID)
			}
			o.Items = append(o.Items, *item)
			subtotal = subtotal.Add(item.Subtotal())
		}

		// Shipping is computed up front and folded into the stored amount:
		// Payment.Amount is the post-shipping total, not the item subtotal.
		shipping := ShippingCost(subtotal, req.Method)
		payment := &Payment{
			OrderID:      o.ID,
			Amount:       subtotal.Add(shipping),
			ShippingCost: shipping,
			Method:       req.Method,
			Status:       PaymentPending,
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return errors.Wrap(err, "create payment")
		}
		o.Payments = append(o.Payments, *payment)

		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// resolveAddress implements get-or-create by value: an existing address with
// every field equal is reused, otherwise a new row is created. Lookups are not
// lock-protected; a concurrent race can at worst create a duplicate row.
func (s *Service) resolveAddress(ctx context.Context, tx Tx, userID int64, fields AddressFields) (*Address, error) {
	addr, err := tx.FindAddress(ctx, userID, fields)
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, ErrAddressNotFound) {
		return nil, err
	}

	addr = &Address{
		UserID:        userID,
		Kind:          AddressShipping,
		AddressFields: fields,
	}
	if err := tx.CreateAddress(ctx, addr); err != nil {
		return nil, err
	}
	return addr, nil
}

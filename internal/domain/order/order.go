package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Status is the order lifecycle state, stored as a single-letter code.
type Status string

const (
	StatusPending   Status = "P"
	StatusAccepted  Status = "A"
	StatusRejected  Status = "R"
	StatusDelivered Status = "D"
)

var statusNames = map[Status]string{
	StatusPending:   "Pending",
	StatusAccepted:  "Accepted",
	StatusRejected:  "Rejected",
	StatusDelivered: "Delivered",
}

// Display returns the human-readable status name.
func (s Status) Display() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return string(s)
}

// PaymentMethod is the payment channel chosen at checkout, stored as a short
// code.
type PaymentMethod string

const (
	// PaymentCashOnDelivery is paid in cash when the order arrives.
	PaymentCashOnDelivery PaymentMethod = "CE"
	// PaymentInStore is paid at pickup; it never incurs shipping.
	PaymentInStore PaymentMethod = "PT"
	// PaymentPSE is the Colombian bank-transfer rail.
	PaymentPSE PaymentMethod = "PSE"
)

// ErrUnknownPaymentMethod is returned for wire values outside the enumerated set.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

var paymentMethodWire = map[PaymentMethod]string{
	PaymentCashOnDelivery: "cash-on-delivery",
	PaymentInStore:        "in-store",
	PaymentPSE:            "PSE",
}

var paymentMethodNames = map[PaymentMethod]string{
	PaymentCashOnDelivery: "Pago contra entrega",
	PaymentInStore:        "Pago en tienda",
	PaymentPSE:            "PSE",
}

// ParsePaymentMethod maps a wire value ("cash-on-delivery", "in-store",
// "PSE") to its stored code.
func ParsePaymentMethod(wire string) (PaymentMethod, error) {
	for m, w := range paymentMethodWire {
		if w == wire {
			return m, nil
		}
	}
	return "", errors.Wrapf(ErrUnknownPaymentMethod, "%q", wire)
}

// Wire returns the value used in API payloads.
func (m PaymentMethod) Wire() string {
	if w, ok := paymentMethodWire[m]; ok {
		return w
	}
	return string(m)
}

// Display returns the human-readable method name.
func (m PaymentMethod) Display() string {
	if name, ok := paymentMethodNames[m]; ok {
		return name
	}
	return string(m)
}

// PaymentStatus is the payment lifecycle state.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "P"
	PaymentCompleted PaymentStatus = "C"
	PaymentFailed    PaymentStatus = "F"
)

// Order is a customer purchase. Items, Payments and Refunds are owned by the
// order (cascade on delete); address references are weak: the order survives
// address deletion with the field nulled.
type Order struct {
	ID                int64
	UserID            int64
	Status            Status
	CreatedAt         time.Time
	BillingAddressID  *int64
	ShippingAddressID *int64
	Notes             string
	CouponID          *int64

	Items    []Item
	Payments []Payment
	Refunds  []Refund

	// Populated on reads when the referenced address still exists.
	BillingAddress  *Address
	ShippingAddress *Address
}

// ItemsCount is the total unit count across all lines.
func (o *Order) ItemsCount() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// Item is one order line. Price is the unit price snapshotted at checkout;
// later catalog price changes must not affect it.
type Item struct {
	ID          int64
	OrderID     int64
	ProductID   int64
	ProductName string
	ProductSlug string
	Quantity    int
	Price       decimal.Decimal
}

// Subtotal is quantity times the snapshotted unit price.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Payment records what the buyer owes for an order. Amount is the
// post-shipping total: the item subtotal plus ShippingCost. The pure item
// subtotal is never persisted on its own; callers reconstruct it as
// Amount - ShippingCost.
type Payment struct {
	ID           int64
	OrderID      int64
	Amount       decimal.Decimal
	ShippingCost decimal.Decimal
	Method       PaymentMethod
	Status       PaymentStatus
	CreatedAt    time.Time
}

// Refund is a buyer-initiated refund request. Accepted defaults to false and
// is flipped by back-office review, outside this service.
type Refund struct {
	ID        int64
	OrderID   int64
	Reason    string
	Accepted  bool
	CreatedAt time.Time
}

// ErrNotFound is returned when a requested order does not exist or belongs to
// another user.
var ErrNotFound = errors.New("order not found")

// Repository defines read and refund operations on persisted orders. Order
// creation goes through the checkout Store instead, since it spans several
// tables under one transaction.
type Repository interface {
	// GetByID loads an order with its items, payments, refunds and addresses.
	// Returns ErrNotFound when no order with this id belongs to userID.
	GetByID(ctx context.Context, userID, orderID int64) (*Order, error)
	// ListByUser loads the user's orders, newest first, fully populated.
	ListByUser(ctx context.Context, userID int64) ([]Order, error)
	// CreateRefund attaches a refund request to one of the user's orders.
	CreateRefund(ctx context.Context, userID int64, refund *Refund) error
}

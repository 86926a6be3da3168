package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lmarind/tienda-api/internal/domain/coupon"
	"github.com/lmarind/tienda-api/internal/domain/product"
)

// --- Mock store ---

// mockTx implements Tx against in-memory state, journaling created rows so
// tests can assert on what a commit would have persisted.
type mockTx struct {
	products  map[int64]*product.Product
	addresses []*Address
	coupons   map[string]*coupon.Coupon

	createPaymentErr error

	nextID    int64
	orders    []*Order
	items     []*Item
	payments  []*Payment
	lockOrder []int64
}

func (m *mockTx) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *mockTx) FindAddress(_ context.Context, userID int64, fields AddressFields) (*Address, error) {
	for _, a := range m.addresses {
		if a.UserID == userID && a.AddressFields == fields {
			return a, nil
		}
	}
	return nil, ErrAddressNotFound
}

func (m *mockTx) CreateAddress(_ context.Context, addr *Address) error {
	addr.ID = m.id()
	m.addresses = append(m.addresses, addr)
	return nil
}

func (m *mockTx) CreateOrder(_ context.Context, o *Order) error {
	o.ID = m.id()
	o.CreatedAt = time.Now()
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockTx) GetProductForUpdate(_ context.Context, id int64) (*product.Product, error) {
	m.lockOrder = append(m.lockOrder, id)
	p, ok := m.products[id]
	if !ok {
		return nil, &product.NotFoundError{ProductID: id}
	}
	return p, nil
}

func (m *mockTx) SaveProductStock(_ context.Context, _ *product.Product) error { return nil }

func (m *mockTx) AddItem(_ context.Context, item *Item) error {
	item.ID = m.id()
	m.items = append(m.items, item)
	return nil
}

func (m *mockTx) CreatePayment(_ context.Context, p *Payment) error {
	if m.createPaymentErr != nil {
		return m.createPaymentErr
	}
	p.ID = m.id()
	p.CreatedAt = time.Now()
	m.payments = append(m.payments, p)
	return nil
}

func (m *mockTx) FindCouponByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	if c, ok := m.coupons[code]; ok {
		return c, nil
	}
	return nil, coupon.ErrNotFound
}

// mockStore snapshots product stock before the callback and restores it when
// the callback fails, mimicking transaction rollback.
type mockStore struct {
	tx        *mockTx
	commits   int
	rollbacks int
}

func (s *mockStore) WithinCheckout(ctx context.Context, fn func(tx Tx) error) error {
	stocks := make(map[int64]int, len(s.tx.products))
	for id, p := range s.tx.products {
		stocks[id] = p.Stock
	}
	addrCount := len(s.tx.addresses)

	if err := fn(s.tx); err != nil {
		for id, stock := range stocks {
			s.tx.products[id].Stock = stock
		}
		s.tx.addresses = s.tx.addresses[:addrCount]
		s.tx.orders = nil
		s.tx.items = nil
		s.tx.payments = nil
		s.rollbacks++
		return err
	}
	s.commits++
	return nil
}

// --- Helpers ---

func fixedNow() time.Time {
	return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
}

func newTestService(products ...*product.Product) (*Service, *mockStore) {
	byID := make(map[int64]*product.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	store := &mockStore{tx: &mockTx{
		products: byID,
		coupons:  map[string]*coupon.Coupon{},
	}}
	svc := NewService(store)
	svc.now = fixedNow
	return svc, store
}

func testAddress() AddressFields {
	return AddressFields{
		FirstName:   "Test",
		LastName:    "User",
		Email:       "test@example.com",
		Phone:       "1234567890",
		Locality:    "CHA",
		StreetType:  "CL",
		StreetValue: "79a",
		Number:      "123",
		Complement:  "Apt 401",
	}
}

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// --- Tests ---

func TestCheckout_EmptyLines(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID: 1, Address: testAddress(), Method: PaymentCashOnDelivery,
	})
	require.ErrorIs(t, err, ErrEmptyLines)
}

func TestCheckout_InvalidQuantity(t *testing.T) {
	svc, _ := newTestService(&product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10})

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 0}},
		Method:  PaymentCashOnDelivery,
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestCheckout_UnknownPaymentMethod(t *testing.T) {
	svc, _ := newTestService(&product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10})

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 1}},
		Method:  PaymentMethod("bitcoin"),
	})
	require.ErrorIs(t, err, ErrUnknownPaymentMethod)
}

func TestCheckout_EndToEnd(t *testing.T) {
	// Price 100.00, stock 10, qty 2, cash on delivery.
	p := &product.Product{ID: 1, Name: "Test Product", Price: price("100.00"), Stock: 10}
	svc, store := newTestService(p)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 2}},
		Method:  PaymentCashOnDelivery,
		Notes:   "Test order",
	})
	require.NoError(t, err)

	assert.Equal(t, 8, p.Stock)
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "Test order", o.Notes)

	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, price("100.00").Equal(o.Items[0].Price))
	assert.True(t, price("200.00").Equal(o.Items[0].Subtotal()))

	// 200 is under the free-shipping threshold: amount = 200 + 7000.
	require.Len(t, o.Payments, 1)
	pay := o.Payments[0]
	assert.True(t, price("7200.00").Equal(pay.Amount), "amount = %s", pay.Amount)
	assert.True(t, price("7000").Equal(pay.ShippingCost))
	assert.Equal(t, PaymentCashOnDelivery, pay.Method)
	assert.Equal(t, PaymentPending, pay.Status)

	assert.Equal(t, 1, store.commits)
	assert.Equal(t, 0, store.rollbacks)
}

func TestCheckout_SnapshotsDiscountedPrice(t *testing.T) {
	ends := fixedNow().Add(time.Hour)
	p := &product.Product{
		ID: 1, Name: "Promo", Price: price("10000"),
		Discount: 10, DiscountEndsAt: &ends, Stock: 5,
	}
	svc, _ := newTestService(p)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 1}},
		Method:  PaymentInStore,
	})
	require.NoError(t, err)

	// The discounted display price is the snapshot, not the list price.
	assert.True(t, price("9000").Equal(o.Items[0].Price), "price = %s", o.Items[0].Price)
}

func TestCheckout_ExpiredDiscountUsesListPrice(t *testing.T) {
	ends := fixedNow().Add(-time.Hour)
	p := &product.Product{
		ID: 1, Name: "Promo", Price: price("10000"),
		Discount: 10, DiscountEndsAt: &ends, Stock: 5,
	}
	svc, _ := newTestService(p)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 1}},
		Method:  PaymentInStore,
	})
	require.NoError(t, err)
	assert.True(t, price("10000").Equal(o.Items[0].Price))
}

func TestCheckout_ProductNotFound(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	svc, store := newTestService(p)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 1}, {ProductID: 99, Quantity: 1}},
		Method:  PaymentCashOnDelivery,
	})

	var nfErr *product.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, int64(99), nfErr.ProductID)

	// The whole transaction rolled back, including line 1's decrement.
	assert.Equal(t, 10, p.Stock)
	assert.Empty(t, store.tx.orders)
	assert.Equal(t, 1, store.rollbacks)
}

func TestCheckout_InsufficientStockAbortsAll(t *testing.T) {
	p1 := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	p2 := &product.Product{ID: 2, Name: "Gadget", Price: price("200"), Stock: 1}
	svc, store := newTestService(p1, p2)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 3}, {ProductID: 2, Quantity: 5}},
		Method:  PaymentCashOnDelivery,
	})

	var stockErr *product.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, int64(2), stockErr.ProductID)
	assert.Equal(t, "Gadget", stockErr.Name)

	// No partial decrement survives: both stocks are back to their originals.
	assert.Equal(t, 10, p1.Stock)
	assert.Equal(t, 1, p2.Stock)
	assert.Empty(t, store.tx.orders)
	assert.Empty(t, store.tx.items)
	assert.Empty(t, store.tx.payments)
}

func TestCheckout_DuplicateLinesNotMerged(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("1000"), Stock: 10}
	svc, store := newTestService(p)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 2}, {ProductID: 1, Quantity: 3}},
		Method:  PaymentInStore,
	})
	require.NoError(t, err)

	// Two independent items, two lock acquisitions, combined decrement.
	require.Len(t, o.Items, 2)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.Equal(t, 3, o.Items[1].Quantity)
	assert.Equal(t, []int64{1, 1}, store.tx.lockOrder)
	assert.Equal(t, 5, p.Stock)
}

func TestCheckout_ShippingRule(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		qty      int
		method   PaymentMethod
		amount   string
		shipping string
	}{
		{"above threshold ships free", "60000", 1, PaymentCashOnDelivery, "60000", "0"},
		{"below threshold pays fee", "20000", 1, PaymentCashOnDelivery, "27000", "7000"},
		{"in-store always free", "20000", 1, PaymentInStore, "20000", "0"},
		{"threshold is strict", "50000", 1, PaymentPSE, "57000", "7000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &product.Product{ID: 1, Name: "Widget", Price: price(tt.price), Stock: 100}
			svc, _ := newTestService(p)

			o, err := svc.Checkout(context.Background(), CheckoutRequest{
				UserID:  1,
				Address: testAddress(),
				Lines:   []Line{{ProductID: 1, Quantity: tt.qty}},
				Method:  tt.method,
			})
			require.NoError(t, err)
			pay := o.Payments[0]
			assert.True(t, price(tt.amount).Equal(pay.Amount), "amount = %s", pay.Amount)
			assert.True(t, price(tt.shipping).Equal(pay.ShippingCost), "shipping = %s", pay.ShippingCost)
		})
	}
}

func TestCheckout_ReusesMatchingAddress(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	svc, store := newTestService(p)

	existing := &Address{ID: 77, UserID: 1, Kind: AddressShipping, AddressFields: testAddress()}
	store.tx.addresses = append(store.tx.addresses, existing)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 1}},
		Method:  PaymentInStore,
	})
	require.NoError(t, err)

	require.NotNil(t, o.BillingAddressID)
	assert.Equal(t, int64(77), *o.BillingAddressID)
	assert.Equal(t, o.BillingAddressID, o.ShippingAddressID)
	assert.Len(t, store.tx.addresses, 1)
}

func TestCheckout_DifferingFieldCreatesAddress(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	svc, store := newTestService(p)

	existing := &Address{ID: 77, UserID: 1, Kind: AddressShipping, AddressFields: testAddress()}
	store.tx.addresses = append(store.tx.addresses, existing)

	fields := testAddress()
	fields.Complement = "Apt 402"

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: fields,
		Lines:   []Line{{ProductID: 1, Quantity: 1}},
		Method:  PaymentInStore,
	})
	require.NoError(t, err)

	require.NotNil(t, o.ShippingAddressID)
	assert.NotEqual(t, int64(77), *o.ShippingAddressID)
	assert.Len(t, store.tx.addresses, 2)
}

func TestCheckout_AddressOwnershipIsPerUser(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	svc, store := newTestService(p)

	// Same fields, different owner: must not be reused.
	other := &Address{ID: 77, UserID: 2, Kind: AddressShipping, AddressFields: testAddress()}
	store.tx.addresses = append(store.tx.addresses, other)

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 1}},
		Method:  PaymentInStore,
	})
	require.NoError(t, err)
	assert.NotEqual(t, int64(77), *o.ShippingAddressID)
}

func TestCheckout_InvalidCoupon(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	svc, store := newTestService(p)

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:     1,
		Address:    testAddress(),
		Lines:      []Line{{ProductID: 1, Quantity: 1}},
		Method:     PaymentInStore,
		CouponCode: "BOGUS",
	})
	require.ErrorIs(t, err, coupon.ErrInvalid)
	assert.Empty(t, store.tx.orders)
}

func TestCheckout_ExpiredCoupon(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	svc, store := newTestService(p)
	store.tx.coupons["OLD10"] = &coupon.Coupon{
		ID: 5, Code: "OLD10", Active: true,
		ValidFrom: fixedNow().Add(-48 * time.Hour),
		ValidTo:   fixedNow().Add(-24 * time.Hour),
	}

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:     1,
		Address:    testAddress(),
		Lines:      []Line{{ProductID: 1, Quantity: 1}},
		Method:     PaymentInStore,
		CouponCode: "OLD10",
	})
	require.ErrorIs(t, err, coupon.ErrInvalid)
}

func TestCheckout_ValidCouponAttachedNotApplied(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("10000"), Stock: 10}
	svc, store := newTestService(p)
	store.tx.coupons["PROMO20"] = &coupon.Coupon{
		ID: 5, Code: "PROMO20", Active: true,
		Discount:  price("20"),
		ValidFrom: fixedNow().Add(-time.Hour),
		ValidTo:   fixedNow().Add(time.Hour),
	}

	o, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:     1,
		Address:    testAddress(),
		Lines:      []Line{{ProductID: 1, Quantity: 1}},
		Method:     PaymentInStore,
		CouponCode: "PROMO20",
	})
	require.NoError(t, err)

	require.NotNil(t, o.CouponID)
	assert.Equal(t, int64(5), *o.CouponID)
	// Coupon discounts are not applied to pricing: amount is the plain subtotal.
	assert.True(t, price("10000").Equal(o.Payments[0].Amount))
}

func TestCheckout_PaymentCreateFailureRollsBack(t *testing.T) {
	p := &product.Product{ID: 1, Name: "Widget", Price: price("100"), Stock: 10}
	svc, store := newTestService(p)
	store.tx.createPaymentErr = errors.New("db write failed")

	_, err := svc.Checkout(context.Background(), CheckoutRequest{
		UserID:  1,
		Address: testAddress(),
		Lines:   []Line{{ProductID: 1, Quantity: 2}},
		Method:  PaymentCashOnDelivery,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create payment")
	assert.Equal(t, 10, p.Stock)
	assert.Empty(t, store.tx.payments)
}

func TestShippingCost(t *testing.T) {
	assert.True(t, decimal.Zero.Equal(ShippingCost(price("60000"), PaymentCashOnDelivery)))
	assert.True(t, ShippingFee.Equal(ShippingCost(price("20000"), PaymentCashOnDelivery)))
	assert.True(t, decimal.Zero.Equal(ShippingCost(price("20000"), PaymentInStore)))
	// Exactly at the threshold still pays: the exemption is strictly greater.
	assert.True(t, ShippingFee.Equal(ShippingCost(price("50000"), PaymentPSE)))
}

func TestItemsCount(t *testing.T) {
	o := Order{Items: []Item{{Quantity: 2}, {Quantity: 3}}}
	assert.Equal(t, 5, o.ItemsCount())
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("cash-on-delivery")
	require.NoError(t, err)
	assert.Equal(t, PaymentCashOnDelivery, m)

	m, err = ParsePaymentMethod("in-store")
	require.NoError(t, err)
	assert.Equal(t, PaymentInStore, m)

	m, err = ParsePaymentMethod("PSE")
	require.NoError(t, err)
	assert.Equal(t, PaymentPSE, m)

	_, err = ParsePaymentMethod("wire")
	require.ErrorIs(t, err, ErrUnknownPaymentMethod)
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kishankumar2607/TechNova/internal/models"
)

func billingForm() models.BillingForm {
	return models.BillingForm{
		FullName:      "Jordan Smith",
		StreetAddress: "1 King St W",
		City:          "Toronto",
		Province:      "Ontario",
		PostalCode:    "M5H 1A1",
		PhoneNumber:   "416-555-0100",
		EmailAddress:  "jordan@example.com",
	}
}

type orderFixture struct {
	products *fakeProductStore
	orders   *fakeOrderStore
	sessions *fakeSessionStore
	events   *fakePublisher
	cart     *CartService
	svc      *OrderService
}

func newOrderFixture() *orderFixture {
	products := testProducts()
	orders := newFakeOrderStore()
	sessions := newFakeSessionStore()
	events := &fakePublisher{}
	return &orderFixture{
		products: products,
		orders:   orders,
		sessions: sessions,
		events:   events,
		cart:     NewCartService(products, sessions),
		svc:      NewOrderService(products, orders, sessions, events),
	}
}

func TestPlaceOrderFromCart(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 1, 1) // 999.99
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, "s1", 2, 2) // 150 * 2
	require.NoError(t, err)

	orderID, err := f.svc.PlaceOrderFromCart(ctx, "s1", 42, models.PaymentCashOnDeliver, billingForm())
	require.NoError(t, err)
	require.NotZero(t, orderID)

	order, err := f.orders.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	require.NotNil(t, order)
	assert.Equal(t, int64(42), order.CustomerID)
	assert.Equal(t, models.PaymentCashOnDeliver, order.PaymentID)
	// subtotal 1299.99, shipping 0 (> 500), tax 169.00, total 1468.99
	assert.True(t, order.TotalAmount.Equal(dec("1468.99")), "total %s", order.TotalAmount)

	items, err := f.orders.GetOrderItemsByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, items[0].UnitPrice.Equal(dec("999.99")))
	assert.True(t, items[1].UnitPrice.Equal(dec("150")))

	cart, err := f.cart.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart, "cart clears after a cart checkout")

	require.Len(t, f.events.events, 1)
	assert.Equal(t, orderID, f.events.events[0].OrderID)
	assert.Len(t, f.events.events[0].Items, 2)
}

func TestPlaceOrderFromCartUsesProvincialTaxRate(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 2, 2) // subtotal 300
	require.NoError(t, err)

	form := billingForm()
	form.Province = "Quebec"

	orderID, err := f.svc.PlaceOrderFromCart(ctx, "s1", 42, models.PaymentBank, form)
	require.NoError(t, err)

	order, err := f.orders.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	// 300 + round(300*0.14975)=44.93 + 30 shipping
	assert.True(t, order.TotalAmount.Equal(dec("374.93")), "total %s", order.TotalAmount)
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.PlaceOrderFromCart(context.Background(), "s1", 42, models.PaymentBank, billingForm())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestPlaceOrderRequiresIdentity(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.PlaceOrderFromCart(context.Background(), "s1", 0, models.PaymentBank, billingForm())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestPlaceOrderInvalidForm(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 1, 1)
	require.NoError(t, err)

	form := billingForm()
	form.FullName = ""
	form.EmailAddress = "not-an-email"

	_, err = f.svc.PlaceOrderFromCart(ctx, "s1", 42, models.PaymentBank, form)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "full_name")
	assert.Contains(t, vErr.Fields, "email_address")

	assert.Empty(t, f.orders.orders, "nothing persists on a validation failure")
}

func TestPlaceOrderInvalidPaymentID(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 1, 1)
	require.NoError(t, err)

	_, err = f.svc.PlaceOrderFromCart(ctx, "s1", 42, 7, billingForm())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "payment_id")
}

func TestPlaceOrderDeletedProductFailsWholeOrder(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 1, 1)
	require.NoError(t, err)
	_, err = f.cart.Add(ctx, "s1", 2, 1)
	require.NoError(t, err)

	delete(f.products.products, 2)

	_, err = f.svc.PlaceOrderFromCart(ctx, "s1", 42, models.PaymentBank, billingForm())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.orders.orders)

	cart, err := f.cart.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, cart, 2, "cart is untouched when checkout fails")
}

func TestPlaceOrderNoPartialStateOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 1, 1)
	require.NoError(t, err)

	f.orders.failCreate = true

	_, err = f.svc.PlaceOrderFromCart(ctx, "s1", 42, models.PaymentBank, billingForm())
	require.Error(t, err)

	assert.Empty(t, f.orders.orders, "no order header without its items")
	assert.Empty(t, f.orders.items)
	assert.Empty(t, f.events.events, "no event for a failed order")

	cart, err := f.cart.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, cart, 1, "cart survives a failed checkout")
}

func TestPlaceOrderSerializedPerSession(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 1, 1)
	require.NoError(t, err)

	// a concurrent request already holds the session's checkout lock
	locked, err := f.sessions.AcquireLock(ctx, "checkout:s1", 0)
	require.NoError(t, err)
	require.True(t, locked)

	_, err = f.svc.PlaceOrderFromCart(ctx, "s1", 42, models.PaymentBank, billingForm())
	assert.ErrorIs(t, err, ErrCheckoutInProgress)
}

func TestPlaceOrderFromSingleItem(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	// an unrelated cart that must not be touched
	_, err := f.cart.Add(ctx, "s1", 1, 1)
	require.NoError(t, err)

	orderID, err := f.svc.PlaceOrderFromSingleItem(ctx, 42, 2, 15, models.PaymentBank, billingForm())
	require.NoError(t, err)

	order, err := f.orders.GetOrderByID(ctx, orderID)
	require.NoError(t, err)
	// qty clamps to 10: subtotal 1500, free shipping, tax 195
	assert.True(t, order.TotalAmount.Equal(dec("1695")), "total %s", order.TotalAmount)

	items, err := f.orders.GetOrderItemsByOrderID(ctx, orderID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 10, items[0].Quantity)
	assert.True(t, items[0].UnitPrice.Equal(dec("150")))

	cart, err := f.cart.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, cart, 1, "buy-now does not touch the cart")
}

func TestPlaceOrderFromSingleItemUnknownProduct(t *testing.T) {
	f := newOrderFixture()

	_, err := f.svc.PlaceOrderFromSingleItem(context.Background(), 42, 999, 1, models.PaymentBank, billingForm())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetOrderOwnership(t *testing.T) {
	ctx := context.Background()
	f := newOrderFixture()

	_, err := f.cart.Add(ctx, "s1", 1, 1)
	require.NoError(t, err)
	orderID, err := f.svc.PlaceOrderFromCart(ctx, "s1", 42, models.PaymentBank, billingForm())
	require.NoError(t, err)

	_, items, err := f.svc.GetOrder(ctx, orderID, 42, false)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	_, _, err = f.svc.GetOrder(ctx, orderID, 7, false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = f.svc.GetOrder(ctx, orderID, 7, true)
	assert.NoError(t, err, "admins can read any order")

	_, _, err = f.svc.GetOrder(ctx, 999, 42, false)
	assert.ErrorIs(t, err, ErrNotFound)
}

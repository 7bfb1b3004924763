package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kishankumar2607/TechNova/internal/models"
	"github.com/kishankumar2607/TechNova/internal/pricing"
	"github.com/kishankumar2607/TechNova/internal/session"
	"github.com/kishankumar2607/TechNova/internal/util"
)

// checkoutLockTTL bounds how long a session's checkout lock can linger if
// a request dies before releasing it.
const checkoutLockTTL = 30 * time.Second

// OrderService places orders from a cart or a single buy-now item. Totals
// are always recomputed server-side from the authoritative cart and
// current catalog prices; the order header and its items are persisted in
// one transaction.
type OrderService struct {
	products  ProductReader
	orders    OrderStore
	sessions  SessionStore
	publisher OrderEventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(products ProductReader, orders OrderStore, sessions SessionStore, publisher OrderEventPublisher) *OrderService {
	return &OrderService{
		products:  products,
		orders:    orders,
		sessions:  sessions,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// validateBillingForm checks required billing fields and applies defaults
// for the optional ones.
func validateBillingForm(form *models.BillingForm) error {
	fields := map[string]string{}

	require := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			fields[name] = "is required"
		}
	}

	require("full_name", form.FullName)
	require("street_address", form.StreetAddress)
	require("city", form.City)
	require("postal_code", form.PostalCode)
	require("phone_number", form.PhoneNumber)
	require("email_address", form.EmailAddress)

	if form.EmailAddress != "" && !strings.Contains(form.EmailAddress, "@") {
		fields["email_address"] = "must be a valid email address"
	}

	if form.Province == "" {
		form.Province = "Ontario"
	}
	if form.Country == "" {
		form.Country = "Canada"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validPaymentID(id int) bool {
	return id == models.PaymentBank || id == models.PaymentCashOnDeliver
}

// PlaceOrderFromCart persists an order for every line of the session's
// cart, then clears the cart. The checkout is serialized per session with
// a short-lived lock so a double submit cannot create two orders.
func (os *OrderService) PlaceOrderFromCart(ctx context.Context, sessionID string, customerID int64, paymentID int, form models.BillingForm) (int64, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrderFromCart")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if customerID <= 0 {
		return 0, ErrUnauthorized
	}
	if !validPaymentID(paymentID) {
		return 0, &ValidationError{Fields: map[string]string{"payment_id": "must be 1 (bank) or 2 (cash on delivery)"}}
	}
	if err := validateBillingForm(&form); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_form").Inc()
		return 0, err
	}

	locked, err := os.sessions.AcquireLock(ctx, "checkout:"+sessionID, checkoutLockTTL)
	if err != nil {
		return 0, fmt.Errorf("failed to acquire checkout lock: %w", err)
	}
	if !locked {
		return 0, ErrCheckoutInProgress
	}
	defer func() {
		if err := os.sessions.ReleaseLock(ctx, "checkout:"+sessionID); err != nil {
			os.logger.Warn("Failed to release checkout lock",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	var cart []models.CartItem
	if err := os.sessions.Get(ctx, sessionID, session.KeyCart, &cart); err != nil {
		return 0, err
	}
	if len(cart) == 0 {
		util.OrdersFailedTotal.WithLabelValues("empty_cart").Inc()
		return 0, ErrEmptyCart
	}

	// Every cart line must still resolve to a live product; otherwise the
	// whole order fails and nothing is persisted.
	ids := make([]int64, len(cart))
	for i, it := range cart {
		ids[i] = it.ProductID
	}
	products, err := os.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) != len(cart) {
		util.OrdersFailedTotal.WithLabelValues("product_missing").Inc()
		return 0, fmt.Errorf("cart references a deleted product: %w", ErrNotFound)
	}

	totals := pricing.ComputeTotals(cart, pricing.TaxRateFor(form.Province))

	items := make([]models.OrderItem, len(cart))
	for i, line := range cart {
		items[i] = models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Qty,
			UnitPrice: line.UnitPrice,
		}
	}

	orderID, err := os.persist(ctx, customerID, paymentID, form, totals, items)
	if err != nil {
		return 0, err
	}

	if err := os.sessions.Set(ctx, sessionID, session.KeyCart, []models.CartItem{}); err != nil {
		os.logger.Warn("Failed to clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}

	return orderID, nil
}

// PlaceOrderFromSingleItem persists an order for one product outside the
// cart ("buy now"). The cart is not touched.
func (os *OrderService) PlaceOrderFromSingleItem(ctx context.Context, customerID int64, productID int64, qty int, paymentID int, form models.BillingForm) (int64, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrderFromSingleItem")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if customerID <= 0 {
		return 0, ErrUnauthorized
	}
	if !validPaymentID(paymentID) {
		return 0, &ValidationError{Fields: map[string]string{"payment_id": "must be 1 (bank) or 2 (cash on delivery)"}}
	}
	if err := validateBillingForm(&form); err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_form").Inc()
		return 0, err
	}

	product, err := os.products.GetProductByID(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if product == nil {
		util.OrdersFailedTotal.WithLabelValues("product_missing").Inc()
		return 0, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}

	qty = pricing.ClampQty(qty)
	unit := pricing.EffectiveUnitPrice(product)

	line := models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		UnitPrice: unit,
		Qty:       qty,
	}
	totals := pricing.ComputeTotals([]models.CartItem{line}, pricing.TaxRateFor(form.Province))

	items := []models.OrderItem{{
		ProductID: product.ID,
		Quantity:  qty,
		UnitPrice: unit,
	}}

	return os.persist(ctx, customerID, paymentID, form, totals, items)
}

// persist writes the order and its items atomically, then publishes the
// OrderPlaced event.
func (os *OrderService) persist(ctx context.Context, customerID int64, paymentID int, form models.BillingForm, totals models.Totals, items []models.OrderItem) (int64, error) {
	order := &models.Order{
		CustomerID:    customerID,
		BillingName:   form.FullName,
		CompanyName:   form.CompanyName,
		StreetAddress: form.StreetAddress,
		Apartment:     form.Apartment,
		City:          form.City,
		Province:      form.Province,
		PostalCode:    form.PostalCode,
		Country:       form.Country,
		PhoneNumber:   form.PhoneNumber,
		EmailAddress:  form.EmailAddress,
		PaymentID:     paymentID,
		TotalAmount:   totals.Total,
	}

	if err := os.orders.CreateOrderWithItems(ctx, order, items); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return 0, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	os.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", customerID),
		zap.Int("payment_id", paymentID),
		zap.String("total", totals.Total.StringFixed(2)))

	eventItems := make([]models.OrderItemData, len(items))
	for i, it := range items {
		eventItems[i] = models.OrderItemData{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
		}
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:      order.ID,
		CustomerID:   customerID,
		PaymentID:    paymentID,
		TotalAmount:  totals.Total,
		EmailAddress: form.EmailAddress,
		Items:        eventItems,
	}

	if err := os.publisher.PublishOrderPlaced(ctx, event); err != nil {
		os.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}

	return order.ID, nil
}

// GetOrder returns an order and its items. Only the owning customer or an
// admin may read it.
func (os *OrderService) GetOrder(ctx context.Context, orderID, requesterID int64, isAdmin bool) (*models.Order, []models.OrderItem, error) {
	order, err := os.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order == nil {
		return nil, nil, fmt.Errorf("order %d: %w", orderID, ErrNotFound)
	}
	if !isAdmin && order.CustomerID != requesterID {
		return nil, nil, ErrForbidden
	}

	items, err := os.orders.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}

	return order, items, nil
}

// ListOrders returns a customer's order history, newest first.
func (os *OrderService) ListOrders(ctx context.Context, customerID int64) ([]models.Order, error) {
	if customerID <= 0 {
		return nil, ErrUnauthorized
	}
	return os.orders.GetOrdersByCustomerID(ctx, customerID)
}

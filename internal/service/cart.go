package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kishankumar2607/TechNova/internal/models"
	"github.com/kishankumar2607/TechNova/internal/pricing"
	"github.com/kishankumar2607/TechNova/internal/session"
	"github.com/kishankumar2607/TechNova/internal/util"
)

// CartService manages the session-scoped cart. A cart is scoped to one
// session id; concurrent writes to the same session are last-write-wins.
type CartService struct {
	products ProductReader
	sessions SessionStore
	logger   *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(products ProductReader, sessions SessionStore) *CartService {
	return &CartService{
		products: products,
		sessions: sessions,
		logger:   util.GetLogger(),
	}
}

// Get returns the cart lines for a session, in insertion order.
func (cs *CartService) Get(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var cart []models.CartItem
	if err := cs.sessions.Get(ctx, sessionID, session.KeyCart, &cart); err != nil {
		return nil, err
	}
	if cart == nil {
		cart = []models.CartItem{}
	}
	return cart, nil
}

func (cs *CartService) save(ctx context.Context, sessionID string, cart []models.CartItem) error {
	return cs.sessions.Set(ctx, sessionID, session.KeyCart, cart)
}

// Add puts qty units of a product in the cart. An existing line for the
// same product is merged: quantities sum (clamped to [1,10]) and the unit
// price snapshot is refreshed to the current effective price.
func (cs *CartService) Add(ctx context.Context, sessionID string, productID int64, qty int) ([]models.CartItem, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Add")
	defer span.End()

	qty = pricing.ClampQty(qty)

	product, err := cs.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}

	cart, err := cs.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart = mergeIntoCart(cart, product, qty)

	if err := cs.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}

	util.CartAddsTotal.Inc()
	cs.logger.Debug("Added to cart",
		zap.String("session_id", sessionID),
		zap.Int64("product_id", productID),
		zap.Int("qty", qty))

	return cart, nil
}

// mergeIntoCart applies the merge-by-product-id rule shared by cart adds
// and wishlist moves.
func mergeIntoCart(cart []models.CartItem, product *models.Product, qty int) []models.CartItem {
	unit := pricing.EffectiveUnitPrice(product)

	for i := range cart {
		if cart[i].ProductID == product.ID {
			cart[i].Qty = pricing.ClampQty(cart[i].Qty + qty)
			cart[i].UnitPrice = unit
			return cart
		}
	}

	return append(cart, models.CartItem{
		ProductID: product.ID,
		Name:      product.Name,
		ImageURL:  product.ImageURL,
		UnitPrice: unit,
		Qty:       qty,
	})
}

// UpdateQty sets the quantity of an existing line, clamped to [1,10]. A
// missing line is a no-op, not an error.
func (cs *CartService) UpdateQty(ctx context.Context, sessionID string, productID int64, qty int) ([]models.CartItem, error) {
	cart, err := cs.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	changed := false
	for i := range cart {
		if cart[i].ProductID == productID {
			cart[i].Qty = pricing.ClampQty(qty)
			changed = true
			break
		}
	}
	if !changed {
		return cart, nil
	}

	if err := cs.save(ctx, sessionID, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Remove deletes all lines for a product. A missing line is a no-op.
func (cs *CartService) Remove(ctx context.Context, sessionID string, productID int64) ([]models.CartItem, error) {
	cart, err := cs.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kept := cart[:0]
	for _, it := range cart {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}

	if err := cs.save(ctx, sessionID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Clear replaces the cart with an empty sequence.
func (cs *CartService) Clear(ctx context.Context, sessionID string) error {
	return cs.save(ctx, sessionID, []models.CartItem{})
}

// Totals recomputes the order totals for a session's cart at the tax rate
// of the given billing province.
func (cs *CartService) Totals(ctx context.Context, sessionID, province string) (models.Totals, error) {
	cart, err := cs.Get(ctx, sessionID)
	if err != nil {
		return models.Totals{}, err
	}
	return pricing.ComputeTotals(cart, pricing.TaxRateFor(province)), nil
}

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

// WishlistService manages the session-scoped wishlist. Wishlist items
// carry denormalized pricing that is refreshed from the catalog on every
// view; items whose product has been deleted are pruned.
type WishlistService struct {
	products ProductReader
	sessions SessionStore
	logger   *zap.Logger
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(products ProductReader, sessions SessionStore) *WishlistService {
	return &WishlistService{
		products: products,
		sessions: sessions,
		logger:   util.GetLogger(),
	}
}

func (ws *WishlistService) load(ctx context.Context, sessionID string) ([]models.WishlistItem, error) {
	var list []models.WishlistItem
	if err := ws.sessions.Get(ctx, sessionID, session.KeyWishlist, &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.WishlistItem{}
	}
	return list, nil
}

func (ws *WishlistService) save(ctx context.Context, sessionID string, list []models.WishlistItem) error {
	return ws.sessions.Set(ctx, sessionID, session.KeyWishlist, list)
}

// snapshot builds a wishlist entry from current catalog state. The
// discounted fields are only kept when the discount is actually active.
func snapshot(p *models.Product) models.WishlistItem {
	item := models.WishlistItem{
		ProductID:       p.ID,
		Name:            p.Name,
		ImageURL:        p.ImageURL,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
	}
	if p.DiscountPercent.Valid && p.DiscountPercent.Decimal.IsPositive() && p.DiscountedPrice.Valid {
		item.DiscountedPrice = p.DiscountedPrice
	}
	return item
}

// Get returns the wishlist with every denormalized field overwritten from
// the product store. Entries whose product no longer exists are dropped.
func (ws *WishlistService) Get(ctx context.Context, sessionID string) ([]models.WishlistItem, error) {
	list, err := ws.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]int64, len(list))
	for i, it := range list {
		ids[i] = it.ProductID
	}

	products, err := ws.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh wishlist: %w", err)
	}

	fresh := make(map[int64]*models.Product, len(products))
	for i := range products {
		fresh[products[i].ID] = &products[i]
	}

	refreshed := list[:0]
	for _, it := range list {
		p, ok := fresh[it.ProductID]
		if !ok {
			continue
		}
		refreshed = append(refreshed, snapshot(p))
	}

	if err := ws.save(ctx, sessionID, refreshed); err != nil {
		return nil, err
	}
	return refreshed, nil
}

// Add appends a product snapshot unless one is already present for the
// same product id.
func (ws *WishlistService) Add(ctx context.Context, sessionID string, productID int64) ([]models.WishlistItem, error) {
	product, err := ws.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product %d: %w", productID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}

	list, err := ws.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	for _, it := range list {
		if it.ProductID == productID {
			return list, nil
		}
	}

	list = append(list, snapshot(product))
	if err := ws.save(ctx, sessionID, list); err != nil {
		return nil, err
	}

	ws.logger.Debug("Added to wishlist",
		zap.String("session_id", sessionID),
		zap.Int64("product_id", productID))

	return list, nil
}

// Remove deletes matching entries. A missing entry is a no-op.
func (ws *WishlistService) Remove(ctx context.Context, sessionID string, productID int64) ([]models.WishlistItem, error) {
	list, err := ws.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	kept := list[:0]
	for _, it := range list {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}

	if err := ws.save(ctx, sessionID, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// Clear replaces the wishlist with an empty sequence.
func (ws *WishlistService) Clear(ctx context.Context, sessionID string) error {
	return ws.save(ctx, sessionID, []models.WishlistItem{})
}

// MoveToCart merges a wishlist item into the cart exactly as a cart add
// would, then removes it from the wishlist. If the wishlist has no such
// entry the call is a no-op. If the product has been deleted the stale
// entry is removed without touching the cart.
func (ws *WishlistService) MoveToCart(ctx context.Context, sessionID string, productID int64, qty int) error {
	ctx, span := util.StartSpan(ctx, "WishlistService.MoveToCart")
	defer span.End()

	qty = pricing.ClampQty(qty)

	list, err := ws.load(ctx, sessionID)
	if err != nil {
		return err
	}

	found := false
	for _, it := range list {
		if it.ProductID == productID {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	product, err := ws.products.GetProductByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load product %d: %w", productID, err)
	}

	if product != nil {
		var cart []models.CartItem
		if err := ws.sessions.Get(ctx, sessionID, session.KeyCart, &cart); err != nil {
			return err
		}
		cart = mergeIntoCart(cart, product, qty)
		if err := ws.sessions.Set(ctx, sessionID, session.KeyCart, cart); err != nil {
			return err
		}
	}

	kept := list[:0]
	for _, it := range list {
		if it.ProductID != productID {
			kept = append(kept, it)
		}
	}
	return ws.save(ctx, sessionID, kept)
}

// MoveAllToCart merges one unit of every wishlist item whose product still
// exists into the cart, then clears the wishlist unconditionally.
func (ws *WishlistService) MoveAllToCart(ctx context.Context, sessionID string) error {
	ctx, span := util.StartSpan(ctx, "WishlistService.MoveAllToCart")
	defer span.End()

	list, err := ws.load(ctx, sessionID)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return nil
	}

	ids := make([]int64, len(list))
	for i, it := range list {
		ids[i] = it.ProductID
	}

	products, err := ws.products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	fresh := make(map[int64]*models.Product, len(products))
	for i := range products {
		fresh[products[i].ID] = &products[i]
	}

	var cart []models.CartItem
	if err := ws.sessions.Get(ctx, sessionID, session.KeyCart, &cart); err != nil {
		return err
	}

	for _, it := range list {
		p, ok := fresh[it.ProductID]
		if !ok {
			continue
		}
		cart = mergeIntoCart(cart, p, 1)
	}

	if err := ws.sessions.Set(ctx, sessionID, session.KeyCart, cart); err != nil {
		return err
	}

	// clear after move, even for entries that were skipped
	return ws.save(ctx, sessionID, []models.WishlistItem{})
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kishankumar2607/TechNova/internal/models"
)

func TestWishlistAddDedups(t *testing.T) {
	ctx := context.Background()
	ws := NewWishlistService(testProducts(), newFakeSessionStore())

	list, err := ws.Add(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = ws.Add(ctx, "s1", 1)
	require.NoError(t, err)
	assert.Len(t, list, 1, "adding the same product twice must not duplicate the entry")
}

func TestWishlistAddUnknownProduct(t *testing.T) {
	ws := NewWishlistService(testProducts(), newFakeSessionStore())

	_, err := ws.Add(context.Background(), "s1", 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWishlistEffectivePrice(t *testing.T) {
	ctx := context.Background()
	ws := NewWishlistService(testProducts(), newFakeSessionStore())

	list, err := ws.Add(ctx, "s1", 2)
	require.NoError(t, err)
	assert.True(t, list[0].EffectivePrice().Equal(dec("150")))

	list, err = ws.Add(ctx, "s1", 1)
	require.NoError(t, err)
	assert.True(t, list[1].EffectivePrice().Equal(dec("999.99")))
}

func TestWishlistGetRefreshesFromCatalog(t *testing.T) {
	ctx := context.Background()
	products := testProducts()
	ws := NewWishlistService(products, newFakeSessionStore())

	_, err := ws.Add(ctx, "s1", 2)
	require.NoError(t, err)

	// price change and discount removal land on the next view
	products.products[2] = models.Product{ID: 2, Name: "Headphones Pro", Price: dec("250")}

	list, err := ws.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Headphones Pro", list[0].Name)
	assert.True(t, list[0].Price.Equal(dec("250")))
	assert.False(t, list[0].DiscountedPrice.Valid)
	assert.True(t, list[0].EffectivePrice().Equal(dec("250")))
}

func TestWishlistGetPrunesDeletedProducts(t *testing.T) {
	ctx := context.Background()
	products := testProducts()
	ws := NewWishlistService(products, newFakeSessionStore())

	_, err := ws.Add(ctx, "s1", 1)
	require.NoError(t, err)
	_, err = ws.Add(ctx, "s1", 2)
	require.NoError(t, err)

	delete(products.products, 1)

	list, err := ws.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, int64(2), list[0].ProductID)
}

func TestWishlistMoveToCart(t *testing.T) {
	ctx := context.Background()
	products := testProducts()
	sessions := newFakeSessionStore()
	ws := NewWishlistService(products, sessions)
	cs := NewCartService(products, sessions)

	_, err := ws.Add(ctx, "s1", 2)
	require.NoError(t, err)

	require.NoError(t, ws.MoveToCart(ctx, "s1", 2, 3))

	cart, err := cs.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, int64(2), cart[0].ProductID)
	assert.Equal(t, 3, cart[0].Qty)
	assert.True(t, cart[0].UnitPrice.Equal(dec("150")))

	list, err := ws.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestWishlistMoveToCartMergesExistingLine(t *testing.T) {
	ctx := context.Background()
	products := testProducts()
	sessions := newFakeSessionStore()
	ws := NewWishlistService(products, sessions)
	cs := NewCartService(products, sessions)

	_, err := cs.Add(ctx, "s1", 2, 9)
	require.NoError(t, err)
	_, err = ws.Add(ctx, "s1", 2)
	require.NoError(t, err)

	require.NoError(t, ws.MoveToCart(ctx, "s1", 2, 5))

	cart, err := cs.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart, 1)
	assert.Equal(t, 10, cart[0].Qty, "merge sum clamps at ten")
}

func TestWishlistMoveToCartMissingEntryIsNoop(t *testing.T) {
	ctx := context.Background()
	products := testProducts()
	sessions := newFakeSessionStore()
	ws := NewWishlistService(products, sessions)
	cs := NewCartService(products, sessions)

	require.NoError(t, ws.MoveToCart(ctx, "s1", 1, 1))

	cart, err := cs.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart)
}

func TestWishlistMoveToCartDeletedProductPrunesEntry(t *testing.T) {
	ctx := context.Background()
	products := testProducts()
	sessions := newFakeSessionStore()
	ws := NewWishlistService(products, sessions)
	cs := NewCartService(products, sessions)

	_, err := ws.Add(ctx, "s1", 1)
	require.NoError(t, err)
	delete(products.products, 1)

	require.NoError(t, ws.MoveToCart(ctx, "s1", 1, 1))

	cart, err := cs.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, cart, "cart must not gain a line for a deleted product")

	var raw []models.WishlistItem
	require.NoError(t, sessions.Get(ctx, "s1", "wishlist", &raw))
	assert.Empty(t, raw, "stale entry must be pruned")
}

func TestWishlistMoveAllToCart(t *testing.T) {
	ctx := context.Background()
	products := testProducts()
	sessions := newFakeSessionStore()
	ws := NewWishlistService(products, sessions)
	cs := NewCartService(products, sessions)

	_, err := ws.Add(ctx, "s1", 1)
	require.NoError(t, err)
	_, err = ws.Add(ctx, "s1", 2)
	require.NoError(t, err)

	// one product disappears before the bulk move
	delete(products.products, 1)

	require.NoError(t, ws.MoveAllToCart(ctx, "s1"))

	cart, err := cs.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, cart, 1, "only the surviving product moves")
	assert.Equal(t, int64(2), cart[0].ProductID)
	assert.Equal(t, 1, cart[0].Qty, "bulk move always moves one unit")

	list, err := ws.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list, "wishlist clears unconditionally, including skipped entries")
}

func TestWishlistRemoveAndClear(t *testing.T) {
	ctx := context.Background()
	ws := NewWishlistService(testProducts(), newFakeSessionStore())

	_, err := ws.Add(ctx, "s1", 1)
	require.NoError(t, err)
	_, err = ws.Add(ctx, "s1", 2)
	require.NoError(t, err)

	list, err := ws.Remove(ctx, "s1", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, ws.Clear(ctx, "s1"))
	list, err = ws.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/kishankumar2607/TechNova/internal/models"
	"github.com/kishankumar2607/TechNova/internal/pricing"
	"github.com/kishankumar2607/TechNova/internal/util"
)

// ProductStore is the full catalog persistence surface, including the
// admin writes.
type ProductStore interface {
	ProductReader
	GetProducts(ctx context.Context) ([]models.Product, error)
	GetNewestProducts(ctx context.Context, n int) ([]models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error
}

// CatalogService serves product browsing and the admin CRUD. The stored
// discounted price is recomputed from price and discount percent on every
// write so it can never drift.
type CatalogService struct {
	products ProductStore
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(products ProductStore) *CatalogService {
	return &CatalogService{
		products: products,
		logger:   util.GetLogger(),
	}
}

// List returns the full catalog, newest first.
func (cs *CatalogService) List(ctx context.Context) ([]models.Product, error) {
	return cs.products.GetProducts(ctx)
}

// JustForYou returns the four most recently added products.
func (cs *CatalogService) JustForYou(ctx context.Context) ([]models.Product, error) {
	return cs.products.GetNewestProducts(ctx, 4)
}

// Get returns one product.
func (cs *CatalogService) Get(ctx context.Context, id int64) (*models.Product, error) {
	product, err := cs.products.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("product %d: %w", id, ErrNotFound)
	}
	return product, nil
}

var hundred = decimal.NewFromInt(100)

func validateProduct(p *models.Product) error {
	fields := map[string]string{}

	if p.Name == "" {
		fields["name"] = "is required"
	}
	if p.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if p.DiscountPercent.Valid {
		pct := p.DiscountPercent.Decimal
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			fields["discount_percent"] = "must be between 0 and 100"
		}
	}
	if p.StockQty < 0 {
		fields["stock_qty"] = "must not be negative"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Create validates and inserts a product, deriving the stored discounted
// price.
func (cs *CatalogService) Create(ctx context.Context, p *models.Product) error {
	if err := validateProduct(p); err != nil {
		return err
	}

	applyDiscountedPrice(p)

	if err := cs.products.CreateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	cs.logger.Info("Product created", zap.Int64("product_id", p.ID), zap.String("name", p.Name))
	return nil
}

// Update validates and saves a product, re-deriving the stored discounted
// price from the submitted price and discount percent.
func (cs *CatalogService) Update(ctx context.Context, p *models.Product) error {
	existing, err := cs.products.GetProductByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("product %d: %w", p.ID, ErrNotFound)
	}

	if err := validateProduct(p); err != nil {
		return err
	}

	applyDiscountedPrice(p)

	if err := cs.products.UpdateProduct(ctx, p); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}

	cs.logger.Info("Product updated", zap.Int64("product_id", p.ID))
	return nil
}

// Delete removes a product. Carts that still reference it fail at
// checkout without persisting anything.
func (cs *CatalogService) Delete(ctx context.Context, id int64) error {
	existing, err := cs.products.GetProductByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("product %d: %w", id, ErrNotFound)
	}

	if err := cs.products.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	cs.logger.Info("Product deleted", zap.Int64("product_id", id))
	return nil
}

func applyDiscountedPrice(p *models.Product) {
	p.DiscountedPrice.Decimal = pricing.DiscountedPrice(p.Price, p.DiscountPercent)
	p.DiscountedPrice.Valid = true
}

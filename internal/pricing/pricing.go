// Package pricing holds the pure money arithmetic of the storefront:
// effective unit prices, quantity clamping, provincial tax lookup and the
// order totals calculation. Nothing in here touches a store or a session.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kishankumar2607/TechNova/internal/models"
)

// Quantity bounds for a single cart line.
const (
	MinQty = 1
	MaxQty = 10
)

var (
	// DefaultTaxRate applies when the billing province is blank or unknown.
	DefaultTaxRate = decimal.NewFromFloat(0.13)

	// FreeShippingThreshold is the subtotal strictly above which shipping
	// is free.
	FreeShippingThreshold = decimal.NewFromInt(500)

	// FlatShipping is charged on any non-empty order at or below the
	// threshold.
	FlatShipping = decimal.NewFromInt(30)
)

// provinceTaxRates maps Canadian provinces and territories to their
// combined sales tax rate. Lookup is exact-match on the trimmed name.
var provinceTaxRates = map[string]decimal.Decimal{
	"Alberta":                   decimal.NewFromFloat(0.05),
	"Northwest Territories":     decimal.NewFromFloat(0.05),
	"Nunavut":                   decimal.NewFromFloat(0.05),
	"Yukon":                     decimal.NewFromFloat(0.05),
	"British Columbia":          decimal.NewFromFloat(0.12),
	"Manitoba":                  decimal.NewFromFloat(0.12),
	"New Brunswick":             decimal.NewFromFloat(0.15),
	"Newfoundland and Labrador": decimal.NewFromFloat(0.15),
	"Nova Scotia":               decimal.NewFromFloat(0.15),
	"Prince Edward Island":      decimal.NewFromFloat(0.15),
	"Ontario":                   decimal.NewFromFloat(0.13),
	"Quebec":                    decimal.NewFromFloat(0.14975),
	"Saskatchewan":              decimal.NewFromFloat(0.11),
}

// TaxRateFor returns the sales tax rate for a billing province. Unknown or
// blank provinces fall back to DefaultTaxRate.
func TaxRateFor(province string) decimal.Decimal {
	if rate, ok := provinceTaxRates[strings.TrimSpace(province)]; ok {
		return rate
	}
	return DefaultTaxRate
}

// EffectiveUnitPrice returns the price actually charged for one unit of a
// product: the discounted price when a discount is active and present,
// otherwise the list price.
func EffectiveUnitPrice(p *models.Product) decimal.Decimal {
	if p.DiscountPercent.Valid && p.DiscountPercent.Decimal.IsPositive() && p.DiscountedPrice.Valid {
		return p.DiscountedPrice.Decimal
	}
	return p.Price
}

// DiscountedPrice derives the stored discounted price for a product write:
// price * (1 - percent/100) when a positive discount is set, else the list
// price unchanged.
func DiscountedPrice(price decimal.Decimal, discountPercent decimal.NullDecimal) decimal.Decimal {
	if discountPercent.Valid && discountPercent.Decimal.IsPositive() {
		pct := discountPercent.Decimal.Div(decimal.NewFromInt(100))
		return price.Sub(price.Mul(pct))
	}
	return price
}

// ClampQty constrains a requested quantity into [MinQty, MaxQty].
func ClampQty(q int) int {
	if q < MinQty {
		return MinQty
	}
	if q > MaxQty {
		return MaxQty
	}
	return q
}

// RoundMoney rounds a monetary value to two decimal places, halves away
// from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// ComputeTotals calculates subtotal, shipping, tax and grand total for a
// set of cart lines at the given tax rate. Shipping is a step function:
// zero on an empty cart, free strictly above the threshold, otherwise the
// flat rate. Tax is rounded half away from zero to two places.
func ComputeTotals(items []models.CartItem, taxRate decimal.Decimal) models.Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.LineTotal())
	}

	shipping := decimal.Zero
	if subtotal.IsPositive() && subtotal.LessThanOrEqual(FreeShippingThreshold) {
		shipping = FlatShipping
	}

	tax := RoundMoney(subtotal.Mul(taxRate))

	return models.Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		TaxRate:  taxRate,
		Tax:      tax,
		Total:    subtotal.Add(tax).Add(shipping),
	}
}

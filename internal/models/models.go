package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalog product. DiscountedPrice is a stored,
// write-time derived field: it is recomputed from Price and DiscountPercent
// on every create and update so the two can never drift.
type Product struct {
	ID              int64               `db:"id" json:"id"`
	Name            string              `db:"name" json:"name"`
	Description     string              `db:"description" json:"description,omitempty"`
	Price           decimal.Decimal     `db:"price" json:"price"`
	DiscountPercent decimal.NullDecimal `db:"discount_percent" json:"discount_percent,omitempty"`
	DiscountedPrice decimal.NullDecimal `db:"discounted_price" json:"discounted_price,omitempty"`
	StockQty        int                 `db:"stock_qty" json:"stock_qty"`
	ImageURL        string              `db:"image_url" json:"image_url,omitempty"`
	AvgRating       decimal.Decimal     `db:"avg_rating" json:"avg_rating"`
	ReviewCount     int                 `db:"review_count" json:"review_count"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time           `db:"updated_at" json:"updated_at"`
}

// User represents an application user. Password holds the bcrypt hash,
// never the plaintext.
type User struct {
	ID        int64     `db:"id" json:"id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"`
	Role      string    `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// User roles
const (
	RoleCustomer = "Customer"
	RoleAdmin    = "Admin"
)

// Payment methods. Bank and cash-on-delivery orders are recorded, never
// processed through a gateway.
const (
	PaymentBank          = 1
	PaymentCashOnDeliver = 2
)

// Order represents a placed order with its billing address snapshot.
// Immutable after creation.
type Order struct {
	ID            int64           `db:"id" json:"id"`
	CustomerID    int64           `db:"customer_id" json:"customer_id"`
	BillingName   string          `db:"billing_name" json:"billing_name"`
	CompanyName   string          `db:"company_name" json:"company_name,omitempty"`
	StreetAddress string          `db:"street_address" json:"street_address"`
	Apartment     string          `db:"apartment" json:"apartment,omitempty"`
	City          string          `db:"city" json:"city"`
	Province      string          `db:"province" json:"province"`
	PostalCode    string          `db:"postal_code" json:"postal_code"`
	Country       string          `db:"country" json:"country"`
	PhoneNumber   string          `db:"phone_number" json:"phone_number"`
	EmailAddress  string          `db:"email_address" json:"email_address"`
	PaymentID     int             `db:"payment_id" json:"payment_id"`
	TotalAmount   decimal.Decimal `db:"total_amount" json:"total_amount"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem is one line of an order. UnitPrice is the snapshot captured at
// purchase time, independent of later catalog changes.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// CartItem is a session-scoped cart line. Name, ImageURL and UnitPrice are
// snapshots taken at add-time; Qty is always within [1,10].
type CartItem struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       int             `json:"qty"`
}

// LineTotal returns UnitPrice * Qty.
func (c CartItem) LineTotal() decimal.Decimal {
	return c.UnitPrice.Mul(decimal.NewFromInt(int64(c.Qty)))
}

// WishlistItem is a session-scoped saved product reference. The
// denormalized fields are overwritten from the catalog every time the
// wishlist is viewed.
type WishlistItem struct {
	ProductID       int64               `json:"product_id"`
	Name            string              `json:"name"`
	ImageURL        string              `json:"image_url,omitempty"`
	Price           decimal.Decimal     `json:"price"`
	DiscountedPrice decimal.NullDecimal `json:"discounted_price,omitempty"`
	DiscountPercent decimal.NullDecimal `json:"discount_percent,omitempty"`
}

// EffectivePrice returns the discounted price when set, else the list price.
func (w WishlistItem) EffectivePrice() decimal.Decimal {
	if w.DiscountedPrice.Valid {
		return w.DiscountedPrice.Decimal
	}
	return w.Price
}

// Totals is the result of the totals calculator.
type Totals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// BillingForm carries the checkout billing fields submitted by the
// customer. Optional company/apartment fields default to empty strings.
type BillingForm struct {
	FullName      string `json:"full_name"`
	CompanyName   string `json:"company_name"`
	StreetAddress string `json:"street_address"`
	Apartment     string `json:"apartment"`
	City          string `json:"city"`
	Province      string `json:"province"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"`
	PhoneNumber   string `json:"phone_number"`
	EmailAddress  string `json:"email_address"`
}

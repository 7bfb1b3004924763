package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced    = "ORDER_PLACED"
	EventTypeUserRegistered = "USER_REGISTERED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent is published after an order and its items are committed.
type OrderPlacedEvent struct {
	BaseEvent
	OrderID      int64           `json:"order_id"`
	CustomerID   int64           `json:"customer_id"`
	PaymentID    int             `json:"payment_id"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	EmailAddress string          `json:"email_address"`
	Items        []OrderItemData `json:"items"`
}

// UserRegisteredEvent is published when a new account is created.
type UserRegisteredEvent struct {
	BaseEvent
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

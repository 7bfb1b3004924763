package service

import (
	"context"
	"time"

	"github.com/kishankumar2607/TechNova/internal/models"
)

// Collaborator interfaces consumed by the services. *store.Store and
// *session.Store satisfy them; tests substitute in-memory fakes.

// ProductReader reads current catalog state.
type ProductReader interface {
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// SessionStore holds per-session JSON blobs with TTL expiry and provides
// session-scoped locks.
type SessionStore interface {
	Get(ctx context.Context, sessionID, name string, dest interface{}) error
	Set(ctx context.Context, sessionID, name string, value interface{}) error
	Delete(ctx context.Context, sessionID, name string) error
	AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, lockKey string) error
}

// OrderStore persists orders. CreateOrderWithItems must be atomic: the
// header and all items commit together or not at all.
type OrderStore interface {
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByCustomerID(ctx context.Context, customerID int64) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id int64, fullName, email string) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

// OrderEventPublisher publishes domain events after commit. Publish
// failures are logged, never surfaced to the customer.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
}

// UserEventPublisher publishes account lifecycle events.
type UserEventPublisher interface {
	PublishUserRegistered(ctx context.Context, event *models.UserRegisteredEvent) error
}

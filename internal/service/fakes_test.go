package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/kishankumar2607/TechNova/internal/models"
)

// In-memory fakes for the collaborator interfaces. The session fake
// round-trips values through JSON the way the Redis store does.

type fakeProductStore struct {
	mu       sync.Mutex
	products map[int64]models.Product
	nextID   int64
}

func newFakeProductStore(products ...models.Product) *fakeProductStore {
	f := &fakeProductStore{products: map[int64]models.Product{}}
	for _, p := range products {
		f.products[p.ID] = p
		if p.ID > f.nextID {
			f.nextID = p.ID
		}
	}
	return f
}

func (f *fakeProductStore) GetProductByID(_ context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeProductStore) GetProductsByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProductStore) GetProducts(_ context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProductStore) GetNewestProducts(ctx context.Context, n int) ([]models.Product, error) {
	out, err := f.GetProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeProductStore) CreateProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	p.ID = f.nextID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) UpdateProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[p.ID]; !ok {
		return errors.New("no such product")
	}
	p.UpdatedAt = time.Now()
	f.products[p.ID] = *p
	return nil
}

func (f *fakeProductStore) DeleteProduct(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.products, id)
	return nil
}

type fakeSessionStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	locks map[string]bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		blobs: map[string][]byte{},
		locks: map[string]bool{},
	}
}

func (f *fakeSessionStore) key(sessionID, name string) string {
	return sessionID + ":" + name
}

func (f *fakeSessionStore) Get(_ context.Context, sessionID, name string, dest interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[f.key(sessionID, name)]
	if !ok {
		return nil
	}
	return json.Unmarshal(data, dest)
}

func (f *fakeSessionStore) Set(_ context.Context, sessionID, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[f.key(sessionID, name)] = data
	return nil
}

func (f *fakeSessionStore) Delete(_ context.Context, sessionID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, f.key(sessionID, name))
	return nil
}

func (f *fakeSessionStore) AcquireLock(_ context.Context, lockKey string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.locks[lockKey] {
		return false, nil
	}
	f.locks[lockKey] = true
	return true, nil
}

func (f *fakeSessionStore) ReleaseLock(_ context.Context, lockKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locks, lockKey)
	return nil
}

// fakeOrderStore honors the CreateOrderWithItems atomicity contract: when
// failCreate is set the injected failure persists neither the header nor
// any item.
type fakeOrderStore struct {
	mu         sync.Mutex
	orders     map[int64]models.Order
	items      map[int64][]models.OrderItem
	nextID     int64
	failCreate bool
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: map[int64]models.Order{},
		items:  map[int64][]models.OrderItem{},
	}
}

func (f *fakeOrderStore) CreateOrderWithItems(_ context.Context, order *models.Order, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("injected write failure")
	}
	f.nextID++
	order.ID = f.nextID
	order.CreatedAt = time.Now()
	f.orders[order.ID] = *order
	for i := range items {
		items[i].ID = int64(i + 1)
		items[i].OrderID = order.ID
	}
	f.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (f *fakeOrderStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *fakeOrderStore) GetOrdersByCustomerID(_ context.Context, customerID int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.CustomerID == customerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) GetOrderItemsByOrderID(_ context.Context, orderID int64) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[orderID], nil
}

type fakeUserStore struct {
	mu     sync.Mutex
	users  map[int64]models.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: map[int64]models.User{}}
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.users[user.ID] = *user
	return nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) UpdateUserProfile(_ context.Context, id int64, fullName, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return errors.New("no such user")
	}
	u.FullName = fullName
	u.Email = email
	f.users[id] = u
	return nil
}

func (f *fakeUserStore) UpdateUserPassword(_ context.Context, id int64, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return errors.New("no such user")
	}
	u.Password = passwordHash
	f.users[id] = u
	return nil
}

type fakePublisher struct {
	mu         sync.Mutex
	events     []*models.OrderPlacedEvent
	userEvents []*models.UserRegisteredEvent
}

func (f *fakePublisher) PublishOrderPlaced(_ context.Context, event *models.OrderPlacedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) PublishUserRegistered(_ context.Context, event *models.UserRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userEvents = append(f.userEvents, event)
	return nil
}

// Package memstore provides in-memory versions of the repositories with the
// same conflict and not-found semantics as the Mongo implementations. Tests
// use them in place of live databases.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Clock lets tests control timestamps.
type Clock func() time.Time

type CartStore struct {
	mu    sync.Mutex
	carts map[string]entity.Cart
	now   Clock

	// SaveErr and ClearErr, when set, are returned by the next calls.
	SaveErr  error
	ClearErr error
}

func NewCartStore(now Clock) *CartStore {
	if now == nil {
		now = time.Now
	}
	return &CartStore{carts: map[string]entity.Cart{}, now: now}
}

func (s *CartStore) FindOrCreate(_ context.Context, userID string) (*entity.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		now := s.now()
		cart = entity.Cart{ID: primitive.NewObjectID(), UserID: userID, Items: []entity.CartLine{}, CreatedAt: now, UpdatedAt: now}
		s.carts[userID] = cart
	}
	return cloneCart(cart), nil
}

func (s *CartStore) Save(_ context.Context, userID string, items []entity.CartLine, version int64) (*entity.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return nil, s.SaveErr
	}
	now := s.now()
	cart, ok := s.carts[userID]
	if !ok {
		cart = entity.Cart{ID: primitive.NewObjectID(), UserID: userID, CreatedAt: now}
	}
	if version > 0 {
		if cart.Version >= version {
			return nil, repository.ErrConflict
		}
		cart.Version = version
	} else {
		cart.Version++
	}
	cart.Items = cloneLines(items)
	cart.UpdatedAt = now
	s.carts[userID] = cart
	return cloneCart(cart), nil
}

func (s *CartStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ClearErr != nil {
		return s.ClearErr
	}
	now := s.now()
	cart, ok := s.carts[userID]
	if !ok {
		cart = entity.Cart{ID: primitive.NewObjectID(), UserID: userID, CreatedAt: now}
	}
	cart.Items = []entity.CartLine{}
	cart.Version++
	cart.UpdatedAt = now
	s.carts[userID] = cart
	return nil
}

func (s *CartStore) ClearIfUnchangedSince(_ context.Context, userID string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok || len(cart.Items) == 0 || cart.UpdatedAt.After(since) {
		return false, nil
	}
	cart.Items = []entity.CartLine{}
	cart.Version++
	cart.UpdatedAt = s.now()
	s.carts[userID] = cart
	return true, nil
}

// Cart returns a copy of the stored cart without creating one.
func (s *CartStore) Cart(userID string) (*entity.Cart, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[userID]
	if !ok {
		return nil, false
	}
	return cloneCart(cart), true
}

type OrderStore struct {
	mu     sync.Mutex
	orders map[primitive.ObjectID]entity.Order
	now    Clock

	CreateErr error
}

func NewOrderStore(now Clock) *OrderStore {
	if now == nil {
		now = time.Now
	}
	return &OrderStore{orders: map[primitive.ObjectID]entity.Order{}, now: now}
}

func (s *OrderStore) Create(_ context.Context, order *entity.Order) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreateErr != nil {
		return nil, s.CreateErr
	}
	if order.IdempotencyKey != "" {
		for _, existing := range s.orders {
			if existing.UserID == order.UserID && existing.IdempotencyKey == order.IdempotencyKey {
				return nil, repository.ErrConflict
			}
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = s.now()
	}
	order.UpdatedAt = order.CreatedAt
	s.orders[order.ID] = cloneOrder(*order)
	return order, nil
}

func (s *OrderStore) GetByID(_ context.Context, id string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	order, ok := s.orders[oid]
	if !ok {
		return nil, repository.ErrNotFound
	}
	o := cloneOrder(order)
	return &o, nil
}

func (s *OrderStore) GetByIdempotencyKey(_ context.Context, userID, key string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if key != "" && order.UserID == userID && order.IdempotencyKey == key {
			o := cloneOrder(order)
			return &o, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *OrderStore) List(_ context.Context, userID string) ([]*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orders := []*entity.Order{}
	for _, order := range s.orders {
		if userID != "" && order.UserID != userID {
			continue
		}
		o := cloneOrder(order)
		orders = append(orders, &o)
	}
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders, nil
}

func (s *OrderStore) UpdateStatus(_ context.Context, id string, from, to entity.OrderStatus, reason string) (*entity.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}
	order, ok := s.orders[oid]
	if !ok || order.Status != from {
		return nil, repository.ErrNotFound
	}
	order.Status = to
	if reason != "" {
		order.RejectionReason = reason
	}
	order.UpdatedAt = s.now()
	s.orders[oid] = order
	o := cloneOrder(order)
	return &o, nil
}

func (s *OrderStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}
	if _, ok := s.orders[oid]; !ok {
		return repository.ErrNotFound
	}
	delete(s.orders, oid)
	return nil
}

func (s *OrderStore) DeleteByStatus(_ context.Context, status entity.OrderStatus) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, order := range s.orders {
		if order.Status == status {
			delete(s.orders, id)
			n++
		}
	}
	return n, nil
}

// Len reports how many orders are stored.
func (s *OrderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

type HistoryStore struct {
	mu      sync.Mutex
	changes []entity.StatusChange
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

func (s *HistoryStore) Record(_ context.Context, change entity.StatusChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	change.ID = int64(len(s.changes) + 1)
	s.changes = append(s.changes, change)
	return nil
}

func (s *HistoryStore) ListByOrder(_ context.Context, orderID string) ([]entity.StatusChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []entity.StatusChange{}
	for _, c := range s.changes {
		if c.OrderID == orderID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *HistoryStore) DeleteByOrder(_ context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.changes[:0]
	for _, c := range s.changes {
		if c.OrderID != orderID {
			kept = append(kept, c)
		}
	}
	s.changes = kept
	return nil
}

func cloneLines(lines []entity.CartLine) []entity.CartLine {
	out := make([]entity.CartLine, len(lines))
	copy(out, lines)
	return out
}

func cloneCart(cart entity.Cart) *entity.Cart {
	cart.Items = cloneLines(cart.Items)
	return &cart
}

func cloneOrder(order entity.Order) entity.Order {
	order.Items = cloneLines(order.Items)
	return order
}

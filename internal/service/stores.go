package service

import (
	"context"
	"os"

	"storefront-service/internal/entity"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

// The interfaces below are what the services need from the repositories in
// internal/repository, which satisfy them.

type CartStore interface {
	FindOrCreate(ctx context.Context, userID string) (*entity.Cart, error)
	Save(ctx context.Context, userID string, items []entity.CartLine, version int64) (*entity.Cart, error)
	Clear(ctx context.Context, userID string) error
}

type OrderStore interface {
	Create(ctx context.Context, order *entity.Order) (*entity.Order, error)
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error)
	List(ctx context.Context, userID string) ([]*entity.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus, reason string) (*entity.Order, error)
	Delete(ctx context.Context, id string) error
	DeleteByStatus(ctx context.Context, status entity.OrderStatus) (int64, error)
}

type HistoryStore interface {
	Record(ctx context.Context, change entity.StatusChange) error
	ListByOrder(ctx context.Context, orderID string) ([]entity.StatusChange, error)
	DeleteByOrder(ctx context.Context, orderID string) error
}

type CatalogStore interface {
	ListProducts(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error)
	GetProduct(ctx context.Context, id string) (*entity.Product, error)
	ListCategories(ctx context.Context) ([]*entity.Category, error)
}

type ProfileStore interface {
	Create(ctx context.Context, profile *entity.Profile) (*entity.Profile, error)
	GetBySubject(ctx context.Context, subject string) (*entity.Profile, error)
	CountByRole(ctx context.Context, role entity.Role) (int64, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.Profile, error)
	SetActive(ctx context.Context, subject string, active bool) (*entity.Profile, error)
}

type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event string, order *entity.Order) error
}

// IdempotencyGuard claims a per-user key once; later claims of the same key
// fail until it expires or is released.
type IdempotencyGuard interface {
	Claim(ctx context.Context, userID, key string) (bool, error)
	Release(ctx context.Context, userID, key string) error
}

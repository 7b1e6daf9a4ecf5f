package memstore

import (
	"context"
	"sync"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CatalogStore struct {
	mu         sync.Mutex
	products   []entity.Product
	categories []entity.Category

	// Reads counts store round trips so tests can observe caching.
	Reads int
}

func NewCatalogStore(categories []entity.Category, products []entity.Product) *CatalogStore {
	return &CatalogStore{categories: categories, products: products}
}

func (s *CatalogStore) ListProducts(_ context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	out := []*entity.Product{}
	for _, p := range s.products {
		if filter.CategoryID != "" && p.CategoryID.Hex() != filter.CategoryID {
			continue
		}
		if (filter.NewArrival && !p.IsNewArrival) || (filter.BestSeller && !p.IsBestSeller) || (filter.SpecialOffer && !p.IsSpecialOffer) {
			continue
		}
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (s *CatalogStore) GetProduct(_ context.Context, id string) (*entity.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	for _, p := range s.products {
		if p.ID.Hex() == id {
			p := p
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *CatalogStore) ListCategories(_ context.Context) ([]*entity.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Reads++
	out := make([]*entity.Category, 0, len(s.categories))
	for _, c := range s.categories {
		c := c
		out = append(out, &c)
	}
	return out, nil
}

type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]entity.Profile
	now      Clock
}

func NewProfileStore(now Clock) *ProfileStore {
	if now == nil {
		now = time.Now
	}
	return &ProfileStore{profiles: map[string]entity.Profile{}, now: now}
}

func (s *ProfileStore) Create(_ context.Context, profile *entity.Profile) (*entity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.profiles[profile.Subject]; ok {
		return nil, repository.ErrConflict
	}
	if profile.Role == entity.RoleAdmin {
		for _, p := range s.profiles {
			if p.Role == entity.RoleAdmin {
				return nil, repository.ErrConflict
			}
		}
	}
	now := s.now()
	profile.ID = primitive.NewObjectID()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	s.profiles[profile.Subject] = *profile
	return profile, nil
}

func (s *ProfileStore) GetBySubject(_ context.Context, subject string) (*entity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[subject]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (s *ProfileStore) CountByRole(_ context.Context, role entity.Role) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, p := range s.profiles {
		if p.Role == role {
			n++
		}
	}
	return n, nil
}

func (s *ProfileStore) ListByRole(_ context.Context, role entity.Role) ([]*entity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entity.Profile{}
	for _, p := range s.profiles {
		if p.Role == role {
			p := p
			out = append(out, &p)
		}
	}
	return out, nil
}

func (s *ProfileStore) SetActive(_ context.Context, subject string, active bool) (*entity.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[subject]
	if !ok || p.Role != entity.RoleStaff {
		return nil, repository.ErrNotFound
	}
	p.Active = active
	p.UpdatedAt = s.now()
	s.profiles[subject] = p
	return &p, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/pricing"
	"storefront-service/internal/repository"

	"github.com/go-redis/redis/v8"
)

const categoriesCacheKey = "categories:all"

// CatalogService serves product and category reads through a Redis cache.
// Cache failures fall back to the store.
type CatalogService struct {
	catalog CatalogStore
	rdb     *redis.Client
	ttl     time.Duration
}

func NewCatalogService(catalog CatalogStore, rdb *redis.Client, ttl time.Duration) *CatalogService {
	return &CatalogService{catalog: catalog, rdb: rdb, ttl: ttl}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	var categories []*entity.Category
	if s.readCache(ctx, categoriesCacheKey, &categories) {
		return categories, nil
	}

	categories, err := s.catalog.ListCategories(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing categories")
		return nil, err
	}
	s.writeCache(ctx, categoriesCacheKey, categories)
	return categories, nil
}

// ListProducts returns the products matching filter with their category name
// and discounted price filled in.
func (s *CatalogService) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	products, err := s.catalog.ListProducts(ctx, filter)
	if err != nil {
		logger.Error().Err(err).Msg("Error listing products")
		return nil, err
	}
	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	for _, product := range products {
		decorate(product, names)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	key := fmt.Sprintf("product:%s", id)

	var product entity.Product
	if !s.readCache(ctx, key, &product) {
		stored, err := s.catalog.GetProduct(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProductNotFound
			}
			logger.Error().Err(err).Msgf("Error getting product %s", id)
			return nil, err
		}
		product = *stored
		s.writeCache(ctx, key, product)
	}

	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	decorate(&product, names)
	return &product, nil
}

// PreWarmCache loads every product into the cache.
func (s *CatalogService) PreWarmCache(ctx context.Context) error {
	products, err := s.catalog.ListProducts(ctx, entity.ProductFilter{})
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return err
	}
	for _, product := range products {
		s.writeCache(ctx, fmt.Sprintf("product:%s", product.ID.Hex()), product)
	}
	logger.Info().Msgf("Pre-warmed cache with %d products", len(products))
	return nil
}

func (s *CatalogService) categoryNames(ctx context.Context) (map[string]string, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID.Hex()] = c.Name
	}
	return names, nil
}

// decorate resolves the category reference, falling back to "Unknown" for
// categories that no longer exist, and applies the discount.
func decorate(product *entity.Product, categoryNames map[string]string) {
	product.CategoryName = entity.UnknownCategory
	if name, ok := categoryNames[product.CategoryID.Hex()]; ok && !product.CategoryID.IsZero() {
		product.CategoryName = name
	}
	product.FinalPrice = pricing.DiscountedPrice(product.Price, product.DiscountPercent)
}

func (s *CatalogService) readCache(ctx context.Context, key string, dst interface{}) bool {
	if s.rdb == nil {
		return false
	}
	cached, err := s.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Error().Err(err).Msgf("Error reading %s from cache", key)
		}
		return false
	}
	if err := json.Unmarshal([]byte(cached), dst); err != nil {
		logger.Error().Err(err).Msgf("Error unmarshalling cached %s", key)
		return false
	}
	return true
}

func (s *CatalogService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.rdb == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling %s for cache", key)
		return
	}
	if err := s.rdb.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting %s in cache", key)
	}
}

package service

import (
	"context"
	"testing"
	"time"

	"storefront-service/internal/entity"
	"storefront-service/internal/repository/memstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func catalogFixture() (*memstore.CatalogStore, entity.Category, []entity.Product) {
	phones := entity.Category{ID: primitive.NewObjectID(), Name: "Phones", Slug: "phones"}
	products := []entity.Product{
		{ID: primitive.NewObjectID(), Name: "Pixel", CategoryID: phones.ID, Price: 400, IsNewArrival: true},
		{ID: primitive.NewObjectID(), Name: "Orphan", CategoryID: primitive.NewObjectID(), Price: 80, DiscountPercent: 25, IsSpecialOffer: true},
	}
	return memstore.NewCatalogStore([]entity.Category{phones}, products), phones, products
}

func TestListProductsDecoratesCategory(t *testing.T) {
	store, _, _ := catalogFixture()
	svc := NewCatalogService(store, nil, time.Minute)

	products, err := svc.ListProducts(context.Background(), entity.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 2)

	byName := map[string]*entity.Product{}
	for _, p := range products {
		byName[p.Name] = p
	}
	assert.Equal(t, "Phones", byName["Pixel"].CategoryName)
	assert.Equal(t, 400.0, byName["Pixel"].FinalPrice)
	assert.Equal(t, entity.UnknownCategory, byName["Orphan"].CategoryName)
	assert.Equal(t, 60.0, byName["Orphan"].FinalPrice)
}

func TestListProductsFilters(t *testing.T) {
	store, phones, _ := catalogFixture()
	svc := NewCatalogService(store, nil, time.Minute)

	offers, err := svc.ListProducts(context.Background(), entity.ProductFilter{SpecialOffer: true})
	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Orphan", offers[0].Name)

	inPhones, err := svc.ListProducts(context.Background(), entity.ProductFilter{CategoryID: phones.ID.Hex()})
	require.NoError(t, err)
	require.Len(t, inPhones, 1)
	assert.Equal(t, "Pixel", inPhones[0].Name)
}

func TestGetProductUsesCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, _, products := catalogFixture()
	svc := NewCatalogService(store, rdb, time.Minute)

	first, err := svc.GetProduct(ctx, products[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Phones", first.CategoryName)
	assert.True(t, mr.Exists("product:"+products[0].ID.Hex()))
	assert.True(t, mr.Exists(categoriesCacheKey))
	reads := store.Reads

	second, err := svc.GetProduct(ctx, products[0].ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, first.Name, second.Name)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, reads, store.Reads, "second read served from cache")

	mr.FastForward(2 * time.Minute)
	_, err = svc.GetProduct(ctx, products[0].ID.Hex())
	require.NoError(t, err)
	assert.Greater(t, store.Reads, reads)
}

func TestGetProductNotFound(t *testing.T) {
	store, _, _ := catalogFixture()
	svc := NewCatalogService(store, nil, time.Minute)

	_, err := svc.GetProduct(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCatalogFallsBackWhenCacheIsDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	store, _, _ := catalogFixture()
	svc := NewCatalogService(store, rdb, time.Minute)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 1)
}

func TestPreWarmCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store, _, products := catalogFixture()
	svc := NewCatalogService(store, rdb, time.Minute)

	require.NoError(t, svc.PreWarmCache(context.Background()))
	for _, p := range products {
		assert.True(t, mr.Exists("product:"+p.ID.Hex()))
	}
}

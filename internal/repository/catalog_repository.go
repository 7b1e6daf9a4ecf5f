package repository

import (
	"context"
	"errors"

	"storefront-service/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	productCollection  = "products"
	categoryCollection = "categories"
)

type CatalogRepository struct {
	products   *mongo.Collection
	categories *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		products:   db.Collection(productCollection),
		categories: db.Collection(categoryCollection),
	}
}

func (r *CatalogRepository) ListProducts(ctx context.Context, filter entity.ProductFilter) ([]*entity.Product, error) {
	query, err := productQuery(filter)
	if err != nil {
		return []*entity.Product{}, nil
	}
	cur, err := r.products.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	products := []*entity.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *CatalogRepository) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var product entity.Product
	if err := r.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context) ([]*entity.Category, error) {
	cur, err := r.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	categories := []*entity.Category{}
	if err := cur.All(ctx, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// productQuery translates a filter into a Mongo query. An unparsable category
// id cannot match anything and is reported as an error.
func productQuery(filter entity.ProductFilter) (bson.M, error) {
	query := bson.M{}
	if filter.CategoryID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.CategoryID)
		if err != nil {
			return nil, err
		}
		query["category"] = oid
	}
	if filter.NewArrival {
		query["isNewArrival"] = true
	}
	if filter.BestSeller {
		query["isBestSeller"] = true
	}
	if filter.SpecialOffer {
		query["isSpecialOffer"] = true
	}
	return query, nil
}

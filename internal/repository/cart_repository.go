package repository

import (
	"context"
	"time"

	"storefront-service/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartCollection = "carts"

type CartRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{coll: db.Collection(cartCollection), now: time.Now}
}

// FindOrCreate returns the cart of userID. A user without a cart gets an
// empty one at version 0, which is stored so later conditional saves have a
// document to compare against.
func (r *CartRepository) FindOrCreate(ctx context.Context, userID string) (*entity.Cart, error) {
	now := r.now().UTC()
	update := bson.M{"$setOnInsert": bson.M{
		"items":     []entity.CartLine{},
		"version":   int64(0),
		"createdAt": now,
		"updatedAt": now,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var cart entity.Cart
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(&cart)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return &cart, nil
}

// Save replaces the full item list of userID's cart, creating the cart when
// absent. A positive version is a guard: the save only applies when the
// stored version is lower, and ErrConflict is returned otherwise. Version 0
// saves unconditionally and bumps the stored version by one.
func (r *CartRepository) Save(ctx context.Context, userID string, items []entity.CartLine, version int64) (*entity.Cart, error) {
	if items == nil {
		items = []entity.CartLine{}
	}
	now := r.now().UTC()
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	filter := bson.M{"userId": userID}
	update := bson.M{
		"$set":         bson.M{"items": items, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	if version > 0 {
		filter["version"] = bson.M{"$lt": version}
		update["$set"].(bson.M)["version"] = version
	} else {
		update["$inc"] = bson.M{"version": int64(1)}
	}

	var cart entity.Cart
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&cart)
	if err != nil {
		// With a version guard the upsert turns a stale save into an insert
		// that collides with the unique userId index.
		return nil, mapWriteError(err)
	}
	return &cart, nil
}

// Clear empties userID's cart. The cart document is created when missing.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	now := r.now().UTC()
	update := bson.M{
		"$set":         bson.M{"items": []entity.CartLine{}, "updatedAt": now},
		"$inc":         bson.M{"version": int64(1)},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, update, options.Update().SetUpsert(true))
	return err
}

// ClearIfUnchangedSince empties userID's cart only when it still holds items
// and was last written at or before since. It reports whether anything was
// cleared.
func (r *CartRepository) ClearIfUnchangedSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	filter := bson.M{
		"userId":    userID,
		"updatedAt": bson.M{"$lte": since.UTC()},
		"items.0":   bson.M{"$exists": true},
	}
	update := bson.M{
		"$set": bson.M{"items": []entity.CartLine{}, "updatedAt": r.now().UTC()},
		"$inc": bson.M{"version": int64(1)},
	}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

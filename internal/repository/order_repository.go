package repository

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/entity"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const orderCollection = "orders"

type OrderRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{coll: db.Collection(orderCollection), now: time.Now}
}

func (r *OrderRepository) Create(ctx context.Context, order *entity.Order) (*entity.Order, error) {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = r.now().UTC()
	}
	order.UpdatedAt = order.CreatedAt

	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return nil, mapWriteError(err)
	}
	return order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

// GetByIdempotencyKey returns the order userID created with key.
func (r *OrderRepository) GetByIdempotencyKey(ctx context.Context, userID, key string) (*entity.Order, error) {
	if key == "" {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"userId": userID, "idempotencyKey": key})
}

// List returns the orders of userID, or every order when userID is empty,
// newest first.
func (r *OrderRepository) List(ctx context.Context, userID string) ([]*entity.Order, error) {
	filter := bson.M{}
	if userID != "" {
		filter["userId"] = userID
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	orders := []*entity.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus moves order id from status from to status to. The write is
// conditional on the current status so two staff members cannot both act on
// the same pending order; ErrNotFound covers both a missing order and a lost
// race.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to entity.OrderStatus, reason string) (*entity.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	set := bson.M{"status": to, "updatedAt": r.now().UTC()}
	if reason != "" {
		set["rejectionReason"] = reason
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var order entity.Order
	err = r.coll.FindOneAndUpdate(ctx, bson.M{"_id": oid, "status": from}, bson.M{"$set": set}, opts).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByStatus removes every order currently in status and returns how
// many were removed.
func (r *OrderRepository) DeleteByStatus(ctx context.Context, status entity.OrderStatus) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"status": status})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *OrderRepository) findOne(ctx context.Context, filter bson.M) (*entity.Order, error) {
	var order entity.Order
	if err := r.coll.FindOne(ctx, filter).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

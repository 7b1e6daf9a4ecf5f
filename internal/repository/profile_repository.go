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

const profileCollection = "profiles"

// ProfileRepository lives in the identity database, separate from the
// commerce collections.
type ProfileRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewProfileRepository(db *mongo.Database) *ProfileRepository {
	return &ProfileRepository{coll: db.Collection(profileCollection), now: time.Now}
}

func (r *ProfileRepository) Create(ctx context.Context, profile *entity.Profile) (*entity.Profile, error) {
	now := r.now().UTC()
	profile.ID = primitive.NewObjectID()
	profile.CreatedAt = now
	profile.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, profile); err != nil {
		return nil, mapWriteError(err)
	}
	return profile, nil
}

func (r *ProfileRepository) GetBySubject(ctx context.Context, subject string) (*entity.Profile, error) {
	var profile entity.Profile
	if err := r.coll.FindOne(ctx, bson.M{"subject": subject}).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) CountByRole(ctx context.Context, role entity.Role) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{"role": role})
}

func (r *ProfileRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.Profile, error) {
	cur, err := r.coll.Find(ctx, bson.M{"role": role}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	profiles := []*entity.Profile{}
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// SetActive toggles the active flag of a staff profile. Other roles are
// reported as not found.
func (r *ProfileRepository) SetActive(ctx context.Context, subject string, active bool) (*entity.Profile, error) {
	filter := bson.M{"subject": subject, "role": entity.RoleStaff}
	update := bson.M{"$set": bson.M{"active": active, "updatedAt": r.now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var profile entity.Profile
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&profile); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

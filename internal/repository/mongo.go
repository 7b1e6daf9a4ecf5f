package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write loses against a unique index or a
	// version guard.
	ErrConflict = errors.New("conflicting write")
)

// ConnectMongo dials uri and pings it, retrying a few times while the
// database container comes up.
func ConnectMongo(ctx context.Context, uri string, retries int) (*mongo.Client, error) {
	var err error
	for i := 0; i < retries; i++ {
		var client *mongo.Client
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				logger.Info().Msgf("Connected to MongoDB %s", redactURI(uri))
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to MongoDB", i+1)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return nil, fmt.Errorf("failed to connect to MongoDB after %d retries: %w", retries, err)
}

// EnsureCommerceIndexes creates the indexes the commerce collections rely on.
func EnsureCommerceIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		cartCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		orderCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{
				Keys: bson.D{{Key: "userId", Value: 1}, {Key: "idempotencyKey", Value: 1}},
				Options: options.Index().
					SetUnique(true).
					SetName("user_idempotency_key").
					SetPartialFilterExpression(bson.M{"idempotencyKey": bson.M{"$type": "string"}}),
			},
		},
		categoryCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		productCollection: {
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", coll, err)
		}
	}
	return nil
}

// EnsureIdentityIndexes creates the profile indexes, including the partial
// unique index that admits a single admin.
func EnsureIdentityIndexes(ctx context.Context, db *mongo.Database) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "subject", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("single_admin").
				SetPartialFilterExpression(bson.M{"role": "admin"}),
		},
	}
	if _, err := db.Collection(profileCollection).Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create %s indexes: %w", profileCollection, err)
	}
	return nil
}

func redactURI(uri string) string {
	opts := options.Client().ApplyURI(uri)
	if len(opts.Hosts) == 0 {
		return "<unknown>"
	}
	return opts.Hosts[0]
}

func mapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

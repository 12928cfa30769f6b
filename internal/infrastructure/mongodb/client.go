package mongodb

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/oksasatya/go-rental-marketplace/internal/domain/repository"
)

const (
	usersCollection    = "users"
	servicesCollection = "services"
	otpsCollection     = "otps"
)

// Connect opens a client, verifies it with a ping and returns the database handle
func Connect(ctx context.Context, uri, dbName string, timeout time.Duration) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, err
	}
	pctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, err
	}
	return client, client.Database(dbName), nil
}

// EnsureIndexes creates the unique, geo and TTL indexes the repositories rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	users := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username")},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_email")},
		{Keys: bson.D{{Key: "username", Value: 1}, {Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uniq_username_email")},
		{Keys: bson.D{{Key: "geo", Value: "2dsphere"}}, Options: options.Index().SetName("geo_2dsphere")},
	}
	services := []mongo.IndexModel{
		{Keys: bson.D{{Key: "providerId", Value: 1}}, Options: options.Index().SetName("provider")},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "isActive", Value: 1}}, Options: options.Index().SetName("category_active")},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("created_desc")},
	}
	otps := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("email_latest")},
		{Keys: bson.D{{Key: "expires", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_ttl")},
	}
	for name, models := range map[string][]mongo.IndexModel{
		usersCollection:    users,
		servicesCollection: services,
		otpsCollection:     otps,
	} {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

// translate maps driver errors onto repository sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return repository.ErrDuplicate
	default:
		return err
	}
}

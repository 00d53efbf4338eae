package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	colProfiles    = "profiles"
	colRoles       = "roles"
	colCredentials = "credentials"
	colPets        = "pets"
	colRequests    = "adoption_requests"
)

// Connect abre el cliente, hace ping y devuelve la base configurada.
func Connect(ctx context.Context, uri, database string) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	opts := options.Client().ApplyURI(uri).SetServerSelectionTimeout(10 * time.Second)
	client, err := mongo.Connect(connectCtx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 10*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	return client, client.Database(database), nil
}

// EnsureIndexes crea los índices que usan las consultas de los repos.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		colCredentials: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_email").SetUnique(true)},
		},
		colPets: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_created_at")},
		},
		colRequests: {
			{Keys: bson.D{{Key: "adopter_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_adopter_created")},
			{Keys: bson.D{{Key: "shelter_id", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_shelter_created")},
			{Keys: bson.D{{Key: "pet_id", Value: 1}}, Options: options.Index().SetName("idx_pet")},
		},
	}

	for col, models := range indexes {
		if _, err := db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", col, err)
		}
	}
	return nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})

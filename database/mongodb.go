package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mealmart/mealmart-backend-go/config"
)

var DB *mongo.Database

func ConnectDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.C.Mongo.URI))
	if err != nil {
		return err
	}

	// Ping the database
	err = client.Ping(ctx, nil)
	if err != nil {
		return err
	}

	DB = client.Database(config.C.Mongo.DB)

	if err := ensureIndexes(ctx); err != nil {
		return err
	}

	log.Println("🗄️ Connected to MongoDB!")
	return nil
}

// ensureIndexes creates the uniqueness and lookup indexes the handlers rely on.
func ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		"coupons": {
			{Keys: bson.D{{Key: "code", Value: 1}}, Options: unique},
		},
		"categories": {
			{Keys: bson.D{{Key: "slug", Value: 1}}, Options: unique},
		},
		"reviews": {
			{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "storeId", Value: 1}}},
		},
		"orders": {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "placedAt", Value: -1}}},
			{Keys: bson.D{{Key: "storeId", Value: 1}}},
		},
		"products": {
			{Keys: bson.D{{Key: "storeId", Value: 1}}},
		},
		"carts": {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: unique},
		},
	}

	for coll, models := range indexes {
		if _, err := DB.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/postshare/backend/internal/observability"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DB holds the document store connection
type DB struct {
	Mongo    *mongo.Client
	Database *mongo.Database
}

// InitDB connects to MongoDB and selects the configured database
func InitDB(ctx context.Context, cfg *Config) (*DB, error) {
	client, err := initMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	return &DB{Mongo: client, Database: client.Database(cfg.MongoDatabase)}, nil
}

// initMongo initializes the MongoDB connection
func initMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	observability.Log.Info("connected to MongoDB")
	return client, nil
}

// CloseDB closes the database connection
func (db *DB) CloseDB() {
	if db == nil || db.Mongo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Mongo.Disconnect(ctx); err != nil {
		observability.Log.Error("error closing MongoDB connection", "error", err)
	} else {
		observability.Log.Info("MongoDB connection closed")
	}
}

package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"movietrack/internal/config"
)

// ConnectMongo opens a client and returns the configured database handle.
// Callers disconnect via db.Client().Disconnect.
func ConnectMongo(ctx context.Context, cfg *config.Config, log *zap.Logger) (*mongo.Database, error) {
	if cfg.MongoURL == "" {
		return nil, fmt.Errorf("MONGO_URL must be set when STORE_DRIVER=mongo")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	log.Info("connected to mongo", zap.String("db", cfg.MongoDatabase))
	return client.Database(cfg.MongoDatabase), nil
}

package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo dials the cluster and verifies it with a ping before handing
// out the database handle. The client is returned separately so shutdown can
// disconnect it.
func ConnectMongo(ctx context.Context, uri, dbName string, dialTimeout time.Duration, logger *zap.Logger) (*mongo.Database, *mongo.Client, error) {
	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	logger.Info("mongo connected", zap.String("database", dbName))
	return client.Database(dbName), client, nil
}

package clients

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

const MONGO_CONNECT_TIMEOUT = 10 * time.Second

func NewMongoClient(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(uri).
		SetAppName("tweetflow").
		SetConnectTimeout(MONGO_CONNECT_TIMEOUT))
	if err != nil {
		return nil, fmt.Errorf("[MongoClient] Failed to create client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, MONGO_CONNECT_TIMEOUT)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("[MongoClient] Failed to ping MongoDB: %w", err)
	}

	slog.Info("[MongoClient] Successfully connected to MongoDB")
	return client, nil
}

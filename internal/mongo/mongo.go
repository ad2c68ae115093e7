package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	LatestQuotesCollection = "quotes_latest"
	DailyQuotesCollection  = "quotes_daily"
	SyncRunsCollection     = "sync_runs"
	DailyBarsCollection    = "daily_bars"
	OverviewsCollection    = "company_overviews"
)

// ConnectDB connects and pings. The caller owns Disconnect.
func ConnectDB(ctx context.Context, mongoURL string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// getting database collections
func GetCollection(client *mongo.Client, dbName string, collectionName string) *mongo.Collection {
	collection := client.Database(dbName).Collection(collectionName)
	return collection
}

// EnsureIndexes creates every index the stores rely on. It is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database, runRetention time.Duration) error {
	indexes := map[string][]mongo.IndexModel{
		LatestQuotesCollection: {
			{Keys: bson.D{{Key: "fetchedAt", Value: -1}}},
		},
		DailyQuotesCollection: {
			{
				Keys:    bson.D{{Key: "symbol", Value: 1}, {Key: "asOf", Value: -1}},
				Options: options.Index().SetUnique(true),
			},
		},
		SyncRunsCollection: {
			{
				Keys:    bson.D{{Key: "createdAt", Value: -1}},
				Options: options.Index().SetExpireAfterSeconds(int32(runRetention.Seconds())),
			},
			{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		DailyBarsCollection: {
			{
				Keys:    bson.D{{Key: "symbol", Value: 1}, {Key: "tradingDay", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		OverviewsCollection: {
			{Keys: bson.D{{Key: "updatedAt", Value: 1}}},
		},
	}

	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

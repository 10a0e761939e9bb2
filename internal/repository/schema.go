package repository

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// EnsureIndexes creates idempotent indexes on all collections, including
// the uniqueness constraint realizing spec §8 invariant 3: "A Message is
// uniquely keyed by (chat_room_id, external_message_id); double ingest
// yields exactly one row."
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	type idx struct {
		collection string
		model      mongo.IndexModel
	}

	indexes := []idx{
		{
			collection: "chat_rooms",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "external_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: "messages",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "chat_room_id", Value: 1}, {Key: "external_message_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: "signals",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "message_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: "signal_replies",
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "original_signal_id", Value: 1}},
			},
		},
		{
			collection: "copy_setups",
			model: mongo.IndexModel{
				Keys:    bson.D{{Key: "token", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		{
			collection: "trade_candidates",
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "copy_setup_id", Value: 1}, {Key: "state", Value: 1}},
			},
		},
		{
			collection: "trade_candidates",
			model: mongo.IndexModel{
				Keys: bson.D{{Key: "signal_id", Value: 1}},
			},
		},
	}

	for _, i := range indexes {
		_, err := db.Collection(i.collection).Indexes().CreateOne(ctx, i.model)
		if err != nil {
			return fmt.Errorf("repository: create index on %s: %w", i.collection, err)
		}
	}

	slog.Default().Info("mongodb indexes ensured")
	return nil
}

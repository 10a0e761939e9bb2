package queuestore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Store is the single process-scoped queue-store singleton (spec §9
// "Global state": "the queue-store client... three process-scoped
// singletons with explicit init/teardown"), owning one multiplexed
// connection (spec §5 "Shared-resource policy").
type Store struct {
	client *redis.Client
	keys   keyspace
	log    *slog.Logger
}

// Config parameterizes the Redis connection and key namespace.
type Config struct {
	Addr     string
	Password string
	DB       int
	Namespace string // ns: prefix, omit if empty
}

// New connects to Redis and returns a Store.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("queuestore: ping redis: %w", err)
	}
	logger.Info("connected to redis", "addr", cfg.Addr, "namespace", cfg.Namespace)
	return &Store{client: client, keys: newKeyspace(cfg.Namespace), log: logger}, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

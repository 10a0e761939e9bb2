// Package repository is the transactional persistence layer: ChatRooms,
// Messages, Signals, SignalReplies, CopySetups, and TradeCandidates
// backed by MongoDB (spec §3, §4.2 Transactionality).
package repository

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store wraps the MongoDB client and database, and is the single
// process-scoped repository singleton (spec §9 "Global state").
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	log    *slog.Logger
}

// NewStore connects to MongoDB and returns a Store. If the URI omits a
// database name, "tradesignal" is used.
func NewStore(ctx context.Context, uri string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	clientOpts := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("repository: connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("repository: ping mongodb: %w", err)
	}

	dbName := "tradesignal"
	if u, err := url.Parse(uri); err == nil {
		if name := strings.TrimPrefix(u.Path, "/"); name != "" {
			dbName = name
		}
	}

	logger.Info("connected to mongodb", "db", dbName)
	return &Store{client: client, db: client.Database(dbName), log: logger}, nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) {
	s.client.Disconnect(ctx)
}

// DB returns the underlying mongo.Database.
func (s *Store) DB() *mongo.Database {
	return s.db
}

// Client returns the underlying mongo.Client (needed to start sessions
// for multi-document transactions, spec §4.2 Transactionality).
func (s *Store) Client() *mongo.Client {
	return s.client
}

// Migrate creates indexes for all collections (spec §6 "CREATE_TABLES_ON_STARTUP").
func (s *Store) Migrate(ctx context.Context) error {
	return EnsureIndexes(ctx, s.db)
}

// WithTransaction runs fn inside a single multi-document ACID
// transaction (spec §4.2: "All persistence for one event happens in a
// single repository transaction").
func (s *Store) WithTransaction(ctx context.Context, fn func(sessCtx context.Context) (any, error)) (any, error) {
	sess, err := s.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("repository: start session: %w", err)
	}
	defer sess.EndSession(ctx)

	return sess.WithTransaction(ctx, func(sessCtx context.Context) (any, error) {
		return fn(sessCtx)
	})
}

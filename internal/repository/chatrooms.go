package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

type chatRoomDoc struct {
	ID             int64               `bson:"_id"`
	ExternalID     string              `bson:"external_id"`
	Kind           string              `bson:"kind"`
	Title          string              `bson:"title"`
	Handle         string              `bson:"handle"`
	AllowedSymbols map[string][]string `bson:"allowed_symbols"`
}

func chatRoomToDoc(c *domain.ChatRoom) chatRoomDoc {
	return chatRoomDoc{
		ID:             c.ID,
		ExternalID:     c.ExternalID,
		Kind:           string(c.Kind),
		Title:          c.Title,
		Handle:         c.Handle,
		AllowedSymbols: c.AllowedSymbols,
	}
}

func (d chatRoomDoc) toDomain() *domain.ChatRoom {
	return &domain.ChatRoom{
		ID:             d.ID,
		ExternalID:     d.ExternalID,
		Kind:           domain.ChatKind(d.Kind),
		Title:          d.Title,
		Handle:         d.Handle,
		AllowedSymbols: d.AllowedSymbols,
	}
}

// UpsertChatRoom inserts a ChatRoom on first sighting, keyed by
// external_id (spec §4.2 Preconditions: "chat is known (upserted on
// first sighting with IntegrityError fallback to re-fetch)").
func (s *Store) UpsertChatRoom(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, error) {
	coll := s.db.Collection("chat_rooms")

	existing, err := s.ChatRoomByExternalID(ctx, room.ExternalID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if room.ID == 0 {
		room.ID = nextSeq(ctx, s.db, "chat_rooms")
	}
	if _, err := coll.InsertOne(ctx, chatRoomToDoc(room)); err != nil {
		// Race with a concurrent first-sighting: re-fetch rather than fail.
		if mongo.IsDuplicateKeyError(err) {
			return s.ChatRoomByExternalID(ctx, room.ExternalID)
		}
		return nil, fmt.Errorf("repository: upsert chat room: %w", err)
	}
	return room, nil
}

// ChatRoomByExternalID fetches a ChatRoom by its chat-source external id.
func (s *Store) ChatRoomByExternalID(ctx context.Context, externalID string) (*domain.ChatRoom, error) {
	var doc chatRoomDoc
	err := s.db.Collection("chat_rooms").FindOne(ctx, bson.M{"external_id": externalID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: chat room %s", domain.ErrNotFound, externalID)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find chat room: %w", err)
	}
	return doc.toDomain(), nil
}

// ChatRoomByID fetches a ChatRoom by its internal id.
func (s *Store) ChatRoomByID(ctx context.Context, id int64) (*domain.ChatRoom, error) {
	var doc chatRoomDoc
	err := s.db.Collection("chat_rooms").FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: chat room %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find chat room: %w", err)
	}
	return doc.toDomain(), nil
}

// CopySetupsForChatRoom returns the active CopySetups attached to a
// ChatRoom (spec §4.2 Preconditions: "chat has >=1 active CopySetup").
func (s *Store) CopySetupsForChatRoom(ctx context.Context, chatRoomID int64) ([]*domain.CopySetup, error) {
	cursor, err := s.db.Collection("copy_setups").Find(ctx, bson.M{
		"chat_room_ids": chatRoomID,
		"active":        true,
	}, options.Find())
	if err != nil {
		return nil, fmt.Errorf("repository: query copy setups for chat room: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []copySetupDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repository: decode copy setups: %w", err)
	}

	out := make([]*domain.CopySetup, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

// nextSeq allocates a monotonically increasing id for a collection via a
// findAndModify counter document, avoiding a dependency on Mongo's
// ObjectID for entities the rest of the system addresses by int64.
func nextSeq(ctx context.Context, db *mongo.Database, name string) int64 {
	var result struct {
		Seq int64 `bson:"seq"`
	}
	err := db.Collection("counters").FindOneAndUpdate(
		ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&result)
	if err != nil {
		return 0
	}
	return result.Seq
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

type messageDoc struct {
	ID                int64      `bson:"_id"`
	ChatRoomID        int64      `bson:"chat_room_id"`
	ExternalMessageID string     `bson:"external_message_id"`
	Text              string     `bson:"text"`
	PostTime          time.Time  `bson:"post_time"`
	SignalID          *int64     `bson:"signal_id,omitempty"`
	SignalReplyID     *int64     `bson:"signal_reply_id,omitempty"`
}

func messageToDoc(m *domain.Message) messageDoc {
	return messageDoc{
		ID:                m.ID,
		ChatRoomID:        m.ChatRoomID,
		ExternalMessageID: m.ExternalMessageID,
		Text:              m.Text,
		PostTime:          m.PostTime,
		SignalID:          m.SignalID,
		SignalReplyID:     m.SignalReplyID,
	}
}

func (d messageDoc) toDomain() *domain.Message {
	return &domain.Message{
		ID:                d.ID,
		ChatRoomID:        d.ChatRoomID,
		ExternalMessageID: d.ExternalMessageID,
		Text:              d.Text,
		PostTime:          d.PostTime,
		SignalID:          d.SignalID,
		SignalReplyID:     d.SignalReplyID,
	}
}

// UpsertMessage inserts a Message or, on a duplicate
// (chat_room_id, external_message_id), updates its text and returns the
// existing row (spec §4.2: "upsert Message", invariant 3: unique-keyed,
// last-writer-wins on text for concurrent edits).
func (s *Store) UpsertMessage(sessCtx context.Context, m *domain.Message) (*domain.Message, error) {
	coll := s.db.Collection("messages")

	if m.ID == 0 {
		m.ID = nextSeq(sessCtx, s.db, "messages")
	}

	filter := bson.M{"chat_room_id": m.ChatRoomID, "external_message_id": m.ExternalMessageID}
	update := bson.M{
		"$set":         bson.M{"text": m.Text, "post_time": m.PostTime},
		"$setOnInsert": bson.M{"_id": m.ID, "chat_room_id": m.ChatRoomID, "external_message_id": m.ExternalMessageID},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc messageDoc
	if err := coll.FindOneAndUpdate(sessCtx, filter, update, opts).Decode(&doc); err != nil {
		return nil, fmt.Errorf("repository: upsert message: %w", err)
	}
	return doc.toDomain(), nil
}

// MessageByExternalID fetches a Message by (chat_room_id, external_message_id).
func (s *Store) MessageByExternalID(ctx context.Context, chatRoomID int64, externalMessageID string) (*domain.Message, error) {
	var doc messageDoc
	err := s.db.Collection("messages").FindOne(ctx, bson.M{
		"chat_room_id":        chatRoomID,
		"external_message_id": externalMessageID,
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: message %d/%s", domain.ErrNotFound, chatRoomID, externalMessageID)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find message: %w", err)
	}
	return doc.toDomain(), nil
}

// LinkMessageToSignal sets a Message's signal_id (spec §4.2.S "link
// Message -> Signal").
func (s *Store) LinkMessageToSignal(sessCtx context.Context, messageID, signalID int64) error {
	_, err := s.db.Collection("messages").UpdateByID(sessCtx, messageID, bson.M{
		"$set": bson.M{"signal_id": signalID},
	})
	if err != nil {
		return fmt.Errorf("repository: link message to signal: %w", err)
	}
	return nil
}

// LinkMessageToSignalReply sets a Message's signal_reply_id (spec
// §4.2.R / deletion path "link reply to Message").
func (s *Store) LinkMessageToSignalReply(sessCtx context.Context, messageID, replyID int64) error {
	_, err := s.db.Collection("messages").UpdateByID(sessCtx, messageID, bson.M{
		"$set": bson.M{"signal_reply_id": replyID},
	})
	if err != nil {
		return fmt.Errorf("repository: link message to signal reply: %w", err)
	}
	return nil
}

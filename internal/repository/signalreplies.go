package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

type signalReplyDoc struct {
	ID               int64   `bson:"_id"`
	MessageID        int64   `bson:"message_id"`
	Action           string  `bson:"action"`
	GeneratedBy      string  `bson:"generated_by"`
	InfoMessage      string  `bson:"info_message"`
	OriginalSignalID int64   `bson:"original_signal_id"`
	NewSL            *string `bson:"new_sl,omitempty"`
}

func signalReplyToDoc(r *domain.SignalReply) signalReplyDoc {
	d := signalReplyDoc{
		ID:               r.ID,
		MessageID:        r.MessageID,
		Action:           string(r.Action),
		GeneratedBy:      string(r.GeneratedBy),
		InfoMessage:      r.InfoMessage,
		OriginalSignalID: r.OriginalSignalID,
	}
	if r.NewSL != nil {
		s := r.NewSL.String()
		d.NewSL = &s
	}
	return d
}

func (d signalReplyDoc) toDomain() (*domain.SignalReply, error) {
	r := &domain.SignalReply{
		ID:               d.ID,
		MessageID:        d.MessageID,
		Action:           domain.ReplyAction(d.Action),
		GeneratedBy:      domain.GeneratedBy(d.GeneratedBy),
		InfoMessage:      d.InfoMessage,
		OriginalSignalID: d.OriginalSignalID,
	}
	if d.NewSL != nil {
		sl, err := decimal.NewFromString(*d.NewSL)
		if err != nil {
			return nil, fmt.Errorf("repository: decode signal reply new_sl: %w", err)
		}
		r.NewSL = &sl
	}
	return r, nil
}

// CreateSignalReply persists a new SignalReply within an open
// transaction (spec §4.2.R / deletion path "persist SignalReply").
func (s *Store) CreateSignalReply(sessCtx context.Context, reply *domain.SignalReply) error {
	if reply.ID == 0 {
		reply.ID = nextSeq(sessCtx, s.db, "signal_replies")
	}
	if _, err := s.db.Collection("signal_replies").InsertOne(sessCtx, signalReplyToDoc(reply)); err != nil {
		return fmt.Errorf("repository: create signal reply: %w", err)
	}
	return nil
}

// SignalReplyByID fetches a SignalReply by id.
func (s *Store) SignalReplyByID(ctx context.Context, id int64) (*domain.SignalReply, error) {
	var doc signalReplyDoc
	err := s.db.Collection("signal_replies").FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: signal reply %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find signal reply: %w", err)
	}
	return doc.toDomain()
}

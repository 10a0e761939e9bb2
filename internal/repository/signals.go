package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

type signalDoc struct {
	ID        int64     `bson:"_id"`
	MessageID int64     `bson:"message_id"`
	Symbol    string    `bson:"symbol"`
	Side      string    `bson:"side"`
	Entries   []string  `bson:"entries"`
	TPs       []string  `bson:"tps"`
	SL        string    `bson:"sl"`
	PostTime  time.Time `bson:"post_time"`
}

func signalToDoc(s *domain.Signal) signalDoc {
	return signalDoc{
		ID:        s.ID,
		MessageID: s.MessageID,
		Symbol:    s.Symbol,
		Side:      string(s.Side),
		Entries:   decimalsToStrings(s.Entries),
		TPs:       decimalsToStrings(s.TPs),
		SL:        s.SL.String(),
		PostTime:  s.PostTime,
	}
}

func (d signalDoc) toDomain() (*domain.Signal, error) {
	entries, err := stringsToDecimals(d.Entries)
	if err != nil {
		return nil, fmt.Errorf("repository: decode signal entries: %w", err)
	}
	tps, err := stringsToDecimals(d.TPs)
	if err != nil {
		return nil, fmt.Errorf("repository: decode signal tps: %w", err)
	}
	sl, err := decimal.NewFromString(d.SL)
	if err != nil {
		return nil, fmt.Errorf("repository: decode signal sl: %w", err)
	}
	return &domain.Signal{
		ID:        d.ID,
		MessageID: d.MessageID,
		Symbol:    d.Symbol,
		Side:      domain.Side(d.Side),
		Entries:   entries,
		TPs:       tps,
		SL:        sl,
		PostTime:  d.PostTime,
	}, nil
}

// CreateSignal persists a new Signal within an open transaction (spec
// §4.2.S "persist Signal").
func (s *Store) CreateSignal(sessCtx context.Context, sig *domain.Signal) error {
	if sig.ID == 0 {
		sig.ID = nextSeq(sessCtx, s.db, "signals")
	}
	if _, err := s.db.Collection("signals").InsertOne(sessCtx, signalToDoc(sig)); err != nil {
		return fmt.Errorf("repository: create signal: %w", err)
	}
	return nil
}

// ReplaceSignal overwrites an existing Signal row in place, preserving
// its identity (spec §4.2 edited/SIGNAL_LINKED: "update in place
// (overwrite existing Signal row, preserve identity)").
func (s *Store) ReplaceSignal(sessCtx context.Context, sig *domain.Signal) error {
	_, err := s.db.Collection("signals").ReplaceOne(sessCtx, bson.M{"_id": sig.ID}, signalToDoc(sig))
	if err != nil {
		return fmt.Errorf("repository: replace signal: %w", err)
	}
	return nil
}

// SignalByID fetches a Signal by id.
func (s *Store) SignalByID(ctx context.Context, id int64) (*domain.Signal, error) {
	var doc signalDoc
	err := s.db.Collection("signals").FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: signal %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find signal: %w", err)
	}
	return doc.toDomain()
}

// SignalByMessageID fetches the Signal linked to a Message, if any.
func (s *Store) SignalByMessageID(ctx context.Context, messageID int64) (*domain.Signal, error) {
	var doc signalDoc
	err := s.db.Collection("signals").FindOne(ctx, bson.M{"message_id": messageID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: signal for message %d", domain.ErrNotFound, messageID)
	}
	if err != nil {
		return nil, fmt.Errorf("repository: find signal by message: %w", err)
	}
	return doc.toDomain()
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

type tradeCandidateDoc struct {
	ID             int64     `bson:"_id"`
	SignalID       int64     `bson:"signal_id"`
	CopySetupID    int64     `bson:"copy_setup_id"`
	Side           string    `bson:"side"`
	Symbol         string    `bson:"symbol"`
	EntryPrice     string    `bson:"entry_price"`
	TPPrice        string    `bson:"tp_price"`
	SLPrice        string    `bson:"sl_price"`
	EntriesIdx     int       `bson:"entries_idx"`
	TPsIdx         int       `bson:"tps_idx"`
	State          string    `bson:"state"`
	SignalPostTime time.Time `bson:"signal_post_time"`
}

func tradeCandidateToDoc(c *domain.TradeCandidate) tradeCandidateDoc {
	return tradeCandidateDoc{
		ID:             c.ID,
		SignalID:       c.SignalID,
		CopySetupID:    c.CopySetupID,
		Side:           string(c.Side),
		Symbol:         c.Symbol,
		EntryPrice:     c.EntryPrice.String(),
		TPPrice:        c.TPPrice.String(),
		SLPrice:        c.SLPrice.String(),
		EntriesIdx:     c.EntriesIdx,
		TPsIdx:         c.TPsIdx,
		State:          string(c.State),
		SignalPostTime: c.SignalPostTime,
	}
}

func (d tradeCandidateDoc) toDomain() (*domain.TradeCandidate, error) {
	entry, err := decimal.NewFromString(d.EntryPrice)
	if err != nil {
		return nil, fmt.Errorf("repository: decode trade candidate entry price: %w", err)
	}
	tp, err := decimal.NewFromString(d.TPPrice)
	if err != nil {
		return nil, fmt.Errorf("repository: decode trade candidate tp price: %w", err)
	}
	sl, err := decimal.NewFromString(d.SLPrice)
	if err != nil {
		return nil, fmt.Errorf("repository: decode trade candidate sl price: %w", err)
	}
	return &domain.TradeCandidate{
		ID:             d.ID,
		SignalID:       d.SignalID,
		CopySetupID:    d.CopySetupID,
		Side:           domain.Side(d.Side),
		Symbol:         d.Symbol,
		EntryPrice:     entry,
		TPPrice:        tp,
		SLPrice:        sl,
		EntriesIdx:     d.EntriesIdx,
		TPsIdx:         d.TPsIdx,
		State:          domain.TradeCandidateState(d.State),
		SignalPostTime: d.SignalPostTime,
	}, nil
}

// CreateTradeCandidates persists a batch of TradeCandidates. Per-
// candidate failures do not abort peers (spec §4.3 step 3a: "Per-
// candidate persistence failures do NOT abort peers"), so each document
// is inserted independently rather than via one bulk call that could
// fail atomically.
func (s *Store) CreateTradeCandidates(ctx context.Context, candidates []*domain.TradeCandidate) (created int, errs []error) {
	coll := s.db.Collection("trade_candidates")
	for _, c := range candidates {
		if c.ID == 0 {
			c.ID = nextSeq(ctx, s.db, "trade_candidates")
		}
		if _, err := coll.InsertOne(ctx, tradeCandidateToDoc(c)); err != nil {
			errs = append(errs, fmt.Errorf("repository: create trade candidate: %w", err))
			continue
		}
		created++
	}
	return created, errs
}

// TradeCandidatesByState returns candidates in the given state older
// than `before`, used by archival (internal/repository/archive.go).
func (s *Store) TradeCandidatesByState(ctx context.Context, state domain.TradeCandidateState, before time.Time, limit int) ([]*domain.TradeCandidate, error) {
	cursor, err := s.db.Collection("trade_candidates").Find(ctx, bson.M{
		"state":            string(state),
		"signal_post_time": bson.M{"$lt": before},
	}, options.Find().SetLimit(int64(limit)))
	if err != nil {
		return nil, fmt.Errorf("repository: query trade candidates: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []tradeCandidateDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("repository: decode trade candidates: %w", err)
	}

	out := make([]*domain.TradeCandidate, 0, len(docs))
	for _, d := range docs {
		c, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// DeleteTradeCandidates removes trade candidates by id, used after
// archival (internal/repository/archive.go).
func (s *Store) DeleteTradeCandidates(ctx context.Context, ids []int64) error {
	_, err := s.db.Collection("trade_candidates").DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("repository: delete trade candidates: %w", err)
	}
	return nil
}

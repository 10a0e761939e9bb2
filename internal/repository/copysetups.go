package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

type copySetupConfigDoc struct {
	ID                                 int64               `bson:"id"`
	MaxEntries                         int                 `bson:"max_entries"`
	MaxTPs                             int                 `bson:"max_tps"`
	IgnoreInvalidPrices                bool                `bson:"ignore_invalid_prices"`
	LotMode                            string              `bson:"lot_mode"`
	CloseTradesBeforeEverydaySwap      bool                `bson:"close_trades_before_everyday_swap"`
	CloseTradesBeforeWednesdaySwap     bool                `bson:"close_trades_before_wednesday_swap"`
	CloseTradesBeforeWeekend           bool                `bson:"close_trades_before_weekend"`
	TrailingStopOnTPs                  bool                `bson:"trailing_stop_on_tps"`
	FixedLot                           *float64            `bson:"fixed_lot,omitempty"`
	BreakevenOnTPLayer                 *int                `bson:"breakeven_on_tp_layer,omitempty"`
	TradeProfitPercentFromBalanceForBE *float64            `bson:"tradeprofit_percent_from_balance_for_be,omitempty"`
	ExpireMinutesPendingTrade          *int                `bson:"expire_minutes_pending_trade,omitempty"`
	ExpireMinutesActiveTrade           *int                `bson:"expire_minutes_active_trade,omitempty"`
	ExpireAtTPHitBeforeEntry           *int                `bson:"expire_at_tp_hit_before_entry,omitempty"`
	SymbolSynonymOverrides             map[string][]string `bson:"symbol_synonym_overrides,omitempty"`
}

func copySetupConfigToDoc(c domain.CopySetupConfig) copySetupConfigDoc {
	return copySetupConfigDoc{
		ID:                                 c.ID,
		MaxEntries:                         c.MaxEntries,
		MaxTPs:                             c.MaxTPs,
		IgnoreInvalidPrices:                c.IgnoreInvalidPrices,
		LotMode:                            c.LotMode,
		CloseTradesBeforeEverydaySwap:      c.CloseTradesBeforeEverydaySwap,
		CloseTradesBeforeWednesdaySwap:     c.CloseTradesBeforeWednesdaySwap,
		CloseTradesBeforeWeekend:           c.CloseTradesBeforeWeekend,
		TrailingStopOnTPs:                  c.TrailingStopOnTPs,
		FixedLot:                           c.FixedLot,
		BreakevenOnTPLayer:                 c.BreakevenOnTPLayer,
		TradeProfitPercentFromBalanceForBE: c.TradeProfitPercentFromBalanceForBE,
		ExpireMinutesPendingTrade:          c.ExpireMinutesPendingTrade,
		ExpireMinutesActiveTrade:           c.ExpireMinutesActiveTrade,
		ExpireAtTPHitBeforeEntry:           c.ExpireAtTPHitBeforeEntry,
		SymbolSynonymOverrides:             c.SymbolSynonymOverrides,
	}
}

func (d copySetupConfigDoc) toDomain() domain.CopySetupConfig {
	return domain.CopySetupConfig{
		ID:                                 d.ID,
		MaxEntries:                         d.MaxEntries,
		MaxTPs:                             d.MaxTPs,
		IgnoreInvalidPrices:                d.IgnoreInvalidPrices,
		LotMode:                            d.LotMode,
		CloseTradesBeforeEverydaySwap:      d.CloseTradesBeforeEverydaySwap,
		CloseTradesBeforeWednesdaySwap:     d.CloseTradesBeforeWednesdaySwap,
		CloseTradesBeforeWeekend:           d.CloseTradesBeforeWeekend,
		TrailingStopOnTPs:                  d.TrailingStopOnTPs,
		FixedLot:                           d.FixedLot,
		BreakevenOnTPLayer:                 d.BreakevenOnTPLayer,
		TradeProfitPercentFromBalanceForBE: d.TradeProfitPercentFromBalanceForBE,
		ExpireMinutesPendingTrade:          d.ExpireMinutesPendingTrade,
		ExpireMinutesActiveTrade:           d.ExpireMinutesActiveTrade,
		ExpireAtTPHitBeforeEntry:           d.ExpireAtTPHitBeforeEntry,
		SymbolSynonymOverrides:             d.SymbolSynonymOverrides,
	}
}

type copySetupDoc struct {
	ID          int64               `bson:"_id"`
	Token       string              `bson:"token"`
	Active      bool                `bson:"active"`
	ChatRoomIDs []int64             `bson:"chat_room_ids"`
	Config      copySetupConfigDoc  `bson:"config"`
}

func (d copySetupDoc) toDomain() *domain.CopySetup {
	return &domain.CopySetup{
		ID:          d.ID,
		Token:       d.Token,
		Active:      d.Active,
		ConfigID:    d.Config.ID,
		ChatRoomIDs: d.ChatRoomIDs,
	}
}

// CopySetupByToken resolves a CopySetup by its opaque client-facing token
// (spec §4.5 "resolve the CopySetup by token (401 if unknown)").
func (s *Store) CopySetupByToken(ctx context.Context, token string) (*domain.CopySetup, domain.CopySetupConfig, error) {
	var doc copySetupDoc
	err := s.db.Collection("copy_setups").FindOne(ctx, bson.M{"token": token}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.CopySetupConfig{}, fmt.Errorf("%w: copy setup token", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, domain.CopySetupConfig{}, fmt.Errorf("repository: find copy setup: %w", err)
	}
	return doc.toDomain(), doc.Config.toDomain(), nil
}

// AttachChatRoom adds a ChatRoom to a CopySetup's membership set
// (SPEC_FULL §C.1), making the spec.md §3 "CopySetup references a set of
// ChatRooms" association mutable rather than fixed at creation.
// Idempotent: attaching an already-member room is a no-op.
func (s *Store) AttachChatRoom(ctx context.Context, copySetupID, chatRoomID int64) error {
	_, err := s.db.Collection("copy_setups").UpdateOne(ctx,
		bson.M{"_id": copySetupID},
		bson.M{"$addToSet": bson.M{"chat_room_ids": chatRoomID}},
	)
	if err != nil {
		return fmt.Errorf("repository: attach chat room: %w", err)
	}
	return nil
}

// DetachChatRoom removes a ChatRoom from a CopySetup's membership set
// (SPEC_FULL §C.1). Idempotent: detaching a non-member room is a no-op.
func (s *Store) DetachChatRoom(ctx context.Context, copySetupID, chatRoomID int64) error {
	_, err := s.db.Collection("copy_setups").UpdateOne(ctx,
		bson.M{"_id": copySetupID},
		bson.M{"$pull": bson.M{"chat_room_ids": chatRoomID}},
	)
	if err != nil {
		return fmt.Errorf("repository: detach chat room: %w", err)
	}
	return nil
}

// CopySetupWithConfig loads a CopySetup and its CopySetupConfig by id
// (spec §4.3 step 1: "Eager-load Signal -> Message -> ChatRoom ->
// CopySetups -> CopySetupConfig").
func (s *Store) CopySetupWithConfig(ctx context.Context, id int64) (*domain.CopySetup, domain.CopySetupConfig, error) {
	var doc copySetupDoc
	err := s.db.Collection("copy_setups").FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.CopySetupConfig{}, fmt.Errorf("%w: copy setup %d", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, domain.CopySetupConfig{}, fmt.Errorf("repository: find copy setup: %w", err)
	}
	return doc.toDomain(), doc.Config.toDomain(), nil
}

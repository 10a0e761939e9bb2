package distribution

import (
	"context"
	"log/slog"

	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/extract"
	"github.com/ndrandal/tradesignal-core/internal/queuestore"
	"github.com/ndrandal/tradesignal-core/internal/repository"
)

// Notifier receives a best-effort notification after a fan-out
// completes, for the ops event stream (SPEC_FULL §B). Optional: a nil
// Notifier disables notification entirely.
type Notifier interface {
	Notify(kind string, detail any)
}

// Engine expands Signals and SignalReplies into per-session pending
// items. A CopySetup's failure never blocks others (spec §4.3 step 4).
type Engine struct {
	Repo     *repository.Store
	Queue    *queuestore.Store
	Log      *slog.Logger
	Notifier Notifier
}

// NewEngine builds a distribution Engine.
func NewEngine(repo *repository.Store, queue *queuestore.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{Repo: repo, Queue: queue, Log: logger}
}

func (e *Engine) notify(kind string, detail any) {
	if e.Notifier == nil {
		return
	}
	e.Notifier.Notify(kind, detail)
}

// DistributeSignal runs the signal fan-out algorithm (spec §4.3).
func (e *Engine) DistributeSignal(ctx context.Context, signal *domain.Signal, chatRoomID int64) {
	copySetups, err := e.Repo.CopySetupsForChatRoom(ctx, chatRoomID)
	if err != nil {
		e.Log.Error("distribution: load copy setups", "chat_room_id", chatRoomID, "error", err)
		return
	}
	if len(copySetups) == 0 {
		return
	}

	for _, cs := range copySetups {
		e.distributeSignalToCopySetup(ctx, signal, cs)
	}
	e.notify("signal_distributed", map[string]any{"signal_id": signal.ID, "chat_room_id": chatRoomID})
}

func (e *Engine) distributeSignalToCopySetup(ctx context.Context, signal *domain.Signal, cs *domain.CopySetup) {
	_, cfg, err := e.Repo.CopySetupWithConfig(ctx, cs.ID)
	if err != nil {
		e.Log.Error("distribution: load copy setup config", "copy_setup_id", cs.ID, "error", err)
		return
	}

	candidates, err := generateTrades(signal, cs.ID, cfg)
	if err != nil {
		e.Log.Error("distribution: generate trades", "copy_setup_id", cs.ID, "signal_id", signal.ID, "error", err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	created, createErrs := e.Repo.CreateTradeCandidates(ctx, candidates)
	for _, cerr := range createErrs {
		e.Log.Error("distribution: persist trade candidate", "copy_setup_id", cs.ID, "error", cerr)
	}
	if created == 0 {
		return
	}

	sessions, err := e.Queue.SessionsByCopySetup(ctx, cs.ID, 0)
	if err != nil {
		e.Log.Error("distribution: load sessions", "copy_setup_id", cs.ID, "error", err)
		return
	}
	if len(sessions) == 0 {
		return
	}

	schemes := make([]queuestore.TradeScheme, len(candidates))
	for i, c := range candidates {
		schemes[i] = toTradeScheme(c)
	}

	for _, sess := range sessions {
		ttl := domain.DefaultSessionTTL
		if err := e.Queue.AddPendingTrades(ctx, sess.ClientInstanceID, schemes, ttl); err != nil {
			e.Log.Error("distribution: enqueue pending trades", "copy_setup_id", cs.ID, "client_instance_id", sess.ClientInstanceID, "error", err)
		}
	}
}

// generateTrades re-applies price filtering under the CopySetup's caps
// and emits one TradeCandidate per surviving (entry, tp) pair, ordered
// (entry_index ascending, then tp_index ascending) per spec §4.3
// "Ordering guarantees". Returns an error when filtering would discard
// all prices and ignore_invalid_prices is false.
func generateTrades(signal *domain.Signal, copySetupID int64, cfg domain.CopySetupConfig) ([]*domain.TradeCandidate, error) {
	filtered := extract.FilterPrices(signal.Side, signal.Entries, signal.TPs, signal.SL, cfg.MaxEntries, cfg.MaxTPs)
	if !filtered.OK {
		if cfg.IgnoreInvalidPrices {
			return nil, nil
		}
		return nil, domain.ErrValidation
	}

	candidates := make([]*domain.TradeCandidate, 0, len(filtered.Entries)*len(filtered.TPs))
	for i, entry := range filtered.Entries {
		for j, tp := range filtered.TPs {
			candidates = append(candidates, &domain.TradeCandidate{
				SignalID:       signal.ID,
				CopySetupID:    copySetupID,
				Side:           signal.Side,
				Symbol:         signal.Symbol,
				EntryPrice:     entry,
				TPPrice:        tp,
				SLPrice:        signal.SL,
				EntriesIdx:     i,
				TPsIdx:         j,
				State:          domain.TradeCandidateStatePendingQueue,
				SignalPostTime: signal.PostTime,
			})
		}
	}
	return candidates, nil
}

package queuestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// TradeScheme is the wire/queue representation of a TradeCandidate (spec
// §6 "Trade (scheme)"). Prices are float64 at this boundary only; the
// domain layer uses decimal.Decimal internally.
type TradeScheme struct {
	ID                 int64      `json:"id,omitempty"`
	SignalID           int64      `json:"signal_id"`
	Symbol             string     `json:"symbol,omitempty"`
	Type               string     `json:"type,omitempty"`
	EntryPrice         float64    `json:"entry_price,omitempty"`
	TPPrice            float64    `json:"tp_price,omitempty"`
	SLPrice            float64    `json:"sl_price,omitempty"`
	SignalPostDatetime time.Time  `json:"signal_post_datetime,omitempty"`
	State              string     `json:"state"`
	SignalTPsIdx       int        `json:"signal_tps_idx,omitempty"`
	SignalEntriesIdx   int        `json:"signal_entries_idx,omitempty"`
}

// SignalReplyScheme is the wire/queue representation of a SignalReply
// (spec §6 "SignalReply (scheme)").
type SignalReplyScheme struct {
	ID               int64  `json:"id"`
	Action           string `json:"action"`
	GeneratedBy      string `json:"generated_by"`
	OriginalSignalID int64  `json:"original_signal_id"`
	InfoMessage      string `json:"info_message,omitempty"`
}

// AddPendingTrades writes a batch of TradeSchemes via a non-transactional
// pipeline (spec §4.4 Atomicity: "add_pending_* uses a non-transactional
// pipeline (batch SET-EX), since per-item atomicity suffices"), each
// keyed by (client_instance_id, trade.id) with the given TTL.
func (s *Store) AddPendingTrades(ctx context.Context, clientInstanceID string, trades []TradeScheme, ttl time.Duration) error {
	if len(trades) == 0 {
		return nil
	}
	_, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (any, error) {
		pipe := s.client.Pipeline()
		for _, t := range trades {
			payload, err := json.Marshal(t)
			if err != nil {
				return nil, fmt.Errorf("marshal trade %d: %w", t.ID, err)
			}
			pipe.Set(ctx, s.keys.pendingTrade(clientInstanceID, t.ID), payload, ttl)
		}
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("queuestore: add pending trades: %w", err)
	}
	return nil
}

// AddPendingSignalReplies writes a batch of SignalReplySchemes, mirroring
// AddPendingTrades.
func (s *Store) AddPendingSignalReplies(ctx context.Context, clientInstanceID string, replies []SignalReplyScheme, ttl time.Duration) error {
	if len(replies) == 0 {
		return nil
	}
	_, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (any, error) {
		pipe := s.client.Pipeline()
		for _, r := range replies {
			payload, err := json.Marshal(r)
			if err != nil {
				return nil, fmt.Errorf("marshal signal reply %d: %w", r.ID, err)
			}
			pipe.Set(ctx, s.keys.pendingSignalReply(clientInstanceID, r.ID), payload, ttl)
		}
		_, err := pipe.Exec(ctx)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("queuestore: add pending signal replies: %w", err)
	}
	return nil
}

// PendingTrades reads up to limit pending trades via cursor-based SCAN +
// batched MGET (spec §4.4 "cursor-based SCAN (count 512) + batched MGET.
// Order is unspecified.").
func (s *Store) PendingTrades(ctx context.Context, clientInstanceID string, limit int) ([]TradeScheme, error) {
	vals, err := s.scanAndGet(ctx, s.keys.pendingTradesPattern(clientInstanceID), limit)
	if err != nil {
		return nil, fmt.Errorf("queuestore: pending trades: %w", err)
	}
	out := make([]TradeScheme, 0, len(vals))
	for _, v := range vals {
		var t TradeScheme
		if err := json.Unmarshal([]byte(v), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// PendingSignalReplies mirrors PendingTrades for SignalReplyScheme.
func (s *Store) PendingSignalReplies(ctx context.Context, clientInstanceID string, limit int) ([]SignalReplyScheme, error) {
	vals, err := s.scanAndGet(ctx, s.keys.pendingSignalRepliesPattern(clientInstanceID), limit)
	if err != nil {
		return nil, fmt.Errorf("queuestore: pending signal replies: %w", err)
	}
	out := make([]SignalReplyScheme, 0, len(vals))
	for _, v := range vals {
		var r SignalReplyScheme
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

const scanCount = 512

func (s *Store) scanAndGet(ctx context.Context, pattern string, limit int) ([]string, error) {
	var keys []string
	var cursor uint64
	for {
		batch, next, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (scanResult, error) {
			k, c, err := s.client.Scan(ctx, cursor, pattern, scanCount).Result()
			return scanResult{keys: k, cursor: c}, err
		})
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		keys = append(keys, batch.keys...)
		cursor = next.cursor
		if cursor == 0 {
			break
		}
		if limit > 0 && len(keys) >= limit {
			break
		}
	}
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	if len(keys) == 0 {
		return nil, nil
	}

	var out []string
	for start := 0; start < len(keys); start += scanCount {
		end := start + scanCount
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]
		vals, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) ([]any, error) {
			return s.client.MGet(ctx, batch...).Result()
		})
		if err != nil {
			return nil, fmt.Errorf("mget: %w", err)
		}
		for _, v := range vals {
			if v == nil {
				continue
			}
			if str, ok := v.(string); ok {
				out = append(out, str)
			}
		}
	}
	return out, nil
}

type scanResult struct {
	keys   []string
	cursor uint64
}

// DeletePendingTrades deletes acknowledged trade items (spec §4.4 "Ack
// semantics": trade_ack_ids interpreted as explicit deletes).
func (s *Store) DeletePendingTrades(ctx context.Context, clientInstanceID string, tradeIDs []int64) error {
	if len(tradeIDs) == 0 {
		return nil
	}
	keys := make([]string, len(tradeIDs))
	for i, id := range tradeIDs {
		keys[i] = s.keys.pendingTrade(clientInstanceID, id)
	}
	_, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (int64, error) {
		return s.client.Del(ctx, keys...).Result()
	})
	if err != nil {
		return fmt.Errorf("queuestore: delete pending trades: %w", err)
	}
	return nil
}

// DeletePendingSignalReplies mirrors DeletePendingTrades.
func (s *Store) DeletePendingSignalReplies(ctx context.Context, clientInstanceID string, replyIDs []int64) error {
	if len(replyIDs) == 0 {
		return nil
	}
	keys := make([]string, len(replyIDs))
	for i, id := range replyIDs {
		keys[i] = s.keys.pendingSignalReply(clientInstanceID, id)
	}
	_, err := RetryCall(ctx, DefaultRetryConfig(), func(ctx context.Context) (int64, error) {
		return s.client.Del(ctx, keys...).Result()
	})
	if err != nil {
		return fmt.Errorf("queuestore: delete pending signal replies: %w", err)
	}
	return nil
}

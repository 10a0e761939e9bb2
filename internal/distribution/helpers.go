// Package distribution expands a Signal or SignalReply into per-session
// deliveries against the queue store (spec §4.3).
package distribution

import (
	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/queuestore"
)

// toTradeScheme converts a persisted TradeCandidate into its wire/queue
// representation (spec §6 Trade scheme). Prices cross from
// decimal.Decimal to float64 only at this boundary.
func toTradeScheme(c *domain.TradeCandidate) queuestore.TradeScheme {
	entry, _ := c.EntryPrice.Float64()
	tp, _ := c.TPPrice.Float64()
	sl, _ := c.SLPrice.Float64()
	return queuestore.TradeScheme{
		ID:                 c.ID,
		SignalID:           c.SignalID,
		Symbol:             c.Symbol,
		Type:               string(c.Side),
		EntryPrice:         entry,
		TPPrice:            tp,
		SLPrice:            sl,
		SignalPostDatetime: c.SignalPostTime,
		State:              string(c.State),
		SignalTPsIdx:       c.TPsIdx,
		SignalEntriesIdx:   c.EntriesIdx,
	}
}

// toSignalReplyScheme converts a persisted SignalReply into its
// wire/queue representation (spec §6 SignalReply scheme).
func toSignalReplyScheme(r *domain.SignalReply) queuestore.SignalReplyScheme {
	return queuestore.SignalReplyScheme{
		ID:               r.ID,
		Action:           string(r.Action),
		GeneratedBy:      string(r.GeneratedBy),
		OriginalSignalID: r.OriginalSignalID,
		InfoMessage:      r.InfoMessage,
	}
}

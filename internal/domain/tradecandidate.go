package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeCandidateState tracks a TradeCandidate through the queue (spec §3).
type TradeCandidateState string

const (
	TradeCandidateStatePendingQueue TradeCandidateState = "PENDING_QUEUE"
)

// TradeCandidate is an ephemeral expansion of (Signal x CopySetup) into
// one accepted (entry, tp) pair, carrying positional indices back to the
// Signal's price lists (spec §3, GLOSSARY).
type TradeCandidate struct {
	ID              int64
	SignalID        int64
	CopySetupID     int64
	Side            Side
	Symbol          string
	EntryPrice      decimal.Decimal
	TPPrice         decimal.Decimal
	SLPrice         decimal.Decimal
	EntriesIdx      int
	TPsIdx          int
	State           TradeCandidateState
	SignalPostTime  time.Time
}

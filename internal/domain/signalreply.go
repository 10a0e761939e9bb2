package domain

import "github.com/shopspring/decimal"

// ReplyAction is the operational command a SignalReply carries against
// a prior Signal (spec §3, GLOSSARY).
type ReplyAction string

const (
	ReplyActionClose     ReplyAction = "CLOSE"
	ReplyActionBreakeven ReplyAction = "BREAKEVEN"
	ReplyActionModifySL  ReplyAction = "MODIFY_SL"
)

// GeneratedBy records what triggered a SignalReply (spec §3).
type GeneratedBy string

const (
	GeneratedByReply    GeneratedBy = "REPLY"
	GeneratedByUpdate   GeneratedBy = "UPDATE"
	GeneratedByDelete   GeneratedBy = "DELETE"
	GeneratedByAI       GeneratedBy = "AI"
)

// SignalReply is an action directed at a prior Signal (spec §3).
type SignalReply struct {
	ID               int64
	MessageID        int64
	Action           ReplyAction
	GeneratedBy      GeneratedBy
	InfoMessage      string
	OriginalSignalID int64

	// NewSL is required iff Action == ReplyActionModifySL.
	NewSL *decimal.Decimal
}

// Validate enforces the "new_sl required iff MODIFY_SL" rule (spec §3).
func (r *SignalReply) Validate() error {
	if r.Action == ReplyActionModifySL && r.NewSL == nil {
		return errValidationf("new_sl is required for MODIFY_SL")
	}
	if r.Action != ReplyActionModifySL && r.NewSL != nil {
		return errValidationf("new_sl must be empty unless MODIFY_SL")
	}
	return nil
}

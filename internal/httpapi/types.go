// Package httpapi is the client polling surface (spec §4.5, §6).
package httpapi

import "time"

// ClientInitBody is the POST /client/init request (spec §6). Unknown
// fields are rejected by the decoder (DisallowUnknownFields).
type ClientInitBody struct {
	AccountID        int64   `json:"account_id"`
	AccountName      string  `json:"account_name"`
	AccountServer    string  `json:"account_server"`
	AccountBalance   float64 `json:"account_balance"`
	AccountEquity    float64 `json:"account_equity"`
	AccountOpenPNL   float64 `json:"account_open_pnl"`
	PollInterval     int     `json:"poll_interval"`
	ClientVersion    float64 `json:"client_version"`
	ClientInstanceID string  `json:"client_instance_id,omitempty"`
}

// ClientInitResponse is the POST /client/init response (spec §6), a
// projection of the CopySetupConfig into client-facing options.
type ClientInitResponse struct {
	ClientInstanceID string         `json:"client_instance_id"`
	RefreshToken     string         `json:"refresh_token"`
	ExpireSec        int            `json:"expire_sec"`
	ServerCaps       map[string]any `json:"server_caps"`

	LotMode                            string   `json:"lot_mode"`
	FixedLot                           *float64 `json:"fixed_lot,omitempty"`
	BreakevenOnTPLayer                 *int     `json:"breakeven_on_tp_layer,omitempty"`
	CloseTradesBeforeEverydaySwap      bool     `json:"close_trades_before_everyday_swap"`
	CloseTradesBeforeWednesdaySwap     bool     `json:"close_trades_before_wednesday_swap"`
	CloseTradesBeforeWeekend           bool     `json:"close_trades_before_weekend"`
	TrailingStopOnTPs                  bool     `json:"trailingstop_on_tps"`
	TradeProfitPercentFromBalanceForBE *float64 `json:"tradeprofit_percent_from_balans_for_breakeven,omitempty"`
	ExpireMinutesPendingTrade          *int     `json:"expire_minutes_pending_trade,omitempty"`
	ExpireMinutesActiveTrade           *int     `json:"expire_minutes_active_trade,omitempty"`
	ExpireAtTPHitBeforeEntry           *int     `json:"expire_at_tp_hit_before_entry,omitempty"`
}

// Trade is the wire scheme for a client-uploaded or server-issued trade
// (spec §6 "Trade (scheme)"). Only the fields the client actually uses
// round-trip here; most are optional.
type Trade struct {
	ID                 int64      `json:"id,omitempty"`
	SignalID           int64      `json:"signal_id"`
	Ticket              int64     `json:"ticket,omitempty"`
	Symbol             string     `json:"symbol,omitempty"`
	Type               string     `json:"type,omitempty"`
	EntryPrice         float64    `json:"entry_price,omitempty"`
	OpenPrice          float64    `json:"open_price,omitempty"`
	SLPrice            float64    `json:"sl_price,omitempty"`
	TPPrice            float64    `json:"tp_price,omitempty"`
	ModifiedSL         float64    `json:"modified_sl,omitempty"`
	ClosePrice         float64    `json:"close_price,omitempty"`
	CurrentPrice       float64    `json:"current_price,omitempty"`
	OpenDatetime       *time.Time `json:"open_datetime,omitempty"`
	CloseDatetime      *time.Time `json:"close_datetime,omitempty"`
	SignalPostDatetime time.Time  `json:"signal_post_datetime,omitempty"`
	State              string     `json:"state"`
	SignalTPsIdx       int        `json:"signal_tps_idx,omitempty"`
	SignalEntriesIdx   int        `json:"signal_entries_idx,omitempty"`
	CloseReason        string     `json:"close_reason,omitempty"`
	ExpireReason       string     `json:"expire_reason,omitempty"`
	Volume             float64    `json:"volume,omitempty"`
	PNL                float64    `json:"pnl,omitempty"`
	Swap               float64    `json:"swap,omitempty"`
	Commission         float64    `json:"commission,omitempty"`
	Fee                float64    `json:"fee,omitempty"`
	Comment            string     `json:"comment,omitempty"`
	Magic              int64      `json:"magic,omitempty"`
}

// SignalReply is the wire scheme for a SignalReply (spec §6).
type SignalReply struct {
	ID               int64  `json:"id"`
	Action           string `json:"action"`
	GeneratedBy      string `json:"generated_by"`
	OriginalSignalID int64  `json:"original_signal_id"`
	InfoMessage      string `json:"info_message,omitempty"`
}

// PollBody is the POST /poll request (spec §6).
type PollBody struct {
	AccountID         int64   `json:"account_id"`
	ClientInstanceID  string  `json:"client_instance_id"`
	AccountBalance    float64 `json:"account_balance"`
	AccountEquity     float64 `json:"account_equity"`
	Trades            []Trade `json:"trades"`
	TradeAckIDs       []int64 `json:"trade_ack_ids"`
	SignalReplyAckIDs []int64 `json:"signal_reply_ack_ids"`
}

// PollResponse is the POST /poll response (spec §6).
type PollResponse struct {
	RefreshToken  string        `json:"refresh_token"`
	Trades        []Trade       `json:"trades"`
	SignalReplies []SignalReply `json:"signal_replies"`
}

package domain

// CopySetup is a subscription unit owned by a user, identified
// externally by an opaque token, and used as the fan-out key (spec §3).
type CopySetup struct {
	ID         int64
	Token      string
	Active     bool
	ConfigID   int64
	ChatRoomIDs []int64
}

// CopySetupConfig governs trade expansion and filtering for a CopySetup
// (spec §3).
type CopySetupConfig struct {
	ID int64

	MaxEntries         int
	MaxTPs             int
	IgnoreInvalidPrices bool // default true (spec §4.1 Price filtering)

	LotMode string

	CloseTradesBeforeEverydaySwap  bool
	CloseTradesBeforeWednesdaySwap bool
	CloseTradesBeforeWeekend       bool
	TrailingStopOnTPs              bool

	FixedLot                            *float64
	BreakevenOnTPLayer                  *int
	TradeProfitPercentFromBalanceForBE  *float64
	ExpireMinutesPendingTrade           *int
	ExpireMinutesActiveTrade            *int
	ExpireAtTPHitBeforeEntry            *int

	// SymbolSynonymOverrides supplements a ChatRoom's AllowedSymbols: when
	// present for a canonical symbol, it is consulted before the room-level
	// map during normalization (SPEC_FULL.md §C.2).
	SymbolSynonymOverrides map[string][]string
}

// DefaultCopySetupConfig returns the config defaults named across spec §4.1
// and §6 (ignore_invalid_prices=true, no caps).
func DefaultCopySetupConfig() CopySetupConfig {
	return CopySetupConfig{
		MaxEntries:          0, // 0 = uncapped
		MaxTPs:              0,
		IgnoreInvalidPrices: true,
		LotMode:             "fixed",
	}
}

package domain

// InstrumentCatalog describes the built-in canonical instruments and
// their default synonym tokens, used to seed a ChatRoom's
// AllowedSymbols when no room-specific mapping has been configured yet
// (spec §4.1 Inputs: allowed_symbols_map maps canonical -> set(synonyms)).
//
// Adapted from the teacher's symbol catalog (internal/symbol/symbol.go
// in the teacher repo): a flat struct slice plus map-building helpers,
// rewritten here for FX/commodity canonical tickers instead of equities.
type Instrument struct {
	Canonical string
	Synonyms  []string
}

// DefaultInstruments returns the built-in instrument catalog.
func DefaultInstruments() []Instrument {
	return []Instrument{
		{"XAUUSD", []string{"GOLD", "XAU"}},
		{"XAGUSD", []string{"SILVER", "XAG"}},
		{"EURUSD", []string{"EURUSD", "EU"}},
		{"GBPUSD", []string{"GBPUSD", "CABLE"}},
		{"USDJPY", []string{"USDJPY", "JPY"}},
		{"AUDUSD", []string{"AUDUSD", "AUSSIE"}},
		{"USDCAD", []string{"USDCAD", "LOONIE"}},
		{"NZDUSD", []string{"NZDUSD", "KIWI"}},
		{"USDCHF", []string{"USDCHF", "SWISSY"}},
		{"BTCUSD", []string{"BTC", "BITCOIN"}},
		{"ETHUSD", []string{"ETH", "ETHEREUM"}},
		{"US30", []string{"DOW", "DJI"}},
		{"NAS100", []string{"NASDAQ", "NDX"}},
		{"SPX500", []string{"SPX", "SP500"}},
		{"USOIL", []string{"WTI", "CRUDE"}},
	}
}

// ByCanonical indexes the catalog by canonical ticker.
func ByCanonical(instruments []Instrument) map[string]Instrument {
	m := make(map[string]Instrument, len(instruments))
	for _, in := range instruments {
		m[in.Canonical] = in
	}
	return m
}

// AllowedSymbolsMap converts the catalog into the canonical -> synonyms
// shape a ChatRoom stores directly.
func AllowedSymbolsMap(instruments []Instrument) map[string][]string {
	m := make(map[string][]string, len(instruments))
	for _, in := range instruments {
		m[in.Canonical] = in.Synonyms
	}
	return m
}

package extract

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/extract/manual"
)

func TestBuildSynonymIndexMergesOverrideOverRoom(t *testing.T) {
	room := &domain.ChatRoom{
		AllowedSymbols: map[string][]string{
			"EURUSD": {"EU", "EURO"},
			"GBPUSD": {"CABLE"},
		},
	}
	override := map[string][]string{
		"EURUSD": {"FIBER"},
	}

	idx := BuildSynonymIndex(room, override)

	if idx["FIBER"] != "EURUSD" {
		t.Fatalf("override synonym not merged: got %q", idx["FIBER"])
	}
	if idx["CABLE"] != "GBPUSD" {
		t.Fatalf("room-level synonym dropped: got %q", idx["CABLE"])
	}
	if idx["EURUSD"] != "EURUSD" || idx["GBPUSD"] != "GBPUSD" {
		t.Fatal("canonical symbols must map to themselves")
	}
	// EU/EURO come only from the room map and must survive the merge.
	if idx["EU"] != "EURUSD" || idx["EURO"] != "EURUSD" {
		t.Fatal("room synonyms not preserved when override touches the same canonical")
	}
}

func TestNormalizeCanonicalizesAndDedupes(t *testing.T) {
	synonymIndex := map[string]string{
		"EURUSD": "EURUSD",
		"EU":     "EURUSD",
		"XAUUSD": "XAUUSD",
	}
	base := manual.SignalBase{
		Symbols:     []string{"EU", "EURUSD", "UNKNOWN"},
		Types:       []string{"BUY", "buy", "GARBAGE"},
		EntryPrices: []decimal.Decimal{dec("1.1000"), dec("1.1000")},
		TPPrices:    []decimal.Decimal{dec("1.1100")},
		SLPrices:    []decimal.Decimal{dec("1.0950")},
	}

	got := Normalize(base, synonymIndex)

	if len(got.Symbols) != 1 || got.Symbols[0] != "EURUSD" {
		t.Fatalf("expected a single deduped canonical symbol, got %v", got.Symbols)
	}
	if len(got.Sides) != 1 || got.Sides[0] != domain.SideBuy {
		t.Fatalf("expected a single deduped BUY side, got %v", got.Sides)
	}
	if len(got.Entries) != 1 {
		t.Fatalf("expected duplicate entry prices deduped, got %d", len(got.Entries))
	}
}

func TestNormalizeDropsUnknownSymbolsAndSides(t *testing.T) {
	base := manual.SignalBase{
		Symbols: []string{"NOPE"},
		Types:   []string{"HOLD"},
	}
	got := Normalize(base, map[string]string{})
	if len(got.Symbols) != 0 {
		t.Fatalf("expected unknown symbol to be dropped, got %v", got.Symbols)
	}
	if len(got.Sides) != 0 {
		t.Fatalf("expected invalid direction token to be dropped, got %v", got.Sides)
	}
}

func TestFromRawFloatsDropsNonFinite(t *testing.T) {
	out := FromRawFloats([]float64{1.1, math.NaN(), math.Inf(1), 2.2, math.Inf(-1)})
	if len(out) != 2 {
		t.Fatalf("got %d values, want 2 finite survivors", len(out))
	}
	if !out[0].Equal(decimal.NewFromFloat(1.1)) || !out[1].Equal(decimal.NewFromFloat(2.2)) {
		t.Fatalf("unexpected survivors: %v", out)
	}
}

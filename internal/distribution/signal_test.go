package distribution

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestGenerateTradesCartesianProduct covers spec §8 S6: two entries and
// three tps with no filtering produce 2x3=6 TradeCandidates, ordered
// (entry index ascending, then tp index ascending).
func TestGenerateTradesCartesianProduct(t *testing.T) {
	signal := &domain.Signal{
		ID:      1,
		Symbol:  "EURUSD",
		Side:    domain.SideBuy,
		Entries: []decimal.Decimal{dec("1.10"), dec("1.09")},
		TPs:     []decimal.Decimal{dec("1.11"), dec("1.12"), dec("1.13")},
		SL:      dec("1.08"),
	}
	cfg := domain.DefaultCopySetupConfig()

	candidates, err := generateTrades(signal, 42, cfg)
	if err != nil {
		t.Fatalf("generateTrades: %v", err)
	}
	if len(candidates) != 6 {
		t.Fatalf("got %d candidates, want 6", len(candidates))
	}

	// First pair is (entry[0], tp[0]); last is (entry[1], tp[2]).
	if !candidates[0].EntryPrice.Equal(dec("1.10")) || !candidates[0].TPPrice.Equal(dec("1.11")) {
		t.Fatalf("unexpected first candidate: %+v", candidates[0])
	}
	last := candidates[len(candidates)-1]
	if !last.EntryPrice.Equal(dec("1.09")) || !last.TPPrice.Equal(dec("1.13")) {
		t.Fatalf("unexpected last candidate: %+v", last)
	}
	for _, c := range candidates {
		if c.CopySetupID != 42 || c.SignalID != 1 || c.Symbol != "EURUSD" {
			t.Fatalf("unexpected candidate fields: %+v", c)
		}
	}
}

// TestGenerateTradesCapsFromHead verifies the CopySetup's MaxEntries/
// MaxTPs caps are applied at distribution time (spec §4.3 "re-apply
// filter_invalid_prices under cs.config caps").
func TestGenerateTradesCapsFromHead(t *testing.T) {
	signal := &domain.Signal{
		Symbol:  "EURUSD",
		Side:    domain.SideBuy,
		Entries: []decimal.Decimal{dec("1.10"), dec("1.09"), dec("1.08")},
		TPs:     []decimal.Decimal{dec("1.11"), dec("1.12")},
		SL:      dec("1.07"),
	}
	cfg := domain.DefaultCopySetupConfig()
	cfg.MaxEntries = 1

	candidates, err := generateTrades(signal, 1, cfg)
	if err != nil {
		t.Fatalf("generateTrades: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 (1 entry x 2 tps)", len(candidates))
	}
	for _, c := range candidates {
		if !c.EntryPrice.Equal(dec("1.10")) {
			t.Fatalf("expected only the first entry to survive the cap, got %v", c.EntryPrice)
		}
	}
}

// TestGenerateTradesAllFilteredNotIgnored returns an error when
// filtering discards everything and ignore_invalid_prices is false
// (spec §8 invariant 12).
func TestGenerateTradesAllFilteredNotIgnored(t *testing.T) {
	signal := &domain.Signal{
		Symbol:  "EURUSD",
		Side:    domain.SideBuy,
		Entries: []decimal.Decimal{dec("1.00")}, // below SL: discarded
		TPs:     []decimal.Decimal{dec("1.11")},
		SL:      dec("1.05"),
	}
	cfg := domain.DefaultCopySetupConfig()
	cfg.IgnoreInvalidPrices = false

	if _, err := generateTrades(signal, 1, cfg); err == nil {
		t.Fatal("expected an error when filtering discards everything and ignore_invalid_prices is false")
	}
}

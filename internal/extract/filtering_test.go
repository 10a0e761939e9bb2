package extract

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

func TestFilterPricesBuyDiscardsBelowSL(t *testing.T) {
	entries := []decimal.Decimal{dec("1.0900"), dec("1.0800")}
	tps := []decimal.Decimal{dec("1.1100"), dec("1.0850")}
	res := FilterPrices(domain.SideBuy, entries, tps, dec("1.0850"), 0, 0)

	if !res.OK {
		t.Fatal("expected a valid result")
	}
	if len(res.Entries) != 1 || !res.Entries[0].Equal(dec("1.0900")) {
		t.Fatalf("expected only 1.0900 to survive, got %v", res.Entries)
	}
	if len(res.TPs) != 1 || !res.TPs[0].Equal(dec("1.1100")) {
		t.Fatalf("expected tp below max entry to be discarded, got %v", res.TPs)
	}
}

func TestFilterPricesSellDiscardsAboveSL(t *testing.T) {
	entries := []decimal.Decimal{dec("2400"), dec("2420")}
	tps := []decimal.Decimal{dec("2380"), dec("2410")}
	res := FilterPrices(domain.SideSell, entries, tps, dec("2410"), 0, 0)

	if !res.OK {
		t.Fatal("expected a valid result")
	}
	if len(res.Entries) != 1 || !res.Entries[0].Equal(dec("2400")) {
		t.Fatalf("expected only 2400 to survive, got %v", res.Entries)
	}
	if len(res.TPs) != 1 || !res.TPs[0].Equal(dec("2380")) {
		t.Fatalf("expected tp above min entry to be discarded, got %v", res.TPs)
	}
}

func TestFilterPricesEmptyEntriesNotOK(t *testing.T) {
	entries := []decimal.Decimal{dec("1.0800")}
	tps := []decimal.Decimal{dec("1.1100")}
	res := FilterPrices(domain.SideBuy, entries, tps, dec("1.0850"), 0, 0)

	if res.OK {
		t.Fatal("expected filtering to fail when all entries are invalid")
	}
}

func TestFilterPricesCapsFromHead(t *testing.T) {
	entries := []decimal.Decimal{dec("1.1000"), dec("1.0950"), dec("1.0900")}
	tps := []decimal.Decimal{dec("1.1100"), dec("1.1200"), dec("1.1300")}
	res := FilterPrices(domain.SideBuy, entries, tps, dec("1.0850"), 2, 1)

	if !res.OK {
		t.Fatal("expected a valid result")
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected entries capped to 2, got %v", res.Entries)
	}
	if len(res.TPs) != 1 || !res.TPs[0].Equal(dec("1.1100")) {
		t.Fatalf("expected tps capped to first 1, got %v", res.TPs)
	}
}

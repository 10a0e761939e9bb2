package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestSignalSortPricesBuy(t *testing.T) {
	s := &Signal{
		Side:    SideBuy,
		Entries: []decimal.Decimal{dec("1.0900"), dec("1.1000")},
		TPs:     []decimal.Decimal{dec("1.1200"), dec("1.1100")},
	}
	s.SortPrices()

	if !s.Entries[0].Equal(dec("1.1000")) || !s.Entries[1].Equal(dec("1.0900")) {
		t.Fatalf("BUY entries should sort descending, got %v", s.Entries)
	}
	if !s.TPs[0].Equal(dec("1.1100")) || !s.TPs[1].Equal(dec("1.1200")) {
		t.Fatalf("BUY tps should sort ascending, got %v", s.TPs)
	}
}

func TestSignalSortPricesSell(t *testing.T) {
	s := &Signal{
		Side:    SideSell,
		Entries: []decimal.Decimal{dec("2400"), dec("2390")},
		TPs:     []decimal.Decimal{dec("2380"), dec("2360")},
	}
	s.SortPrices()

	if !s.Entries[0].Equal(dec("2390")) || !s.Entries[1].Equal(dec("2400")) {
		t.Fatalf("SELL entries should sort ascending, got %v", s.Entries)
	}
	if !s.TPs[0].Equal(dec("2380")) || !s.TPs[1].Equal(dec("2360")) {
		t.Fatalf("SELL tps should sort descending, got %v", s.TPs)
	}
}

func TestSignalValidateMonotonicityBuy(t *testing.T) {
	s := &Signal{
		Side:    SideBuy,
		Entries: []decimal.Decimal{dec("1.1000")},
		TPs:     []decimal.Decimal{dec("1.1100"), dec("1.1200")},
		SL:      dec("1.0950"),
	}
	if err := s.ValidateMonotonicity(); err != nil {
		t.Fatalf("expected valid BUY signal, got %v", err)
	}
}

func TestSignalValidateMonotonicityBuyViolation(t *testing.T) {
	s := &Signal{
		Side:    SideBuy,
		Entries: []decimal.Decimal{dec("1.1000")},
		TPs:     []decimal.Decimal{dec("1.0900")}, // below entry: invalid
		SL:      dec("1.0950"),
	}
	if err := s.ValidateMonotonicity(); err == nil {
		t.Fatal("expected monotonicity violation")
	}
}

func TestSignalValidateMonotonicitySell(t *testing.T) {
	s := &Signal{
		Side:    SideSell,
		Entries: []decimal.Decimal{dec("2400")},
		TPs:     []decimal.Decimal{dec("2380"), dec("2360")},
		SL:      dec("2420"),
	}
	if err := s.ValidateMonotonicity(); err != nil {
		t.Fatalf("expected valid SELL signal, got %v", err)
	}
}

func TestParsePriceCommaDecimal(t *testing.T) {
	d, ok := ParsePrice("1,1000")
	if !ok {
		t.Fatal("expected comma-decimal to parse")
	}
	if !d.Equal(dec("1.1000")) {
		t.Fatalf("expected 1.1000, got %v", d)
	}
}

func TestParsePriceInvalid(t *testing.T) {
	if _, ok := ParsePrice("BUY"); ok {
		t.Fatal("expected non-numeric token to fail parse")
	}
}

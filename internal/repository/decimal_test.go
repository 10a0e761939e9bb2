package repository

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDecimalStringRoundTrip(t *testing.T) {
	vals := []decimal.Decimal{
		decimal.RequireFromString("1.1000"),
		decimal.RequireFromString("2400.5"),
	}

	strs := decimalsToStrings(vals)
	back, err := stringsToDecimals(strs)
	if err != nil {
		t.Fatalf("stringsToDecimals: %v", err)
	}
	if len(back) != len(vals) {
		t.Fatalf("got %d values, want %d", len(back), len(vals))
	}
	for i := range vals {
		if !back[i].Equal(vals[i]) {
			t.Errorf("index %d: got %s, want %s", i, back[i], vals[i])
		}
	}
}

func TestStringsToDecimalsRejectsMalformed(t *testing.T) {
	if _, err := stringsToDecimals([]string{"not-a-number"}); err == nil {
		t.Fatal("expected an error for a malformed decimal string")
	}
}

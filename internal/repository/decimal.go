package repository

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Prices are stored as strings, not BSON doubles: decimal.Decimal has no
// native BSON codec, and round-tripping through float64 would reintroduce
// the precision loss the domain layer uses decimal.Decimal to avoid.

func decimalsToStrings(vals []decimal.Decimal) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}

func stringsToDecimals(vals []string) ([]decimal.Decimal, error) {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("parse decimal %q: %w", v, err)
		}
		out[i] = d
	}
	return out, nil
}

package extract

import (
	"github.com/shopspring/decimal"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

// FilterResult is the output of price filtering: the surviving entries
// and take-profits, or ok=false whenever filtering emptied one of the
// lists (spec §4.1 Price filtering).
type FilterResult struct {
	Entries []decimal.Decimal
	TPs     []decimal.Decimal
	OK      bool
}

// FilterPrices discards entries on the wrong side of the stop-loss and
// take-profits on the wrong side of the surviving entries' extreme (spec
// §4.1 Price filtering, single-sl variant):
//
//	BUY:  discard entry <= sl; let maxEntry = max(remaining entries);
//	      discard tp <= maxEntry.
//	SELL: discard entry >= sl; let minEntry = min(remaining entries);
//	      discard tp >= minEntry.
//
// maxEntries/maxTPs then cap the surviving lists, keeping the first N
// (closest-to-market) and truncating the tail; 0 means unlimited.
func FilterPrices(side domain.Side, entries, tps []decimal.Decimal, sl decimal.Decimal, maxEntries, maxTPs int) FilterResult {
	var survivingEntries []decimal.Decimal

	switch side {
	case domain.SideBuy:
		for _, e := range entries {
			if e.GreaterThan(sl) {
				survivingEntries = append(survivingEntries, e)
			}
		}
	case domain.SideSell:
		for _, e := range entries {
			if e.LessThan(sl) {
				survivingEntries = append(survivingEntries, e)
			}
		}
	}

	if len(survivingEntries) == 0 {
		return FilterResult{OK: false}
	}

	extreme := survivingEntries[0]
	for _, e := range survivingEntries[1:] {
		switch side {
		case domain.SideBuy:
			if e.GreaterThan(extreme) {
				extreme = e
			}
		case domain.SideSell:
			if e.LessThan(extreme) {
				extreme = e
			}
		}
	}

	var survivingTPs []decimal.Decimal
	for _, tp := range tps {
		switch side {
		case domain.SideBuy:
			if tp.GreaterThan(extreme) {
				survivingTPs = append(survivingTPs, tp)
			}
		case domain.SideSell:
			if tp.LessThan(extreme) {
				survivingTPs = append(survivingTPs, tp)
			}
		}
	}

	if len(survivingTPs) == 0 {
		return FilterResult{OK: false}
	}

	survivingEntries = capHead(survivingEntries, maxEntries)
	survivingTPs = capHead(survivingTPs, maxTPs)

	return FilterResult{Entries: survivingEntries, TPs: survivingTPs, OK: true}
}

// capHead truncates a price list to its first n elements, dropping the
// tail. The head is closest to market when the list is in the order
// Signal.SortPrices gives it. n<=0 means unlimited.
func capHead(prices []decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 || len(prices) <= n {
		return prices
	}
	return prices[:n]
}

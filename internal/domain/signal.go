package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Side is a Signal's trade direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Signal is the canonical structured order intent parsed from a Message
// (spec §3). Owned 1-to-1 by its producing Message.
type Signal struct {
	ID        int64
	MessageID int64

	Symbol  string // canonical base ticker, e.g. XAUUSD
	Side    Side
	Entries []decimal.Decimal // ordered, >=1
	TPs     []decimal.Decimal // ordered, >=1
	SL      decimal.Decimal   // exactly one

	PostTime time.Time // UTC, naive; copied from the producing Message
}

// SortPrices orders Entries/TPs per spec §4.1 Price sorting:
// BUY: entries desc, tps asc. SELL: entries asc, tps desc.
// Rationale: layer index 1 is always closest to the market.
func (s *Signal) SortPrices() {
	switch s.Side {
	case SideBuy:
		sort.Sort(sort.Reverse(decimalSlice(s.Entries)))
		sort.Sort(decimalSlice(s.TPs))
	case SideSell:
		sort.Sort(decimalSlice(s.Entries))
		sort.Sort(sort.Reverse(decimalSlice(s.TPs)))
	}
}

// ValidateMonotonicity enforces spec §3/§8 invariant 1:
// BUY: sl < min(entries) <= max(entries) < min(tps)
// SELL: mirrored.
func (s *Signal) ValidateMonotonicity() error {
	if len(s.Entries) == 0 {
		return fmt.Errorf("%w: no entry prices", ErrValidation)
	}
	if len(s.TPs) == 0 {
		return fmt.Errorf("%w: no tp prices", ErrValidation)
	}

	minEntry, maxEntry := minMaxDecimal(s.Entries)
	minTP, maxTP := minMaxDecimal(s.TPs)

	switch s.Side {
	case SideBuy:
		if !s.SL.LessThan(minEntry) {
			return fmt.Errorf("%w: sl must be below all entries for BUY", ErrValidation)
		}
		if !maxEntry.LessThan(minTP) {
			return fmt.Errorf("%w: max entry must be below all tps for BUY", ErrValidation)
		}
	case SideSell:
		if !s.SL.GreaterThan(maxEntry) {
			return fmt.Errorf("%w: sl must be above all entries for SELL", ErrValidation)
		}
		if !minEntry.GreaterThan(maxTP) {
			return fmt.Errorf("%w: min entry must be above all tps for SELL", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: side must be BUY or SELL", ErrValidation)
	}
	return nil
}

// Equal reports whether two Signals carry the same trade intent
// (symbol/side/entries/tps/sl), ignoring identity (ID/MessageID) and
// PostTime. Used by re-extraction to detect a no-op edit (spec §8
// testable property 8: "editing a Message to unchanged text produces no
// distribution").
func (s *Signal) Equal(other *Signal) bool {
	if s.Symbol != other.Symbol || s.Side != other.Side {
		return false
	}
	if !s.SL.Equal(other.SL) {
		return false
	}
	return decimalSliceEqual(s.Entries, other.Entries) && decimalSliceEqual(s.TPs, other.TPs)
}

func decimalSliceEqual(a, b []decimal.Decimal) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func minMaxDecimal(vals []decimal.Decimal) (min, max decimal.Decimal) {
	min, max = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v.LessThan(min) {
			min = v
		}
		if v.GreaterThan(max) {
			max = v
		}
	}
	return min, max
}

type decimalSlice []decimal.Decimal

func (d decimalSlice) Len() int           { return len(d) }
func (d decimalSlice) Less(i, j int) bool { return d[i].LessThan(d[j]) }
func (d decimalSlice) Swap(i, j int)      { d[i], d[j] = d[j], d[i] }

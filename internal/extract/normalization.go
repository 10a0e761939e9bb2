// Package extract implements the two-stage extraction pipeline (spec
// §4.1): Stage A manual parse, normalization + validation, and the
// Stage B model-assisted fallback.
package extract

import (
	"log/slog"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/tradesignal-core/internal/domain"
	"github.com/ndrandal/tradesignal-core/internal/extract/manual"
)

// NormalizedSignal is Stage A's SignalBase after symbol canonicalization,
// direction coercion, and price deduplication (spec §4.1 Normalization).
type NormalizedSignal struct {
	Symbols     []string
	Sides       []domain.Side
	Entries     []decimal.Decimal
	TPs         []decimal.Decimal
	SLs         []decimal.Decimal
	InfoMessage string
}

// BuildSynonymIndex merges a CopySetupConfig's per-symbol synonym
// overrides (SPEC_FULL.md §C.2) over a ChatRoom's AllowedSymbols,
// producing a synonym -> canonical lookup. Config overrides are
// consulted first; the room-level map fills in everything else.
func BuildSynonymIndex(room *domain.ChatRoom, override map[string][]string) map[string]string {
	out := make(map[string]string)
	for canonical, synonyms := range room.AllowedSymbols {
		out[canonical] = canonical
		for _, syn := range synonyms {
			out[syn] = canonical
		}
	}
	for canonical, synonyms := range override {
		out[canonical] = canonical
		for _, syn := range synonyms {
			out[syn] = canonical
		}
	}
	return out
}

// AllowedTokenSet flattens a synonym index into the membership set Stage
// A's tokenizer consults (spec §4.1 Stage A token class "Symbol
// candidate").
func AllowedTokenSet(synonymIndex map[string]string) map[string]bool {
	out := make(map[string]bool, len(synonymIndex))
	for tok := range synonymIndex {
		out[tok] = true
	}
	return out
}

// Normalize maps SignalBase tokens to their canonical forms, dedupes all
// lists, and coerces direction tokens to {BUY, SELL} (spec §4.1
// Normalization). Invalid entries are dropped, not errored.
func Normalize(base manual.SignalBase, synonymIndex map[string]string) NormalizedSignal {
	out := NormalizedSignal{InfoMessage: base.InfoMessage}

	seenSymbol := map[string]bool{}
	for _, tok := range base.Symbols {
		canonical, ok := synonymIndex[tok]
		if !ok {
			continue
		}
		if !seenSymbol[canonical] {
			seenSymbol[canonical] = true
			out.Symbols = append(out.Symbols, canonical)
		}
	}

	seenSide := map[domain.Side]bool{}
	for _, t := range base.Types {
		side := domain.Side(strings.ToUpper(t))
		if side != domain.SideBuy && side != domain.SideSell {
			slog.Warn("extract: dropping invalid direction token", "token", t)
			continue // invalid entries dropped with warning
		}
		if !seenSide[side] {
			seenSide[side] = true
			out.Sides = append(out.Sides, side)
		}
	}

	out.Entries = dedupeFiniteDecimals(base.EntryPrices)
	out.TPs = dedupeFiniteDecimals(base.TPPrices)
	out.SLs = dedupeFiniteDecimals(base.SLPrices)

	return out
}

// dedupeFiniteDecimals drops non-finite values (can only arise from
// Stage B's raw float64 payload; decimal.Decimal itself cannot represent
// NaN/Inf, so this is a defensive float64 round-trip check) and
// deduplicates in encounter order.
func dedupeFiniteDecimals(in []decimal.Decimal) []decimal.Decimal {
	seen := map[string]bool{}
	var out []decimal.Decimal
	for _, d := range in {
		f, _ := d.Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		key := d.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	return out
}

// FromRawFloats converts Stage B's raw float64 price lists (an external
// structured-output extractor cannot emit decimal.Decimal) into
// decimal.Decimal, dropping non-finite values silently (spec §4.1
// Normalization: "non-finite (NaN/+-Inf) dropped silently").
func FromRawFloats(vals []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(vals))
	for _, f := range vals {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out = append(out, decimal.NewFromFloat(f))
	}
	return out
}

// Package manual implements the deterministic Stage A parser of the
// extraction pipeline (spec §4.1 Stage A — manual parse).
package manual

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/tradesignal-core/internal/domain"
)

// priceContext is the rolling parse context a context keyword updates.
type priceContext int

const (
	contextEntry priceContext = iota
	contextTP
	contextSL
)

var contextKeywords = map[string]priceContext{
	"TP":         contextTP,
	"TARGET":     contextTP,
	"PROFIT":     contextTP,
	"TAKEPROFIT": contextTP,
	"SL":         contextSL,
	"STOP":       contextSL,
	"LOSS":       contextSL,
	"STOPLOSS":   contextSL,
	"@":          contextEntry,
	"AT":         contextEntry,
	"ENTRY":      contextEntry,
	"LEVEL":      contextEntry,
}

var directionKeywords = map[string]domain.Side{
	"BUY":  domain.SideBuy,
	"LONG": domain.SideBuy,
	"KOOP": domain.SideBuy,

	"SELL":    domain.SideSell,
	"SHORT":   domain.SideSell,
	"VERKOOP": domain.SideSell,
}

// SignalBase is the raw Stage A output: symbol/direction tokens plus
// price lists still keyed by parse context, not yet normalized or
// validated (spec §4.1 "Emit a raw SignalBase").
type SignalBase struct {
	Symbols     []string
	Types       []string
	EntryPrices []decimal.Decimal
	TPPrices    []decimal.Decimal
	SLPrices    []decimal.Decimal
	InfoMessage string
}

// NormalizeText uppercases, strips newlines, and replaces any character
// outside [A-Z0-9., @] plus space with a space (spec §4.1 Stage A
// "Normalize").
func NormalizeText(text string) string {
	upper := strings.ToUpper(text)
	upper = strings.ReplaceAll(upper, "\n", " ")
	upper = strings.ReplaceAll(upper, "\r", " ")

	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if isAllowedChar(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func isAllowedChar(r rune) bool {
	switch {
	case r >= 'A' && r <= 'Z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r == '.' || r == ',' || r == '@' || r == ' ':
		return true
	}
	return false
}

// Parse runs Stage A's deterministic tokenizer over text, given the
// flattened synonym set (synonym -> true for any allowed token) a
// ChatRoom accepts (spec §4.1 Stage A token class "Symbol candidate").
func Parse(text string, allowedSynonyms map[string]bool) SignalBase {
	base := SignalBase{InfoMessage: text}

	normalized := NormalizeText(text)
	tokens := strings.Fields(normalized)

	ctx := contextEntry
	seenEntry := map[string]bool{}
	seenTP := map[string]bool{}
	seenSL := map[string]bool{}
	seenType := map[domain.Side]bool{}
	seenSymbol := map[string]bool{}

	for _, tok := range tokens {
		if price, ok := domain.ParsePrice(tok); ok {
			switch ctx {
			case contextEntry:
				if key := price.String(); !seenEntry[key] {
					seenEntry[key] = true
					base.EntryPrices = append(base.EntryPrices, price)
				}
			case contextTP:
				if key := price.String(); !seenTP[key] {
					seenTP[key] = true
					base.TPPrices = append(base.TPPrices, price)
				}
			case contextSL:
				if key := price.String(); !seenSL[key] {
					seenSL[key] = true
					base.SLPrices = append(base.SLPrices, price)
				}
			}
			continue
		}

		if next, ok := contextKeywords[tok]; ok {
			ctx = next
			continue
		}

		if side, ok := directionKeywords[tok]; ok {
			if !seenType[side] {
				seenType[side] = true
				base.Types = append(base.Types, string(side))
			}
			continue
		}

		if isAlpha(tok) && allowedSynonyms[tok] {
			if !seenSymbol[tok] {
				seenSymbol[tok] = true
				base.Symbols = append(base.Symbols, tok)
			}
		}
	}

	return base
}

func isAlpha(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

package domain

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice parses a price token, accepting a comma as the decimal
// separator (spec §4.1 Stage A token class "Price": "parses finitely as
// a float (comma as decimal separator accepted)"). Non-finite results
// (NaN/+-Inf can't occur via decimal.Decimal, but malformed tokens) are
// rejected via the bool return.
func ParsePrice(tok string) (decimal.Decimal, bool) {
	normalized := strings.Replace(tok, ",", ".", 1)
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// ParseFloatFinite parses a float and rejects non-finite results (spec
// §4.1 Normalization: "Prices are coerced to float, non-finite
// (NaN/+-Inf) dropped silently").
func ParseFloatFinite(tok string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.Replace(tok, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// AggregateErrors joins validation failures into one error, or nil if
// errs is empty (spec §4.1 Validation: "Collect all failures").
func AggregateErrors(errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return errors.Join(nonNil...)
}

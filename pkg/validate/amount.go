package validate

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotAnAmount is returned when raw text cannot be read as money.
var ErrNotAnAmount = errors.New("not an amount")

var amountStripper = strings.NewReplacer("$", "", ",", "", " ", "", "\t", "", "aud", "")

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// ParseAmount reads money the way people type it: "$1,250.00", "75k", "2m".
// Currency symbols, thousands separators and whitespace are ignored; a trailing
// k or m scales the number.
func ParseAmount(raw string) (float64, error) {
	s := amountStripper.Replace(strings.ToLower(strings.TrimSpace(raw)))
	scale := decimal.NewFromInt(1)
	switch {
	case strings.HasSuffix(s, "k"):
		scale, s = thousand, strings.TrimSuffix(s, "k")
	case strings.HasSuffix(s, "m"):
		scale, s = million, strings.TrimSuffix(s, "m")
	}
	if s == "" {
		return 0, ErrNotAnAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrNotAnAmount
	}
	return d.Mul(scale).Round(2).InexactFloat64(), nil
}

package quote

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is wrapped by every RangeError.
	ErrOutOfRange = errors.New("quote input out of range")
	// ErrUnknownRate is returned when no base rate is tabulated for the asset.
	ErrUnknownRate = errors.New("no base rate for asset type and condition")
)

// RangeError reports a loan parameter outside its accepted bounds.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %v outside [%v, %v]", e.Field, e.Value, e.Min, e.Max)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

package isa

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is matched by every RangeError.
var ErrOutOfRange = errors.New("value out of range")

// RangeError reports a value that does not fit an instruction width.
type RangeError struct {
	Value int64
	Bits  uint
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%d does not fit a %d-bit instruction", e.Value, e.Bits)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// CheckRange returns a *RangeError unless 0 <= v < 2^bits.
func CheckRange(v int64, bits uint) error {
	if v < 0 || (bits < 63 && v >= int64(1)<<bits) {
		return &RangeError{Value: v, Bits: bits}
	}
	return nil
}

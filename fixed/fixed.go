// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

// Package fixed implements the Q16.16 signed fixed-point format used
// throughout the pricing pipeline: a 32-bit two's-complement word with 16
// integer bits and 16 fractional bits, real value = raw / 65536.
//
// Arithmetic that would require more than 32 significant bits saturates
// and raises a flag; it never silently wraps in a user-visible result.
package fixed

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Q16 is a Q16.16 fixed-point value. The raw integer is the real value
// scaled by 2^16.
type Q16 int32

// Format constants.
const (
	IntBits  = 16
	FracBits = 16

	One Q16 = 1 << FracBits
	Max Q16 = math.MaxInt32
	// Min is the most negative representable value. It has no positive
	// counterpart and is rejected as a divider operand.
	Min Q16 = math.MinInt32

	// Ln2 is ln(2) rounded to Q16.16.
	Ln2 Q16 = 0xB172
)

var scale = decimal.NewFromInt(1 << FracBits)

// FromFloat converts f to Q16.16, rounding to nearest and saturating at
// the format bounds.
func FromFloat(f float64) Q16 {
	r := math.Round(f * (1 << FracBits))
	return sat(int64(r))
}

// Float returns the real value of x.
func (x Q16) Float() float64 {
	return float64(x) / (1 << FracBits)
}

// FromInt converts i to Q16.16, saturating at the format bounds.
func FromInt(i int) Q16 {
	return sat(int64(i) << FracBits)
}

// FromDecimal converts d to Q16.16, rounding to nearest. Values outside
// the representable range are an error.
func FromDecimal(d decimal.Decimal) (Q16, error) {
	raw := d.Mul(scale).Round(0)
	if raw.GreaterThan(decimal.NewFromInt(int64(Max))) || raw.LessThan(decimal.NewFromInt(int64(Min))) {
		return 0, errors.Errorf("value %s out of Q16.16 range", d)
	}
	return Q16(raw.IntPart()), nil
}

// Decimal returns the exact decimal representation of x. A Q16.16
// fraction needs at most 16 decimal digits, so the conversion is exact.
func (x Q16) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(x)).Div(scale)
}

// Parse converts a decimal string such as "1.5" or "-0.0625" to Q16.16.
func Parse(s string) (Q16, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, errors.Wrapf(err, "parse fixed-point value %q", s)
	}
	return FromDecimal(d)
}

func (x Q16) String() string {
	return x.Decimal().String()
}

// SatAdd returns a+b, saturating on overflow.
func SatAdd(a, b Q16) Q16 {
	return sat(int64(a) + int64(b))
}

// SatSub returns a-b, saturating on overflow.
func SatSub(a, b Q16) Q16 {
	return sat(int64(a) - int64(b))
}

// Mul returns the Q16.16 product of a and b: a double-width multiply
// arithmetic-shifted right by the fractional width, the way the hardware
// multiplier truncates. ovf reports that the product was saturated.
func Mul(a, b Q16) (p Q16, ovf bool) {
	v := (int64(a) * int64(b)) >> FracBits
	if v > int64(Max) {
		return Max, true
	}
	if v < int64(Min) {
		return Min, true
	}
	return Q16(v), false
}

// Div returns the direct combinational quotient a/b, truncated toward
// zero. It is the single-tick division used by the d1/d2 pipeline stage;
// the multi-cycle rounded divider lives in the units package.
//
// dbz reports a zero divisor, ovf a Min operand or a quotient that does
// not fit; on either the result saturates to Max.
func Div(a, b Q16) (q Q16, dbz, ovf bool) {
	if b == 0 {
		return Max, true, false
	}
	if a == Min || b == Min {
		return Max, false, true
	}
	v := (int64(a) << FracBits) / int64(b)
	if v > int64(Max) || v < int64(Min) {
		return Max, false, true
	}
	return Q16(v), false, false
}

// Abs returns the magnitude of x as an unsigned raw word. Unlike the
// signed domain, the magnitude of Min is representable.
func Abs(x Q16) uint32 {
	if x < 0 {
		return uint32(-int64(x))
	}
	return uint32(x)
}

func sat(v int64) Q16 {
	if v > int64(Max) {
		return Max
	}
	if v < int64(Min) {
		return Min
	}
	return Q16(v)
}

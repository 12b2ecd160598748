// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package units

import (
	"math/bits"

	"github.com/MBaramia/Diss/fixed"
)

type logState uint8

const (
	logIdle logState = iota
	logNorm
	logCompute1
	logCompute2
	logCompute3
	logHold
)

// oneThird is 1/3 rounded to Q16.16.
const oneThird fixed.Q16 = 0x5555

// Log computes ln(x) by range reduction: the input is split into an
// integer exponent e and a mantissa normalized into [1,2), so that
// ln(x) = e*ln2 + ln(mantissa), with ln(1+t) approximated by the cubic
// t - t^2/2 + t^3/3 where t = mantissa - 1.
//
// The approximation is accurate near the bottom of the mantissa range
// and degrades toward mantissa 2; callers that need tighter error must
// bound t themselves. Inputs <= 0 are clamped to the smallest positive
// raw value.
type Log struct {
	// Registered outputs.
	Out   fixed.Q16
	Valid bool // holds for two ticks
	Busy  bool

	state   logState
	pending bool
	x       fixed.Q16

	e       int32
	t       fixed.Q16
	t2      fixed.Q16
	t3      fixed.Q16
	halfT2  fixed.Q16
	poly    fixed.Q16
	holding bool
}

// Start latches x and begins a computation on the next tick. A start
// while the unit is busy is ignored.
func (l *Log) Start(x fixed.Q16) {
	if l.state != logIdle {
		return
	}
	l.pending = true
	l.x = x
}

// Tick advances the unit by one state transition.
func (l *Log) Tick() {
	switch l.state {
	case logIdle:
		l.Valid = false
		if l.pending {
			l.pending = false
			l.Busy = true
			l.holding = false
			l.state = logNorm
		}

	case logNorm:
		raw := uint32(l.x)
		if l.x <= 0 {
			raw = 1
		}
		h := 31 - bits.LeadingZeros32(raw)
		l.e = int32(h - fixed.FracBits)
		var mant uint32
		switch {
		case h > fixed.FracBits:
			// Right-shift with rounding; a carry into 2.0 renormalizes.
			shift := uint(h - fixed.FracBits)
			mant = (raw + 1<<(shift-1)) >> shift
			if mant == 1<<(fixed.FracBits+1) {
				mant >>= 1
				l.e++
			}
		case h < fixed.FracBits:
			mant = raw << uint(fixed.FracBits-h)
		default:
			mant = raw
		}
		l.t = fixed.Q16(mant) - fixed.One
		l.state = logCompute1

	case logCompute1:
		l.t2, _ = fixed.Mul(l.t, l.t)
		l.state = logCompute2

	case logCompute2:
		l.t3, _ = fixed.Mul(l.t2, l.t)
		l.halfT2 = l.t2 >> 1
		l.state = logCompute3

	case logCompute3:
		third, _ := fixed.Mul(l.t3, oneThird)
		l.poly = fixed.SatAdd(fixed.SatSub(l.t, l.halfT2), third)
		l.state = logHold

	case logHold:
		if !l.holding {
			l.Out = fixed.SatAdd(fixed.Q16(l.e*int32(fixed.Ln2)), l.poly)
			l.Valid = true
			l.Busy = false
			l.holding = true
			return
		}
		// second valid tick
		l.state = logIdle
	}
}

// Reset returns the unit to its initial state.
func (l *Log) Reset() {
	*l = Log{}
}

// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

// Package units implements the computational units of the pricing
// pipeline as tick-synchronous state machines over the Q16.16 format.
//
// Every unit obeys the same handshake: the caller asserts start for
// exactly one tick (and must not re-assert it while the unit is busy),
// the unit holds Busy high while a computation is in flight, and pulses
// valid/done when the result is ready. The divider and square root pulse
// valid for one tick; the logarithm and exponential hold it for two.
package units

import (
	"github.com/MBaramia/Diss/fixed"
)

type divState uint8

const (
	divIdle divState = iota
	divInit
	divCalc
	divRound
	divSign
)

// divIterations is one restoring step per quotient bit.
const divIterations = fixed.IntBits + fixed.FracBits

// divCalcBound forces an early exit from Calc. Defensive only: with
// correct iteration counting it is unreachable.
const divCalcBound = 2 * divIterations

// Divider computes a Q16.16 quotient by restoring binary long division,
// one bit per tick, rounded to nearest.
//
// On a zero divisor it reports DBZ; on a Min operand or a quotient that
// does not fit the format it reports Ovf. On either error the output
// saturates to Max and Valid never pulses.
type Divider struct {
	// Registered outputs.
	Quotient fixed.Q16
	Valid    bool // one-tick pulse
	Busy     bool
	DBZ      bool
	Ovf      bool

	state   divState
	pending bool
	a, b    fixed.Q16

	neg   bool
	mb    uint32
	low   uint32 // low dividend bits not yet shifted into the remainder
	rem   uint64
	q     uint64
	iter  int
	guard int
}

// Start latches the dividend a and divisor b and begins a division on
// the next tick. A start while the unit is busy is ignored.
func (d *Divider) Start(a, b fixed.Q16) {
	if d.state != divIdle {
		return
	}
	d.pending = true
	d.a, d.b = a, b
}

// Tick advances the divider by one state transition.
func (d *Divider) Tick() {
	switch d.state {
	case divIdle:
		d.Valid = false
		if d.pending {
			d.pending = false
			d.Busy = true
			d.DBZ = false
			d.Ovf = false
			d.state = divInit
		}

	case divInit:
		// Divide-by-zero short-circuits before the iterative loop; a Min
		// operand has no positive counterpart in sign-magnitude form.
		if d.b == 0 {
			d.fail(true, false)
			return
		}
		if d.a == fixed.Min || d.b == fixed.Min {
			d.fail(false, true)
			return
		}
		ma := fixed.Abs(d.a)
		d.neg = (d.a < 0) != (d.b < 0)
		d.mb = fixed.Abs(d.b)
		// The dividend magnitude scaled by 2^16 is a 48-bit word. Seed
		// the remainder with its top 16 bits; the remaining 32 bits are
		// shifted in one per iteration.
		d.rem = uint64(ma >> fixed.FracBits)
		d.low = ma << fixed.FracBits
		d.q = 0
		d.iter = divIterations
		d.guard = 0
		d.state = divCalc

	case divCalc:
		d.guard++
		if d.guard > divCalcBound {
			d.state = divRound
			return
		}
		d.iter--
		d.rem = d.rem<<1 | uint64(d.low>>uint(d.iter))&1
		if d.rem >= uint64(d.mb) {
			d.rem -= uint64(d.mb)
			d.q |= 1 << uint(d.iter)
		}
		if d.iter == 0 {
			d.state = divRound
		}

	case divRound:
		// Round to nearest: the next quotient bit is rem*2 / divisor.
		if d.rem<<1 >= uint64(d.mb) {
			d.q++
		}
		max := uint64(fixed.Max)
		if d.neg {
			max = uint64(fixed.Abs(fixed.Min))
		}
		if d.q > max {
			d.fail(false, true)
			return
		}
		d.state = divSign

	case divSign:
		if d.neg {
			d.Quotient = fixed.Q16(-int64(d.q))
		} else {
			d.Quotient = fixed.Q16(d.q)
		}
		d.Valid = true
		d.Busy = false
		d.state = divIdle
	}
}

// Reset returns the divider to its initial state.
func (d *Divider) Reset() {
	*d = Divider{}
}

func (d *Divider) fail(dbz, ovf bool) {
	d.DBZ = dbz
	d.Ovf = ovf
	d.Quotient = fixed.Max
	d.Valid = false
	d.Busy = false
	d.state = divIdle
}

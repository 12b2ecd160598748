// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package units

import (
	"github.com/MBaramia/Diss/fixed"
	"github.com/MBaramia/Diss/sim"
)

type expState uint8

const (
	expIdle expState = iota
	expPowers
	expSum1
	expSum2
	expSum3
	expHold
)

// expCoef[k] is 1/k! rounded to Q16.16, for the scaled series terms.
var expCoef = [8]fixed.Q16{
	2: 0x8000, // 1/2!
	3: 0x2AAB, // 1/3!
	4: 0x0AAB, // 1/4!
	5: 0x0222, // 1/5!
	6: 0x005B, // 1/6!
	7: 0x000D, // 1/7!
}

// Exp computes e^(-x) (the sign convention of the discounting factor)
// from the 8-term series 1 - x + x^2/2! - ... - x^7/7!.
//
// Successive powers x^2..x^7 are built one per tick through the first
// multiplier, each immediately scaled by its factorial reciprocal on the
// second; the eight signed terms are then summed with a balanced 3-level
// adder tree. Series truncation makes large |x| an accepted accuracy
// limitation, not a fault: the unit carries no error flag.
//
// Start is a level input with an internal rising-edge detector, so a
// caller that holds Start high still triggers a single computation.
type Exp struct {
	// Input ports, sampled every tick.
	Start bool
	X     fixed.Q16

	// Registered outputs.
	Out   fixed.Q16
	Valid bool // holds for two ticks
	Done  bool // one-tick pulse
	Busy  bool

	state     expState
	prevStart bool
	x         fixed.Q16
	power     fixed.Q16
	k         int
	term      [8]fixed.Q16
	sum       [4]fixed.Q16
}

// Tick advances the unit by one state transition.
func (e *Exp) Tick() {
	start := sim.Edge(e.prevStart, e.Start)
	e.prevStart = e.Start
	e.Done = false

	switch e.state {
	case expIdle:
		e.Valid = false
		if start {
			e.x = e.X
			e.term[0] = fixed.One
			e.term[1] = -e.x
			e.power = e.x
			e.k = 2
			e.Busy = true
			e.state = expPowers
		}

	case expPowers:
		// One new power per multiply-latency tick; the second multiplier
		// applies the factorial reciprocal to the fresh power.
		p, _ := fixed.Mul(e.power, e.x)
		t, _ := fixed.Mul(p, expCoef[e.k])
		if e.k&1 == 1 {
			t = -t
		}
		e.power = p
		e.term[e.k] = t
		e.k++
		if e.k == len(e.term) {
			e.state = expSum1
		}

	case expSum1:
		for i := range e.sum {
			e.sum[i] = fixed.SatAdd(e.term[2*i], e.term[2*i+1])
		}
		e.state = expSum2

	case expSum2:
		e.sum[0] = fixed.SatAdd(e.sum[0], e.sum[1])
		e.sum[1] = fixed.SatAdd(e.sum[2], e.sum[3])
		e.state = expSum3

	case expSum3:
		e.Out = fixed.SatAdd(e.sum[0], e.sum[1])
		e.Done = true
		e.Valid = true
		e.Busy = false
		e.state = expHold

	case expHold:
		// second valid tick
		e.state = expIdle
	}
}

// Reset returns the unit to its initial state.
func (e *Exp) Reset() {
	*e = Exp{}
}

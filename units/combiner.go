// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package units

import (
	"github.com/MBaramia/Diss/fixed"
)

type cbState uint8

const (
	cbIdle cbState = iota
	cbDiscount
	cbExpWait
	cbMul
	cbCombine
)

// Combiner folds the CDF outputs into the final option price:
//
//	call = S*N(d1) - K*e^(-rT)*N(d2)
//	put  = K*e^(-rT)*(1 - N(d2)) - S*(1 - N(d1))
//
// The discounting factor e^(-rT) comes from an internal exponential
// unit; the ExpStart/ExpDone pulses around it are observable so the top
// orchestrator can sequence against them.
//
// The combiner has no explicit valid signal: the price output simply
// registers and holds once computed. Completion is inferred upstream
// from the value settling non-zero.
type Combiner struct {
	exp Exp

	state   cbState
	pending bool

	rate, time   fixed.Q16
	spot, strike fixed.Q16
	nd1, nd2     fixed.Q16
	put          bool

	n        int
	discount fixed.Q16
	sn       fixed.Q16
	kd       fixed.Q16
	kdn      fixed.Q16

	price    fixed.Q16
	expStart bool
	expDone  bool
	busy     bool
}

// Start latches the combiner inputs on the norm-done handoff and begins
// a computation on the next tick. A start while the unit is busy is
// ignored.
func (c *Combiner) Start(rate, time, spot, strike, nd1, nd2 fixed.Q16, put bool) {
	if c.state != cbIdle {
		return
	}
	c.pending = true
	c.rate, c.time = rate, time
	c.spot, c.strike = spot, strike
	c.nd1, c.nd2 = nd1, nd2
	c.put = put
}

// Busy reports whether a computation is in flight.
func (c *Combiner) Busy() bool {
	return c.busy
}

// ExpStart reports, for one tick, that the discounting exponential was
// started.
func (c *Combiner) ExpStart() bool {
	return c.expStart
}

// ExpDone reports, for one tick, that the discounting exponential
// finished.
func (c *Combiner) ExpDone() bool {
	return c.expDone
}

// Price returns the registered option price. It holds its value until
// the next request or reset.
func (c *Combiner) Price() fixed.Q16 {
	return c.price
}

// Tick advances the unit by one state transition.
func (c *Combiner) Tick() {
	c.exp.Tick()
	c.expStart = false
	c.expDone = false

	switch c.state {
	case cbIdle:
		if c.pending {
			c.pending = false
			c.price = 0
			c.busy = true
			c.state = cbDiscount
		}

	case cbDiscount:
		rt, _ := fixed.Mul(c.rate, c.time)
		var f fixed.Q16
		c.n, f = splitExpArg(rt)
		c.exp.X = f
		c.exp.Start = true
		c.expStart = true
		c.state = cbExpWait

	case cbExpWait:
		c.exp.Start = false
		if c.exp.Done {
			if c.n >= len(expNegInt) {
				// rT beyond the reduction table: the discount underflows.
				c.discount = 0
			} else {
				c.discount, _ = fixed.Mul(c.exp.Out, expNegInt[c.n])
			}
			c.expDone = true
			c.state = cbMul
		}

	case cbMul:
		c.sn, _ = fixed.Mul(c.spot, c.nd1)
		c.kd, _ = fixed.Mul(c.strike, c.discount)
		c.kdn, _ = fixed.Mul(c.kd, c.nd2)
		c.state = cbCombine

	case cbCombine:
		if c.put {
			a, _ := fixed.Mul(c.kd, fixed.SatSub(fixed.One, c.nd2))
			b, _ := fixed.Mul(c.spot, fixed.SatSub(fixed.One, c.nd1))
			c.price = fixed.SatSub(a, b)
		} else {
			c.price = fixed.SatSub(c.sn, c.kdn)
		}
		c.busy = false
		c.state = cbIdle
	}
}

// Reset returns the unit and its internal exponential to their initial
// states.
func (c *Combiner) Reset() {
	*c = Combiner{}
}

// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package units

import (
	"github.com/MBaramia/Diss/fixed"
)

// Abramowitz-Stegun 26.2.16 constants in Q16.16.
const (
	cdfB       fixed.Q16 = 21805 // 0.33267
	cdfA1      fixed.Q16 = 28590 // 0.4361836
	cdfA2      fixed.Q16 = -7876 // -0.1201676
	cdfA3      fixed.Q16 = 61427 // 0.9372980
	invSqrt2Pi fixed.Q16 = 26145 // 1/sqrt(2*pi)

	// cdfSatLimit: beyond |x| = 3 the CDF saturates to 0 or 1.
	cdfSatLimit fixed.Q16 = 3 * fixed.One
)

// expNegInt[n] is e^(-n) in Q16.16, used to scale the series output of
// the exponential unit after integer argument reduction: e^(-y) for
// y = n + f is e^(-f) * e^(-n), keeping the series argument inside
// [0,1) where the 8-term truncation is accurate.
var expNegInt = [...]fixed.Q16{fixed.One, 24109, 8870, 3263, 1200}

// splitExpArg reduces a non-negative argument into an integer part n
// (clamped to the e^(-n) table) and a fractional part f in [0,1).
func splitExpArg(y fixed.Q16) (n int, f fixed.Q16) {
	if y < 0 {
		y = 0
	}
	n = int(y >> fixed.FracBits)
	if n >= len(expNegInt) {
		return len(expNegInt), 0
	}
	return n, y & (fixed.One - 1)
}

type ncState uint8

const (
	ncIdle ncState = iota
	ncPrep
	ncExpWait
	ncPoly
	ncAdvance
)

// NormCDF computes the standard normal CDF of d1 and d2 sequentially,
// using the Abramowitz-Stegun polynomial with the density factor
// e^(-x^2/2) produced by an internal exponential unit.
type NormCDF struct {
	exp Exp

	state   ncState
	pending bool
	d1, d2  fixed.Q16
	pass    int

	x   fixed.Q16
	ax  fixed.Q16
	n   int
	phi fixed.Q16
	nd  [2]fixed.Q16
	sat bool

	out1, out2 fixed.Q16
	done       bool
	busy       bool
}

// Start latches d1 and d2 and begins a computation on the next tick. A
// start while the unit is busy is ignored.
func (u *NormCDF) Start(d1, d2 fixed.Q16) {
	if u.state != ncIdle {
		return
	}
	u.pending = true
	u.d1, u.d2 = d1, d2
}

// Busy reports whether a computation is in flight.
func (u *NormCDF) Busy() bool {
	return u.busy
}

// Done reports completion for one tick.
func (u *NormCDF) Done() bool {
	return u.done
}

// Results returns N(d1) and N(d2).
func (u *NormCDF) Results() (nd1, nd2 fixed.Q16) {
	return u.out1, u.out2
}

// Tick advances the unit by one state transition.
func (u *NormCDF) Tick() {
	u.exp.Tick()
	u.done = false

	switch u.state {
	case ncIdle:
		if u.pending {
			u.pending = false
			u.pass = 0
			u.busy = true
			u.state = ncPrep
		}

	case ncPrep:
		u.x = u.d1
		if u.pass == 1 {
			u.x = u.d2
		}
		u.ax = u.x
		if u.ax < 0 {
			u.ax = -u.ax
		}
		if u.ax < 0 {
			// the magnitude of Min wraps; saturate it instead
			u.ax = fixed.Max
		}
		if u.ax >= cdfSatLimit {
			u.sat = true
			u.state = ncAdvance
			return
		}
		u.sat = false
		y, _ := fixed.Mul(u.ax, u.ax)
		var f fixed.Q16
		u.n, f = splitExpArg(y >> 1)
		u.exp.X = f
		u.exp.Start = true
		u.state = ncExpWait

	case ncExpWait:
		u.exp.Start = false
		if u.exp.Done {
			scaled, _ := fixed.Mul(u.exp.Out, expNegInt[u.n])
			u.phi, _ = fixed.Mul(scaled, invSqrt2Pi)
			u.state = ncPoly
		}

	case ncPoly:
		bx, _ := fixed.Mul(cdfB, u.ax)
		k, _, _ := fixed.Div(fixed.One, fixed.SatAdd(fixed.One, bx))
		// Horner: k*(a1 + k*(a2 + k*a3))
		p, _ := fixed.Mul(k, cdfA3)
		p, _ = fixed.Mul(k, fixed.SatAdd(cdfA2, p))
		p, _ = fixed.Mul(k, fixed.SatAdd(cdfA1, p))
		tail, _ := fixed.Mul(u.phi, p)
		if u.x >= 0 {
			u.nd[u.pass] = fixed.SatSub(fixed.One, tail)
		} else {
			u.nd[u.pass] = tail
		}
		u.state = ncAdvance

	case ncAdvance:
		if u.sat {
			if u.x >= 0 {
				u.nd[u.pass] = fixed.One
			} else {
				u.nd[u.pass] = 0
			}
		}
		if u.pass == 0 {
			u.pass = 1
			u.state = ncPrep
			return
		}
		u.out1, u.out2 = u.nd[0], u.nd[1]
		u.done = true
		u.busy = false
		u.state = ncIdle
	}
}

// Reset returns the unit and its internal exponential to their initial
// states.
func (u *NormCDF) Reset() {
	*u = NormCDF{}
}

// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package units

import (
	"github.com/MBaramia/Diss/fixed"
)

type sqrtState uint8

const (
	sqrtIdle sqrtState = iota
	sqrtCalc
	sqrtDone
)

// sqrtTopBit is the highest even bit of the 48-bit radicand raw<<16.
const sqrtTopBit = uint64(1) << 46

// Sqrt computes the Q16.16 square root of a non-negative radicand by
// bit-serial non-restoring square root over raw<<16, one result bit per
// tick. It has the same handshake shape as the divider: Busy while in
// flight, a one-tick valid pulse on completion. A negative radicand is
// clamped to zero.
type Sqrt struct {
	state   sqrtState
	pending bool
	x       fixed.Q16

	v    uint64
	bit  uint64
	root uint64

	out   fixed.Q16
	valid bool
	busy  bool
}

// Start latches the radicand and begins a computation on the next tick.
// A start while the unit is busy is ignored.
func (s *Sqrt) Start(radicand fixed.Q16) {
	if s.state != sqrtIdle {
		return
	}
	s.pending = true
	s.x = radicand
}

// Busy reports whether a computation is in flight.
func (s *Sqrt) Busy() bool {
	return s.busy
}

// Result returns the root and whether it is valid this tick.
func (s *Sqrt) Result() (fixed.Q16, bool) {
	return s.out, s.valid
}

// Tick advances the unit by one state transition.
func (s *Sqrt) Tick() {
	switch s.state {
	case sqrtIdle:
		s.valid = false
		if s.pending {
			s.pending = false
			x := s.x
			if x < 0 {
				x = 0
			}
			s.v = uint64(uint32(x)) << fixed.FracBits
			s.bit = sqrtTopBit
			s.root = 0
			s.busy = true
			s.state = sqrtCalc
		}

	case sqrtCalc:
		if s.v >= s.root+s.bit {
			s.v -= s.root + s.bit
			s.root = s.root>>1 + s.bit
		} else {
			s.root >>= 1
		}
		s.bit >>= 2
		if s.bit == 0 {
			s.state = sqrtDone
		}

	case sqrtDone:
		s.out = fixed.Q16(s.root)
		s.valid = true
		s.busy = false
		s.state = sqrtIdle
	}
}

// Reset returns the unit to its initial state.
func (s *Sqrt) Reset() {
	*s = Sqrt{}
}

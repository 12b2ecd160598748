// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

// Package sim provides the tick-synchronous simulation kernel: every
// component advances exactly one state transition per discrete time step,
// and all components of a Runner advance together in lockstep.
package sim

import (
	"github.com/pkg/errors"
)

// A Component is a clocked unit in a simulation. Tick advances the
// component by one state transition; Reset returns it to its initial
// state, discarding any in-flight computation.
//
// A component that has not finished a computation does not block: it
// reports busy through its own handshake signals and is polled again by
// its caller on the next tick.
type Component interface {
	Tick()
	Reset()
}

// Edge reports a rising edge given the previous and current level of a
// signal.
func Edge(prev, cur bool) bool {
	return cur && !prev
}

// A Runner owns an ordered set of components and advances them in
// lockstep. Components are ticked in the order given to New, which must
// be dependency order: within one tick, a downstream component always
// observes upstream outputs as they stood at the end of the previous
// tick.
type Runner struct {
	comps []Component
	ticks uint64
}

// New builds a runner for the given components.
func New(comps ...Component) (*Runner, error) {
	if len(comps) == 0 {
		return nil, errors.New("empty component list")
	}
	return &Runner{comps: comps}, nil
}

// Tick advances the simulation by one time step.
func (r *Runner) Tick() {
	for _, c := range r.comps {
		c.Tick()
	}
	r.ticks++
}

// Run advances the simulation by n time steps.
func (r *Runner) Run(n int) {
	for i := 0; i < n; i++ {
		r.Tick()
	}
}

// Ticks returns the number of elapsed time steps.
func (r *Runner) Ticks() uint64 {
	return r.ticks
}

// Reset asserts the global reset: every component returns to its initial
// state and all in-flight requests are discarded. The tick counter is
// not cleared.
func (r *Runner) Reset() {
	for _, c := range r.comps {
		c.Reset()
	}
}

// RunUntil advances the simulation until done reports true, or fails
// with an error once limit ticks have elapsed.
func (r *Runner) RunUntil(done func() bool, limit int) error {
	for i := 0; i < limit; i++ {
		if done() {
			return nil
		}
		r.Tick()
	}
	if done() {
		return nil
	}
	return errors.Errorf("no completion after %d ticks", limit)
}

// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

// Package pipeline contains the orchestrators that turn the five pricing
// inputs into d1/d2 and a final option price.
//
// The d1/d2 orchestrator drives the divider, the square-root unit and
// the logarithm concurrently (independent state machines in the same
// tick domain); the top orchestrator sequences it with the normal-CDF
// and price-combination collaborators into a single request/response
// cycle. One request is in flight at a time; a start while a request is
// in flight is rejected.
package pipeline

import (
	"github.com/google/uuid"

	"github.com/MBaramia/Diss/fixed"
)

// Request holds the five latched scalar inputs plus the option-type
// flag. It is created on a start pulse, owned exclusively by the
// orchestrator that latched it, and overwritten by the next start.
type Request struct {
	ID     uuid.UUID // correlation id for logging, not part of the dataflow
	Spot   fixed.Q16
	Strike fixed.Q16
	Time   fixed.Q16
	Vol    fixed.Q16
	Rate   fixed.Q16
	Put    bool
}

// Outcome reports how a request completed. A watchdog completion is an
// explicit, named outcome: the pipeline always produces some numeric
// result and asserts done (liveness over correctness), but the caller
// can tell substituted defaults apart from a genuine computation.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	// OutcomeSucceeded: every sub-result was computed and latched.
	OutcomeSucceeded
	// OutcomeTimedOut: a watchdog expired and default values were
	// substituted for the missing sub-results.
	OutcomeTimedOut
	// OutcomeStubbed: the fixed-output test backend supplied the
	// sub-results; no real computation ran.
	OutcomeStubbed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeTimedOut:
		return "timed-out"
	case OutcomeStubbed:
		return "stubbed"
	default:
		return "none"
	}
}

// SqrtUnit is the contract the d1/d2 orchestrator requires of the
// external square-root collaborator: same handshake shape as the
// divider, with a one-tick valid pulse.
type SqrtUnit interface {
	Tick()
	Reset()
	Start(radicand fixed.Q16)
	Busy() bool
	Result() (root fixed.Q16, valid bool)
}

// NormUnit is the contract of the external normal-CDF collaborator. It
// consumes the d1/d2 outputs directly and pulses Done for one tick.
type NormUnit interface {
	Tick()
	Reset()
	Start(d1, d2 fixed.Q16)
	Busy() bool
	Done() bool
	Results() (nd1, nd2 fixed.Q16)
}

// CombinerUnit is the contract of the external price-combination
// collaborator. It is started on the norm-done handoff, internally
// depends on an exponential discounting factor (observable through the
// ExpStart/ExpDone pulses), and registers the price without an explicit
// valid signal.
type CombinerUnit interface {
	Tick()
	Reset()
	Start(rate, time, spot, strike, nd1, nd2 fixed.Q16, put bool)
	Busy() bool
	ExpStart() bool
	ExpDone() bool
	Price() fixed.Q16
}

// StubResults is the fixed-output test backend: when configured, the
// orchestrator substitutes these values for the divider, square-root and
// logarithm results unconditionally, bypassing the real units.
type StubResults struct {
	Quotient fixed.Q16
	Root     fixed.Q16
	Log      fixed.Q16
}

// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package pipeline

import (
	"go.uber.org/zap"

	"github.com/MBaramia/Diss/fixed"
	"github.com/MBaramia/Diss/units"
)

// DefaultTopBound is the tick budget for a whole request at the top
// level. It covers the d1/d2 watchdog bound plus the depth of the
// normal-CDF and combiner sequences.
const DefaultTopBound = 600

type topState uint8

const (
	topWaitStart topState = iota
	topWaitNormDone
	topWaitExpStart
	topWaitExpDone
	topWaitResultValid
)

// TopConfig configures a top-level orchestrator. The zero value selects
// the reference collaborators, default bounds and a no-op logger.
type TopConfig struct {
	// D1D2 configures the owned d1/d2 orchestrator.
	D1D2 D1D2Config
	// Norm is the external normal-CDF collaborator. Nil selects the
	// reference units.NormCDF.
	Norm NormUnit
	// Combiner is the external price-combination collaborator. Nil
	// selects the reference units.Combiner.
	Combiner CombinerUnit
	// WatchdogBound is the whole-request tick budget. Zero selects
	// DefaultTopBound.
	WatchdogBound int
	// Logger receives completion events. Nil selects zap.NewNop().
	Logger *zap.Logger
}

// Top sequences the d1/d2 orchestrator, the normal-CDF unit and the
// price combiner into a single end-to-end request/response cycle.
//
// The combiner has no explicit valid signal, so completion is inferred
// from its price output being non-zero for two consecutive ticks. That
// heuristic misfires when a legitimate zero price is produced, so a
// top-level watchdog bounds the wait and completes the request with
// OutcomeTimedOut, keeping the pipeline live for any input.
type Top struct {
	// Registered outputs.
	Price fixed.Q16
	Done  bool // one-tick pulse
	// Outcome is meaningful on the Done pulse and until the next start.
	Outcome Outcome

	d1d2 *D1D2
	norm NormUnit
	comb CombinerUnit

	log   *zap.Logger
	bound int

	state   topState
	req     Request
	nonZero int
	wd      int
}

// NewTop builds a top-level orchestrator from cfg.
func NewTop(cfg TopConfig) *Top {
	t := &Top{
		d1d2:  NewD1D2(cfg.D1D2),
		norm:  cfg.Norm,
		comb:  cfg.Combiner,
		bound: cfg.WatchdogBound,
		log:   cfg.Logger,
	}
	if t.norm == nil {
		t.norm = &units.NormCDF{}
	}
	if t.comb == nil {
		t.comb = &units.Combiner{}
	}
	if t.bound <= 0 {
		t.bound = DefaultTopBound
	}
	if t.log == nil {
		t.log = zap.NewNop()
	}
	return t
}

// Busy reports whether a request is in flight.
func (t *Top) Busy() bool {
	return t.state != topWaitStart
}

// Start latches a request and forwards it unchanged to the d1/d2
// orchestrator. A start while a request is in flight is rejected.
func (t *Top) Start(req Request) {
	if t.state != topWaitStart {
		t.log.Warn("top: start rejected, request in flight",
			zap.Stringer("id", req.ID))
		return
	}
	t.req = req
	t.d1d2.Start(req)
	t.Done = false
	t.Outcome = OutcomeNone
	t.nonZero = 0
	t.wd = 0
	t.state = topWaitNormDone
}

// Tick advances the orchestrator and everything it owns by one state
// transition.
func (t *Top) Tick() {
	t.d1d2.Tick()
	t.norm.Tick()
	t.comb.Tick()
	t.Done = false

	if t.state == topWaitStart {
		return
	}

	t.wd++
	if t.wd >= t.bound {
		t.finish(t.comb.Price(), OutcomeTimedOut)
		return
	}

	switch t.state {
	case topWaitNormDone:
		if t.d1d2.NormStart {
			t.norm.Start(t.d1d2.D1, t.d1d2.D2)
		}
		if t.norm.Done() {
			nd1, nd2 := t.norm.Results()
			t.comb.Start(t.req.Rate, t.req.Time, t.req.Spot, t.req.Strike, nd1, nd2, t.req.Put)
			t.state = topWaitExpStart
		}

	case topWaitExpStart:
		if t.comb.ExpStart() {
			t.state = topWaitExpDone
		}

	case topWaitExpDone:
		if t.comb.ExpDone() {
			t.state = topWaitResultValid
		}

	case topWaitResultValid:
		// settled-value heuristic: the combiner has no valid signal
		if t.comb.Price() != 0 {
			t.nonZero++
		} else {
			t.nonZero = 0
		}
		if t.nonZero >= 2 {
			t.finish(t.comb.Price(), t.d1d2.Outcome)
		}
	}
}

func (t *Top) finish(price fixed.Q16, outcome Outcome) {
	t.Price = price
	t.Outcome = outcome
	t.Done = true
	t.state = topWaitStart
	if outcome == OutcomeTimedOut {
		t.log.Warn("top: request timed out",
			zap.Stringer("id", t.req.ID),
			zap.String("price", price.String()))
		return
	}
	t.log.Info("top: request complete",
		zap.Stringer("id", t.req.ID),
		zap.Stringer("outcome", outcome),
		zap.String("price", price.String()))
}

// Reset returns the orchestrator and everything it owns to their
// initial states, discarding any in-flight request.
func (t *Top) Reset() {
	t.d1d2.Reset()
	t.norm.Reset()
	t.comb.Reset()
	t.Price = 0
	t.Done = false
	t.Outcome = OutcomeNone
	t.state = topWaitStart
	t.req = Request{}
	t.nonZero = 0
	t.wd = 0
}

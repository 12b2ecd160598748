// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package pipeline

import (
	"go.uber.org/zap"

	"github.com/MBaramia/Diss/fixed"
	"github.com/MBaramia/Diss/units"
)

// DefaultWatchdogBound is the tick budget for the three concurrent
// sub-computations before default values are substituted.
const DefaultWatchdogBound = 200

// Default values substituted on watchdog expiry: 1.0 for the ratio and
// the root, 0.0 for the logarithm.
const (
	defaultQuotient = fixed.One
	defaultRoot     = fixed.One
	defaultLog      = fixed.Q16(0)
)

type d1d2State uint8

const (
	d1d2Idle d1d2State = iota
	d1d2WaitForInputs
	d1d2PrepCalc
	d1d2Stage1
	d1d2Stage2
	d1d2Stage3
	d1d2Stage4
	d1d2Stage5
	d1d2Stage6
	d1d2Done
)

// D1D2Config configures a d1/d2 orchestrator. The zero value selects
// the reference square-root unit, the default watchdog bound, a no-op
// logger and the real computation backend.
type D1D2Config struct {
	// Sqrt is the external square-root collaborator. Nil selects the
	// reference units.Sqrt.
	Sqrt SqrtUnit
	// WatchdogBound is the sub-computation tick budget. Zero selects
	// DefaultWatchdogBound.
	WatchdogBound int
	// Logger receives state-transition and completion events. Nil
	// selects zap.NewNop().
	Logger *zap.Logger
	// Stub, when non-nil, selects the fixed-output test backend.
	Stub *StubResults
}

// D1D2 latches the five pricing inputs on start, runs the divider,
// square-root and logarithm sub-computations, and combines their
// results into d1 and d2 through a six-stage scalar pipeline:
//
//	d1 = (ln(S/K) + (r + sigma^2/2)*T) / (sigma*sqrt(T))
//	d2 = d1 - sigma*sqrt(T)
//
// A watchdog guarantees liveness: if the sub-results are not all valid
// within the configured bound, defaults are substituted and the request
// completes with OutcomeTimedOut.
type D1D2 struct {
	// Registered outputs.
	D1 fixed.Q16
	D2 fixed.Q16
	// PipelineDone is level-high from completion until the next start.
	PipelineDone bool
	// NormStart is the one-shot handoff pulse to the normal-CDF unit.
	NormStart bool
	// Outcome is meaningful while PipelineDone is asserted.
	Outcome Outcome

	div  units.Divider
	logu units.Log
	sqrt SqrtUnit

	log   *zap.Logger
	bound int
	stub  *StubResults

	state   d1d2State
	pending bool
	req     Request

	quotient fixed.Q16
	root     fixed.Q16
	lnval    fixed.Q16
	divOK    bool
	sqrtOK   bool
	logOK    bool
	logSent  bool
	wd       int

	sigRootT fixed.Q16
	sigSq    fixed.Q16
	ratePlus fixed.Q16
	drift    fixed.Q16
	num      fixed.Q16
}

// NewD1D2 builds a d1/d2 orchestrator from cfg.
func NewD1D2(cfg D1D2Config) *D1D2 {
	p := &D1D2{
		sqrt:  cfg.Sqrt,
		bound: cfg.WatchdogBound,
		log:   cfg.Logger,
		stub:  cfg.Stub,
	}
	if p.sqrt == nil {
		p.sqrt = &units.Sqrt{}
	}
	if p.bound <= 0 {
		p.bound = DefaultWatchdogBound
	}
	if p.log == nil {
		p.log = zap.NewNop()
	}
	return p
}

// Busy reports whether a request is in flight.
func (p *D1D2) Busy() bool {
	return p.state != d1d2Idle
}

// Start latches a request and begins on the next tick. A start while a
// request is in flight is rejected.
func (p *D1D2) Start(req Request) {
	if p.state != d1d2Idle || p.pending {
		p.log.Warn("d1d2: start rejected, request in flight",
			zap.Stringer("id", req.ID))
		return
	}
	p.pending = true
	p.req = req
}

// Tick advances the orchestrator and its sub-units by one state
// transition. Sub-units tick first, so the orchestrator observes their
// outputs as registered at the end of the previous tick.
func (p *D1D2) Tick() {
	p.div.Tick()
	p.sqrt.Tick()
	p.logu.Tick()
	p.NormStart = false

	switch p.state {
	case d1d2Idle:
		if !p.pending {
			return
		}
		p.pending = false
		p.PipelineDone = false
		p.Outcome = OutcomeNone
		p.divOK, p.sqrtOK, p.logOK = false, false, false
		p.logSent = false
		p.wd = 0
		if p.stub != nil {
			// fixed-output test backend: bypass the real units
			p.quotient, p.root, p.lnval = p.stub.Quotient, p.stub.Root, p.stub.Log
			p.Outcome = OutcomeStubbed
			p.state = d1d2PrepCalc
			return
		}
		p.div.Start(p.req.Spot, p.req.Strike)
		p.sqrt.Start(p.req.Time)
		p.state = d1d2WaitForInputs

	case d1d2WaitForInputs:
		// each sub-result latches at most once per request
		if !p.divOK && p.div.Valid {
			p.divOK = true
			p.quotient = p.div.Quotient
		}
		if p.divOK && !p.logSent {
			p.logu.Start(p.quotient)
			p.logSent = true
		}
		if !p.sqrtOK {
			if r, ok := p.sqrt.Result(); ok {
				p.sqrtOK = true
				p.root = r
			}
		}
		if !p.logOK && p.logu.Valid {
			p.logOK = true
			p.lnval = p.logu.Out
		}
		if p.divOK && p.sqrtOK && p.logOK {
			p.state = d1d2PrepCalc
			return
		}
		p.wd++
		if p.wd >= p.bound {
			p.log.Warn("d1d2: watchdog expired, substituting defaults",
				zap.Stringer("id", p.req.ID),
				zap.Bool("div", p.divOK), zap.Bool("sqrt", p.sqrtOK), zap.Bool("log", p.logOK))
			if !p.divOK {
				p.quotient = defaultQuotient
			}
			if !p.sqrtOK {
				p.root = defaultRoot
			}
			if !p.logOK {
				p.lnval = defaultLog
			}
			p.divOK, p.sqrtOK, p.logOK = true, true, true
			p.Outcome = OutcomeTimedOut
			p.state = d1d2PrepCalc
		}

	case d1d2PrepCalc:
		p.state = d1d2Stage1

	case d1d2Stage1:
		p.sigRootT, _ = fixed.Mul(p.req.Vol, p.root)
		p.state = d1d2Stage2

	case d1d2Stage2:
		p.sigSq, _ = fixed.Mul(p.req.Vol, p.req.Vol)
		p.state = d1d2Stage3

	case d1d2Stage3:
		p.ratePlus = fixed.SatAdd(p.req.Rate, p.sigSq>>1)
		p.state = d1d2Stage4

	case d1d2Stage4:
		p.drift, _ = fixed.Mul(p.ratePlus, p.req.Time)
		p.state = d1d2Stage5

	case d1d2Stage5:
		p.num = fixed.SatAdd(p.lnval, p.drift)
		p.state = d1d2Stage6

	case d1d2Stage6:
		// direct division, not DividerUnit: a second multi-cycle
		// sub-pipeline here would double the request latency
		d1, dbz, _ := fixed.Div(p.num, p.sigRootT)
		if dbz {
			d1 = fixed.Max
		}
		p.D1 = d1
		p.D2 = fixed.SatSub(d1, p.sigRootT)
		p.state = d1d2Done

	case d1d2Done:
		p.PipelineDone = true
		p.NormStart = true
		if p.Outcome == OutcomeNone {
			p.Outcome = OutcomeSucceeded
		}
		p.log.Debug("d1d2: request complete",
			zap.Stringer("id", p.req.ID),
			zap.Stringer("outcome", p.Outcome),
			zap.String("d1", p.D1.String()),
			zap.String("d2", p.D2.String()))
		p.state = d1d2Idle
	}
}

// Reset returns the orchestrator and its sub-units to their initial
// states, discarding any in-flight request.
func (p *D1D2) Reset() {
	p.div.Reset()
	p.sqrt.Reset()
	p.logu.Reset()
	p.D1, p.D2 = 0, 0
	p.PipelineDone = false
	p.NormStart = false
	p.Outcome = OutcomeNone
	p.state = d1d2Idle
	p.pending = false
	p.req = Request{}
	p.quotient, p.root, p.lnval = 0, 0, 0
	p.divOK, p.sqrtOK, p.logOK, p.logSent = false, false, false, false
	p.wd = 0
	p.sigRootT, p.sigSq, p.ratePlus, p.drift, p.num = 0, 0, 0, 0, 0
}

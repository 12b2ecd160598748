// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package units_test

import (
	"math"
	"testing"

	"github.com/MBaramia/Diss/bstest"
	"github.com/MBaramia/Diss/fixed"
	"github.com/MBaramia/Diss/units"
)

func TestCombinerCallExact(t *testing.T) {
	// zero rate makes the discount exactly 1, so dyadic inputs combine
	// without rounding
	c := &units.Combiner{}
	c.Start(0, fixed.One, 2*fixed.One, fixed.One, fixed.One>>1, fixed.One>>2, false)
	bstest.Await(t, c, func() bool { return !c.Busy() && c.Price() != 0 }, 60)

	// 2*0.5 - 1*1*0.25
	if want := fixed.One>>1 + fixed.One>>2; c.Price() != want {
		t.Fatalf("call price = raw %d, want raw %d", c.Price(), want)
	}
}

func TestCombinerPutExact(t *testing.T) {
	c := &units.Combiner{}
	c.Start(0, fixed.One, fixed.One, 2*fixed.One, fixed.One>>1, fixed.One>>2, true)
	bstest.Await(t, c, func() bool { return !c.Busy() && c.Price() != 0 }, 60)

	// 2*1*(1-0.25) - 1*(1-0.5)
	if want := fixed.One; c.Price() != want {
		t.Fatalf("put price = raw %d, want raw %d", c.Price(), want)
	}
}

func TestCombinerDiscounting(t *testing.T) {
	// with N(d1) = N(d2) = 1 and S = K = 1, the call price collapses to
	// 1 - e^(-rT)
	for _, tt := range []struct{ rate, time float64 }{
		{0.05, 1}, {0.05, 0.25}, {0.1, 2}, {1, 1}, {2, 1.5},
	} {
		c := &units.Combiner{}
		c.Start(fixed.FromFloat(tt.rate), fixed.FromFloat(tt.time),
			fixed.One, fixed.One, fixed.One, fixed.One, false)
		bstest.Await(t, c, func() bool { return !c.Busy() && c.Price() != 0 }, 60)

		want := 1 - math.Exp(-tt.rate*tt.time)
		if diff := math.Abs(c.Price().Float() - want); diff > 3e-3 {
			t.Errorf("r=%v T=%v: price = %v, want %v (diff %v)",
				tt.rate, tt.time, c.Price().Float(), want, diff)
		}
	}
}

func TestCombinerDiscountUnderflow(t *testing.T) {
	// rT beyond the reduction table: discount is 0, the strike leg
	// vanishes
	c := &units.Combiner{}
	c.Start(fixed.FromInt(10), fixed.One, 2*fixed.One, fixed.FromInt(100), fixed.One, fixed.One, false)
	bstest.Await(t, c, func() bool { return !c.Busy() && c.Price() != 0 }, 60)

	if c.Price() != 2*fixed.One {
		t.Fatalf("price = raw %d, want raw %d (spot leg only)", c.Price(), 2*fixed.One)
	}
}

func TestCombinerExpPulses(t *testing.T) {
	c := &units.Combiner{}
	c.Start(fixed.One>>4, fixed.One, fixed.One, fixed.One, fixed.One, fixed.One, false)

	starts, dones := 0, 0
	for i := 0; i < 60; i++ {
		c.Tick()
		if c.ExpStart() {
			starts++
		}
		if c.ExpDone() {
			dones++
		}
	}
	if starts != 1 || dones != 1 {
		t.Fatalf("exp start/done pulsed %d/%d ticks, want 1/1", starts, dones)
	}
	for i := 0; i < 60; i++ {
		c.Tick()
	}
	if c.Busy() {
		t.Fatal("combiner still busy after completion")
	}
}

func TestCombinerPriceHolds(t *testing.T) {
	c := &units.Combiner{}
	c.Start(0, fixed.One, 2*fixed.One, fixed.One, fixed.One>>1, fixed.One>>2, false)
	bstest.Await(t, c, func() bool { return !c.Busy() && c.Price() != 0 }, 60)

	want := c.Price()
	for i := 0; i < 20; i++ {
		c.Tick()
		if c.Price() != want {
			t.Fatal("price did not hold after completion")
		}
	}
}

func TestCombinerReset(t *testing.T) {
	c := &units.Combiner{}
	c.Start(0, fixed.One, fixed.One, fixed.One, fixed.One, fixed.One, false)
	c.Tick()
	c.Tick()
	c.Reset()

	if c.Price() != 0 || c.Busy() {
		t.Fatal("stale state after reset")
	}
}

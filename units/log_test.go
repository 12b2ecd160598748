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

func TestLogExactCases(t *testing.T) {
	tests := []struct {
		x    fixed.Q16
		want fixed.Q16
	}{
		{fixed.One, 0},                // ln(1) = 0
		{2 * fixed.One, fixed.Ln2},    // ln(2)
		{4 * fixed.One, 2 * fixed.Ln2},
		{fixed.One >> 1, -fixed.Ln2},  // ln(0.5)
	}
	for _, tt := range tests {
		l := &units.Log{}
		l.Start(tt.x)
		bstest.Await(t, l, func() bool { return l.Valid }, 20)
		if l.Out != tt.want {
			t.Errorf("ln(%v) = %v (raw %d), want raw %d", tt.x, l.Out, l.Out, tt.want)
		}
	}
}

func TestLogAccuracy(t *testing.T) {
	// The cubic bounds the usable mantissa range: inputs here keep
	// mantissa-1 below 0.25, where the truncation error stays under the
	// stated tolerance.
	const eps = 2e-3
	for _, v := range []float64{
		1.0, 1.05, 1.1, 1.2, 1.25,
		2.1, 2.2, 2.5,
		4.2, 4.8,
		0.5, 0.55, 0.6,
		0.0625, 0.07,
		16.5, 19.0, 1024.0, 1100.0,
	} {
		x := fixed.FromFloat(v)
		l := &units.Log{}
		l.Start(x)
		bstest.Await(t, l, func() bool { return l.Valid }, 20)

		want := math.Log(x.Float())
		if diff := math.Abs(l.Out.Float() - want); diff > eps {
			t.Errorf("ln(%v) = %v, want %v (diff %v)", v, l.Out.Float(), want, diff)
		}
	}
}

func TestLogValidHoldsTwoTicks(t *testing.T) {
	l := &units.Log{}
	l.Start(3 * fixed.One / 2)

	run := 0
	for i := 0; i < 20; i++ {
		l.Tick()
		if l.Valid {
			run++
		} else if run > 0 {
			break
		}
	}
	if run != 2 {
		t.Fatalf("valid held for %d ticks, want 2", run)
	}
}

func TestLogClampsNonPositive(t *testing.T) {
	// x <= 0 is clamped to the smallest positive raw value
	want := fixed.Q16(-16 * int32(fixed.Ln2))
	for _, x := range []fixed.Q16{0, -fixed.One} {
		l := &units.Log{}
		l.Start(x)
		bstest.Await(t, l, func() bool { return l.Valid }, 20)
		if l.Out != want {
			t.Errorf("ln(%v) = raw %d, want raw %d", x, l.Out, want)
		}
	}
}

func TestLogReset(t *testing.T) {
	l := &units.Log{}
	l.Start(2 * fixed.One)
	l.Tick()
	l.Tick()
	l.Reset()

	for i := 0; i < 20; i++ {
		l.Tick()
		if l.Valid || l.Busy {
			t.Fatal("stale activity after reset")
		}
	}
}

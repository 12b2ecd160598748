// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

// Package bstest provides utility functions for testing the pricing
// pipeline: the float64 closed-form reference model and helpers that
// drive a unit to completion under a tick budget.
package bstest

import (
	"math"
	"testing"

	"github.com/MBaramia/Diss/sim"
)

// D1D2 returns the closed-form Black-Scholes risk factors.
func D1D2(s, k, t, sigma, r float64) (d1, d2 float64) {
	d1 = (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
	d2 = d1 - sigma*math.Sqrt(t)
	return d1, d2
}

// NormCDF returns the standard normal CDF.
func NormCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}

// Price returns the closed-form Black-Scholes option price.
func Price(s, k, t, sigma, r float64, put bool) float64 {
	d1, d2 := D1D2(s, k, t, sigma, r)
	if put {
		return k*math.Exp(-r*t)*NormCDF(-d2) - s*NormCDF(-d1)
	}
	return s*NormCDF(d1) - k*math.Exp(-r*t)*NormCDF(d2)
}

// Await ticks c until done reports true, failing the test once the
// budget is exhausted.
func Await(t *testing.T, c sim.Component, done func() bool, budget int) {
	t.Helper()
	for i := 0; i < budget; i++ {
		if done() {
			return
		}
		c.Tick()
	}
	if !done() {
		t.Fatalf("no completion after %d ticks", budget)
	}
}

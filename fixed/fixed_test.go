// Copyright 2024 M. Baramia
// Licensed under the MIT license. See license text in the LICENSE file.

package fixed_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/MBaramia/Diss/fixed"
)

func TestRoundTrip(t *testing.T) {
	// one unit in the last fractional bit
	const ulp = 1.0 / (1 << fixed.FracBits)

	for _, v := range []float64{
		0, 1, -1, 0.5, -0.5, 1.5, 3.1415926, -2.7182818,
		0.0001, -0.0001, 100.25, -100.25, 32767.9999, -32768,
	} {
		got := fixed.FromFloat(v).Float()
		if math.Abs(got-v) > ulp {
			t.Errorf("round trip %v: got %v, diff %v", v, got, math.Abs(got-v))
		}
	}
}

func TestFromFloatSaturates(t *testing.T) {
	if got := fixed.FromFloat(1e9); got != fixed.Max {
		t.Errorf("FromFloat(1e9) = %v, want Max", got)
	}
	if got := fixed.FromFloat(-1e9); got != fixed.Min {
		t.Errorf("FromFloat(-1e9) = %v, want Min", got)
	}
}

func TestSatAddSub(t *testing.T) {
	tests := []struct {
		name string
		got  fixed.Q16
		want fixed.Q16
	}{
		{"add", fixed.SatAdd(fixed.One, fixed.One), 2 * fixed.One},
		{"add saturates high", fixed.SatAdd(fixed.Max, fixed.One), fixed.Max},
		{"add saturates low", fixed.SatAdd(fixed.Min, -fixed.One), fixed.Min},
		{"sub", fixed.SatSub(fixed.One, fixed.One>>1), fixed.One >> 1},
		{"sub saturates", fixed.SatSub(fixed.Min, fixed.One), fixed.Min},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestMul(t *testing.T) {
	tests := []struct {
		a, b, want fixed.Q16
		ovf        bool
	}{
		{fixed.One, fixed.One, fixed.One, false},
		{2 * fixed.One, 3 * fixed.One, 6 * fixed.One, false},
		{fixed.One >> 1, fixed.One >> 1, fixed.One >> 2, false},
		{-fixed.One, 3 * fixed.One, -3 * fixed.One, false},
		{fixed.FromInt(30000), fixed.FromInt(30000), fixed.Max, true},
		{fixed.FromInt(-30000), fixed.FromInt(30000), fixed.Min, true},
	}
	for _, tt := range tests {
		got, ovf := fixed.Mul(tt.a, tt.b)
		if got != tt.want || ovf != tt.ovf {
			t.Errorf("Mul(%v, %v) = %v, %v, want %v, %v", tt.a, tt.b, got, ovf, tt.want, tt.ovf)
		}
	}
}

func TestDiv(t *testing.T) {
	q, dbz, ovf := fixed.Div(3*fixed.One, 2*fixed.One)
	if q != fixed.One+fixed.One>>1 || dbz || ovf {
		t.Errorf("Div(3, 2) = %v, dbz=%v, ovf=%v", q, dbz, ovf)
	}

	q, dbz, _ = fixed.Div(fixed.One, 0)
	if !dbz || q != fixed.Max {
		t.Errorf("Div(1, 0) = %v, dbz=%v, want Max, true", q, dbz)
	}

	_, _, ovf = fixed.Div(fixed.Min, fixed.One)
	if !ovf {
		t.Error("Div(Min, 1): expected ovf")
	}
	_, _, ovf = fixed.Div(fixed.One, fixed.Min)
	if !ovf {
		t.Error("Div(1, Min): expected ovf")
	}

	// quotient does not fit the format
	q, _, ovf = fixed.Div(fixed.FromInt(30000), fixed.Q16(7))
	if !ovf || q != fixed.Max {
		t.Errorf("Div(30000, tiny) = %v, ovf=%v, want Max, true", q, ovf)
	}
}

func TestDecimalInterop(t *testing.T) {
	tests := []struct {
		in   string
		want fixed.Q16
	}{
		{"1", fixed.One},
		{"1.5", fixed.One + fixed.One>>1},
		{"-0.25", -(fixed.One >> 2)},
		{"0", 0},
	}
	for _, tt := range tests {
		got, err := fixed.Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v (%d), want %d", tt.in, got, got, tt.want)
		}
	}

	if _, err := fixed.Parse("not-a-number"); err == nil {
		t.Error("Parse of garbage: expected error")
	}
	if _, err := fixed.Parse("1000000"); err == nil {
		t.Error("Parse out of range: expected error")
	}
	if _, err := fixed.FromDecimal(decimal.NewFromInt(1 << 20)); err == nil {
		t.Error("FromDecimal out of range: expected error")
	}

	// the decimal representation of a Q16.16 value is exact
	x := fixed.Q16(0x18000)
	if s := x.String(); s != "1.5" {
		t.Errorf("String() = %q, want \"1.5\"", s)
	}
	back, err := fixed.FromDecimal(x.Decimal())
	if err != nil || back != x {
		t.Errorf("decimal round trip = %v, %v", back, err)
	}
}

func TestAbs(t *testing.T) {
	if got := fixed.Abs(-fixed.One); got != uint32(fixed.One) {
		t.Errorf("Abs(-1) = %#x", got)
	}
	// the magnitude of Min is representable unsigned
	if got := fixed.Abs(fixed.Min); got != 0x80000000 {
		t.Errorf("Abs(Min) = %#x, want 0x80000000", got)
	}
}

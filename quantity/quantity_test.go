// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quantity

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func TestEquivalenceRoundTrip(tst *testing.T) {
	eq := Equivalence{StepsPerRev: 200, UnitsPerRev: 0.5}

	steps, err := eq.ToSteps(New(1, Revolutions))
	if err != nil {
		tst.Fatalf("ToSteps: %v", err)
	}
	chk.Scalar(tst, "1 rev in steps", 1e-12, steps.Value, 200)

	length, err := eq.ToLength(steps)
	if err != nil {
		tst.Fatalf("ToLength: %v", err)
	}
	chk.Scalar(tst, "200 steps in length", 1e-12, length.Value, 0.5)

	back, err := eq.ToRevolutions(length)
	if err != nil {
		tst.Fatalf("ToRevolutions: %v", err)
	}
	chk.Scalar(tst, "length back to rev", 1e-12, back.Value, 1)
}

func TestEquivalencePreservesDeriv(tst *testing.T) {
	eq := Equivalence{StepsPerRev: 400, UnitsPerRev: 1}
	v := NewDeriv(2, Revolutions, 1)
	steps, err := eq.ToSteps(v)
	if err != nil {
		tst.Fatalf("ToSteps: %v", err)
	}
	if steps.Deriv != 1 {
		tst.Errorf("deriv order not preserved: got %d, want 1", steps.Deriv)
	}
}

func TestToStepsIntTruncates(tst *testing.T) {
	got, err := ToStepsInt(New(12.9, Steps))
	if err != nil {
		tst.Fatalf("ToStepsInt: %v", err)
	}
	if got != 12 {
		tst.Errorf("ToStepsInt(12.9) = %d, want 12", got)
	}
	if _, err := ToStepsInt(New(1, Length)); err == nil {
		tst.Errorf("expected error converting a Length quantity via ToStepsInt")
	}
}

func TestAngleRadians(tst *testing.T) {
	rad, err := AngleRadians(New(180, Degrees))
	if err != nil {
		tst.Fatalf("AngleRadians: %v", err)
	}
	chk.Scalar(tst, "180deg in radians", 1e-12, rad, math.Pi)

	if _, err := AngleRadians(New(1, Steps)); err == nil {
		tst.Errorf("expected error interpreting Steps as an angle")
	}
}

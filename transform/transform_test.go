// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transform

import (
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/num"
	"github.com/cpmech/gosl/rnd"
)

func TestIdentityPassesPointsThrough(t *testing.T) {
	id := NewIdentity(2)
	pts := [][]float64{{1, 2}, {-3, 4.5}}
	drive, err := id.ToDrive(pts)
	if err != nil {
		t.Fatalf("ToDrive: %v", err)
	}
	for i, p := range drive {
		chk.Scalar(t, "x", 1e-12, p[0], pts[i][0])
		chk.Scalar(t, "y", 1e-12, p[1], pts[i][1])
	}
	ms, err := id.ToMotionSpace(pts)
	if err != nil {
		t.Fatalf("ToMotionSpace: %v", err)
	}
	for i, p := range ms {
		chk.Scalar(t, "x", 1e-12, p[0], pts[i][0])
		chk.Scalar(t, "y", 1e-12, p[1], pts[i][1])
	}
}

func TestIdentityRejectsWrongArity(t *testing.T) {
	id := NewIdentity(2)
	if _, err := id.ToDrive([][]float64{{1, 2, 3}}); err == nil {
		t.Errorf("expected dimension-mismatch error for a 3-arity point against a 2-D transform")
	}
}

func TestProbeExercisesBothDirections(t *testing.T) {
	if err := Probe(NewIdentity(2)); err != nil {
		t.Errorf("Probe(identity): %v", err)
	}
	if err := Probe(NewLapdXY(baseLapdCfg())); err != nil {
		t.Errorf("Probe(lapd_xy): %v", err)
	}
}

func baseLapdCfg() LapdXYConfig {
	return LapdXYConfig{
		PivotToCenter:   -50,
		PivotToDrive:    30,
		PivotToFeedthru: 20,
		ProbeAxisOffset: 2,
		DrivePolarity:   [2]float64{1, 1},
		MspacePolarity:  [2]float64{1, 1},
	}
}

func TestLapdXYRoundTripWithoutDroop(t *testing.T) {
	xf := NewLapdXY(baseLapdCfg())
	pts := [][]float64{{5, 8}, {-3, 2}, {0, 0}}

	drive, err := xf.ToDrive(pts)
	if err != nil {
		t.Fatalf("ToDrive: %v", err)
	}
	back, err := xf.ToMotionSpace(drive)
	if err != nil {
		t.Fatalf("ToMotionSpace: %v", err)
	}
	for i, p := range pts {
		chk.Scalar(t, "x round-trip", 1e-6, back[i][0], p[0])
		chk.Scalar(t, "y round-trip", 1e-6, back[i][1], p[1])
	}
}

func TestLapdXYRoundTripWithDroop(t *testing.T) {
	cfg := baseLapdCfg()
	cfg.Droop = DroopConfig{
		Enabled: true,
		Coeffs:  [4]float64{0, 1e-6, 0, 0},
		Scale:   1,
	}
	xf := NewLapdXY(cfg)
	pts := [][]float64{{4, 6}, {-2, 3}}

	drive, err := xf.ToDrive(pts)
	if err != nil {
		t.Fatalf("ToDrive: %v", err)
	}
	back, err := xf.ToMotionSpace(drive)
	if err != nil {
		t.Fatalf("ToMotionSpace: %v", err)
	}
	for i, p := range pts {
		chk.Scalar(t, "x round-trip (droop)", 1e-5, back[i][0], p[0])
		chk.Scalar(t, "y round-trip (droop)", 1e-5, back[i][1], p[1])
	}
}

// TestLapdXYRoundTripIsLocallyIdentity checks, via a central finite
// difference, that the composed ToDrive-then-ToMotionSpace map has unit
// derivative near a probe point — i.e. the two directions are genuine
// local inverses of one another, not just accidentally close at one
// sample.
func TestLapdXYRoundTripIsLocallyIdentity(t *testing.T) {
	xf := NewLapdXY(baseLapdCfg())
	y0 := 3.0

	roundTripX := func(x float64, args ...interface{}) (res float64) {
		drive, err := xf.ToDrive([][]float64{{x, y0}})
		if err != nil {
			t.Fatalf("ToDrive: %v", err)
		}
		back, err := xf.ToMotionSpace(drive)
		if err != nil {
			t.Fatalf("ToMotionSpace: %v", err)
		}
		return back[0][0]
	}

	dnum := num.DerivCen(roundTripX, 5.0)
	chk.AnaNum(t, "d(roundtrip x)/dx", 1e-4, 1.0, dnum, false)
}

// TestLapdXYRoundTripRandomPoints is the spec.md §8 round-trip property,
// sampled rather than fixed: gosl/rnd draws the points, the same package
// inp/sim.go uses for its own randomized-variable fixtures.
func TestLapdXYRoundTripRandomPoints(t *testing.T) {
	rnd.Init(2024)
	xf := NewLapdXY(baseLapdCfg())
	for i := 0; i < 50; i++ {
		p := []float64{rnd.Float64(-10, 10), rnd.Float64(-10, 10)}
		drive, err := xf.ToDrive([][]float64{p})
		if err != nil {
			t.Fatalf("ToDrive(%v): %v", p, err)
		}
		back, err := xf.ToMotionSpace(drive)
		if err != nil {
			t.Fatalf("ToMotionSpace(%v): %v", p, err)
		}
		chk.Scalar(t, "x round-trip", 1e-6, back[0][0], p[0])
		chk.Scalar(t, "y round-trip", 1e-6, back[0][1], p[1])
	}
}

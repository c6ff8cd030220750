// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transform

import (
	"math"

	"github.com/cpmech/gosl/la"
)

// LapdXYConfig holds the geometric parameters of spec.md §4.9.
type LapdXYConfig struct {
	PivotToCenter   float64 // signed
	PivotToDrive    float64
	PivotToFeedthru float64
	ProbeAxisOffset float64
	DrivePolarity   [2]float64 // +-1
	MspacePolarity  [2]float64 // +-1

	Droop DroopConfig
}

// DroopConfig parameterizes the optional cantilever droop correction of
// spec.md §4.9. Coeffs holds (a0, a1, a2, a3) for the polynomial
// a3*L^3 + a2*L^2 + a1*L + a0.
type DroopConfig struct {
	Enabled bool
	Coeffs  [4]float64
	Scale   float64 // droop_scale, 0 disables, 1 nominal
}

// LapdXY is the `lapd_xy` realization of spec.md §4.9: a 2-D coordinate
// transform between a probe's motion-space (x,y) and the linear-stage /
// feedthrough drive coordinates (e0,e1), with an optional droop
// correction composed around the affine core.
type LapdXY struct {
	base
	cfg LapdXYConfig
	p   float64 // |pivot_to_center|
}

// NewLapdXY builds a 2-D LaPD XY transform.
func NewLapdXY(cfg LapdXYConfig) *LapdXY {
	t := &LapdXY{cfg: cfg, p: math.Abs(cfg.PivotToCenter)}
	t.base = base{b: t}
	return t
}

func (t *LapdXY) ndim() int { return 2 }

// forwardCore computes (e0, e1) from motion-space (x, y), before droop
// and before drive_polarity.
func (t *LapdXY) forwardCore(x, y float64) (e0, e1 float64) {
	p := t.p
	theta := -math.Atan2(y, x+p)
	e0 = math.Sqrt(y*y+(p+x)*(p+x)) - p
	e1 = t.cfg.PivotToDrive*math.Tan(theta) + t.cfg.ProbeAxisOffset*(1-1/math.Cos(theta))
	return e0, e1
}

// inverseCore computes (x, y) from drive (e0, e1), pre-mspace_polarity.
func (t *LapdXY) inverseCore(e0, e1 float64) (x, y float64) {
	offset := t.cfg.ProbeAxisOffset
	sinAlpha := offset / math.Sqrt(t.cfg.PivotToDrive*t.cfg.PivotToDrive+(e1-offset)*(e1-offset))
	tanBeta := (e1 - offset) / -t.cfg.PivotToDrive
	theta := math.Atan(tanBeta) - math.Asin(sinAlpha)

	p := t.p
	x = e0*math.Cos(theta) - p*(1-math.Cos(theta))
	y = (e0 + p) * math.Sin(theta)
	return x, y
}

func (t *LapdXY) toDriveMatrix(point []float64) [][]float64 {
	x := point[0] * t.cfg.MspacePolarity[0]
	y := point[1] * t.cfg.MspacePolarity[1]
	e0, e1 := t.forwardCore(x, y)
	e0 *= t.cfg.DrivePolarity[0]
	e1 *= t.cfg.DrivePolarity[1]

	if t.cfg.Droop.Enabled {
		e0, e1 = applyDroop(t.cfg.Droop, t.cfg.PivotToFeedthru, e0, e1)
	}

	m := la.MatAlloc(3, 3)
	m[0][2] = e0
	m[1][2] = e1
	return m
}

func (t *LapdXY) toMotionSpaceMatrix(point []float64) [][]float64 {
	e0, e1 := point[0], point[1]

	if t.cfg.Droop.Enabled {
		var err error
		e0, e1, err = invertDroop(t.cfg.Droop, t.cfg.PivotToFeedthru, e0, e1)
		if err != nil {
			// Iteration failure: fall back to the un-corrected point so
			// the base-class shape contract still holds; the
			// non-convergence error is not reported to the caller.
			e0, e1 = point[0], point[1]
		}
	}

	e0 *= t.cfg.DrivePolarity[0]
	e1 *= t.cfg.DrivePolarity[1]
	x, y := t.inverseCore(e0, e1)
	x *= t.cfg.MspacePolarity[0]
	y *= t.cfg.MspacePolarity[1]

	m := la.MatAlloc(3, 3)
	m[0][2] = x
	m[1][2] = y
	return m
}

// droop evaluates the cantilever deflection model at drive point (e0,e1)
// relative to the ball-valve pivot (the drive-space origin), per
// spec.md §4.9.
func droop(cfg DroopConfig, pivotToFeedthru, e0, e1 float64) (dx, dy float64) {
	r := math.Hypot(e0, e1)
	l := r + pivotToFeedthru
	psi := math.Atan2(e1, e0)
	a := cfg.Coeffs
	poly := a[3]*l*l*l + a[2]*l*l + a[1]*l + a[0]
	delta := poly * l * math.Cos(psi) * cfg.Scale
	return -delta * math.Sin(psi), delta * math.Cos(psi)
}

// applyDroop maps a non-droop drive point to its droop-corrected
// counterpart (forward direction).
func applyDroop(cfg DroopConfig, pivotToFeedthru, e0, e1 float64) (float64, float64) {
	dx, dy := droop(cfg, pivotToFeedthru, e0, e1)
	return e0 + dx, e1 + dy
}

// invertDroop recovers the non-droop point from a droop-corrected target
// by fixed-point iteration, since droop() has no closed-form inverse
// (spec.md §4.9).
func invertDroop(cfg DroopConfig, pivotToFeedthru, targetE0, targetE1 float64) (float64, float64, error) {
	e0, e1 := targetE0, targetE1
	for i := 0; i < 100; i++ {
		dx, dy := droop(cfg, pivotToFeedthru, e0, e1)
		ce0, ce1 := e0+dx, e1+dy
		rx, ry := ce0-targetE0, ce1-targetE1
		if math.Hypot(rx, ry) < 1e-8 {
			return e0, e1, nil
		}
		e0 -= 1.5 * rx
		e1 -= 1.5 * ry
	}
	return e0, e1, errDroopDidNotConverge
}

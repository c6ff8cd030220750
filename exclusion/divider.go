// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exclusion

import "github.com/rocco8773/bapsf-motion-sub001/motionspace"

// divider implements the divider{slope, intercept, side} exclusion of
// spec.md §4.6: an affine half-plane test y - m*x - b ⋛ 0, excluding the
// side named by DividerSide, with a dedicated Vertical flag for the
// infinite-slope special case (a vertical line x = Intercept).
type divider struct {
	name      string
	governing bool
	vertical  bool
	slope     float64
	intercept float64
	side      DividerSide
}

func newDivider(spec Spec) *divider {
	return &divider{
		name:      spec.Name,
		governing: spec.Governing,
		vertical:  spec.Vertical,
		slope:     spec.Slope,
		intercept: spec.Intercept,
		side:      spec.DividerSide,
	}
}

func (d *divider) Name() string    { return d.name }
func (d *divider) Governing() bool { return d.governing }

func (d *divider) Compute(space *motionspace.Space, _ *motionspace.Mask) (*motionspace.Mask, error) {
	out := motionspace.AllTrue(space)
	iterateGrid(space, func(idx []int, pt []float64) {
		if d.excludes(pt) {
			out.Set(idx, false)
		}
	})
	return out, nil
}

// excludes reports whether pt lies in the excluded half-plane/half-space.
func (d *divider) excludes(pt []float64) bool {
	x, y := pt[0], pt[1]
	if d.vertical {
		// line is x = intercept; "axis0" refers to the x-coordinate side.
		switch d.side {
		case SidePlusAxis0:
			return x > d.intercept
		case SideMinusAxis0:
			return x < d.intercept
		default:
			return false
		}
	}
	val := y - d.slope*x - d.intercept
	switch d.side {
	case SidePlusAxis1:
		return val > 0
	case SideMinusAxis1:
		return val < 0
	case SidePlusAxis0:
		return x > (y-d.intercept)/nonzero(d.slope)
	case SideMinusAxis0:
		return x < (y-d.intercept)/nonzero(d.slope)
	default:
		return false
	}
}

func nonzero(v float64) float64 {
	if v == 0 {
		return 1e-300
	}
	return v
}

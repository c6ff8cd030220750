// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exclusion

import (
	"math"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/motionspace"
)

// lapdXY implements spec.md §4.6's composite chamber exclusion: a circular
// chamber wall, a port-aperture cutout, two cone-edge dividers bounding
// the probe's travel cone from the port, and a shadow cast from the
// port's pivot point. Always governing: it replaces the mask outright
// rather than ANDing into it, since its sub-exclusions already encode the
// full allowed region.
//
// Per the package doc, lapdXY calls only Compute (never Apply) on its
// children: this is the "skip_ds_add" composition spec.md describes,
// where a composite owns the merge policy for its whole subtree, and
// every child is computed against the same incoming mask rather than
// against one another's output.
type lapdXY struct {
	name          string
	diameter      float64
	pivotRadius   float64
	portAngleDeg  float64
	coneFullAngle float64
	includeCone   bool

	chamber   *circle
	port      *divider
	coneEdges []*divider
	shadow    *shadow2D
}

func newLapdXY(spec Spec) (*lapdXY, error) {
	radius := spec.Diameter / 2
	portAngle := spec.PortLocation.ResolveAngle()
	portRad := portAngle * math.Pi / 180

	pivot := [2]float64{
		spec.PivotRadius * math.Cos(portRad),
		spec.PivotRadius * math.Sin(portRad),
	}

	l := &lapdXY{
		name:          spec.Name,
		diameter:      spec.Diameter,
		pivotRadius:   spec.PivotRadius,
		portAngleDeg:  portAngle,
		coneFullAngle: spec.ConeFullAngle,
		includeCone:   spec.IncludeCone,
		chamber: &circle{
			name:      spec.Name + ".chamber",
			governing: false,
			radius:    radius,
			center:    [2]float64{0, 0},
			side:      SideOutside,
		},
		shadow: &shadow2D{
			name:   spec.Name + ".shadow",
			source: point2{pivot[0], pivot[1]},
		},
	}

	if !spec.IncludeCone {
		return l, nil
	}

	half := spec.ConeFullAngle / 2 * math.Pi / 180

	for _, sign := range []float64{-1, 1} {
		edgeAngle := portRad + sign*half
		slope, vertical := slopeFromAngle(edgeAngle)

		// Pick the side that keeps the chamber center (0,0) in the
		// permitted half-plane: the center lies on the port bearing,
		// inside the cone.
		side, err := sideContaining(point2{0, 0}, vertical, slope, pivot)
		if err != nil {
			return nil, err
		}
		l.coneEdges = append(l.coneEdges, &divider{
			name:      spec.Name + ".cone_edge",
			governing: false,
			vertical:  vertical,
			slope:     slope,
			intercept: interceptThrough(pivot, slope, vertical),
			side:      side,
		})
	}

	port, err := newPortDivider(spec.Name, radius, spec.PivotRadius, half, portRad, pivot)
	if err != nil {
		return nil, err
	}
	l.port = port

	return l, nil
}

// newPortDivider builds the port-aperture divider: the line through the
// two points where the cone edges intersect the chamber wall (spec.md
// §4.6), excluding the half-plane that does not contain the pivot —
// the geometric resolution of DESIGN.md open question 2, in place of the
// original's `|pivot_xy[0]|/radius > 0.1` numerical heuristic.
func newPortDivider(name string, chamberRadius, pivotRadius, halfConeAngle, portRad float64, pivot [2]float64) (*divider, error) {
	// Half-angle, as seen from the chamber center, between the port
	// bearing and each chamber-wall/cone-edge intersection.
	beta := math.Asin(pivotRadius*math.Sin(halfConeAngle)/chamberRadius) - halfConeAngle

	pt1 := [2]float64{
		chamberRadius * math.Cos(portRad+beta),
		chamberRadius * math.Sin(portRad+beta),
	}
	pt2 := [2]float64{
		chamberRadius * math.Cos(portRad-beta),
		chamberRadius * math.Sin(portRad-beta),
	}

	vertical := math.Abs(pt1[0]-pt2[0]) < 1e-9
	var slope float64
	if !vertical {
		slope = (pt1[1] - pt2[1]) / (pt1[0] - pt2[0])
	}
	intercept := interceptThrough(pt1, slope, vertical)

	side, err := sideContaining(point2{pivot[0], pivot[1]}, vertical, slope, pt1)
	if err != nil {
		return nil, err
	}

	return &divider{
		name:      name + ".port",
		governing: false,
		vertical:  vertical,
		slope:     slope,
		intercept: intercept,
		side:      side,
	}, nil
}

func (l *lapdXY) Name() string    { return l.name }
func (l *lapdXY) Governing() bool { return true }

func (l *lapdXY) Compute(space *motionspace.Space, current *motionspace.Mask) (*motionspace.Mask, error) {
	if space.NDim() != 2 {
		return nil, motionerr.DimMismatch("lapd_xy exclusion %q: requires a 2-D motion space", l.name)
	}

	// Every sub-exclusion is computed against the same incoming mask
	// (the "skip_ds_add" composition of spec.md §4.6), never against a
	// sibling's output.
	chamberMask, err := l.chamber.Compute(space, current)
	if err != nil {
		return nil, err
	}
	shadowMask, err := l.shadow.Compute(space, current)
	if err != nil {
		return nil, err
	}

	mask := chamberMask
	if l.includeCone {
		portMask, err := l.port.Compute(space, current)
		if err != nil {
			return nil, err
		}
		mask = mask.Or(portMask)
	}

	mask = mask.And(shadowMask)

	if l.includeCone {
		for _, d := range l.coneEdges {
			edgeMask, err := d.Compute(space, current)
			if err != nil {
				return nil, err
			}
			mask = mask.And(edgeMask)
		}
	}

	return mask, nil
}

// slopeFromAngle returns the line through the origin at the given angle,
// as (slope, vertical) — vertical=true when the angle is +/-90 degrees.
func slopeFromAngle(angle float64) (slope float64, vertical bool) {
	c := math.Cos(angle)
	if math.Abs(c) < 1e-9 {
		return 0, true
	}
	return math.Sin(angle) / c, false
}

// interceptThrough returns the y-intercept (or x-intercept, if vertical)
// of the line with the given slope passing through p.
func interceptThrough(p [2]float64, slope float64, vertical bool) float64 {
	if vertical {
		return p[0]
	}
	return p[1] - slope*p[0]
}

// sideContaining picks the DividerSide whose excluded half-plane does NOT
// contain target, for a line of the given slope passing through p.
func sideContaining(target point2, vertical bool, slope float64, p [2]float64) (DividerSide, error) {
	intercept := interceptThrough(p, slope, vertical)
	if vertical {
		if target.X > intercept {
			return SideMinusAxis0, nil
		}
		return SidePlusAxis0, nil
	}
	val := target.Y - slope*target.X - intercept
	if val > 0 {
		return SideMinusAxis1, nil
	}
	return SidePlusAxis1, nil
}

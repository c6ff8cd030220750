// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package exclusion implements spec.md §4.4/§4.6/§4.7's exclusion layers:
// generators contributing a boolean array to the motion-space mask.
//
// Per spec.md §9's design note, an Exclusion exposes two operations:
// Compute, a pure function from the current mask to a new array that
// never touches global state, and Apply, which merges Compute's result
// into a mask according to the regular-vs-governing policy. Composite
// exclusions (lapd_xy) call only Compute on their children, exactly the
// "skip_ds_add" behavior spec.md §4.6 describes.
package exclusion

import "github.com/rocco8773/bapsf-motion-sub001/motionspace"

// Kind identifies an exclusion-layer variant. A closed tagged union,
// compiled to an explicit switch in New (spec.md §9), not a registry.
type Kind int

const (
	KindCircle Kind = iota
	KindDivider
	KindShadow2D
	KindLapdXY
)

// Side selects which half-space a circle excludes. The zero value is
// SideOutside.
type Side int

const (
	SideOutside Side = iota
	SideInside
)

// DividerSide selects which half-plane a divider excludes.
type DividerSide int

const (
	SidePlusAxis0 DividerSide = iota
	SideMinusAxis0
	SidePlusAxis1
	SideMinusAxis1
)

// Spec is the declarative description of one exclusion layer (spec.md §6's
// motion_builder.exclusion entries).
type Spec struct {
	Name      string
	Kind      Kind
	Governing bool

	// circle
	Radius float64
	Center [2]float64
	Side   Side

	// divider
	Vertical    bool // true: line is x = Intercept (infinite slope)
	Slope       float64
	Intercept   float64
	DividerSide DividerSide

	// shadow2d
	Source [2]float64

	// lapd_xy
	Diameter       float64
	PivotRadius    float64
	PortLocation   PortLocation
	ConeFullAngle  float64
	IncludeCone    bool

	User map[string]any
}

// PortLocation names the LaPD port-location convention of spec.md §4.6:
// east=0deg, top=90deg, west=180deg, bottom=270deg, or an explicit angle.
type PortLocation struct {
	Named        string // "E","N","W","S", or "" if Angle is explicit
	AngleDegrees float64
}

// ResolveAngle returns the port angle in degrees.
func (p PortLocation) ResolveAngle() float64 {
	switch p.Named {
	case "E", "e", "east":
		return 0
	case "N", "n", "north", "top":
		return 90
	case "W", "w", "west":
		return 180
	case "S", "s", "south", "bottom":
		return 270
	default:
		return p.AngleDegrees
	}
}

// Exclusion contributes a boolean array that subtracts regions from the
// motion-space mask.
type Exclusion interface {
	Name() string
	Governing() bool
	// Compute returns a fresh array reflecting this exclusion's own
	// region, given the current accumulated mask (only shadow2d and
	// lapd_xy's internal shadow component actually consult current).
	Compute(space *motionspace.Space, current *motionspace.Mask) (*motionspace.Mask, error)
}

// Apply merges excl's Compute result into mask per the regular-vs-
// governing policy of spec.md §4.4: regular exclusions AND into the
// global mask, governing exclusions REPLACE it.
func Apply(excl Exclusion, space *motionspace.Space, mask *motionspace.Mask) (*motionspace.Mask, error) {
	out, err := excl.Compute(space, mask)
	if err != nil {
		return nil, err
	}
	if excl.Governing() {
		return out, nil
	}
	return mask.And(out), nil
}

// New builds an Exclusion from spec.
func New(spec Spec) (Exclusion, error) {
	switch spec.Kind {
	case KindCircle:
		return newCircle(spec), nil
	case KindDivider:
		return newDivider(spec), nil
	case KindShadow2D:
		return newShadow2D(spec), nil
	case KindLapdXY:
		return newLapdXY(spec)
	default:
		return nil, errUnknownKind(spec.Kind)
	}
}

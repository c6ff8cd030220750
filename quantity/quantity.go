// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package quantity implements unit-tagged scalars and the small closed
// algebra of conversions a probe-drive motion controller needs: steps,
// revolutions, physical length, time, and the angle units a transform
// works in, plus their time derivatives.
package quantity

import (
	"fmt"
	"math"
)

// Unit identifies one member of the closed unit algebra. Derived units
// (velocities, accelerations) are represented as a Unit paired with an
// integer time-derivative order, not as distinct tags.
type Unit int

const (
	// Steps counts motor steps; always an integer multiple once converted.
	Steps Unit = iota
	// Revolutions counts motor shaft revolutions.
	Revolutions
	// Length is a user-selected physical length unit (cm, inch, ...).
	// The concrete length unit a Quantity is in is carried out of band by
	// the Axis that produced it; Quantity itself only knows "this is a
	// length", matching how the source keeps per-axis `units` separate
	// from the numeric value.
	Length
	// Seconds is elapsed time.
	Seconds
	// Radians is an angle.
	Radians
	// Degrees is an angle.
	Degrees
)

func (u Unit) String() string {
	switch u {
	case Steps:
		return "steps"
	case Revolutions:
		return "rev"
	case Length:
		return "length"
	case Seconds:
		return "s"
	case Radians:
		return "rad"
	case Degrees:
		return "deg"
	default:
		return "unknown"
	}
}

// Quantity is a real number tagged with a Unit and a derivative order with
// respect to time (0 = position/displacement, 1 = velocity, 2 =
// acceleration, ...). Arithmetic is only ever performed through the
// conversion methods below, which enforce that unit and derivative order
// both participate correctly in a conversion.
type Quantity struct {
	Value derivOrder
	Unit  Unit
	Deriv int
}

type derivOrder = float64

// New builds a Quantity at derivative order 0 (a plain position/displacement).
func New(value float64, unit Unit) Quantity {
	return Quantity{Value: value, Unit: unit, Deriv: 0}
}

// NewDeriv builds a Quantity at an explicit derivative order, e.g.
// NewDeriv(v, Revolutions, 1) for a rev/s velocity.
func NewDeriv(value float64, unit Unit, deriv int) Quantity {
	return Quantity{Value: value, Unit: unit, Deriv: deriv}
}

// Equivalence is the contextual conversion table an Axis/Motor pair
// supplies: the rev<->steps and rev<->length multipliers that let
// Quantity cross unit boundaries. Both multipliers apply unchanged at
// every derivative order (a velocity converts with the same factor as a
// position; spec.md §4.2).
type Equivalence struct {
	// StepsPerRev is the motor's steps-per-revolution constant.
	StepsPerRev float64
	// UnitsPerRev is the axis's length-per-revolution pitch.
	UnitsPerRev float64
}

// ToSteps converts q (in Revolutions or Length) to Steps using eq.
func (eq Equivalence) ToSteps(q Quantity) (Quantity, error) {
	switch q.Unit {
	case Steps:
		return q, nil
	case Revolutions:
		return Quantity{Value: q.Value * eq.StepsPerRev, Unit: Steps, Deriv: q.Deriv}, nil
	case Length:
		rev := q.Value / eq.UnitsPerRev
		return Quantity{Value: rev * eq.StepsPerRev, Unit: Steps, Deriv: q.Deriv}, nil
	default:
		return Quantity{}, fmt.Errorf("quantity: cannot convert unit %s to steps", q.Unit)
	}
}

// ToRevolutions converts q (in Steps or Length) to Revolutions using eq.
func (eq Equivalence) ToRevolutions(q Quantity) (Quantity, error) {
	switch q.Unit {
	case Revolutions:
		return q, nil
	case Steps:
		return Quantity{Value: q.Value / eq.StepsPerRev, Unit: Revolutions, Deriv: q.Deriv}, nil
	case Length:
		return Quantity{Value: q.Value / eq.UnitsPerRev, Unit: Revolutions, Deriv: q.Deriv}, nil
	default:
		return Quantity{}, fmt.Errorf("quantity: cannot convert unit %s to revolutions", q.Unit)
	}
}

// ToLength converts q (in Steps or Revolutions) to Length using eq.
func (eq Equivalence) ToLength(q Quantity) (Quantity, error) {
	switch q.Unit {
	case Length:
		return q, nil
	case Revolutions:
		return Quantity{Value: q.Value * eq.UnitsPerRev, Unit: Length, Deriv: q.Deriv}, nil
	case Steps:
		rev := q.Value / eq.StepsPerRev
		return Quantity{Value: rev * eq.UnitsPerRev, Unit: Length, Deriv: q.Deriv}, nil
	default:
		return Quantity{}, fmt.Errorf("quantity: cannot convert unit %s to length", q.Unit)
	}
}

// ToStepsInt truncates a Steps-unit Quantity to an integer step count, the
// conversion the wire protocol requires for absolute-position commands
// (spec.md §4.1: "steps commands truncate to integer").
func ToStepsInt(q Quantity) (int64, error) {
	if q.Unit != Steps {
		return 0, fmt.Errorf("quantity: ToStepsInt requires Steps, got %s", q.Unit)
	}
	return int64(math.Trunc(q.Value)), nil
}

// AngleRadians converts a Radians or Degrees Quantity to a bare float64 in
// radians, the form the transform engine consumes.
func AngleRadians(q Quantity) (float64, error) {
	switch q.Unit {
	case Radians:
		return q.Value, nil
	case Degrees:
		return q.Value * math.Pi / 180, nil
	default:
		return 0, fmt.Errorf("quantity: cannot interpret unit %s as an angle", q.Unit)
	}
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layer implements spec.md §4.5 point layers: declarative
// generators producing a finite set of motion-space points. Variants are
// a closed tagged union; per spec.md §9's design note this compiles to an
// explicit switch in New, not a registry (the teacher's ele/factory.go
// registry idiom is deliberately not replicated here — the core contract
// is the switch, a user-extensibility registry is out of scope).
package layer

import "github.com/rocco8773/bapsf-motion-sub001/motionspace"

// Kind identifies a point-layer variant.
type Kind int

const (
	// KindGrid is the grid{limits,steps} variant (spec.md §4.5).
	KindGrid Kind = iota
)

// Spec is the declarative description of a point layer (spec.md §6's
// motion_builder.layer entries).
type Spec struct {
	Name   string
	Kind   Kind
	Limits [][2]float64
	Steps  []int
	User   map[string]any
}

// Layer produces a finite set of motion-space points.
type Layer interface {
	Name() string
	// Points returns an (M x N) array of point coordinates; space gives
	// the dimensionality N a layer must broadcast/validate against.
	Points(space *motionspace.Space) ([][]float64, error)
}

// New builds a Layer from spec.
func New(spec Spec) (Layer, error) {
	switch spec.Kind {
	case KindGrid:
		return newGrid(spec)
	default:
		return nil, errUnknownKind(spec.Kind)
	}
}

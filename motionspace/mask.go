// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package motionspace

import "gonum.org/v1/gonum/floats"

// Mask is a flat row-major N-D boolean array sized by a Space, true where
// the probe may go. A Space does not hold a Mask; AllTrue and AllFalse
// build one, and a fresh mask starts all-true (spec.md §3).
type Mask struct {
	Space *Space
	Data  []bool
}

// AllTrue returns a Mask over space with every cell true.
func AllTrue(space *Space) *Mask {
	data := make([]bool, space.Size())
	for i := range data {
		data[i] = true
	}
	return &Mask{Space: space, Data: data}
}

// AllFalse returns a Mask over space with every cell false.
func AllFalse(space *Space) *Mask {
	return &Mask{Space: space, Data: make([]bool, space.Size())}
}

// Clone returns an independent copy.
func (m *Mask) Clone() *Mask {
	data := make([]bool, len(m.Data))
	copy(data, m.Data)
	return &Mask{Space: m.Space, Data: data}
}

// Get returns the value at multi-index idx.
func (m *Mask) Get(idx []int) bool { return m.Data[m.Space.Flatten(idx)] }

// Set assigns the value at multi-index idx.
func (m *Mask) Set(idx []int, v bool) { m.Data[m.Space.Flatten(idx)] = v }

// NearestCellValue looks up the nearest cell to point (spec.md §4.4's
// is_excluded nearest-cell lookup).
func (m *Mask) NearestCellValue(point []float64) bool {
	return m.Get(m.Space.NearestIndex(point))
}

// And returns the elementwise logical AND of m and o (a regular
// exclusion's contribution merged into the global mask, spec.md §4.4).
func (m *Mask) And(o *Mask) *Mask {
	out := m.Clone()
	for i := range out.Data {
		out.Data[i] = out.Data[i] && o.Data[i]
	}
	return out
}

// Or returns the elementwise logical OR of m and o.
func (m *Mask) Or(o *Mask) *Mask {
	out := m.Clone()
	for i := range out.Data {
		out.Data[i] = out.Data[i] || o.Data[i]
	}
	return out
}

// IsAllTrue reports whether every cell is true, using a float64 cast of
// the mask through gonum/floats so the reduction is expressed the same
// way the pack's only gonum user (ZanzyTHEbar-circlejerk) scans arrays,
// rather than a bespoke bool loop.
func (m *Mask) IsAllTrue() bool {
	return floats.Min(asFloats(m.Data)) == 1
}

// IsAllFalse reports whether every cell is false.
func (m *Mask) IsAllFalse() bool {
	return floats.Max(asFloats(m.Data)) == 0
}

func asFloats(b []bool) []float64 {
	out := make([]float64, len(b))
	for i, v := range b {
		if v {
			out[i] = 1
		}
	}
	return out
}

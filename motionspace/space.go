// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package motionspace implements spec.md §3's MotionSpace and Mask: a
// regular N-D grid of cell centers and a boolean array over it, using
// gosl/utl.LinSpace for axis sampling the same way the teacher's ele
// package samples natural coordinates, and flat row-major storage the
// same way fem/domain.go keeps nodal arrays.
package motionspace

import (
	"github.com/cpmech/gosl/utl"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
)

// Dim is one dimension of a MotionSpace (spec.md §3).
type Dim struct {
	Label string
	Min   float64
	Max   float64
	Num   int
}

// Space is a regular N-D grid of cell centers with equal spacing per
// dimension.
type Space struct {
	Dims []Dim
	axes [][]float64 // axes[d] = LinSpace(min,max,num) per dimension
}

// New builds a Space, validating Num>=2 per dimension (spec.md §3).
func New(dims []Dim) (*Space, error) {
	if len(dims) == 0 {
		return nil, motionerr.Config("motion space must have at least one dimension")
	}
	s := &Space{Dims: append([]Dim(nil), dims...)}
	s.axes = make([][]float64, len(dims))
	for i, d := range dims {
		if d.Num < 2 {
			return nil, motionerr.Config("motion space dim %q: num must be >= 2, got %d", d.Label, d.Num)
		}
		if d.Max < d.Min {
			return nil, motionerr.Config("motion space dim %q: max < min", d.Label)
		}
		s.axes[i] = utl.LinSpace(d.Min, d.Max, d.Num)
	}
	return s, nil
}

// NDim returns the number of dimensions.
func (s *Space) NDim() int { return len(s.Dims) }

// Shape returns the per-dimension cell count.
func (s *Space) Shape() []int {
	out := make([]int, len(s.Dims))
	for i, d := range s.Dims {
		out[i] = d.Num
	}
	return out
}

// Spacing returns the per-dimension cell spacing (dx, dy, ...).
func (s *Space) Spacing() []float64 {
	out := make([]float64, len(s.Dims))
	for i, d := range s.Dims {
		if d.Num > 1 {
			out[i] = (d.Max - d.Min) / float64(d.Num-1)
		}
	}
	return out
}

// AxisValues returns the sampled coordinate values along dimension i.
func (s *Space) AxisValues(i int) []float64 { return s.axes[i] }

// Size returns the total number of cells.
func (s *Space) Size() int {
	n := 1
	for _, d := range s.Dims {
		n *= d.Num
	}
	return n
}

// InExtent reports whether point lies within [min,max] on every dimension.
func (s *Space) InExtent(point []float64) bool {
	if len(point) != len(s.Dims) {
		return false
	}
	for i, d := range s.Dims {
		if point[i] < d.Min || point[i] > d.Max {
			return false
		}
	}
	return true
}

// NearestIndex returns the multi-index of the cell nearest to point,
// clamped to the grid (callers check InExtent separately when extent
// matters).
func (s *Space) NearestIndex(point []float64) []int {
	idx := make([]int, len(s.Dims))
	for i, d := range s.Dims {
		if d.Num == 1 {
			idx[i] = 0
			continue
		}
		dx := (d.Max - d.Min) / float64(d.Num-1)
		k := int((point[i]-d.Min)/dx + 0.5)
		if k < 0 {
			k = 0
		}
		if k > d.Num-1 {
			k = d.Num - 1
		}
		idx[i] = k
	}
	return idx
}

// Flatten converts a multi-index to a flat row-major offset.
func (s *Space) Flatten(idx []int) int {
	off := 0
	for i, d := range s.Dims {
		off = off*d.Num + idx[i]
	}
	return off
}

// CellCenter returns the coordinates of the cell at multi-index idx.
func (s *Space) CellCenter(idx []int) []float64 {
	out := make([]float64, len(s.Dims))
	for i := range s.Dims {
		out[i] = s.axes[i][idx[i]]
	}
	return out
}

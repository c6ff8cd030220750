// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layer

import (
	"github.com/cpmech/gosl/utl"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/motionspace"
)

func errUnknownKind(k Kind) error {
	return motionerr.Config("layer: unknown kind %d", k)
}

// grid implements the grid{limits, steps} point layer of spec.md §4.5:
// every combination of linspace(min,max,s) along each dimension,
// inclusive on both endpoints, row-major ordered. A length-1 limits or
// steps list broadcasts across all dimensions (DESIGN.md open-question
// decision 1: this broadcast is intentional, not the source's np.repeate
// typo). A limit with min==max forces that dimension's num to 1.
type grid struct {
	name   string
	limits [][2]float64
	steps  []int
}

func newGrid(spec Spec) (*grid, error) {
	if len(spec.Limits) == 0 {
		return nil, motionerr.Config("grid layer %q: limits must not be empty", spec.Name)
	}
	if len(spec.Steps) == 0 {
		return nil, motionerr.Config("grid layer %q: steps must not be empty", spec.Name)
	}
	return &grid{name: spec.Name, limits: spec.Limits, steps: spec.Steps}, nil
}

func (g *grid) Name() string { return g.name }

func (g *grid) Points(space *motionspace.Space) ([][]float64, error) {
	n := space.NDim()
	limits := broadcast2(g.limits, n)
	steps := broadcastInt(g.steps, n)
	if len(limits) != n || len(steps) != n {
		return nil, motionerr.DimMismatch("grid layer %q: limits/steps do not broadcast to %d dimensions", g.name, n)
	}

	axes := make([][]float64, n)
	shape := make([]int, n)
	for i := 0; i < n; i++ {
		num := steps[i]
		if limits[i][0] == limits[i][1] {
			num = 1
		}
		if num < 1 {
			return nil, motionerr.Config("grid layer %q: dim %d steps must be >= 1", g.name, i)
		}
		axes[i] = utl.LinSpace(limits[i][0], limits[i][1], num)
		shape[i] = num
	}

	total := 1
	for _, s := range shape {
		total *= s
	}
	points := make([][]float64, total)
	idx := make([]int, n)
	for p := 0; p < total; p++ {
		pt := make([]float64, n)
		for d := 0; d < n; d++ {
			pt[d] = axes[d][idx[d]]
		}
		points[p] = pt
		// row-major odometer increment, last dimension fastest
		for d := n - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
	return points, nil
}

func broadcast2(in [][2]float64, n int) [][2]float64 {
	if len(in) == n {
		return in
	}
	if len(in) == 1 {
		out := make([][2]float64, n)
		for i := range out {
			out[i] = in[0]
		}
		return out
	}
	return in
}

func broadcastInt(in []int, n int) []int {
	if len(in) == n {
		return in
	}
	if len(in) == 1 {
		out := make([]int, n)
		for i := range out {
			out[i] = in[0]
		}
		return out
	}
	return in
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exclusion

import (
	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/motionspace"
)

func errUnknownKind(k Kind) error {
	return motionerr.Config("exclusion: unknown kind %d", k)
}

// circle implements the circle{radius, center, side} exclusion of
// spec.md §4.6: exclude the side of a radial half-space specified by
// Side (default SideOutside).
type circle struct {
	name      string
	governing bool
	radius    float64
	center    [2]float64
	side      Side
}

func newCircle(spec Spec) *circle {
	return &circle{
		name:      spec.Name,
		governing: spec.Governing,
		radius:    spec.Radius,
		center:    spec.Center,
		side:      spec.Side,
	}
}

func (c *circle) Name() string      { return c.name }
func (c *circle) Governing() bool   { return c.governing }

func (c *circle) Compute(space *motionspace.Space, _ *motionspace.Mask) (*motionspace.Mask, error) {
	if space.NDim() != 2 {
		return nil, motionerr.DimMismatch("circle exclusion %q: requires a 2-D motion space", c.name)
	}
	out := motionspace.AllTrue(space)
	r2 := c.radius * c.radius
	iterateGrid(space, func(idx []int, pt []float64) {
		dx := pt[0] - c.center[0]
		dy := pt[1] - c.center[1]
		d2 := dx*dx + dy*dy
		var inside bool
		switch c.side {
		case SideInside:
			inside = d2 <= r2
		default: // SideOutside
			inside = d2 > r2
		}
		if inside {
			out.Set(idx, false)
		}
	})
	return out, nil
}

// iterateGrid walks every cell of space's 2-D grid, calling fn with its
// multi-index and coordinates.
func iterateGrid(space *motionspace.Space, fn func(idx []int, pt []float64)) {
	shape := space.Shape()
	idx := make([]int, len(shape))
	total := space.Size()
	for p := 0; p < total; p++ {
		pt := space.CellCenter(idx)
		cp := make([]int, len(idx))
		copy(cp, idx)
		fn(cp, pt)
		for d := len(shape) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < shape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

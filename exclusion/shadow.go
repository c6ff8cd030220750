// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exclusion

import (
	"math"
	"sort"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/motionspace"
)

// shadow2D implements spec.md §4.7: given a source point and the current
// mask, mark only the cells visible from the source through the
// currently-unmasked region. Always a governing exclusion (§3).
type shadow2D struct {
	name   string
	source point2
}

func newShadow2D(spec Spec) *shadow2D {
	return &shadow2D{name: spec.Name, source: point2{spec.Source[0], spec.Source[1]}}
}

func (s *shadow2D) Name() string    { return s.name }
func (s *shadow2D) Governing() bool { return true }

func (s *shadow2D) Compute(space *motionspace.Space, current *motionspace.Mask) (*motionspace.Mask, error) {
	if space.NDim() != 2 {
		return nil, motionerr.DimMismatch("shadow exclusion %q: requires a 2-D motion space", s.name)
	}
	if current.IsAllTrue() || current.IsAllFalse() {
		return current.Clone(), nil
	}

	extent := [2][2]float64{{space.Dims[0].Min, space.Dims[0].Max}, {space.Dims[1].Min, space.Dims[1].Max}}
	sourceInExtent := s.source.X >= extent[0][0] && s.source.X <= extent[0][1] &&
		s.source.Y >= extent[1][0] && s.source.Y <= extent[1][1]

	if sourceInExtent && !current.NearestCellValue([]float64{s.source.X, s.source.Y}) {
		return motionspace.AllFalse(space), nil
	}

	spacing := space.Spacing()
	dx, dy := spacing[0], spacing[1]
	resolution := (dx + dy) / 2

	insertSides := insertionSides(s.source, extent)
	edges := buildEdgePool(space, current, extent, insertSides)

	visPoly := visibilityPolygon(s.source, edges, extent, resolution)

	out := motionspace.AllFalse(space)
	iterateGrid(space, func(idx []int, pt []float64) {
		if !current.Get(idx) {
			return
		}
		p := point2{pt[0], pt[1]}
		if pointVisible(s.source, p, visPoly) {
			out.Set(idx, true)
		}
	})
	return out, nil
}

// side names the four motion-space extent boundaries.
type side int

const (
	sideXMin side = iota
	sideXMax
	sideYMin
	sideYMax
)

// insertionSides returns the 0-2 boundary sides the probe enters through
// given S's location relative to the extent (spec.md §4.7 step 3).
func insertionSides(s point2, extent [2][2]float64) map[side]bool {
	out := map[side]bool{}
	if s.X < extent[0][0] {
		out[sideXMin] = true
	}
	if s.X > extent[0][1] {
		out[sideXMax] = true
	}
	if s.Y < extent[1][0] {
		out[sideYMin] = true
	}
	if s.Y > extent[1][1] {
		out[sideYMax] = true
	}
	return out
}

// buildEdgePool walks M along both axes for adjacent opposite-value
// cells, contributing axis-aligned edges offset to cell corners, fuses
// contiguous runs, then walks the boundary contributing true-run
// segments except through the insertion sides (spec.md §4.7 step 2).
func buildEdgePool(space *motionspace.Space, mask *motionspace.Mask, extent [2][2]float64, insert map[side]bool) []segment {
	shape := space.Shape()
	nx, ny := shape[0], shape[1]
	xs := space.AxisValues(0)
	ys := space.AxisValues(1)
	spacing := space.Spacing()
	dx, dy := spacing[0], spacing[1]

	var edges []segment

	// vertical edges: transitions along axis 0 (x) at fixed j.
	for j := 0; j < ny; j++ {
		for i := 0; i < nx-1; i++ {
			if mask.Get([]int{i, j}) != mask.Get([]int{i + 1, j}) {
				xEdge := (xs[i] + xs[i+1]) / 2
				a := point2{xEdge, ys[j] - dy/2}
				b := point2{xEdge, ys[j] + dy/2}
				edges = append(edges, segment{a, b})
			}
		}
	}

	// horizontal edges: transitions along axis 1 (y) at fixed i.
	for i := 0; i < nx; i++ {
		for j := 0; j < ny-1; j++ {
			if mask.Get([]int{i, j}) != mask.Get([]int{i, j + 1}) {
				yEdge := (ys[j] + ys[j+1]) / 2
				a := point2{xs[i] - dx/2, yEdge}
				b := point2{xs[i] + dx/2, yEdge}
				edges = append(edges, segment{a, b})
			}
		}
	}
	edges = fuseCollinear(edges)

	// boundary walk: contribute true-run portions of each side not an
	// insertion side.
	if !insert[sideXMin] {
		edges = append(edges, boundaryRuns(mask, extent, 0, true, ys, dy)...)
	}
	if !insert[sideXMax] {
		edges = append(edges, boundaryRuns(mask, extent, nx-1, true, ys, dy)...)
	}
	if !insert[sideYMin] {
		edges = append(edges, boundaryRuns(mask, extent, 0, false, xs, dx)...)
	}
	if !insert[sideYMax] {
		edges = append(edges, boundaryRuns(mask, extent, ny-1, false, xs, dx)...)
	}
	return edges
}

// boundaryRuns walks the column (fixAlongX=true, fixed i) or row
// (fixAlongX=false, fixed j) at index fixed, contributing one segment per
// contiguous run of true cells.
func boundaryRuns(mask *motionspace.Mask, extent [2][2]float64, fixed int, fixAlongX bool, vals []float64, spacing float64) []segment {
	var out []segment
	n := len(vals)
	var boundaryCoord float64
	if fixAlongX {
		if fixed == 0 {
			boundaryCoord = extent[0][0]
		} else {
			boundaryCoord = extent[0][1]
		}
	} else {
		if fixed == 0 {
			boundaryCoord = extent[1][0]
		} else {
			boundaryCoord = extent[1][1]
		}
	}

	inRun := false
	var runStart float64
	flush := func(end float64) {
		if !inRun {
			return
		}
		var a, b point2
		if fixAlongX {
			a = point2{boundaryCoord, runStart}
			b = point2{boundaryCoord, end}
		} else {
			a = point2{runStart, boundaryCoord}
			b = point2{end, boundaryCoord}
		}
		out = append(out, segment{a, b})
		inRun = false
	}
	for k := 0; k < n; k++ {
		var idx []int
		if fixAlongX {
			idx = []int{fixed, k}
		} else {
			idx = []int{k, fixed}
		}
		if mask.Get(idx) {
			if !inRun {
				inRun = true
				runStart = vals[k] - spacing/2
			}
		} else if inRun {
			flush(vals[k-1] + spacing/2)
		}
	}
	if inRun {
		flush(vals[n-1] + spacing/2)
	}
	return out
}

// fuseCollinear merges axis-aligned segments that share an edge and are
// contiguous, reducing the pool before ray casting (spec.md §4.7 step 2).
func fuseCollinear(edges []segment) []segment {
	changed := true
	for changed {
		changed = false
		for i := 0; i < len(edges); i++ {
			for j := i + 1; j < len(edges); j++ {
				if m, ok := tryFuse(edges[i], edges[j]); ok {
					edges[i] = m
					edges = append(edges[:j], edges[j+1:]...)
					changed = true
					break
				}
			}
			if changed {
				break
			}
		}
	}
	return edges
}

func tryFuse(a, b segment) (segment, bool) {
	const eps = 1e-9
	vertical := math.Abs(a.A.X-a.B.X) < eps
	if vertical && math.Abs(b.A.X-b.B.X) < eps && math.Abs(a.A.X-b.A.X) < eps {
		lo := math.Min(a.A.Y, a.B.Y)
		hi := math.Max(a.A.Y, a.B.Y)
		blo := math.Min(b.A.Y, b.B.Y)
		bhi := math.Max(b.A.Y, b.B.Y)
		if blo <= hi+eps && bhi >= lo-eps {
			return segment{point2{a.A.X, math.Min(lo, blo)}, point2{a.A.X, math.Max(hi, bhi)}}, true
		}
		return segment{}, false
	}
	horizontal := math.Abs(a.A.Y-a.B.Y) < eps
	if horizontal && math.Abs(b.A.Y-b.B.Y) < eps && math.Abs(a.A.Y-b.A.Y) < eps {
		lo := math.Min(a.A.X, a.B.X)
		hi := math.Max(a.A.X, a.B.X)
		blo := math.Min(b.A.X, b.B.X)
		bhi := math.Max(b.A.X, b.B.X)
		if blo <= hi+eps && bhi >= lo-eps {
			return segment{point2{math.Min(lo, blo), a.A.Y}, point2{math.Max(hi, bhi), a.A.Y}}, true
		}
		return segment{}, false
	}
	return segment{}, false
}

// visPolygon is the composite visibility polygon: a fan of endpoints
// sorted by angle around the source, ready for point-in-triangle tests.
type visPolygon struct {
	endpoints []point2
}

func visibilityPolygon(s point2, edges []segment, extent [2][2]float64, resolution float64) visPolygon {
	endpointSet := map[point2]bool{}
	for _, e := range edges {
		endpointSet[e.A] = true
		endpointSet[e.B] = true
	}

	type ray struct {
		angle float64
		end   point2
		ok    bool
	}
	var corners []ray
	for p := range endpointSet {
		dir := sub(p, s)
		if norm(dir) < 1e-12 {
			continue
		}
		if blockedBeforeEndpoint(s, dir, p, edges) {
			continue
		}
		corners = append(corners, ray{angle: angleOf(dir), end: p, ok: true})
	}

	var all []ray
	for _, c := range corners {
		all = append(all, c)
		r := norm(sub(c.end, s))
		delta := resolution / math.Max(r, resolution)
		for _, sign := range []float64{-1, 1} {
			phi := c.angle + sign*delta
			dir := point2{math.Cos(phi), math.Sin(phi)}
			end, hit := nearestForwardHit(s, dir, edges)
			if !hit {
				continue // escapes: dropped per step 6
			}
			if norm(sub(end, c.end)) < 0.5*resolution {
				continue // within half a cell of the corner ray: dropped
			}
			all = append(all, ray{angle: phi, end: end, ok: true})
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].angle < all[j].angle })
	pts := make([]point2, len(all))
	for i, r := range all {
		pts[i] = r.end
	}
	return visPolygon{endpoints: pts}
}

// blockedBeforeEndpoint reports whether a ray from s toward dir is
// occluded by an edge other than the one ending at target before
// reaching target (spec.md §4.7 step 4).
func blockedBeforeEndpoint(s point2, dir point2, target point2, edges []segment) bool {
	for _, e := range edges {
		if e.A == target || e.B == target {
			continue
		}
		mu, nu, ok := rayIntersect(s, dir, e)
		if !ok {
			continue
		}
		if mu >= 0 && mu < 1-1e-9 && nu >= 0 && nu <= 1 {
			return true
		}
	}
	return false
}

// nearestForwardHit returns the closest edge intersection strictly ahead
// of s along dir (spec.md §4.7 step 5).
func nearestForwardHit(s point2, dir point2, edges []segment) (point2, bool) {
	bestMu := math.Inf(1)
	var best point2
	found := false
	for _, e := range edges {
		mu, nu, ok := rayIntersect(s, dir, e)
		if !ok {
			continue
		}
		if mu >= 0 && nu >= 0 && nu <= 1 && mu < bestMu {
			bestMu = mu
			best = add(s, scale(dir, mu))
			found = true
		}
	}
	return best, found
}

// pointVisible tests whether p lies in any {s, endpoints[i], endpoints[i+1]}
// triangle of the visibility fan (spec.md §4.7 step 7).
func pointVisible(s point2, p point2, poly visPolygon) bool {
	n := len(poly.endpoints)
	if n < 2 {
		return false
	}
	for i := 0; i < n; i++ {
		a := poly.endpoints[i]
		b := poly.endpoints[(i+1)%n]
		if inTriangle(p, s, a, b) {
			return true
		}
	}
	return false
}

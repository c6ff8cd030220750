// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exclusion

import "math"

// point2 is a 2-D point. Kept distinct from []float64 so the shadow-cast
// geometry below reads like the vector algebra spec.md §4.7 describes.
type point2 struct{ X, Y float64 }

func sub(a, b point2) point2 { return point2{a.X - b.X, a.Y - b.Y} }
func add(a, b point2) point2 { return point2{a.X + b.X, a.Y + b.Y} }
func scale(a point2, s float64) point2 { return point2{a.X * s, a.Y * s} }
func norm(a point2) float64 { return math.Hypot(a.X, a.Y) }
func angleOf(a point2) float64 { return math.Atan2(a.Y, a.X) }

// segment is an axis-aligned or arbitrary edge between two endpoints.
type segment struct{ A, B point2 }

// rayIntersect solves S + mu*dir == seg.A + nu*(seg.B-seg.A) for (mu, nu),
// returning ok=false if the segment is parallel to dir (GeometrySingular
// territory — the caller treats "no solution" as "no intersection").
func rayIntersect(s point2, dir point2, seg segment) (mu, nu float64, ok bool) {
	e := sub(seg.B, seg.A)
	// [dir.X  -e.X] [mu]   [seg.A.X - s.X]
	// [dir.Y  -e.Y] [nu] = [seg.A.Y - s.Y]
	det := dir.X*(-e.Y) - (-e.X)*dir.Y
	if math.Abs(det) < 1e-15 {
		return 0, 0, false
	}
	rhs := sub(seg.A, s)
	mu = (rhs.X*(-e.Y) - (-e.X)*rhs.Y) / det
	nu = (dir.X*rhs.Y - dir.Y*rhs.X) / det
	return mu, nu, true
}

// barycentric computes the barycentric coordinates of p in triangle
// (a,b,c); ok=false for a degenerate (collinear) triangle, the
// GeometrySingular case spec.md §4.7 says to skip silently.
func barycentric(p, a, b, c point2) (l1, l2, l3 float64, ok bool) {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(denom) < 1e-12 {
		return 0, 0, 0, false
	}
	l1 = ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / denom
	l2 = ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / denom
	l3 = 1 - l1 - l2
	return l1, l2, l3, true
}

func inTriangle(p, a, b, c point2) bool {
	l1, l2, l3, ok := barycentric(p, a, b, c)
	if !ok {
		return false
	}
	const eps = 1e-9
	return l1 >= -eps && l1 <= 1+eps && l2 >= -eps && l2 <= 1+eps && l3 >= -eps && l3 <= 1+eps
}

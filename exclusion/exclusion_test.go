// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package exclusion

import (
	"testing"

	"github.com/rocco8773/bapsf-motion-sub001/motionspace"
)

func gridSpace(t *testing.T, minV, maxV float64, num int) *motionspace.Space {
	t.Helper()
	s, err := motionspace.New([]motionspace.Dim{
		{Label: "x", Min: minV, Max: maxV, Num: num},
		{Label: "y", Min: minV, Max: maxV, Num: num},
	})
	if err != nil {
		t.Fatalf("motionspace.New: %v", err)
	}
	return s
}

func TestNewUnknownKind(t *testing.T) {
	if _, err := New(Spec{Kind: Kind(99)}); err == nil {
		t.Errorf("expected error for unknown exclusion kind")
	}
}

func TestCircleDefaultExcludesOutside(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	excl, err := New(Spec{Name: "c1", Kind: KindCircle, Radius: 2, Center: [2]float64{0, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mask, err := excl.Compute(space, motionspace.AllTrue(space))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !mask.Get(space.NearestIndex([]float64{0, 0})) {
		t.Errorf("point at the center should remain allowed (inside radius)")
	}
	if mask.Get(space.NearestIndex([]float64{5, 5})) {
		t.Errorf("point far outside the radius should be excluded")
	}
}

func TestCircleSideInsideExcludesInterior(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	excl, err := New(Spec{Name: "c2", Kind: KindCircle, Radius: 2, Center: [2]float64{0, 0}, Side: SideInside})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mask, err := excl.Compute(space, motionspace.AllTrue(space))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if mask.Get(space.NearestIndex([]float64{0, 0})) {
		t.Errorf("SideInside should exclude the center point")
	}
	if !mask.Get(space.NearestIndex([]float64{5, 5})) {
		t.Errorf("SideInside should leave points outside the radius allowed")
	}
}

func TestCircleRejectsNon2D(t *testing.T) {
	space, err := motionspace.New([]motionspace.Dim{{Label: "x", Min: 0, Max: 1, Num: 2}})
	if err != nil {
		t.Fatalf("motionspace.New: %v", err)
	}
	excl, err := New(Spec{Name: "c3", Kind: KindCircle, Radius: 1})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := excl.Compute(space, motionspace.AllTrue(space)); err == nil {
		t.Errorf("expected dimension-mismatch error for a 1-D space")
	}
}

func TestDividerVerticalExcludesCorrectSide(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	excl, err := New(Spec{
		Name: "d1", Kind: KindDivider,
		Vertical: true, Intercept: 0, DividerSide: SidePlusAxis0,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mask, err := excl.Compute(space, motionspace.AllTrue(space))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if mask.Get(space.NearestIndex([]float64{3, 0})) {
		t.Errorf("x>0 should be excluded by SidePlusAxis0 on a vertical divider at x=0")
	}
	if !mask.Get(space.NearestIndex([]float64{-3, 0})) {
		t.Errorf("x<0 should remain allowed")
	}
}

func TestDividerHorizontalSlopeExcludesAboveLine(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	excl, err := New(Spec{
		Name: "d2", Kind: KindDivider,
		Slope: 0, Intercept: 0, DividerSide: SidePlusAxis1,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	mask, err := excl.Compute(space, motionspace.AllTrue(space))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if mask.Get(space.NearestIndex([]float64{0, 3})) {
		t.Errorf("y>0 should be excluded by SidePlusAxis1 on the line y=0")
	}
	if !mask.Get(space.NearestIndex([]float64{0, -3})) {
		t.Errorf("y<0 should remain allowed")
	}
}

func TestShadow2DAllTrueMaskIsUnobstructed(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	excl, err := New(Spec{Name: "s1", Kind: KindShadow2D, Source: [2]float64{0, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	current := motionspace.AllTrue(space)
	mask, err := excl.Compute(space, current)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !mask.IsAllTrue() {
		t.Errorf("a fully open mask has nothing to occlude, expected IsAllTrue")
	}
}

func TestShadow2DAllFalseMaskStaysFalse(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	excl, err := New(Spec{Name: "s2", Kind: KindShadow2D, Source: [2]float64{0, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	current := motionspace.AllFalse(space)
	mask, err := excl.Compute(space, current)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !mask.IsAllFalse() {
		t.Errorf("an entirely masked-false grid has nothing visible, expected IsAllFalse")
	}
}

func TestShadow2DSourceOnMaskedFalseCellReturnsAllFalse(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	excl, err := New(Spec{Name: "s3", Kind: KindShadow2D, Source: [2]float64{0, 0}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	current := motionspace.AllTrue(space)
	current.Set(space.NearestIndex([]float64{0, 0}), false)
	mask, err := excl.Compute(space, current)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !mask.IsAllFalse() {
		t.Errorf("an occluded source should see nothing, expected IsAllFalse (DESIGN.md decision 3)")
	}
}

func TestLapdXYGovernsAndExcludesChamberExterior(t *testing.T) {
	space := gridSpace(t, -10, 10, 21)
	excl, err := New(Spec{
		Name: "l1", Kind: KindLapdXY,
		Diameter: 10, PivotRadius: 6,
		PortLocation: PortLocation{Named: "E"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !excl.Governing() {
		t.Errorf("lapd_xy must always be governing")
	}
	mask, err := excl.Compute(space, motionspace.AllTrue(space))
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if !mask.Get(space.NearestIndex([]float64{0, 0})) {
		t.Errorf("chamber center should remain inside the chamber wall")
	}
	if mask.Get(space.NearestIndex([]float64{9, 9})) {
		t.Errorf("a point well outside the chamber diameter should be excluded")
	}
}

func TestLapdXYRejectsNon2D(t *testing.T) {
	space, err := motionspace.New([]motionspace.Dim{{Label: "x", Min: 0, Max: 1, Num: 2}})
	if err != nil {
		t.Fatalf("motionspace.New: %v", err)
	}
	excl, err := New(Spec{Name: "l2", Kind: KindLapdXY, Diameter: 10, PivotRadius: 6})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := excl.Compute(space, motionspace.AllTrue(space)); err == nil {
		t.Errorf("expected dimension-mismatch error for a 1-D space")
	}
}

func TestApplyRegularVsGoverningPolicy(t *testing.T) {
	space := gridSpace(t, -5, 5, 11)
	base := motionspace.AllTrue(space)

	regular, err := New(Spec{Name: "reg", Kind: KindCircle, Radius: 2, Governing: false})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	merged, err := Apply(regular, space, base)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if merged.Get(space.NearestIndex([]float64{5, 5})) {
		t.Errorf("regular exclusion should AND its region into the mask")
	}

	governing, err := New(Spec{Name: "gov", Kind: KindCircle, Radius: 2, Governing: true})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	replaced, err := Apply(governing, space, motionspace.AllFalse(space))
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !replaced.Get(space.NearestIndex([]float64{0, 0})) {
		t.Errorf("governing exclusion should replace the mask outright, not AND into it")
	}
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transform implements spec.md §4.8/§4.9: the coordinate-
// transform engine mapping motion-space points to drive-space points
// and back, through per-point affine (N+1)x(N+1) matrices built with
// gosl/la the same way the teacher's ele/solid packages build local
// rotation and stiffness matrices.
package transform

import (
	"github.com/cpmech/gosl/la"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
)

// matrixBuilder is implemented by each Transform realization: a pure
// function from one point to the (N+1)x(N+1) affine matrix that carries
// it between motion-space and drive-space.
type matrixBuilder interface {
	ndim() int
	toDriveMatrix(point []float64) [][]float64
	toMotionSpaceMatrix(point []float64) [][]float64
}

// Transform provides the two pure point-mapping functions of spec.md
// §4.8.
type Transform interface {
	NDim() int
	ToDrive(points [][]float64) ([][]float64, error)
	ToMotionSpace(points [][]float64) ([][]float64, error)
}

// base wraps a matrixBuilder with the shape-validated ToDrive/
// ToMotionSpace pair every Transform realization shares.
type base struct {
	b matrixBuilder
}

func (t base) NDim() int { return t.b.ndim() }

func (t base) ToDrive(points [][]float64) ([][]float64, error) {
	return t.apply(points, t.b.toDriveMatrix)
}

func (t base) ToMotionSpace(points [][]float64) ([][]float64, error) {
	return t.apply(points, t.b.toMotionSpaceMatrix)
}

func (t base) apply(points [][]float64, build func([]float64) [][]float64) ([][]float64, error) {
	n := t.b.ndim()
	out := make([][]float64, len(points))
	for i, p := range points {
		if len(p) != n {
			return nil, motionerr.DimMismatch("transform: point %d has arity %d, want %d", i, len(p), n)
		}
		mat := build(p)
		if err := validateMatrixShape(mat, n); err != nil {
			return nil, err
		}
		out[i] = applyAffine(mat, p)
	}
	return out, nil
}

// applyAffine multiplies point (with an appended 1) by mat, an
// (N+1)x(N+1) matrix, and drops the extra output coordinate — spec.md
// §4.8's "multiplied by appending a 1" rule.
func applyAffine(mat [][]float64, point []float64) []float64 {
	n := len(point)
	u := make([]float64, n+1)
	copy(u, point)
	u[n] = 1
	v := make([]float64, n+1)
	la.MatVecMul(v, 1, mat, u)
	return v[:n]
}

// validateMatrixShape is the base-class check spec.md §4.8 describes: an
// implementation that returns a different shape is a programmer error,
// surfaced as ProtocolError rather than panicking.
func validateMatrixShape(mat [][]float64, n int) error {
	if len(mat) != n+1 {
		return motionerr.Protocol("transform: matrix has %d rows, want %d", len(mat), n+1)
	}
	for _, row := range mat {
		if len(row) != n+1 {
			return motionerr.Protocol("transform: matrix row has %d cols, want %d", len(row), n+1)
		}
	}
	return nil
}

var errDroopDidNotConverge = motionerr.Protocol("transform: droop inverse iteration did not converge within 100 steps")

// Probe exercises t against a zero-point bundle of size N+2, the
// base-class validation spec.md §4.8 calls for.
func Probe(t Transform) error {
	n := t.NDim()
	zeros := make([][]float64, n+2)
	for i := range zeros {
		zeros[i] = make([]float64, n)
	}
	if _, err := t.ToDrive(zeros); err != nil {
		return err
	}
	if _, err := t.ToMotionSpace(zeros); err != nil {
		return err
	}
	return nil
}

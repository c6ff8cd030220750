// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transform

import "github.com/cpmech/gosl/la"

// Identity is the `identity` realization of spec.md §4.8: the matrix is
// diag(1,...,1,0) for every point, i.e. motion-space coordinates pass
// through to drive-space unchanged.
type Identity struct {
	base
	n int
}

// NewIdentity builds an n-dimensional identity transform.
func NewIdentity(n int) *Identity {
	t := &Identity{n: n}
	t.base = base{b: t}
	return t
}

func (t *Identity) ndim() int { return t.n }

func (t *Identity) toDriveMatrix(_ []float64) [][]float64       { return t.diag() }
func (t *Identity) toMotionSpaceMatrix(_ []float64) [][]float64 { return t.diag() }

func (t *Identity) diag() [][]float64 {
	m := la.MatAlloc(t.n+1, t.n+1)
	for i := 0; i < t.n; i++ {
		m[i][i] = 1
	}
	return m
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package motionbuilder implements spec.md §4.4: the MotionSpace, its
// Mask, and the catalogs of point layers and exclusion layers that
// together produce an ordered motion list. Grounded on the teacher's
// fem/domain.go pattern of an owning struct holding several sub-catalogs
// and lazily rebuilding derived state on mutation.
package motionbuilder

import (
	"github.com/rocco8773/bapsf-motion-sub001/exclusion"
	"github.com/rocco8773/bapsf-motion-sub001/layer"
	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/motionspace"
)

// Config is the declarative description of a MotionBuilder (spec.md §6's
// motion_builder config subtree).
type Config struct {
	Dims       []motionspace.Dim
	Layers     []layer.Spec
	Exclusions []exclusion.Spec
	User       map[string]any
}

// namedLayer pairs a layer with the spec it was built from, so
// add_layer/remove_layer can mutate the catalog by name.
type namedLayer struct {
	spec layer.Spec
	impl layer.Layer
}

type namedExclusion struct {
	spec exclusion.Spec
	impl exclusion.Exclusion
}

// Builder owns the MotionSpace, its Mask, and the layer catalogs
// (spec.md §4.4, components C5-C8). It is not safe for concurrent use
// from more than one goroutine; callers in a MotionGroup serialize
// access through the group's owning actor.
type Builder struct {
	space      *motionspace.Space
	layers     []namedLayer
	exclusions []namedExclusion

	mask       *motionspace.Mask
	maskDirty  bool
	list       [][]float64
	listDirty  bool
}

// New constructs a Builder from cfg, building the MotionSpace and every
// layer/exclusion named in it.
func New(cfg Config) (*Builder, error) {
	space, err := motionspace.New(cfg.Dims)
	if err != nil {
		return nil, err
	}
	b := &Builder{space: space, maskDirty: true, listDirty: true}

	for _, ls := range cfg.Layers {
		impl, err := layer.New(ls)
		if err != nil {
			return nil, err
		}
		b.layers = append(b.layers, namedLayer{spec: ls, impl: impl})
	}
	for _, es := range cfg.Exclusions {
		impl, err := exclusion.New(es)
		if err != nil {
			return nil, err
		}
		b.exclusions = append(b.exclusions, namedExclusion{spec: es, impl: impl})
	}
	return b, nil
}

// Space returns the underlying MotionSpace.
func (b *Builder) Space() *motionspace.Space { return b.space }

// AddLayer appends a point layer and invalidates the cached motion list
// (spec.md §4.4).
func (b *Builder) AddLayer(spec layer.Spec) error {
	for _, l := range b.layers {
		if l.spec.Name == spec.Name {
			return motionerr.Config("motion builder: layer %q already exists", spec.Name)
		}
	}
	impl, err := layer.New(spec)
	if err != nil {
		return err
	}
	b.layers = append(b.layers, namedLayer{spec: spec, impl: impl})
	b.listDirty = true
	return nil
}

// RemoveLayer drops the named point layer.
func (b *Builder) RemoveLayer(name string) error {
	for i, l := range b.layers {
		if l.spec.Name == name {
			b.layers = append(b.layers[:i], b.layers[i+1:]...)
			b.listDirty = true
			return nil
		}
	}
	return motionerr.Config("motion builder: no such layer %q", name)
}

// AddExclusion appends an exclusion layer and invalidates both the mask
// and the cached motion list.
func (b *Builder) AddExclusion(spec exclusion.Spec) error {
	for _, e := range b.exclusions {
		if e.spec.Name == spec.Name {
			return motionerr.Config("motion builder: exclusion %q already exists", spec.Name)
		}
	}
	impl, err := exclusion.New(spec)
	if err != nil {
		return err
	}
	b.exclusions = append(b.exclusions, namedExclusion{spec: spec, impl: impl})
	b.maskDirty = true
	b.listDirty = true
	return nil
}

// RemoveExclusion drops the named exclusion layer.
func (b *Builder) RemoveExclusion(name string) error {
	for i, e := range b.exclusions {
		if e.spec.Name == name {
			b.exclusions = append(b.exclusions[:i], b.exclusions[i+1:]...)
			b.maskDirty = true
			b.listDirty = true
			return nil
		}
	}
	return motionerr.Config("motion builder: no such exclusion %q", name)
}

// RebuildMask resets the mask to all-true, then applies every exclusion
// in insertion order: regular exclusions AND into the running mask,
// governing exclusions REPLACE it outright (spec.md §4.4's ordering
// rule — a later governing exclusion overwrites earlier work).
func (b *Builder) RebuildMask() (*motionspace.Mask, error) {
	mask := motionspace.AllTrue(b.space)
	for _, e := range b.exclusions {
		next, err := exclusion.Apply(e.impl, b.space, mask)
		if err != nil {
			return nil, err
		}
		mask = next
	}
	b.mask = mask
	b.maskDirty = false
	return mask, nil
}

// Mask returns the current mask, rebuilding it first if stale.
func (b *Builder) Mask() (*motionspace.Mask, error) {
	if b.maskDirty || b.mask == nil {
		return b.RebuildMask()
	}
	return b.mask, nil
}

// MotionList lazily computes the ordered sequence of reachable points:
// concatenate every point layer's flattened points, keep only those
// whose nearest mask cell is true, preserving layer order and each
// layer's internal order (spec.md §4.4).
func (b *Builder) MotionList() ([][]float64, error) {
	if !b.listDirty && b.list != nil {
		return b.list, nil
	}
	mask, err := b.Mask()
	if err != nil {
		return nil, err
	}

	var out [][]float64
	for _, l := range b.layers {
		pts, err := l.impl.Points(b.space)
		if err != nil {
			return nil, err
		}
		for _, p := range pts {
			if !b.space.InExtent(p) {
				continue
			}
			if mask.NearestCellValue(p) {
				out = append(out, p)
			}
		}
	}
	b.list = out
	b.listDirty = false
	return out, nil
}

// IsExcluded reports whether point's nearest mask cell is false
// (spec.md §4.4).
func (b *Builder) IsExcluded(point []float64) (bool, error) {
	mask, err := b.Mask()
	if err != nil {
		return false, err
	}
	return !mask.NearestCellValue(point), nil
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package motiongroup implements spec.md §4.10: the MotionGroup actor
// composing a Drive, a MotionBuilder, and a Transform into the
// user-facing move/position/stop surface.
package motiongroup

import (
	"context"
	"time"

	"github.com/rocco8773/bapsf-motion-sub001/actorstate"
	"github.com/rocco8773/bapsf-motion-sub001/drive"
	"github.com/rocco8773/bapsf-motion-sub001/motionbuilder"
	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/quantity"
	"github.com/rocco8773/bapsf-motion-sub001/runloop"
	"github.com/rocco8773/bapsf-motion-sub001/transform"
)

// Config holds a MotionGroup's name and the drive and motion-builder
// subtrees of spec.md §6's mg_config; the Transform is passed to New
// separately.
type Config struct {
	Name    string
	Drive   drive.Config
	Builder motionbuilder.Config
	User    map[string]any
}

// Group is the MotionGroup actor of spec.md §4.10.
type Group struct {
	state *actorstate.Box

	name    string
	drv     *drive.Drive
	builder *motionbuilder.Builder
	xform   transform.Transform
	loop    *runloop.Loop

	lastIndex int
}

// New constructs a Group's Drive and MotionBuilder from cfg and wires xf
// in as its Transform. Dimensionality between the drive, the motion
// builder's space, and the transform must agree (spec.md §4.10/§7
// ConfigInvalid).
func New(cfg Config, xf transform.Transform) (*Group, error) {
	d, err := drive.New(cfg.Drive)
	if err != nil {
		return nil, err
	}
	b, err := motionbuilder.New(cfg.Builder)
	if err != nil {
		return nil, err
	}
	if err := checkDimensions(d, b, xf); err != nil {
		return nil, err
	}
	return &Group{
		state:     actorstate.NewBox(),
		name:      cfg.Name,
		drv:       d,
		builder:   b,
		xform:     xf,
		lastIndex: -1,
	}, nil
}

func checkDimensions(d *drive.Drive, b *motionbuilder.Builder, xf transform.Transform) error {
	if d.Arity() != xf.NDim() {
		return motionerr.Config("motion group: drive arity %d disagrees with transform dimensionality %d", d.Arity(), xf.NDim())
	}
	if b.Space().NDim() != xf.NDim() {
		return motionerr.Config("motion group: motion builder dimensionality %d disagrees with transform dimensionality %d", b.Space().NDim(), xf.NDim())
	}
	return nil
}

// Name returns the group's configured name.
func (g *Group) Name() string { return g.name }

// SetLoop attaches the RunManager event loop this group's Drive submits
// its motors' TCP I/O through (spec.md §5). It is remembered so a later
// ReplaceDrive re-applies it to the new Drive.
func (g *Group) SetLoop(l *runloop.Loop) {
	g.loop = l
	g.drv.SetLoop(l)
}

// Run connects the underlying Drive.
func (g *Group) Run(ctx context.Context) error {
	if err := g.drv.Run(ctx); err != nil {
		return err
	}
	g.state.Set(actorstate.Ready)
	return nil
}

// Terminate tears down the underlying Drive.
func (g *Group) Terminate(drain time.Duration) {
	g.drv.Terminate(drain)
	g.state.Set(actorstate.Terminated)
}

// MoveTo transforms a motion-space point to drive coordinates and
// delegates to the Drive (spec.md §4.10). If axisName is non-empty, only
// that axis's component of the transformed point is sent.
func (g *Group) MoveTo(ctx context.Context, point []float64, axisName string) error {
	if len(point) != g.xform.NDim() {
		return motionerr.DimMismatch("motion group %s: point has arity %d, want %d", g.name, len(point), g.xform.NDim())
	}
	excluded, err := g.builder.IsExcluded(point)
	if err != nil {
		return err
	}
	if excluded {
		return motionerr.OutOfReachf("motion group %s: point %v is excluded by the motion mask", g.name, point)
	}

	drivePts, err := g.xform.ToDrive([][]float64{point})
	if err != nil {
		return err
	}
	drivePoint := drivePts[0]
	qs := make([]quantity.Quantity, len(drivePoint))
	for i, v := range drivePoint {
		qs[i] = quantity.New(v, quantity.Length)
	}
	return g.drv.MoveTo(ctx, qs, axisName)
}

// MoveToIndex selects a point from the cached motion list by index and
// calls MoveTo (spec.md §4.10).
func (g *Group) MoveToIndex(ctx context.Context, i int) error {
	list, err := g.builder.MotionList()
	if err != nil {
		return err
	}
	if i < 0 || i >= len(list) {
		return motionerr.Config("motion group %s: index %d out of range [0,%d)", g.name, i, len(list))
	}
	g.lastIndex = i
	return g.MoveTo(ctx, list[i], "")
}

// MoveNext, MoveFirst, MoveLast implement the "next"/"first"/"last"
// motion-list selectors of spec.md §4.10.
func (g *Group) MoveNext(ctx context.Context) error {
	return g.MoveToIndex(ctx, g.lastIndex+1)
}

func (g *Group) MoveFirst(ctx context.Context) error {
	return g.MoveToIndex(ctx, 0)
}

func (g *Group) MoveLast(ctx context.Context) error {
	list, err := g.builder.MotionList()
	if err != nil {
		return err
	}
	return g.MoveToIndex(ctx, len(list)-1)
}

// Position asks the Drive for its current position and runs it through
// the transform's inverse to report a motion-space point (spec.md §4.10).
func (g *Group) Position(ctx context.Context) ([]float64, error) {
	drivePos, err := g.drv.Position(ctx)
	if err != nil {
		return nil, err
	}
	drivePoint := make([]float64, len(drivePos))
	for i, q := range drivePos {
		drivePoint[i] = q.Value
	}
	pts, err := g.xform.ToMotionSpace([][]float64{drivePoint})
	if err != nil {
		return nil, err
	}
	return pts[0], nil
}

// IsMoving delegates to the Drive.
func (g *Group) IsMoving() bool { return g.drv.IsMoving() }

// Stop delegates to the Drive's fast-path stop; not a cancellation
// (spec.md §5).
func (g *Group) Stop(ctx context.Context) error { return g.drv.Stop(ctx) }

// ReplaceDrive swaps in a new Drive, terminating the old one first. If
// the new drive's arity disagrees with the builder/transform, the
// builder and transform are cleared and must be re-specified explicitly
// (spec.md §4.10).
func (g *Group) ReplaceDrive(ctx context.Context, cfg drive.Config, drain time.Duration) error {
	next, err := drive.New(cfg)
	if err != nil {
		return err
	}
	g.drv.Terminate(drain)
	g.drv = next
	g.drv.SetLoop(g.loop)
	if next.Arity() != g.xform.NDim() || next.Arity() != g.builder.Space().NDim() {
		g.builder = nil
		g.xform = nil
	}
	return g.drv.Run(ctx)
}

// ReplaceMotionBuilder swaps in a new MotionBuilder, subject to the same
// dimensionality rule as ReplaceDrive.
func (g *Group) ReplaceMotionBuilder(cfg motionbuilder.Config) error {
	next, err := motionbuilder.New(cfg)
	if err != nil {
		return err
	}
	if g.drv != nil && next.Space().NDim() != g.drv.Arity() {
		g.xform = nil
	}
	g.builder = next
	return nil
}

// ReplaceTransform swaps in a new Transform. Unlike ReplaceDrive it clears
// no dependents: a transform whose dimensionality disagrees with the
// drive's arity is rejected with ConfigInvalid and the current transform
// is kept.
func (g *Group) ReplaceTransform(xf transform.Transform) error {
	if g.drv != nil && xf.NDim() != g.drv.Arity() {
		return motionerr.Config("motion group %s: replacement transform dimensionality %d disagrees with drive arity %d", g.name, xf.NDim(), g.drv.Arity())
	}
	g.xform = xf
	return nil
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package drive implements spec.md §4.3: an ordered collection of Axis
// actors with composite move/stop/position and axis-uniqueness
// validation.
package drive

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rocco8773/bapsf-motion-sub001/axis"
	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/quantity"
	"github.com/rocco8773/bapsf-motion-sub001/runloop"
)

// Config is the DriveConfig of spec.md §3: a name plus an ordered list of
// AxisConfigs, validated for IP and name uniqueness.
type Config struct {
	Name  string
	Axes  []axis.Config
	User  map[string]any
}

// Validate enforces spec.md §3's Drive invariant and §8 property 7.
func (c Config) Validate() error {
	if c.Name == "" {
		return motionerr.Config("drive config missing name")
	}
	if len(c.Axes) == 0 {
		return motionerr.Config("drive %s: must have at least one axis", c.Name)
	}
	seenIP := map[string]string{}
	seenName := map[string]bool{}
	for _, a := range c.Axes {
		if seenName[a.Name] {
			return motionerr.Config("drive %s: duplicate axis name %q", c.Name, a.Name)
		}
		seenName[a.Name] = true
		ip := a.IP.String()
		if owner, ok := seenIP[ip]; ok {
			return motionerr.Config("drive %s: axes %q and %q share ip %s", c.Name, owner, a.Name, ip)
		}
		seenIP[ip] = a.Name
	}
	return nil
}

// Drive holds an ordered tuple of Axis actors.
type Drive struct {
	cfg  Config
	axes []*axis.Axis
}

// New validates cfg and constructs every Axis.
func New(cfg Config) (*Drive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Drive{cfg: cfg}
	for _, ac := range cfg.Axes {
		a, err := axis.New(ac)
		if err != nil {
			return nil, err
		}
		d.axes = append(d.axes, a)
	}
	return d, nil
}

// Arity returns the number of axes in the drive.
func (d *Drive) Arity() int { return len(d.axes) }

// Axes returns the ordered axis list (read-only view).
func (d *Drive) Axes() []*axis.Axis {
	out := make([]*axis.Axis, len(d.axes))
	copy(out, d.axes)
	return out
}

// SetLoop attaches the RunManager event loop every axis in the drive
// submits its Motor's TCP I/O through (spec.md §5).
func (d *Drive) SetLoop(l *runloop.Loop) {
	for _, a := range d.axes {
		a.SetLoop(l)
	}
}

// Run connects every axis.
func (d *Drive) Run(ctx context.Context) error {
	var errs []error
	for _, a := range d.axes {
		if err := a.Run(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Terminate tears down every axis, with the documented 6s drain budget
// shared across axes (spec.md §5).
func (d *Drive) Terminate(drain time.Duration) {
	var wg sync.WaitGroup
	for _, a := range d.axes {
		wg.Add(1)
		go func(a *axis.Axis) {
			defer wg.Done()
			a.Terminate(drain)
		}(a)
	}
	wg.Wait()
}

// MoveTo dispatches a composite move. If axisName is "", point must have
// the drive's arity and each component goes to the matching axis,
// concurrently, with no cross-axis ordering guarantee (spec.md §4.3, §5,
// §8 properties 7-8). If axisName is set, only that axis moves.
func (d *Drive) MoveTo(ctx context.Context, point []quantity.Quantity, axisName string) error {
	if axisName != "" {
		a := d.find(axisName)
		if a == nil {
			return motionerr.Config("drive %s: unknown axis %q", d.cfg.Name, axisName)
		}
		if len(point) != 1 {
			return motionerr.DimMismatch("drive %s: single-axis move_to requires exactly one component, got %d", d.cfg.Name, len(point))
		}
		return a.MoveTo(ctx, point[0])
	}
	if len(point) != len(d.axes) {
		return motionerr.DimMismatch("drive %s: move_to point has arity %d, drive has %d axes", d.cfg.Name, len(point), len(d.axes))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(d.axes))
	for i, a := range d.axes {
		wg.Add(1)
		go func(i int, a *axis.Axis, q quantity.Quantity) {
			defer wg.Done()
			errs[i] = a.MoveTo(ctx, q)
		}(i, a, point[i])
	}
	wg.Wait()
	return errors.Join(errs...)
}

// IsMoving is the logical OR across axes (spec.md §4.3).
func (d *Drive) IsMoving() bool {
	for _, a := range d.axes {
		if a.IsMoving() {
			return true
		}
	}
	return false
}

// Position returns an N-vector of each axis's position, in axis order.
func (d *Drive) Position(ctx context.Context) ([]quantity.Quantity, error) {
	out := make([]quantity.Quantity, len(d.axes))
	errs := make([]error, len(d.axes))
	var wg sync.WaitGroup
	for i, a := range d.axes {
		wg.Add(1)
		go func(i int, a *axis.Axis) {
			defer wg.Done()
			q, err := a.Position(ctx)
			out[i] = q
			errs[i] = err
		}(i, a)
	}
	wg.Wait()
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// Stop broadcasts the fast-path stop to every axis. Never raises (spec.md §7).
func (d *Drive) Stop(ctx context.Context) error {
	var wg sync.WaitGroup
	for _, a := range d.axes {
		wg.Add(1)
		go func(a *axis.Axis) {
			defer wg.Done()
			_ = a.Stop(ctx)
		}(a)
	}
	wg.Wait()
	return nil
}

func (d *Drive) find(name string) *axis.Axis {
	for _, a := range d.axes {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package axis implements spec.md §4.2: a single Axis wrapping one Motor,
// owning the unit system (length unit, units_per_rev pitch) for that
// physical axis and converting through the rev<->steps<->length
// equivalence triangle on every command.
package axis

import (
	"context"
	"net"
	"time"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/motor"
	"github.com/rocco8773/bapsf-motion-sub001/quantity"
	"github.com/rocco8773/bapsf-motion-sub001/runloop"
)

// Config is the AxisConfig of spec.md §3.
type Config struct {
	Name        string
	IP          net.IP
	Units       quantity.Unit // must be quantity.Length
	UnitsPerRev float64
	Motor       *motor.Config // nil is valid: an axis without a motor is a config-stub
	User        map[string]any
}

func (c Config) Validate() error {
	if c.Name == "" {
		return motionerr.Config("axis config missing name")
	}
	if c.Units != quantity.Length {
		return motionerr.Config("axis %s: units must be a length unit", c.Name)
	}
	if c.UnitsPerRev <= 0 {
		return motionerr.Config("axis %s: units_per_rev must be > 0, got %v", c.Name, c.UnitsPerRev)
	}
	return nil
}

// Axis wraps one Motor actor.
type Axis struct {
	cfg   Config
	motor *motor.Motor
	eq    quantity.Equivalence
}

// New constructs an Axis; if cfg.Motor is set, its Motor actor is also
// constructed (but not yet connected — call Run).
func New(cfg Config) (*Axis, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Axis{cfg: cfg}
	if cfg.Motor != nil {
		m, err := motor.New(*cfg.Motor)
		if err != nil {
			return nil, err
		}
		a.motor = m
		a.eq = quantity.Equivalence{StepsPerRev: cfg.Motor.StepsPerRev, UnitsPerRev: cfg.UnitsPerRev}
	}
	return a, nil
}

// Name returns the axis's configured name.
func (a *Axis) Name() string { return a.cfg.Name }

// SetLoop attaches the RunManager event loop this axis's Motor (if any)
// submits its TCP I/O through (spec.md §5).
func (a *Axis) SetLoop(l *runloop.Loop) {
	if a.motor != nil {
		a.motor.SetLoop(l)
	}
}

// Run connects the underlying Motor.
func (a *Axis) Run(ctx context.Context) error {
	if a.motor == nil {
		return motionerr.Config("axis %s: no motor configured", a.cfg.Name)
	}
	return a.motor.Run(ctx)
}

// Terminate tears down the underlying Motor.
func (a *Axis) Terminate(drain time.Duration) {
	if a.motor != nil {
		a.motor.Terminate(drain)
	}
}

// SendCommand forwards to the Motor, first converting arg from axis units
// into whatever unit the Motor's command table declares (spec.md §4.2).
func (a *Axis) SendCommand(ctx context.Context, name string, arg *quantity.Quantity) (string, *quantity.Quantity, error) {
	if a.motor == nil {
		return "", nil, motionerr.Config("axis %s: no motor configured", a.cfg.Name)
	}
	return a.motor.SendCommand(ctx, a.eq, name, arg)
}

// Position returns the axis position in its own length unit.
func (a *Axis) Position(ctx context.Context) (quantity.Quantity, error) {
	if a.motor == nil {
		return quantity.Quantity{}, motionerr.Config("axis %s: no motor configured", a.cfg.Name)
	}
	steps, err := a.motor.Position(ctx)
	if err != nil {
		return quantity.Quantity{}, err
	}
	return a.eq.ToLength(steps)
}

// IsMoving delegates to the Motor.
func (a *Axis) IsMoving() bool {
	if a.motor == nil {
		return false
	}
	return a.motor.IsMoving()
}

// MoveTo converts q (axis length units) to steps and issues it.
func (a *Axis) MoveTo(ctx context.Context, q quantity.Quantity) error {
	if a.motor == nil {
		return motionerr.Config("axis %s: no motor configured", a.cfg.Name)
	}
	if q.Unit != quantity.Length {
		return motionerr.DimMismatch("axis %s: move_to requires a length quantity, got %s", a.cfg.Name, q.Unit)
	}
	return a.motor.MoveTo(ctx, a.eq, q)
}

// Stop delegates to the Motor's fast-path stop.
func (a *Axis) Stop(ctx context.Context) error {
	if a.motor == nil {
		return nil
	}
	return a.motor.Stop(ctx)
}

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package motor implements one TCP session to one motor controller: the
// spec.md §4.1 Motor actor.
package motor

import (
	"fmt"
	"net"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/quantity"
)

// Config is the immutable-after-construction MotorConfig of spec.md §3.
type Config struct {
	IP           net.IP
	Port         uint16
	StepsPerRev  float64
	CommandTable quantity.CommandTable
	// User carries unrecognized config keys forward (spec.md §6).
	User map[string]any
}

// Addr returns the "ip:port" dial string.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.IP.String(), c.Port)
}

// Validate checks the invariants construction depends on.
func (c Config) Validate() error {
	if c.IP == nil {
		return motionerr.Config("motor config missing ip")
	}
	if c.Port == 0 {
		return motionerr.Config("motor config missing port")
	}
	if c.StepsPerRev <= 0 {
		return motionerr.Config("motor config steps_per_rev must be > 0, got %v", c.StepsPerRev)
	}
	if len(c.CommandTable) == 0 {
		return motionerr.Config("motor config command_table must not be empty")
	}
	return nil
}

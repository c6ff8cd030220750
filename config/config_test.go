// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"testing"

	"github.com/rocco8773/bapsf-motion-sub001/exclusion"
	"github.com/rocco8773/bapsf-motion-sub001/layer"
)

const sampleYAML = `
run:
  name: test-run
  operator: jane
  motion_group:
    mg0:
      name: mg0
      drive:
        name: d0
        axes:
          a0:
            name: a0
            ip: 192.168.0.10
            units_per_rev: 0.5
            serial: XK-2
            motor_settings:
              steps_per_rev: 200
              port: 7776
              command_table:
                move_ab:
                  opcode: MA
                  unit: length
          a1:
            name: a1
            ip: 192.168.0.11
            units_per_rev: 0.5
      motion_builder:
        space:
          - {label: x, range: [0, 10], num: 11}
          - {label: y, range: [0, 10], num: 11}
        layers:
          - {name: g0, type: grid, limits: [[0, 8], [0, 8]], steps: [3, 3]}
        exclusions:
          - {name: c0, type: circle, radius: 2, center: [0, 0], side: inside}
      transform:
        type: identity
        ndim: 2
`

func TestDecodeSampleDocument(t *testing.T) {
	rc, err := Decode([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rc.Name != "test-run" {
		t.Errorf("Name = %q, want test-run", rc.Name)
	}
	mg, ok := rc.MotionGroups["mg0"]
	if !ok {
		t.Fatalf("motion group mg0 not decoded")
	}
	if mg.Drive.Name != "d0" {
		t.Errorf("drive name = %q, want d0", mg.Drive.Name)
	}
	if len(mg.Drive.Axes) != 2 {
		t.Fatalf("expected 2 axes, got %d", len(mg.Drive.Axes))
	}
	ax := mg.Drive.Axes[0]
	if ax.UnitsPerRev != 0.5 {
		t.Errorf("UnitsPerRev = %v, want 0.5", ax.UnitsPerRev)
	}
	if ax.Motor == nil {
		t.Fatalf("expected axis motor to be decoded")
	}
	// steps_per_rev is a plain YAML integer literal: this is the
	// int-vs-float64 decode path that toFloat exists to handle.
	if ax.Motor.StepsPerRev != 200 {
		t.Errorf("StepsPerRev = %v, want 200", ax.Motor.StepsPerRev)
	}
	if ax.Motor.Port != 7776 {
		t.Errorf("Port = %v, want 7776", ax.Motor.Port)
	}
	p, ok := ax.Motor.CommandTable["move_ab"]
	if !ok {
		t.Fatalf("command_table entry move_ab not decoded")
	}
	if p.Opcode != "MA" || !p.HasUnit {
		t.Errorf("move_ab param = %+v, want opcode MA with a unit set", p)
	}

	if len(mg.Builder.Dims) != 2 {
		t.Fatalf("expected 2 motion-space dims, got %d", len(mg.Builder.Dims))
	}
	if mg.Builder.Dims[0].Num != 11 {
		t.Errorf("dim0 Num = %d, want 11", mg.Builder.Dims[0].Num)
	}
	if len(mg.Builder.Layers) != 1 || mg.Builder.Layers[0].Kind != layer.KindGrid {
		t.Fatalf("expected one grid layer, got %+v", mg.Builder.Layers)
	}
	if len(mg.Builder.Exclusions) != 1 || mg.Builder.Exclusions[0].Kind != exclusion.KindCircle {
		t.Fatalf("expected one circle exclusion, got %+v", mg.Builder.Exclusions)
	}
	if mg.XForm == nil || mg.XForm.NDim() != 2 {
		t.Fatalf("expected a 2-D identity transform")
	}
}

func TestDecodeCollectsUnknownKeysAsUser(t *testing.T) {
	rc, err := Decode([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if rc.User == nil || rc.User["operator"] != "jane" {
		t.Errorf("run User side-car should capture the unrecognized 'operator' key, got %v", rc.User)
	}
	mg := rc.MotionGroups["mg0"]
	ax := mg.Drive.Axes[0]
	if ax.User == nil || ax.User["serial"] != "XK-2" {
		t.Errorf("axis User side-car should capture the unrecognized 'serial' key, got %v", ax.User)
	}
}

func TestDecodeRejectsMissingRunKey(t *testing.T) {
	if _, err := Decode([]byte("not_run: {}\n")); err == nil {
		t.Errorf("expected error when the top-level 'run' key is absent")
	}
}

func TestDecodeRejectsInvalidYAML(t *testing.T) {
	if _, err := Decode([]byte("run: [this is not a mapping\n")); err == nil {
		t.Errorf("expected error decoding malformed yaml")
	}
}

func TestToRunManagerBuildsGroups(t *testing.T) {
	rc, err := Decode([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	mgr, err := rc.ToRunManager()
	if err != nil {
		t.Fatalf("ToRunManager: %v", err)
	}
	g, err := mgr.Get("mg0")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if g.Name() != "mg0" {
		t.Errorf("group name = %q, want mg0", g.Name())
	}
	if rc.Date == "" {
		t.Errorf("ToRunManager should stamp a blank Date")
	}
}

func TestToMotionGroupRequiresTransform(t *testing.T) {
	mg := MotionGroupConfig{Name: "bare"}
	if _, err := mg.ToMotionGroup(); err == nil {
		t.Errorf("expected error building a motion group with no transform configured")
	}
}

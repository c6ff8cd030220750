// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config implements spec.md §6's configuration document: the
// YAML tree accepted at the RunManager boundary, decoded with
// gopkg.in/yaml.v3 the way raymyers-ralph-cc-go's integration-test
// fixtures are, with unknown keys at every level preserved in a
// side-car `user` map instead of being dropped.
package config

import (
	"net"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rocco8773/bapsf-motion-sub001/axis"
	"github.com/rocco8773/bapsf-motion-sub001/drive"
	"github.com/rocco8773/bapsf-motion-sub001/exclusion"
	"github.com/rocco8773/bapsf-motion-sub001/layer"
	"github.com/rocco8773/bapsf-motion-sub001/motionbuilder"
	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/motiongroup"
	"github.com/rocco8773/bapsf-motion-sub001/motionspace"
	"github.com/rocco8773/bapsf-motion-sub001/motor"
	"github.com/rocco8773/bapsf-motion-sub001/quantity"
	"github.com/rocco8773/bapsf-motion-sub001/runmanager"
	"github.com/rocco8773/bapsf-motion-sub001/transform"
)

// toFloat coerces a decoded scalar to float64. YAML unmarshals plain
// integer literals as int (not float64, unlike JSON's math/float path),
// while TOML does the same for its integer type; numeric config fields
// accept either.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// splitUser returns the entries of raw whose keys are not in known (the
// recognized keys at that nesting level), for that level's User map; it
// returns nil when every key is recognized.
func splitUser(raw map[string]any, known ...string) map[string]any {
	isKnown := make(map[string]bool, len(known))
	for _, k := range known {
		isKnown[k] = true
	}
	user := map[string]any{}
	for k, v := range raw {
		if !isKnown[k] {
			user[k] = v
		}
	}
	if len(user) == 0 {
		return nil
	}
	return user
}

// Decode parses a YAML configuration document (spec.md §6) into a tree
// of typed configs ready for motiongroup.New / runmanager.Manager, plus
// each level's side-car User map.
func Decode(data []byte) (*RunConfig, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, motionerr.Config("config: invalid yaml: %v", err)
	}
	return DecodeMap(root)
}

// DecodeMap builds a RunConfig from an already-parsed generic document
// tree, the same shape yaml.Unmarshal or config/tomlview.Decode produce.
// This lets callers feed in a document parsed by an alternate text
// serializer (config/tomlview) without going back through YAML.
func DecodeMap(root map[string]any) (*RunConfig, error) {
	runRaw, ok := root["run"].(map[string]any)
	if !ok {
		return nil, motionerr.Config("config: missing top-level 'run' key")
	}
	return decodeRun(runRaw)
}

// RunConfig is the decoded form of spec.md §6's `run` subtree.
type RunConfig struct {
	Name         string
	Date         string
	MotionGroups map[string]MotionGroupConfig
	User         map[string]any
}

func decodeRun(raw map[string]any) (*RunConfig, error) {
	name, _ := raw["name"].(string)
	date, _ := raw["date"].(string)
	rc := &RunConfig{
		Name:         name,
		Date:         date,
		MotionGroups: map[string]MotionGroupConfig{},
		User:         splitUser(raw, "name", "date", "motion_group"),
	}

	mgRaw, ok := raw["motion_group"].(map[string]any)
	if !ok {
		return rc, nil
	}
	for id, v := range mgRaw {
		sub, ok := v.(map[string]any)
		if !ok {
			return nil, motionerr.Config("config: motion_group %q is not a mapping", id)
		}
		mg, err := decodeMotionGroup(sub)
		if err != nil {
			return nil, err
		}
		rc.MotionGroups[id] = mg
	}
	return rc, nil
}

// MotionGroupConfig is the decoded form of spec.md §6's mg_config.
type MotionGroupConfig struct {
	Name    string
	Drive   drive.Config
	Builder motionbuilder.Config
	XForm   transform.Transform
	User    map[string]any
}

func decodeMotionGroup(raw map[string]any) (MotionGroupConfig, error) {
	name, _ := raw["name"].(string)
	mg := MotionGroupConfig{Name: name}

	if driveRaw, ok := raw["drive"].(map[string]any); ok {
		d, err := decodeDrive(driveRaw)
		if err != nil {
			return mg, err
		}
		mg.Drive = d
	}
	if mbRaw, ok := raw["motion_builder"].(map[string]any); ok {
		b, err := decodeMotionBuilder(mbRaw)
		if err != nil {
			return mg, err
		}
		mg.Builder = b
	}
	if xfRaw, ok := raw["transform"].(map[string]any); ok {
		xf, err := decodeTransform(xfRaw)
		if err != nil {
			return mg, err
		}
		mg.XForm = xf
	}
	mg.User = splitUser(raw, "name", "drive", "motion_builder", "transform")
	return mg, nil
}

func decodeDrive(raw map[string]any) (drive.Config, error) {
	name, _ := raw["name"].(string)
	cfg := drive.Config{Name: name}

	axesRaw, ok := raw["axes"].(map[string]any)
	if !ok {
		return cfg, motionerr.Config("config: drive %q missing axes", name)
	}
	// Axes are taken in sorted key order, so the drive's axis order does
	// not depend on map iteration.
	keys := make([]string, 0, len(axesRaw))
	for k := range axesRaw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sub, ok := axesRaw[k].(map[string]any)
		if !ok {
			continue
		}
		ac, err := decodeAxis(sub)
		if err != nil {
			return cfg, err
		}
		cfg.Axes = append(cfg.Axes, ac)
	}
	cfg.User = splitUser(raw, "name", "axes")
	return cfg, nil
}

func decodeAxis(raw map[string]any) (axis.Config, error) {
	name, _ := raw["name"].(string)
	ipStr, _ := raw["ip"].(string)
	unitsPerRev := toFloat(raw["units_per_rev"])

	ac := axis.Config{
		Name:        name,
		IP:          net.ParseIP(ipStr),
		Units:       quantity.Length,
		UnitsPerRev: unitsPerRev,
	}
	if motorRaw, ok := raw["motor_settings"].(map[string]any); ok {
		mc, err := decodeMotor(motorRaw, ipStr)
		if err != nil {
			return ac, err
		}
		ac.Motor = &mc
	}
	ac.User = splitUser(raw, "name", "ip", "units", "units_per_rev", "motor_settings")
	return ac, nil
}

func decodeMotor(raw map[string]any, ipStr string) (motor.Config, error) {
	stepsPerRev := toFloat(raw["steps_per_rev"])
	port := toFloat(raw["port"])
	cfg := motor.Config{
		IP:           net.ParseIP(ipStr),
		Port:         uint16(port),
		StepsPerRev:  stepsPerRev,
		CommandTable: quantity.CommandTable{},
	}
	tableRaw, _ := raw["command_table"].(map[string]any)
	for name, v := range tableRaw {
		sub, ok := v.(map[string]any)
		if !ok {
			continue
		}
		p := quantity.Param{Name: name}
		p.Opcode, _ = sub["opcode"].(string)
		if u, ok := sub["unit"].(string); ok {
			p.Unit = unitFromString(u)
			p.HasUnit = true
		}
		cfg.CommandTable[name] = p
	}
	cfg.User = splitUser(raw, "steps_per_rev", "port", "command_table")
	return cfg, nil
}

func unitFromString(s string) quantity.Unit {
	switch s {
	case "steps":
		return quantity.Steps
	case "revolutions", "rev":
		return quantity.Revolutions
	case "length":
		return quantity.Length
	case "seconds", "sec", "s":
		return quantity.Seconds
	case "radians", "rad":
		return quantity.Radians
	case "degrees", "deg":
		return quantity.Degrees
	default:
		return quantity.Steps
	}
}

func decodeMotionBuilder(raw map[string]any) (motionbuilder.Config, error) {
	var cfg motionbuilder.Config

	spaceRaw, _ := raw["space"].([]any)
	for _, v := range spaceRaw {
		sub, ok := v.(map[string]any)
		if !ok {
			continue
		}
		label, _ := sub["label"].(string)
		rng, _ := sub["range"].([]any)
		num := toFloat(sub["num"])
		var lo, hi float64
		if len(rng) == 2 {
			lo, hi = toFloat(rng[0]), toFloat(rng[1])
		}
		cfg.Dims = append(cfg.Dims, motionspace.Dim{Label: label, Min: lo, Max: hi, Num: int(num)})
	}

	exclRaw, _ := raw["exclusions"].([]any)
	for _, v := range exclRaw {
		sub, ok := v.(map[string]any)
		if !ok {
			continue
		}
		es, err := decodeExclusion(sub)
		if err != nil {
			return cfg, err
		}
		cfg.Exclusions = append(cfg.Exclusions, es)
	}

	layerRaw, _ := raw["layers"].([]any)
	for _, v := range layerRaw {
		sub, ok := v.(map[string]any)
		if !ok {
			continue
		}
		ls, err := decodeLayer(sub)
		if err != nil {
			return cfg, err
		}
		cfg.Layers = append(cfg.Layers, ls)
	}

	cfg.User = splitUser(raw, "space", "exclusions", "layers")
	return cfg, nil
}

func decodeLayer(raw map[string]any) (layer.Spec, error) {
	name, _ := raw["name"].(string)
	typ, _ := raw["type"].(string)
	switch typ {
	case "grid":
		limits := decodeLimits(raw["limits"])
		steps := decodeInts(raw["steps"])
		return layer.Spec{Name: name, Kind: layer.KindGrid, Limits: limits, Steps: steps, User: splitUser(raw, "name", "type", "limits", "steps")}, nil
	default:
		return layer.Spec{}, motionerr.Config("config: unknown layer type %q", typ)
	}
}

func decodeExclusion(raw map[string]any) (exclusion.Spec, error) {
	name, _ := raw["name"].(string)
	governing, _ := raw["governing"].(bool)
	typ, _ := raw["type"].(string)

	switch typ {
	case "circle":
		radius := toFloat(raw["radius"])
		center := decodePair(raw["center"])
		side := exclusion.SideOutside
		if s, _ := raw["side"].(string); s == "inside" {
			side = exclusion.SideInside
		}
		return exclusion.Spec{Name: name, Kind: exclusion.KindCircle, Governing: governing, Radius: radius, Center: center, Side: side}, nil
	case "divider":
		vertical, _ := raw["vertical"].(bool)
		slope := toFloat(raw["slope"])
		intercept := toFloat(raw["intercept"])
		ds := decodeDividerSide(raw["side"])
		return exclusion.Spec{Name: name, Kind: exclusion.KindDivider, Governing: governing, Vertical: vertical, Slope: slope, Intercept: intercept, DividerSide: ds}, nil
	case "shadow2d":
		source := decodePair(raw["source"])
		return exclusion.Spec{Name: name, Kind: exclusion.KindShadow2D, Governing: true, Source: source}, nil
	case "lapd_xy":
		diameter := toFloat(raw["diameter"])
		pivotRadius := toFloat(raw["pivot_radius"])
		coneAngle := toFloat(raw["cone_full_angle"])
		includeCone, _ := raw["include_cone"].(bool)
		port := decodePortLocation(raw["port_location"])
		return exclusion.Spec{
			Name: name, Kind: exclusion.KindLapdXY, Governing: true,
			Diameter: diameter, PivotRadius: pivotRadius,
			PortLocation: port, ConeFullAngle: coneAngle, IncludeCone: includeCone,
		}, nil
	default:
		return exclusion.Spec{}, motionerr.Config("config: unknown exclusion type %q", typ)
	}
}

func decodeTransform(raw map[string]any) (transform.Transform, error) {
	typ, _ := raw["type"].(string)
	switch typ {
	case "identity":
		n := toFloat(raw["ndim"])
		return transform.NewIdentity(int(n)), nil
	case "lapd_xy":
		cfg := transform.LapdXYConfig{
			PivotToCenter:   floatOr(raw, "pivot_to_center", 0),
			PivotToDrive:    floatOr(raw, "pivot_to_drive", 0),
			PivotToFeedthru: floatOr(raw, "pivot_to_feedthru", 0),
			ProbeAxisOffset: floatOr(raw, "probe_axis_offset", 0),
			DrivePolarity:   decodePolarity(raw["drive_polarity"]),
			MspacePolarity:  decodePolarity(raw["mspace_polarity"]),
		}
		if droopRaw, ok := raw["droop"].(map[string]any); ok {
			coeffs, _ := droopRaw["coeffs"].([]any)
			var c [4]float64
			for i := 0; i < len(coeffs) && i < 4; i++ {
				c[i] = toFloat(coeffs[i])
			}
			cfg.Droop = transform.DroopConfig{
				Enabled: true,
				Coeffs:  c,
				Scale:   floatOr(droopRaw, "scale", 1),
			}
		}
		return transform.NewLapdXY(cfg), nil
	default:
		return nil, motionerr.Config("config: unknown transform type %q", typ)
	}
}

func floatOr(raw map[string]any, key string, def float64) float64 {
	v, ok := raw[key]
	if !ok {
		return def
	}
	return toFloat(v)
}

func decodeLimits(v any) [][2]float64 {
	arr, _ := v.([]any)
	out := make([][2]float64, 0, len(arr))
	for _, e := range arr {
		pair, _ := e.([]any)
		if len(pair) != 2 {
			continue
		}
		out = append(out, [2]float64{toFloat(pair[0]), toFloat(pair[1])})
	}
	return out
}

func decodeInts(v any) []int {
	arr, _ := v.([]any)
	out := make([]int, 0, len(arr))
	for _, e := range arr {
		out = append(out, int(toFloat(e)))
	}
	return out
}

func decodePair(v any) [2]float64 {
	arr, _ := v.([]any)
	var out [2]float64
	if len(arr) == 2 {
		out[0], out[1] = toFloat(arr[0]), toFloat(arr[1])
	}
	return out
}

func decodePolarity(v any) [2]float64 {
	p := decodePair(v)
	if p[0] == 0 {
		p[0] = 1
	}
	if p[1] == 0 {
		p[1] = 1
	}
	return p
}

func decodeDividerSide(v any) exclusion.DividerSide {
	switch s, _ := v.(string); s {
	case "-e0":
		return exclusion.SideMinusAxis0
	case "+e1":
		return exclusion.SidePlusAxis1
	case "-e1":
		return exclusion.SideMinusAxis1
	default:
		return exclusion.SidePlusAxis0
	}
}

func decodePortLocation(v any) exclusion.PortLocation {
	if s, ok := v.(string); ok {
		return exclusion.PortLocation{Named: s}
	}
	if v != nil {
		return exclusion.PortLocation{AngleDegrees: toFloat(v)}
	}
	return exclusion.PortLocation{}
}

// ToMotionGroup builds a motiongroup.Group from a decoded
// MotionGroupConfig.
func (mg MotionGroupConfig) ToMotionGroup() (*motiongroup.Group, error) {
	if mg.XForm == nil {
		return nil, motionerr.Config("config: motion group %q has no transform", mg.Name)
	}
	cfg := motiongroup.Config{Name: mg.Name, Drive: mg.Drive, Builder: mg.Builder, User: mg.User}
	return motiongroup.New(cfg, mg.XForm)
}

// ToRunManager builds a populated runmanager.Manager from the decoded
// document, one motion group per entry. If Date was left blank, it is
// stamped with the current time in the run.date format spec.md §6
// describes.
func (rc *RunConfig) ToRunManager() (*runmanager.Manager, error) {
	if rc.Date == "" {
		rc.Date = time.Now().UTC().Format(time.RFC3339)
	}
	m := runmanager.New(rc.Name)
	for id, mg := range rc.MotionGroups {
		g, err := mg.ToMotionGroup()
		if err != nil {
			return nil, err
		}
		if err := m.Add(id, g); err != nil {
			return nil, err
		}
	}
	return m, nil
}

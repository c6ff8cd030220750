// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package actorstate implements the four-state actor lifecycle shared by
// Motor, Axis, Drive and MotionGroup (spec.md §3): Constructing -> Ready
// on connect, Ready<->Moving by command, any->Terminated on terminate(),
// and Terminated->Ready by re-run().
package actorstate

import "sync"

// State is one of the four states an actor may be in.
type State int

const (
	Constructing State = iota
	Ready
	Moving
	Terminated
)

func (s State) String() string {
	switch s {
	case Constructing:
		return "Constructing"
	case Ready:
		return "Ready"
	case Moving:
		return "Moving"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Box is a small concurrency-safe state cell actors embed.
type Box struct {
	mu    sync.RWMutex
	state State
}

// NewBox returns a Box starting in Constructing.
func NewBox() *Box {
	return &Box{state: Constructing}
}

// Get returns the current state.
func (b *Box) Get() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// Set forces the state, used at well-defined transition points.
func (b *Box) Set(s State) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = s
}

// IsReady reports whether the actor is Ready or Moving (i.e. usable).
func (b *Box) IsReady() bool {
	s := b.Get()
	return s == Ready || s == Moving
}

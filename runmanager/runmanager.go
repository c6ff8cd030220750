// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runmanager implements spec.md §4.11: the top-level owner of a
// named dictionary of MotionGroups, the single source of truth for
// configuration.
package runmanager

import (
	"context"
	"sync"
	"time"

	"github.com/rocco8773/bapsf-motion-sub001/motiongroup"
	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/runloop"
	"github.com/rocco8773/bapsf-motion-sub001/transform"
)

// Manager owns a dictionary of named MotionGroups (spec.md §4.11) and
// the single cooperative event loop all of their motors' TCP I/O is
// submitted through (spec.md §5/§4.12: "all TCP I/O for all motors
// under that RunManager runs on that loop").
type Manager struct {
	mu     sync.RWMutex
	name   string
	groups map[string]*motiongroup.Group
	order  []string
	loop   *runloop.Loop
}

// New builds an empty Manager and starts its event loop.
func New(name string) *Manager {
	return &Manager{name: name, groups: map[string]*motiongroup.Group{}, loop: runloop.New()}
}

// Name returns the run's configured name.
func (m *Manager) Name() string { return m.name }

// Add registers a new MotionGroup under id.
func (m *Manager) Add(id string, group *motiongroup.Group) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.groups[id]; ok {
		return motionerr.Config("run manager: motion group %q already exists", id)
	}
	group.SetLoop(m.loop)
	m.groups[id] = group
	m.order = append(m.order, id)
	return nil
}

// Remove drops the named MotionGroup, terminating it first.
func (m *Manager) Remove(id string, drain time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return motionerr.Config("run manager: no such motion group %q", id)
	}
	g.Terminate(drain)
	delete(m.groups, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the named MotionGroup.
func (m *Manager) Get(id string) (*motiongroup.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, motionerr.Config("run manager: no such motion group %q", id)
	}
	return g, nil
}

// GetIndex returns the motion group at ordinal position i, in insertion
// order (spec.md §4.11's "integer or string identifiers").
func (m *Manager) GetIndex(i int) (*motiongroup.Group, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if i < 0 || i >= len(m.order) {
		return nil, motionerr.Config("run manager: index %d out of range [0,%d)", i, len(m.order))
	}
	return m.groups[m.order[i]], nil
}

// Pop removes and returns the named MotionGroup without terminating it;
// the caller takes ownership of its lifecycle.
func (m *Manager) Pop(id string) (*motiongroup.Group, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[id]
	if !ok {
		return nil, motionerr.Config("run manager: no such motion group %q", id)
	}
	delete(m.groups, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return g, nil
}

// IsMoving ORs across every owned group (spec.md §4.11).
func (m *Manager) IsMoving() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		if m.groups[id].IsMoving() {
			return true
		}
	}
	return false
}

// ValidateMotionGroup dry-runs construction of a MotionGroup from cfg
// against xf without registering it, per spec.md §4.11's
// validate_motion_group: it operates on the supplied config only, never
// touching the live dictionary, so it is naturally a "deep copy" dry run.
func ValidateMotionGroup(cfg motiongroup.Config, xf transform.Transform) bool {
	_, err := motiongroup.New(cfg, xf)
	return err == nil
}

// RunAll connects every owned group's Drive.
func (m *Manager) RunAll(ctx context.Context) error {
	m.mu.RLock()
	groups := make([]*motiongroup.Group, len(m.order))
	for i, id := range m.order {
		groups[i] = m.groups[id]
	}
	m.mu.RUnlock()
	for _, g := range groups {
		if err := g.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// TerminateAll tears down every owned group, then stops the run
// manager's event loop (spec.md §5's terminate(delay_loop_stop)).
func (m *Manager) TerminateAll(drain time.Duration) {
	m.mu.RLock()
	groups := make([]*motiongroup.Group, len(m.order))
	for i, id := range m.order {
		groups[i] = m.groups[id]
	}
	m.mu.RUnlock()
	var wg sync.WaitGroup
	for _, g := range groups {
		wg.Add(1)
		go func(g *motiongroup.Group) {
			defer wg.Done()
			g.Terminate(drain)
		}(g)
	}
	wg.Wait()
	m.loop.Stop(drain, true)
}

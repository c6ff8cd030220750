// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package motor

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rocco8773/bapsf-motion-sub001/actorstate"
	"github.com/rocco8773/bapsf-motion-sub001/comm"
	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
	"github.com/rocco8773/bapsf-motion-sub001/quantity"
	"github.com/rocco8773/bapsf-motion-sub001/rlog"
	"github.com/rocco8773/bapsf-motion-sub001/runloop"
	"github.com/rocco8773/bapsf-motion-sub001/wire"
)

// Standard command-table names a Config is expected to provide. A Motor
// does not hard-code opcodes (those live in Config.CommandTable per
// spec.md §6); it only hard-codes which *names* it looks up.
const (
	CmdMoveTo  = "move_to"
	CmdStop    = "stop"
	CmdEnable  = "enable"
	CmdDisable = "disable"
	CmdPos     = "position"
	CmdVel     = "velocity"
	CmdStatus  = "status"
)

// Default timeouts (spec.md §5).
const (
	DefaultConnectTimeout = 6 * time.Second
	DefaultReplyTimeout   = 5 * time.Second
	DefaultHeartbeat      = 1 * time.Second
)

// Motor owns exactly one TCP session to one motor controller.
type Motor struct {
	cfg     Config
	state   *actorstate.Box
	session *comm.Session

	// commandMu serializes command K+1 behind command K's reply, the
	// spec.md §5 ordering guarantee within one Motor.
	commandMu sync.Mutex

	replyTimeout   time.Duration
	heartbeatEvery time.Duration

	movingMu sync.RWMutex
	moving   bool

	cancelHeartbeat context.CancelFunc
	heartbeatDone   chan struct{}

	// loop is the RunManager's event loop this motor's TCP I/O is
	// submitted through (spec.md §4.12/§5). Nil until a RunManager wires
	// it in; a motor constructed and run standalone (as in tests) does
	// its own I/O directly on the caller's goroutine.
	loop *runloop.Loop
}

// SetLoop attaches the event loop all of this motor's connect/command
// round-trips are submitted through (spec.md §5: "all TCP I/O for all
// motors under that RunManager runs on that loop").
func (m *Motor) SetLoop(l *runloop.Loop) { m.loop = l }

// submit runs fn on m.loop's worker goroutine when one is attached,
// otherwise runs it directly on the caller's goroutine. fn always sees
// the caller's own ctx (and whatever timeout/cancellation it already
// carries); the loop only serializes *when* fn executes relative to this
// motor's other work, not its deadline.
func (m *Motor) submit(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	if m.loop == nil {
		return fn(ctx)
	}
	return m.loop.Submit(func(context.Context) (any, error) {
		return fn(ctx)
	}).Result(0)
}

// New constructs a Motor in Constructing state; call Run to connect.
func New(cfg Config) (*Motor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Motor{
		cfg:            cfg,
		state:          actorstate.NewBox(),
		replyTimeout:   DefaultReplyTimeout,
		heartbeatEvery: DefaultHeartbeat,
	}, nil
}

// State returns the actor's current lifecycle state.
func (m *Motor) State() actorstate.State { return m.state.Get() }

// Run connects (or reconnects) to the motor controller and starts the
// heartbeat task. It is the Constructing->Ready and Terminated->Ready
// transition of spec.md §3.
func (m *Motor) Run(ctx context.Context) error {
	maker := comm.BackingOffTCPConnMaker(m.cfg.Addr(), DefaultConnectTimeout)
	m.session = comm.NewSession(maker)
	connCtx, cancel := context.WithTimeout(ctx, DefaultConnectTimeout)
	defer cancel()
	if _, err := m.submit(connCtx, func(ctx context.Context) (any, error) {
		return m.session.Get(ctx)
	}); err != nil {
		return motionerr.ConnLost(err, "motor %s: connect failed", m.cfg.Addr())
	}
	m.state.Set(actorstate.Ready)

	hbCtx, hbCancel := context.WithCancel(ctx)
	m.cancelHeartbeat = hbCancel
	m.heartbeatDone = make(chan struct{})
	go m.heartbeatLoop(hbCtx)
	return nil
}

func (m *Motor) heartbeatLoop(ctx context.Context) {
	defer close(m.heartbeatDone)
	t := time.NewTicker(m.heartbeatEvery)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			status, err := m.rawStatus(ctx)
			if err != nil {
				rlog.Warn("motor %s: heartbeat query failed: %v", m.cfg.Addr(), err)
				continue
			}
			m.movingMu.Lock()
			m.moving = status
			m.movingMu.Unlock()
		}
	}
}

// Terminate cancels the heartbeat task and closes the session, waiting up
// to drain for it to stop (spec.md §5 cancellation, 6s documented there
// but parameterized here for testability).
func (m *Motor) Terminate(drain time.Duration) {
	if m.cancelHeartbeat != nil {
		m.cancelHeartbeat()
		select {
		case <-m.heartbeatDone:
		case <-time.After(drain):
		}
	}
	if m.session != nil {
		m.session.Drop()
	}
	m.state.Set(actorstate.Terminated)
}

// SendCommand looks up name in the command table, encodes arg into the
// table's declared unit (if any), round-trips it over the wire, and
// decodes the reply into a Quantity if the command declares a result
// unit; otherwise it returns the raw text.
func (m *Motor) SendCommand(ctx context.Context, eq quantity.Equivalence, name string, arg *quantity.Quantity) (text string, result *quantity.Quantity, err error) {
	if !m.state.IsReady() {
		return "", nil, motionerr.ConnLost(nil, "motor %s: not ready (state=%s)", m.cfg.Addr(), m.state.Get())
	}
	p, ok := m.cfg.CommandTable[name]
	if !ok {
		return "", nil, motionerr.Config("motor %s: unknown command %q", m.cfg.Addr(), name)
	}

	body := p.Opcode
	if arg != nil {
		converted, cerr := convertTo(eq, *arg, p.Unit)
		if cerr != nil {
			return "", nil, motionerr.Protocol("motor %s: command %q: %v", m.cfg.Addr(), name, cerr)
		}
		if p.Unit == quantity.Steps {
			iv, cerr := quantity.ToStepsInt(converted)
			if cerr != nil {
				return "", nil, motionerr.Protocol("motor %s: command %q: %v", m.cfg.Addr(), name, cerr)
			}
			body = fmt.Sprintf("%s %d", body, iv)
		} else {
			body = fmt.Sprintf("%s %f", body, converted.Value)
		}
	}

	m.commandMu.Lock()
	defer m.commandMu.Unlock()

	reply, err := m.roundTrip(ctx, body)
	if err != nil {
		return "", nil, err
	}

	if !p.HasUnit {
		return reply, nil, nil
	}
	val, perr := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if perr != nil {
		return "", nil, motionerr.Protocol("motor %s: command %q: malformed reply %q", m.cfg.Addr(), name, reply)
	}
	q := quantity.New(val, p.Unit)
	return reply, &q, nil
}

func convertTo(eq quantity.Equivalence, q quantity.Quantity, unit quantity.Unit) (quantity.Quantity, error) {
	switch unit {
	case quantity.Steps:
		return eq.ToSteps(q)
	case quantity.Revolutions:
		return eq.ToRevolutions(q)
	default:
		if q.Unit == unit {
			return q, nil
		}
		return quantity.Quantity{}, fmt.Errorf("cannot convert %s to %s", q.Unit, unit)
	}
}

// roundTrip writes one framed command and waits for its reply, applying
// the reply timeout and translating I/O failures into the §7 taxonomy.
// The actual wire I/O runs through submit, so it executes on this
// motor's RunManager event loop when one is attached (spec.md §4.12).
func (m *Motor) roundTrip(ctx context.Context, body string) (string, error) {
	rtCtx, cancel := context.WithTimeout(ctx, m.replyTimeout)
	defer cancel()

	v, err := m.submit(rtCtx, func(ctx context.Context) (any, error) {
		return m.roundTripOnLoop(ctx, body)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Motor) roundTripOnLoop(rtCtx context.Context, body string) (string, error) {
	conn, err := m.session.Get(rtCtx)
	if err != nil {
		m.state.Set(actorstate.Terminated)
		return "", motionerr.ConnLost(err, "motor %s", m.cfg.Addr())
	}

	type result struct {
		reply string
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		reply, err := writeAndRead(conn, body)
		ch <- result{reply, err}
	}()

	select {
	case <-rtCtx.Done():
		m.session.Drop()
		m.state.Set(actorstate.Ready) // Timeout is not fatal to the actor (spec.md §7)
		return "", motionerr.Timeoutf("motor %s: reply timed out after %s", m.cfg.Addr(), m.replyTimeout)
	case r := <-ch:
		if r.err != nil {
			m.session.Drop()
			if isConnClosed(r.err) {
				m.state.Set(actorstate.Terminated)
				return "", motionerr.ConnLost(r.err, "motor %s", m.cfg.Addr())
			}
			return "", motionerr.Protocol("motor %s: %v", m.cfg.Addr(), r.err)
		}
		return r.reply, nil
	}
}

func writeAndRead(conn net.Conn, body string) (string, error) {
	pkt := wire.Encode(body)
	if _, err := conn.Write(pkt); err != nil {
		return "", err
	}
	return wire.ReadReply(bufio.NewReader(conn))
}

func isConnClosed(err error) bool {
	if err == nil {
		return false
	}
	ne, ok := err.(net.Error)
	return ok && !ne.Timeout()
}

// Position queries the motor's absolute position in steps.
func (m *Motor) Position(ctx context.Context) (quantity.Quantity, error) {
	_, q, err := m.SendCommand(ctx, quantity.Equivalence{StepsPerRev: 1}, CmdPos, nil)
	if err != nil {
		return quantity.Quantity{}, err
	}
	if q == nil {
		return quantity.Quantity{}, motionerr.Protocol("motor %s: position command declared no result unit", m.cfg.Addr())
	}
	return *q, nil
}

// Velocity queries the motor's current velocity in rev/s.
func (m *Motor) Velocity(ctx context.Context) (quantity.Quantity, error) {
	_, q, err := m.SendCommand(ctx, quantity.Equivalence{StepsPerRev: 1}, CmdVel, nil)
	if err != nil {
		return quantity.Quantity{}, err
	}
	if q == nil {
		return quantity.Quantity{}, motionerr.Protocol("motor %s: velocity command declared no result unit", m.cfg.Addr())
	}
	return *q, nil
}

// MoveTo integer-converts q to steps and issues the absolute-position
// command.
func (m *Motor) MoveTo(ctx context.Context, eq quantity.Equivalence, q quantity.Quantity) error {
	_, _, err := m.SendCommand(ctx, eq, CmdMoveTo, &q)
	return err
}

// Stop issues the immediate-stop command on the fast path: it bypasses
// the normal serialized command queue so it can return promptly even if
// another command is in flight (spec.md §5: "stop() ... is NOT a
// cancellation").
func (m *Motor) Stop(ctx context.Context) error {
	p, ok := m.cfg.CommandTable[CmdStop]
	if !ok {
		return motionerr.Config("motor %s: command_table missing %q", m.cfg.Addr(), CmdStop)
	}
	if m.session == nil {
		return nil // never run: there is no session to stop
	}
	conn, err := m.session.Get(ctx)
	if err != nil {
		return nil // stop() never raises (spec.md §7); worst case is a no-op.
	}
	_, _ = writeAndRead(conn, p.Opcode)
	return nil
}

// Enable enables or disables the motor.
func (m *Motor) Enable(ctx context.Context, on bool) error {
	name := CmdDisable
	if on {
		name = CmdEnable
	}
	_, _, err := m.SendCommand(ctx, quantity.Equivalence{StepsPerRev: 1}, name, nil)
	return err
}

// IsMoving reports the cached heartbeat-refreshed moving bit.
func (m *Motor) IsMoving() bool {
	m.movingMu.RLock()
	defer m.movingMu.RUnlock()
	return m.moving
}

// rawStatus queries the status bit directly (used by the heartbeat loop
// and by an immediate synchronous check).
func (m *Motor) rawStatus(ctx context.Context) (bool, error) {
	text, _, err := m.SendCommand(ctx, quantity.Equivalence{StepsPerRev: 1}, CmdStatus, nil)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(text) == "1" || strings.EqualFold(strings.TrimSpace(text), "moving"), nil
}

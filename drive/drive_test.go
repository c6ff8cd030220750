// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package drive

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rocco8773/bapsf-motion-sub001/axis"
	"github.com/rocco8773/bapsf-motion-sub001/motor"
	"github.com/rocco8773/bapsf-motion-sub001/quantity"
	"github.com/rocco8773/bapsf-motion-sub001/wire"
)

func motorlessAxis(name string, ip string) axis.Config {
	return axis.Config{Name: name, IP: net.ParseIP(ip), Units: quantity.Length, UnitsPerRev: 1}
}

func TestConfigValidateRejectsNoAxes(t *testing.T) {
	c := Config{Name: "d0"}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for a drive with no axes")
	}
}

func TestConfigValidateRejectsDuplicateAxisName(t *testing.T) {
	c := Config{Name: "d0", Axes: []axis.Config{
		motorlessAxis("a0", "192.168.0.10"),
		motorlessAxis("a0", "192.168.0.11"),
	}}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for duplicate axis name")
	}
}

func TestConfigValidateRejectsDuplicateAxisIP(t *testing.T) {
	c := Config{Name: "d0", Axes: []axis.Config{
		motorlessAxis("a0", "192.168.0.10"),
		motorlessAxis("a1", "192.168.0.10"),
	}}
	if err := c.Validate(); err == nil {
		t.Errorf("expected error for axes sharing an ip")
	}
}

func TestNewBuildsAxesInOrder(t *testing.T) {
	d, err := New(Config{Name: "d0", Axes: []axis.Config{
		motorlessAxis("a0", "192.168.0.10"),
		motorlessAxis("a1", "192.168.0.11"),
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if d.Arity() != 2 {
		t.Errorf("Arity() = %d, want 2", d.Arity())
	}
	got := d.Axes()
	if got[0].Name() != "a0" || got[1].Name() != "a1" {
		t.Errorf("Axes() order = [%s %s], want [a0 a1]", got[0].Name(), got[1].Name())
	}
}

func newMotorlessDrive(t *testing.T) *Drive {
	t.Helper()
	d, err := New(Config{Name: "d0", Axes: []axis.Config{
		motorlessAxis("a0", "192.168.0.10"),
		motorlessAxis("a1", "192.168.0.11"),
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestMoveToUnknownAxisErrors(t *testing.T) {
	d := newMotorlessDrive(t)
	err := d.MoveTo(context.Background(), []quantity.Quantity{quantity.New(1, quantity.Length)}, "no-such-axis")
	if err == nil {
		t.Errorf("expected error for an unknown axis name")
	}
}

func TestMoveToSingleAxisWrongArityErrors(t *testing.T) {
	d := newMotorlessDrive(t)
	err := d.MoveTo(context.Background(), []quantity.Quantity{quantity.New(1, quantity.Length), quantity.New(2, quantity.Length)}, "a0")
	if err == nil {
		t.Errorf("expected error for a single-axis move_to with more than one component")
	}
}

func TestMoveToCompositeArityMismatchErrors(t *testing.T) {
	d := newMotorlessDrive(t)
	err := d.MoveTo(context.Background(), []quantity.Quantity{quantity.New(1, quantity.Length)}, "")
	if err == nil {
		t.Errorf("expected error for a composite move_to whose point arity does not match the drive")
	}
}

func TestMoveToPropagatesPerAxisErrorsWithoutMotors(t *testing.T) {
	d := newMotorlessDrive(t)
	err := d.MoveTo(context.Background(), []quantity.Quantity{
		quantity.New(1, quantity.Length),
		quantity.New(2, quantity.Length),
	}, "")
	if err == nil {
		t.Errorf("expected error: neither axis has a motor configured")
	}
}

func TestIsMovingFalseWithoutMotors(t *testing.T) {
	d := newMotorlessDrive(t)
	if d.IsMoving() {
		t.Errorf("IsMoving() should be false when no axis has a motor")
	}
}

func TestStopNeverRaisesWithoutMotors(t *testing.T) {
	d := newMotorlessDrive(t)
	if err := d.Stop(context.Background()); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
}

func TestPositionPropagatesErrorsWithoutMotors(t *testing.T) {
	d := newMotorlessDrive(t)
	if _, err := d.Position(context.Background()); err == nil {
		t.Errorf("expected Position to fail: neither axis has a motor configured")
	}
}

// stubController is a minimal fake motor controller serving one connection
// with scripted opcode replies, mirroring the motor package's own stub.
type stubController struct {
	ln       net.Listener
	handlers map[string]string
}

func newStubController(t *testing.T, posReply string) *stubController {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	sc := &stubController{
		ln:       ln,
		handlers: map[string]string{"PA": posReply, "MA": "", "ST": "", "TS": "0"},
	}
	go sc.serve()
	return sc
}

func (sc *stubController) serve() {
	conn, err := sc.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		raw, err := r.ReadBytes(wire.Terminator)
		if err != nil {
			return
		}
		body := string(raw[2 : len(raw)-1])
		opcode := body
		if i := strings.IndexByte(body, ' '); i >= 0 {
			opcode = body[:i]
		}
		reply := append([]byte("ECHO1"), sc.handlers[opcode]...)
		reply = append(reply, wire.Terminator)
		if _, err := conn.Write(reply); err != nil {
			return
		}
	}
}

func (sc *stubController) addr() (net.IP, uint16) {
	tcpAddr := sc.ln.Addr().(*net.TCPAddr)
	return tcpAddr.IP, uint16(tcpAddr.Port)
}

func (sc *stubController) Close() { sc.ln.Close() }

func commandTable() quantity.CommandTable {
	return quantity.CommandTable{
		motor.CmdPos:    {Name: motor.CmdPos, Opcode: "PA", Unit: quantity.Steps, HasUnit: true},
		motor.CmdMoveTo: {Name: motor.CmdMoveTo, Opcode: "MA", Unit: quantity.Steps, HasUnit: false},
		motor.CmdStop:   {Name: motor.CmdStop, Opcode: "ST", HasUnit: false},
		motor.CmdStatus: {Name: motor.CmdStatus, Opcode: "TS", HasUnit: false},
	}
}

func connectedAxis(t *testing.T, name string, axisIP string, posReply string) axis.Config {
	t.Helper()
	sc := newStubController(t, posReply)
	ip, port := sc.addr()
	t.Cleanup(sc.Close)
	return axis.Config{
		Name: name, IP: net.ParseIP(axisIP), Units: quantity.Length, UnitsPerRev: 1,
		Motor: &motor.Config{IP: ip, Port: port, StepsPerRev: 200, CommandTable: commandTable()},
	}
}

func TestCompositeMoveAndPositionAcrossTwoConnectedAxes(t *testing.T) {
	d, err := New(Config{Name: "d0", Axes: []axis.Config{
		connectedAxis(t, "a0", "192.168.0.10", "200"),
		connectedAxis(t, "a1", "192.168.0.11", "400"),
	}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	t.Cleanup(func() { d.Terminate(time.Second) })

	if err := d.MoveTo(ctx, []quantity.Quantity{
		quantity.New(1, quantity.Length),
		quantity.New(1, quantity.Length),
	}, ""); err != nil {
		t.Fatalf("MoveTo: %v", err)
	}

	pos, err := d.Position(ctx)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if len(pos) != 2 || pos[0].Value != 1 || pos[1].Value != 2 {
		t.Errorf("Position() = %+v, want [1 2] length units", pos)
	}
	if err := d.Stop(ctx); err != nil {
		t.Errorf("Stop() = %v, want nil", err)
	}
}

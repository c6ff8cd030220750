// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package quantity

// Param describes one entry of a Motor's command table: the wire opcode
// and the unit its argument/result is carried in. Grounded on
// inp/sim.go's typed-field-with-unit convention; unlike gosl/fun.Prm's
// name+value pair, a command-table entry has no single scalar value to
// carry, so it stays a plain struct (see DESIGN.md).
type Param struct {
	// Name is the command's lookup key, e.g. "move_to", "position".
	Name string
	// Opcode is the literal ASCII mnemonic sent on the wire (§6).
	Opcode string
	// Unit is the unit an argument is converted into before encoding (Steps
	// when left at its zero value), and the unit a decoded reply is tagged
	// with.
	Unit Unit
	// HasUnit marks a declared result unit: when false, the reply is
	// returned as raw text instead of being decoded.
	HasUnit bool
}

// CommandTable is a MotorConfig's `command_table`: name -> Param.
type CommandTable map[string]Param

// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package rlog is the run-loop's diagnostic printer. It wraps
// gosl/io's colorized Pf* family the way the teacher's main.go does for
// its startup banner and error reporting, rather than pulling in a
// structured logging framework the pack's repos never reach for.
package rlog

import "github.com/cpmech/gosl/io"

// Enabled gates Info output; Warn/Error/Banner always print, matching the
// teacher's own always-print-errors convention in main.go's recover block.
var Enabled = true

// Info prints an informational line, e.g. an actor transitioning Ready.
func Info(format string, args ...any) {
	if Enabled {
		io.Pf(format+"\n", args...)
	}
}

// Warn prints a yellow warning line, e.g. a reconnect attempt.
func Warn(format string, args ...any) {
	io.Pfyel(format+"\n", args...)
}

// Error prints a red error line, e.g. a Timeout or ConnectionLost.
func Error(format string, args ...any) {
	io.PfRed(format+"\n", args...)
}

// Banner prints a white startup banner line, matching main.go's
// io.PfWhite("\nGofem v3 ...\n\n") convention.
func Banner(format string, args ...any) {
	io.PfWhite(format+"\n", args...)
}

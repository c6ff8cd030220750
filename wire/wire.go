// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wire implements the per-motor packet framing of spec.md §6: a
// 2-byte big-endian sequence prefix, an ASCII command body, and a
// carriage-return terminator on the way out; an ASCII reply terminated by
// carriage return with a 5-byte echo header dropped on the way in.
package wire

import (
	"bufio"
	"fmt"
)

// SequencePrefix is the fixed 2-byte prefix spec.md §6 puts on every
// outbound packet.
var SequencePrefix = [2]byte{0x00, 0x07}

// Terminator is the byte that closes both outbound commands and inbound
// replies.
const Terminator byte = 0x0D

// EchoHeaderLen is the number of leading reply bytes that echo the
// request and must be dropped by the caller.
const EchoHeaderLen = 5

// MaxReplyLen bounds the reply buffer (spec.md §4.1: "read into a bounded
// buffer").
const MaxReplyLen = 1500

// Encode frames body as an outbound packet.
func Encode(body string) []byte {
	out := make([]byte, 0, 2+len(body)+1)
	out = append(out, SequencePrefix[0], SequencePrefix[1])
	out = append(out, body...)
	out = append(out, Terminator)
	return out
}

// ReadReply reads one terminator-delimited reply from r, bounded by
// MaxReplyLen, and strips the echo header.
func ReadReply(r *bufio.Reader) (string, error) {
	raw, err := r.ReadBytes(Terminator)
	if err != nil {
		return "", fmt.Errorf("wire: read reply: %w", err)
	}
	if len(raw) > MaxReplyLen {
		return "", fmt.Errorf("wire: reply exceeds bounded buffer (%d > %d)", len(raw), MaxReplyLen)
	}
	body := raw[:len(raw)-1] // drop terminator
	if len(body) < EchoHeaderLen {
		return "", fmt.Errorf("wire: reply shorter than echo header (%d bytes)", len(body))
	}
	return string(body[EchoHeaderLen:]), nil
}

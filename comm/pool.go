// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package comm provides a small pooled, backing-off TCP dialer for one
// motor controller. It is grounded on the _examples/other_examples
// reference nasa-jpl-golaborate's comm.Pool / BackingOffTCPConnMaker
// pattern (a fixed-capacity pool of connections handed out per command,
// redialed with exponential backoff on failure), adapted to this spec's
// single-session-per-motor model: capacity is always 1, since spec.md
// §4.1 requires commands on one Motor to be strictly serialized, not
// fanned out across a connection pool.
package comm

import (
	"context"
	"net"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ConnMaker dials a fresh connection, applying its own backoff policy on
// repeated failure before giving up.
type ConnMaker func(ctx context.Context) (net.Conn, error)

// BackingOffTCPConnMaker returns a ConnMaker that dials addr over TCP,
// retrying with exponential backoff up to connectTimeout.
func BackingOffTCPConnMaker(addr string, connectTimeout time.Duration) ConnMaker {
	return func(ctx context.Context) (net.Conn, error) {
		var conn net.Conn
		dialer := &net.Dialer{}
		op := func() error {
			c, err := dialer.DialContext(ctx, "tcp", addr)
			if err != nil {
				return err
			}
			conn = c
			return nil
		}
		bo := backoff.NewExponentialBackOff()
		bo.MaxElapsedTime = connectTimeout
		if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// Session owns exactly one connection to one motor controller,
// transparently redialing through maker when the current connection is
// nil or has been explicitly invalidated by Drop.
type Session struct {
	maker ConnMaker
	conn  net.Conn
}

// NewSession builds a Session that dials through maker on first use.
func NewSession(maker ConnMaker) *Session {
	return &Session{maker: maker}
}

// Get returns the live connection, dialing one if none is held.
func (s *Session) Get(ctx context.Context) (net.Conn, error) {
	if s.conn != nil {
		return s.conn, nil
	}
	c, err := s.maker(ctx)
	if err != nil {
		return nil, err
	}
	s.conn = c
	return c, nil
}

// Drop closes and discards the held connection, e.g. after a
// ConnectionLost error, so the next Get redials.
func (s *Session) Drop() {
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}

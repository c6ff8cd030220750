// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

// fakeConn is the minimal net.Conn needed to exercise Session without a
// real socket.
type fakeConn struct {
	net.Conn
	closed bool
}

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestSessionDialsOnce(t *testing.T) {
	calls := 0
	conn := &fakeConn{}
	maker := func(ctx context.Context) (net.Conn, error) {
		calls++
		return conn, nil
	}
	s := NewSession(maker)
	c1, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	c2, err := s.Get(context.Background())
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c1 != c2 {
		t.Errorf("Get should return the same held connection across calls")
	}
	if calls != 1 {
		t.Errorf("maker should be called exactly once, got %d", calls)
	}
}

func TestSessionRedialsAfterDrop(t *testing.T) {
	calls := 0
	maker := func(ctx context.Context) (net.Conn, error) {
		calls++
		return &fakeConn{}, nil
	}
	s := NewSession(maker)
	if _, err := s.Get(context.Background()); err != nil {
		t.Fatalf("Get: %v", err)
	}
	s.Drop()
	if _, err := s.Get(context.Background()); err != nil {
		t.Fatalf("Get after Drop: %v", err)
	}
	if calls != 2 {
		t.Errorf("maker should be called again after Drop, got %d calls", calls)
	}
}

func TestSessionPropagatesDialError(t *testing.T) {
	wantErr := errors.New("dial failed")
	maker := func(ctx context.Context) (net.Conn, error) {
		return nil, wantErr
	}
	s := NewSession(maker)
	if _, err := s.Get(context.Background()); !errors.Is(err, wantErr) {
		t.Errorf("Get err = %v, want %v", err, wantErr)
	}
}

func TestBackingOffTCPConnMakerFailsFastOnRefusedConnection(t *testing.T) {
	maker := BackingOffTCPConnMaker("127.0.0.1:1", 500*time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := maker(ctx); err == nil {
		t.Errorf("expected a dial error connecting to a closed port")
	}
}

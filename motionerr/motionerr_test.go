// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package motionerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfDirect(t *testing.T) {
	err := OutOfReachf("point %v excluded", []float64{1, 2})
	k, ok := KindOf(err)
	if !ok || k != OutOfReach {
		t.Fatalf("KindOf = %v, %v; want OutOfReach, true", k, ok)
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := ConnLost(errors.New("EOF"), "motor %s disconnected", "m1")
	wrapped := fmt.Errorf("axis m1: %w", cause)
	k, ok := KindOf(wrapped)
	if !ok || k != ConnectionLost {
		t.Fatalf("KindOf(wrapped) = %v, %v; want ConnectionLost, true", k, ok)
	}
}

func TestKindOfUnrelatedError(t *testing.T) {
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Errorf("KindOf on a plain error should report ok=false")
	}
}

func TestIsMatchesOnKindOnly(t *testing.T) {
	a := Timeoutf("reply wait expired")
	b := Timeoutf("a different message entirely")
	if !errors.Is(a, b) {
		t.Errorf("two Timeout errors with different messages should satisfy errors.Is")
	}
	c := Config("bad config")
	if errors.Is(a, c) {
		t.Errorf("Timeout and ConfigInvalid errors must not satisfy errors.Is")
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := ConnLost(cause, "motor %s", "m2")
	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should find the wrapped dial error")
	}
}

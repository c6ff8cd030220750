// Copyright 2024 The BaPSF Motion Control Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package runloop implements spec.md §4.12/§5's run loop: one dedicated
// goroutine per RunManager serializing all TCP-bound work, with a
// thread-safe "schedule and await" primitive for synchronous callers on
// other goroutines. The asyncio single-threaded event loop described in
// §5 is realized here as a worker goroutine draining a job channel (the
// same stopChan/WaitGroup shape the pack's acquisition loop uses), not a
// literal cooperative scheduler: Go's own goroutine scheduler already
// gives every suspension point (TCP read/write, timed sleep) the
// yielding behavior §5 describes.
package runloop

import (
	"context"
	"sync"
	"time"

	"github.com/rocco8773/bapsf-motion-sub001/motionerr"
)

// job is one unit of work submitted to the loop.
type job struct {
	fn     func(ctx context.Context) (any, error)
	result chan jobResult
}

type jobResult struct {
	value any
	err   error
}

// Handle is returned by Submit; Result blocks until the job completes or
// the given timeout elapses.
type Handle struct {
	result chan jobResult
}

// Result blocks for up to timeout for the submitted job to complete. A
// zero timeout waits forever.
func (h Handle) Result(timeout time.Duration) (any, error) {
	if timeout <= 0 {
		r := <-h.result
		return r.value, r.err
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-h.result:
		return r.value, r.err
	case <-timer.C:
		return nil, motionerr.Timeoutf("runloop: handle.Result timed out after %s", timeout)
	}
}

// Loop is the single-consumer worker that serializes all TCP I/O owned
// by one RunManager (spec.md §5's "dedicated OS thread" — here, a
// dedicated goroutine, since the scheduling unit Go exposes is the
// goroutine rather than the OS thread spec.md's source platform names).
type Loop struct {
	jobs     chan job
	stopChan chan struct{}
	wg       sync.WaitGroup

	// current holds the cancel func of whatever job is presently
	// executing. The loop is single-consumer, so at most one job ever
	// runs at a time.
	cancelMu sync.Mutex
	current  context.CancelFunc
}

// New builds a Loop and starts its worker goroutine.
func New() *Loop {
	l := &Loop{
		jobs:     make(chan job, 64),
		stopChan: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case j := <-l.jobs:
			ctx, cancel := context.WithCancel(context.Background())
			l.setCurrent(cancel)
			v, err := j.fn(ctx)
			l.setCurrent(nil)
			cancel()
			j.result <- jobResult{value: v, err: err}
		case <-l.stopChan:
			return
		}
	}
}

func (l *Loop) setCurrent(c context.CancelFunc) {
	l.cancelMu.Lock()
	l.current = c
	l.cancelMu.Unlock()
}

// Submit enqueues fn to run on the loop's worker goroutine and returns a
// Handle the caller can await from any other goroutine (spec.md §5's
// "schedule and await" primitive).
func (l *Loop) Submit(fn func(ctx context.Context) (any, error)) Handle {
	j := job{fn: fn, result: make(chan jobResult, 1)}
	l.jobs <- j
	return Handle{result: j.result}
}

// Cancel delivers cancellation to the job currently running, if any; the
// loop runs one job at a time and queued jobs are not cancelled (spec.md §5's
// cooperative cancellation: delivered at the job's next suspension
// point, since each job's ctx is a context.Context threaded through its
// TCP calls).
func (l *Loop) Cancel() {
	l.cancelMu.Lock()
	c := l.current
	l.cancelMu.Unlock()
	if c != nil {
		c()
	}
}

// Stop cancels the job currently running, then waits the full drain
// duration (it does not return early once that job finishes), and
// optionally stops the loop goroutine itself (spec.md §5's
// terminate(delay_loop_stop)). Jobs still queued are not cancelled.
func (l *Loop) Stop(drain time.Duration, stopLoop bool) {
	l.Cancel()
	done := make(chan struct{})
	go func() {
		// best-effort: give in-flight jobs drain time to observe
		// cancellation and return their result.
		time.Sleep(drain)
		close(done)
	}()
	<-done
	if stopLoop {
		close(l.stopChan)
		l.wg.Wait()
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package timeline publishes a monotonically increasing value as GPU work
// completes.
//
// The producer pushes (signal, value) pairs in order. A single worker
// goroutine waits on each signal and then publishes its value. Any number
// of goroutines can wait for the published value to reach a target.
package timeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/rdp/internal/logging"
	"github.com/gogpu/rdp/renderer"
)

// ErrClosed is returned by Wait when the timeline was closed before the
// requested value was reached.
var ErrClosed = errors.New("timeline: closed")

var logger logging.Pointer

// SetLogger sets the logger of this package. nil disables logging.
func SetLogger(l *slog.Logger) { logger.Store(l) }

type entry struct {
	sig   renderer.Signal
	value uint64
}

// Stats counts the work a Timeline has completed.
type Stats struct {
	Signals  uint64
	Failures uint64
}

// Timeline is a fence worker with a published completion value.
type Timeline struct {
	mu       sync.Mutex
	work     *sync.Cond // queue gained an entry
	progress *sync.Cond // reached changed or the worker exited
	queue    []entry
	closing  bool
	exited   bool
	stats    Stats

	reached atomic.Uint64

	closeOnce sync.Once
	done      chan struct{}
}

// New starts a timeline worker. The published value starts at zero.
func New() *Timeline {
	t := &Timeline{done: make(chan struct{})}
	t.work = sync.NewCond(&t.mu)
	t.progress = sync.NewCond(&t.mu)
	go t.run()
	return t
}

// Push queues sig. Once sig fires, value is published. A nil signal is
// the stop sentinel; use Close instead of pushing it directly. Pushes
// after Close are dropped.
func (t *Timeline) Push(sig renderer.Signal, value uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closing {
		logger.Load().Warn("timeline: push after close", "value", value)
		return
	}
	if sig == nil {
		t.closing = true
	}
	t.queue = append(t.queue, entry{sig: sig, value: value})
	t.work.Signal()
}

// Reached returns the published value.
func (t *Timeline) Reached() uint64 { return t.reached.Load() }

// Stats returns the worker counters.
func (t *Timeline) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stats
}

// Wait blocks until the published value is at least value. It returns
// ctx.Err() if ctx is done first and ErrClosed if the worker exited
// without reaching value.
func (t *Timeline) Wait(ctx context.Context, value uint64) error {
	if t.reached.Load() >= value {
		return nil
	}

	stop := context.AfterFunc(ctx, func() {
		t.mu.Lock()
		t.progress.Broadcast()
		t.mu.Unlock()
	})
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.reached.Load() < value {
		if err := ctx.Err(); err != nil {
			return err
		}
		if t.exited {
			return ErrClosed
		}
		t.progress.Wait()
	}
	return nil
}

// Close lets the worker finish everything pushed so far, then stops it.
// It is safe to call more than once.
func (t *Timeline) Close() {
	t.closeOnce.Do(func() {
		t.Push(nil, 0)
	})
	<-t.done
}

func (t *Timeline) run() {
	defer close(t.done)
	for {
		t.mu.Lock()
		for len(t.queue) == 0 {
			t.work.Wait()
		}
		e := t.queue[0]
		t.queue[0] = entry{}
		t.queue = t.queue[1:]
		t.mu.Unlock()

		if e.sig == nil {
			t.mu.Lock()
			t.exited = true
			t.progress.Broadcast()
			t.mu.Unlock()
			return
		}

		err := e.sig.Wait()
		if err != nil {
			// The value is still published so waiters make progress.
			logger.Load().Error("timeline: signal failed", "value", e.value, "err", err)
		}

		t.mu.Lock()
		t.stats.Signals++
		if err != nil {
			t.stats.Failures++
		}
		if e.value > t.reached.Load() {
			t.reached.Store(e.value)
		}
		t.progress.Broadcast()
		t.mu.Unlock()
	}
}

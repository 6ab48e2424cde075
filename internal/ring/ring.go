// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package ring moves command words from a producer to a single consumer
// goroutine.
//
// Batches pass through a bounded channel, so a producer that runs ahead of
// the consumer blocks instead of growing memory without limit. The
// consumer splits each batch into commands by opcode and hands them over
// one at a time, in the order they were enqueued.
package ring

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/rdp/command"
	"github.com/gogpu/rdp/internal/logging"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("ring: closed")

// DefaultCapacity is the number of batches that can be queued before
// Enqueue blocks.
const DefaultCapacity = 4 * 1024

var logger logging.Pointer

// SetLogger sets the logger of this package. nil disables logging.
func SetLogger(l *slog.Logger) { logger.Store(l) }

// Consumer receives complete commands.
type Consumer interface {
	SubmitDirect(words []uint32)
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc func(words []uint32)

// SubmitDirect calls f.
func (f ConsumerFunc) SubmitDirect(words []uint32) { f(words) }

type message struct {
	words   []uint32
	drained chan struct{}
}

// Stats counts what the consumer goroutine has processed.
type Stats struct {
	Batches  uint64
	Commands uint64
	Words    uint64
	Dropped  uint64 // words of truncated trailing commands
}

// Ring is a bounded single-consumer command queue.
type Ring struct {
	consumer Consumer
	ch       chan message

	mu     sync.RWMutex
	closed bool
	done   chan struct{}

	batches  atomic.Uint64
	commands atomic.Uint64
	words    atomic.Uint64
	dropped  atomic.Uint64
}

// New starts a ring that delivers to c. A capacity below one uses
// DefaultCapacity.
func New(capacity int, c Consumer) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	r := &Ring{
		consumer: c,
		ch:       make(chan message, capacity),
		done:     make(chan struct{}),
	}
	go r.run()
	return r
}

// Enqueue copies words and queues them for the consumer. It blocks while
// the ring is full.
func (r *Ring) Enqueue(words []uint32) error {
	if len(words) == 0 {
		return nil
	}
	batch := make([]uint32, len(words))
	copy(batch, words)

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrClosed
	}
	r.ch <- message{words: batch}
	return nil
}

// Drain blocks until every batch enqueued before the call has been handed
// to the consumer. It returns at once on a closed ring.
func (r *Ring) Drain() {
	drained := make(chan struct{})

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return
	}
	r.ch <- message{drained: drained}
	r.mu.RUnlock()

	<-drained
}

// Close delivers what is still queued and stops the consumer goroutine.
// It is safe to call more than once.
func (r *Ring) Close() {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.ch)
	}
	r.mu.Unlock()
	<-r.done
}

// Stats returns the consumer counters.
func (r *Ring) Stats() Stats {
	return Stats{
		Batches:  r.batches.Load(),
		Commands: r.commands.Load(),
		Words:    r.words.Load(),
		Dropped:  r.dropped.Load(),
	}
}

func (r *Ring) run() {
	defer close(r.done)
	for msg := range r.ch {
		if msg.drained != nil {
			close(msg.drained)
			continue
		}
		r.deliver(msg.words)
	}
}

func (r *Ring) deliver(words []uint32) {
	r.batches.Add(1)
	off := 0
	for off < len(words) {
		op := command.OpOf(words[off])
		n := command.Length(op)
		if off+n > len(words) {
			r.dropped.Add(uint64(len(words) - off))
			logger.Load().Warn("ring: dropping truncated command",
				"op", op, "have", len(words)-off, "want", n)
			break
		}
		r.consumer.SubmitDirect(words[off : off+n])
		r.commands.Add(1)
		r.words.Add(uint64(n))
		off += n
	}
}

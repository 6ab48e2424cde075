// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package ring

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/gogpu/rdp/command"
)

type collector struct {
	mu   sync.Mutex
	cmds [][]uint32
}

func (c *collector) SubmitDirect(words []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cmds = append(c.cmds, slices.Clone(words))
}

func (c *collector) ops() []command.Op {
	c.mu.Lock()
	defer c.mu.Unlock()
	ops := make([]command.Op, len(c.cmds))
	for i, w := range c.cmds {
		ops[i] = command.OpOf(w[0])
	}
	return ops
}

func TestSplitsBatches(t *testing.T) {
	c := &collector{}
	r := New(4, c)
	defer r.Close()

	var batch []uint32
	batch = append(batch, command.Color(command.OpSetFillColor, 1)...)
	batch = append(batch, command.TexRect{}.Words()...)
	batch = append(batch, command.SignalTimeline(5)...)
	batch = append(batch, command.Flush()...)
	if err := r.Enqueue(batch); err != nil {
		t.Fatal(err)
	}
	r.Drain()

	want := []command.Op{command.OpSetFillColor, command.OpTextureRectangle, command.OpMetaSignalTimeline, command.OpMetaFlush}
	if got := c.ops(); !slices.Equal(got, want) {
		t.Errorf("ops = %v, want %v", got, want)
	}
	if s := r.Stats(); s.Batches != 1 || s.Commands != 4 || s.Words != 10 {
		t.Errorf("stats = %+v", s)
	}
}

func TestEnqueueCopies(t *testing.T) {
	c := &collector{}
	r := New(4, c)
	defer r.Close()

	words := command.Color(command.OpSetEnvColor, 0x11)
	r.Enqueue(words)
	words[1] = 0x22
	r.Drain()

	if got := c.cmds[0][1]; got != 0x11 {
		t.Errorf("consumer saw %#x, want 0x11", got)
	}
}

func TestFIFOAcrossBatches(t *testing.T) {
	c := &collector{}
	r := New(2, c)
	defer r.Close()

	for i := uint32(0); i < 100; i++ {
		r.Enqueue(command.Color(command.OpSetFillColor, i))
	}
	r.Drain()

	if len(c.cmds) != 100 {
		t.Fatalf("%d commands, want 100", len(c.cmds))
	}
	for i, w := range c.cmds {
		if w[1] != uint32(i) {
			t.Fatalf("command %d carries %d", i, w[1])
		}
	}
}

func TestTruncatedTrailingCommand(t *testing.T) {
	c := &collector{}
	r := New(4, c)
	defer r.Close()

	batch := append(command.Color(command.OpSetFogColor, 1), command.TexRect{}.Words()[:2]...)
	r.Enqueue(batch)
	r.Drain()

	if len(c.cmds) != 1 {
		t.Errorf("%d commands delivered, want 1", len(c.cmds))
	}
	if s := r.Stats(); s.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", s.Dropped)
	}
}

func TestCloseDeliversQueued(t *testing.T) {
	c := &collector{}
	r := New(16, c)
	for i := 0; i < 10; i++ {
		r.Enqueue(command.Flush())
	}
	r.Close()
	if len(c.cmds) != 10 {
		t.Errorf("%d commands delivered before close, want 10", len(c.cmds))
	}

	if err := r.Enqueue(command.Flush()); !errors.Is(err, ErrClosed) {
		t.Errorf("Enqueue after Close = %v", err)
	}
	r.Drain()
	r.Close()
}

func TestEmptyEnqueue(t *testing.T) {
	r := New(0, ConsumerFunc(func([]uint32) { t.Error("consumer called") }))
	defer r.Close()
	if err := r.Enqueue(nil); err != nil {
		t.Error(err)
	}
	r.Drain()
	if cap(r.ch) != DefaultCapacity {
		t.Errorf("capacity = %d, want %d", cap(r.ch), DefaultCapacity)
	}
}

func TestConcurrentDrain(t *testing.T) {
	c := &collector{}
	r := New(8, c)
	defer r.Close()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Enqueue(command.Flush())
				if j%10 == 0 {
					r.Drain()
				}
			}
		}()
	}
	wg.Wait()
	r.Drain()
	if got := len(c.ops()); got != 200 {
		t.Errorf("%d commands, want 200", got)
	}
}

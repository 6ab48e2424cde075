// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/state"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func newTestGPURenderer(t *testing.T) *GPURenderer {
	t.Helper()
	device, queue, cleanup := createNoopDevice(t)
	r, err := NewGPURenderer(Config{Device: device, Queue: queue})
	if err != nil {
		cleanup()
		t.Fatalf("NewGPURenderer: %v", err)
	}
	t.Cleanup(func() {
		r.Close()
		cleanup()
	})
	return r
}

func TestNewGPURendererRequiresDevice(t *testing.T) {
	if _, err := NewGPURenderer(Config{}); !errors.Is(err, ErrNoDevice) {
		t.Errorf("err = %v, want ErrNoDevice", err)
	}
}

func TestGPURendererEmptyFlush(t *testing.T) {
	r := newTestGPURenderer(t)
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if s := r.Stats(); s.Flushes != 0 || s.Submissions != 0 {
		t.Errorf("empty flush submitted work: %+v", s)
	}
}

func TestGPURendererStateBlockSharing(t *testing.T) {
	r := newTestGPURenderer(t)
	setup := decode.TriangleSetup{YH: 4, YM: 8, YL: 8}

	r.DrawFlat(setup)
	r.DrawFlat(setup)
	r.DrawShaded(setup, decode.AttributeSetup{R: 1 << 16})
	if got := r.Stats().StateBlocks; got != 1 {
		t.Fatalf("unchanged state: %d blocks, want 1", got)
	}

	r.SetFillColor(0xff0000ff)
	r.DrawFlat(setup)
	if got := r.Stats().StateBlocks; got != 2 {
		t.Fatalf("after setter: %d blocks, want 2", got)
	}
	if got := len(r.states); got != 2*stateBlockSize {
		t.Errorf("state bytes = %d, want %d", got, 2*stateBlockSize)
	}
	if got := len(r.work); got != 4*workRecordSize {
		t.Errorf("work bytes = %d, want %d", got, 4*workRecordSize)
	}
	if r.Pending() != 4 {
		t.Errorf("Pending() = %d, want 4", r.Pending())
	}
}

func TestGPURendererStateBlockReuse(t *testing.T) {
	r := newTestGPURenderer(t)
	setup := decode.TriangleSetup{YH: 4, YM: 8, YL: 8}

	for i := 0; i < 3; i++ {
		r.SetFillColor(0x11111111)
		r.DrawFlat(setup)
		r.SetFillColor(0x22222222)
		r.DrawFlat(setup)
	}
	s := r.Stats()
	if s.StateBlocks != 2 || s.StateReuses != 4 {
		t.Errorf("blocks = %d, reuses = %d, want 2 and 4", s.StateBlocks, s.StateReuses)
	}
	if got := len(r.states); got != 2*stateBlockSize {
		t.Errorf("state bytes = %d, want %d", got, 2*stateBlockSize)
	}

	// Blocks do not outlive a flush.
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	r.DrawFlat(setup)
	if got := r.Stats().StateBlocks; got != 3 {
		t.Errorf("after flush: %d blocks, want 3", got)
	}
}

func TestGPURendererFlushSubmits(t *testing.T) {
	r := newTestGPURenderer(t)

	r.SetScissorState(state.ScissorState{XHi: 320 << 2, YHi: 240 << 2})
	r.LoadTile(0, state.LoadTileInfo{TexWidth: 32, SHi: 31 << 2, THi: 31 << 2, Mode: state.UploadTile})
	r.DrawFlat(decode.TriangleSetup{})

	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	s := r.Stats()
	if s.Flushes != 1 || s.Submissions != 1 || s.Draws != 1 || s.Loads != 1 {
		t.Errorf("stats = %+v", s)
	}
	if s.BytesUp != uint64(stateBlockSize+2*workRecordSize) {
		t.Errorf("BytesUp = %d, want %d", s.BytesUp, stateBlockSize+2*workRecordSize)
	}
	if r.Pending() != 0 {
		t.Errorf("Pending() after flush = %d", r.Pending())
	}

	// The next draw must carry a fresh snapshot, since the uploaded
	// blocks were discarded.
	r.DrawFlat(decode.TriangleSetup{})
	if got := r.Stats().StateBlocks; got != 2 {
		t.Errorf("StateBlocks = %d, want 2", got)
	}
}

func TestGPURendererSignal(t *testing.T) {
	r := newTestGPURenderer(t)

	r.DrawFlat(decode.TriangleSetup{})
	sig, err := r.FlushAndSignal()
	if err != nil {
		t.Fatalf("FlushAndSignal: %v", err)
	}
	if err := sig.Wait(); err != nil {
		t.Errorf("Wait: %v", err)
	}

	// Nothing pending: the signal still covers the earlier submission.
	sig, err = r.FlushAndSignal()
	if err != nil {
		t.Fatalf("FlushAndSignal: %v", err)
	}
	if err := sig.Wait(); err != nil {
		t.Errorf("Wait: %v", err)
	}
	if got := r.Stats().Submissions; got != 1 {
		t.Errorf("Submissions = %d, want 1", got)
	}
}

func TestGPURendererGrowsBuffers(t *testing.T) {
	r := newTestGPURenderer(t)

	n := minBufferSize/workRecordSize + 1
	for i := 0; i < n; i++ {
		r.DrawShaded(decode.TriangleSetup{}, decode.AttributeSetup{})
	}
	if err := r.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	fb := r.frames[r.frame]
	if fb.workCap < uint64(n*workRecordSize) || fb.workCap != 2*minBufferSize {
		t.Errorf("workCap = %d for %d bytes", fb.workCap, n*workRecordSize)
	}
	if fb.stateCap != minBufferSize {
		t.Errorf("stateCap = %d, want %d", fb.stateCap, minBufferSize)
	}
}

func TestGPURendererRegistered(t *testing.T) {
	if !IsRegistered("gpu") {
		t.Fatal(`"gpu" renderer not registered`)
	}
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	r, err := New("gpu", Config{Device: device, Queue: queue})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	g, ok := r.(*GPURenderer)
	if !ok {
		t.Fatalf("New returned %T", r)
	}
	g.Close()
}

func TestGPURendererSignalsShareLock(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()
	lock := new(sync.Mutex)
	r, err := NewGPURenderer(Config{Device: device, Queue: queue, Lock: lock})
	if err != nil {
		t.Fatalf("NewGPURenderer: %v", err)
	}
	defer r.Close()

	signals := make(chan Signal, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for sig := range signals {
			if err := sig.Wait(); err != nil {
				t.Errorf("Wait: %v", err)
			}
		}
	}()

	for i := range 100 {
		r.SetFillColor(uint32(i))
		r.DrawFlat(decode.TriangleSetup{YL: int32(i)})
		sig, err := r.FlushAndSignal()
		if err != nil {
			t.Fatalf("FlushAndSignal: %v", err)
		}
		signals <- sig
	}
	close(signals)
	wg.Wait()

	if got := r.Stats().Submissions; got != 100 {
		t.Errorf("submissions = %d, want 100", got)
	}
}

func TestSubmissionSignalBeforeAnySubmission(t *testing.T) {
	r := newTestGPURenderer(t)
	sig, err := r.FlushAndSignal()
	if err != nil {
		t.Fatalf("FlushAndSignal: %v", err)
	}
	if err := sig.Wait(); err != nil {
		t.Errorf("Wait: %v", err)
	}
}

func TestGPURendererNextFrameAlternatesBuffers(t *testing.T) {
	r := newTestGPURenderer(t)
	var _ FrameAdvancer = r

	draw := func() {
		t.Helper()
		r.DrawFlat(decode.TriangleSetup{})
		if err := r.Flush(); err != nil {
			t.Fatalf("Flush: %v", err)
		}
	}

	draw()
	first := r.frames[0]
	if first.workBuf == nil || first.last == 0 || r.frames[1].workBuf != nil {
		t.Fatalf("frame 0 not used: %+v / %+v", r.frames[0], r.frames[1])
	}

	r.NextFrame()
	if r.frame != 1 {
		t.Fatalf("frame = %d, want 1", r.frame)
	}
	draw()
	if r.frames[1].workBuf == nil || r.frames[1].last <= first.last {
		t.Errorf("frame 1 not used: %+v", r.frames[1])
	}
	if r.frames[0].workBuf != first.workBuf {
		t.Error("frame 0 buffers replaced while frame 1 was recorded")
	}

	r.NextFrame()
	if r.frame != 0 || r.Stats().Frames != 2 {
		t.Errorf("frame = %d, frames = %d", r.frame, r.Stats().Frames)
	}
	if len(r.inFlight) != 0 {
		t.Errorf("%d submissions still held after frame boundary", len(r.inFlight))
	}
}

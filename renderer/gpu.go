// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/internal/logging"
	"github.com/gogpu/rdp/state"
)

// ErrNoDevice is returned when a GPU renderer is created without a device
// or queue.
var ErrNoDevice = errors.New("renderer: nil device or queue")

var logger logging.Pointer

// SetLogger sets the logger of this package. nil disables logging.
func SetLogger(l *slog.Logger) { logger.Store(l) }

func init() {
	Register("gpu", func(cfg Config) (Renderer, error) {
		return NewGPURenderer(cfg)
	})
}

// minBufferSize is the smallest work or state buffer the renderer
// allocates.
const minBufferSize = 64 * 1024

// Completion signals poll the queue with a growing delay between these
// bounds before they block in WaitIdle.
const (
	signalPollMin = 50 * time.Microsecond
	signalPollMax = 2 * time.Millisecond
)

// GPUStats counts the work a GPURenderer has pushed to the device.
type GPUStats struct {
	Draws       uint64
	Loads       uint64
	StateBlocks uint64
	StateReuses uint64
	Flushes     uint64
	Frames      uint64
	Submissions uint64
	BytesUp     uint64
}

// GPURenderer implements Renderer on a wgpu HAL device. Every draw is
// packed into a work record that references a snapshot of the register
// state; Flush uploads the records and their snapshots to storage buffers
// and submits them.
//
// GPURenderer is not safe for concurrent use; the command processor calls
// it from its consumer goroutine only. Its device and queue calls, and
// those of the signals it returns, hold cfg.Lock.
type GPURenderer struct {
	cfg Config
	gpu sync.Locker

	current    stateBlock
	dirty      bool
	stateIndex uint32

	// emitted maps the state blocks of the current flush to their index.
	emitted map[stateBlock]uint32

	states  []byte
	work    []byte
	records int

	// frames alternate between frame boundaries.
	frames [2]frameBuffers
	frame  int

	// inFlight holds submitted command buffers until the queue reports
	// their submission as complete.
	inFlight       []submitted
	lastSubmission uint64

	stats GPUStats
}

// frameBuffers are the upload targets of one frame.
type frameBuffers struct {
	stateBuf hal.Buffer
	stateCap uint64
	workBuf  hal.Buffer
	workCap  uint64

	// last is the latest submission that reads these buffers.
	last uint64
}

type submitted struct {
	cmd   hal.CommandBuffer
	index uint64
}

// NewGPURenderer creates a renderer on cfg.Device and cfg.Queue.
func NewGPURenderer(cfg Config) (*GPURenderer, error) {
	if cfg.Device == nil || cfg.Queue == nil {
		return nil, ErrNoDevice
	}
	gpu := cfg.Lock
	if gpu == nil {
		gpu = new(sync.Mutex)
	}
	return &GPURenderer{cfg: cfg, gpu: gpu, dirty: true, emitted: make(map[stateBlock]uint32)}, nil
}

// Stats returns the counters accumulated so far.
func (r *GPURenderer) Stats() GPUStats { return r.stats }

// Pending returns the number of records waiting for the next flush.
func (r *GPURenderer) Pending() int { return r.records }

func (r *GPURenderer) touch() { r.dirty = true }

// snapshot returns the index of a state block equal to the current
// registers. A block is emitted only for register contents not seen since
// the last flush.
func (r *GPURenderer) snapshot() uint32 {
	if !r.dirty && len(r.states) > 0 {
		return r.stateIndex
	}
	r.dirty = false
	if idx, ok := r.emitted[r.current]; ok {
		r.stateIndex = idx
		r.stats.StateReuses++
		return idx
	}
	r.stateIndex = uint32(len(r.states) / stateBlockSize)
	r.states = appendStateBlock(r.states, &r.current)
	r.emitted[r.current] = r.stateIndex
	r.stats.StateBlocks++
	return r.stateIndex
}

func (r *GPURenderer) push(rec *workRecord) {
	r.work = appendWorkRecord(r.work, rec)
	r.records++
}

// DrawFlat implements Renderer.
func (r *GPURenderer) DrawFlat(setup decode.TriangleSetup) {
	r.push(&workRecord{Kind: recordFlat, State: r.snapshot(), Setup: setup})
	r.stats.Draws++
}

// DrawShaded implements Renderer.
func (r *GPURenderer) DrawShaded(setup decode.TriangleSetup, attr decode.AttributeSetup) {
	r.push(&workRecord{Kind: recordShaded, State: r.snapshot(), Setup: setup, Attr: attr})
	r.stats.Draws++
}

// LoadTile implements Renderer. Loads are ordered with draws because they
// change TMEM contents that earlier draws may still sample.
func (r *GPURenderer) LoadTile(tile uint8, info state.LoadTileInfo) {
	r.push(&workRecord{Kind: recordLoad, State: r.snapshot(), LoadTile: uint32(tile & 7), Load: info})
	r.stats.Loads++
}

func (r *GPURenderer) SetStaticRasterizationState(s state.StaticRasterizationState) {
	r.current.Static = s
	r.touch()
}

func (r *GPURenderer) SetDepthBlendState(s state.DepthBlendState) {
	r.current.DepthBlend = s
	r.touch()
}

func (r *GPURenderer) SetScissorState(s state.ScissorState) {
	r.current.Scissor = s
	r.touch()
}

func (r *GPURenderer) SetEnablePrimitiveDepth(enable bool) {
	r.current.PrimDepthEnable = enable
	r.touch()
}

func (r *GPURenderer) SetTile(tile uint8, info state.TileInfo) {
	r.current.Tiles[tile&7] = info
	r.touch()
}

func (r *GPURenderer) SetTileSize(tile uint8, size state.TileSize) {
	r.current.TileSizes[tile&7] = size
	r.touch()
}

func (r *GPURenderer) SetColorFramebuffer(addr, width uint32, format state.FBFormat) {
	r.current.ColorAddr, r.current.ColorWidth, r.current.ColorFormat = addr, width, format
	r.touch()
}

func (r *GPURenderer) SetDepthFramebuffer(addr uint32) {
	r.current.DepthAddr = addr
	r.touch()
}

func (r *GPURenderer) SetFillColor(rgba uint32)  { r.current.FillColor = rgba; r.touch() }
func (r *GPURenderer) SetFogColor(rgba uint32)   { r.current.FogColor = rgba; r.touch() }
func (r *GPURenderer) SetBlendColor(rgba uint32) { r.current.BlendColor = rgba; r.touch() }
func (r *GPURenderer) SetEnvColor(rgba uint32)   { r.current.EnvColor = rgba; r.touch() }

func (r *GPURenderer) SetPrimitiveColor(minLevel, levelFrac uint8, rgba uint32) {
	r.current.PrimMinLevel, r.current.PrimLevelFrac, r.current.PrimColor = minLevel, levelFrac, rgba
	r.touch()
}

func (r *GPURenderer) SetPrimitiveDepth(z, dz uint16) {
	r.current.PrimZ, r.current.PrimDZ = z, dz
	r.touch()
}

func (r *GPURenderer) SetConvert(k [6]uint16) {
	r.current.Convert = k
	r.touch()
}

// Flush implements Renderer. Without pending records it does nothing.
func (r *GPURenderer) Flush() error {
	r.gpu.Lock()
	defer r.gpu.Unlock()

	r.reclaim()
	if r.records == 0 {
		return nil
	}
	r.stats.Flushes++

	if err := r.upload(); err != nil {
		return err
	}
	if err := r.submit(); err != nil {
		return err
	}

	r.work = r.work[:0]
	r.states = r.states[:0]
	clear(r.emitted)
	r.records = 0
	r.dirty = true
	return nil
}

// FlushAndSignal implements Renderer. The returned signal covers the last
// submission, including those made by earlier flushes.
func (r *GPURenderer) FlushAndSignal() (Signal, error) {
	if err := r.Flush(); err != nil {
		return nil, err
	}
	return &submissionSignal{device: r.cfg.Device, queue: r.cfg.Queue, gpu: r.gpu, index: r.lastSubmission}, nil
}

func (r *GPURenderer) upload() error {
	fb := &r.frames[r.frame]
	var err error
	if fb.stateBuf, fb.stateCap, err = r.ensure(fb.stateBuf, fb.stateCap, len(r.states), "rdp_state_blocks"); err != nil {
		return err
	}
	if fb.workBuf, fb.workCap, err = r.ensure(fb.workBuf, fb.workCap, len(r.work), "rdp_work_records"); err != nil {
		return err
	}
	if err := r.cfg.Queue.WriteBuffer(fb.stateBuf, 0, r.states); err != nil {
		return fmt.Errorf("renderer: upload state blocks: %w", err)
	}
	if err := r.cfg.Queue.WriteBuffer(fb.workBuf, 0, r.work); err != nil {
		return fmt.Errorf("renderer: upload work records: %w", err)
	}
	r.stats.BytesUp += uint64(len(r.states) + len(r.work))
	return nil
}

// ensure returns a buffer of at least need bytes, replacing buf if it is
// too small. Capacities grow in powers of two.
func (r *GPURenderer) ensure(buf hal.Buffer, capacity uint64, need int, label string) (hal.Buffer, uint64, error) {
	if buf != nil && uint64(need) <= capacity {
		return buf, capacity, nil
	}
	size := uint64(minBufferSize)
	for size < uint64(need) {
		size <<= 1
	}
	if buf != nil {
		// Work using the old buffer may still be running.
		r.waitInFlight()
		r.cfg.Device.DestroyBuffer(buf)
	}
	nb, err := r.cfg.Device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("renderer: create %s (%d bytes): %w", label, size, err)
	}
	logger.Load().Debug("renderer: buffer allocated", "label", label, "size", size)
	return nb, size, nil
}

func (r *GPURenderer) submit() error {
	encoder, err := r.cfg.Device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "rdp_flush"})
	if err != nil {
		return fmt.Errorf("renderer: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("rdp_flush"); err != nil {
		return fmt.Errorf("renderer: begin encoding: %w", err)
	}
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("renderer: end encoding: %w", err)
	}
	index, err := r.cfg.Queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		r.cfg.Device.FreeCommandBuffer(cmd)
		return fmt.Errorf("renderer: submit: %w", err)
	}
	r.inFlight = append(r.inFlight, submitted{cmd: cmd, index: index})
	r.lastSubmission = index
	r.frames[r.frame].last = index
	r.stats.Submissions++
	logger.Load().Debug("renderer: submitted", "index", index, "records", r.records)
	return nil
}

// reclaim frees the command buffers of completed submissions.
func (r *GPURenderer) reclaim() {
	if len(r.inFlight) == 0 {
		return
	}
	done := r.cfg.Queue.PollCompleted()
	n := 0
	for _, s := range r.inFlight {
		if s.index <= done {
			r.cfg.Device.FreeCommandBuffer(s.cmd)
			continue
		}
		r.inFlight[n] = s
		n++
	}
	r.inFlight = r.inFlight[:n]
}

func (r *GPURenderer) waitInFlight() {
	if len(r.inFlight) == 0 {
		return
	}
	if err := r.cfg.Device.WaitIdle(); err != nil {
		logger.Load().Error("renderer: wait idle", "err", err)
	}
	r.reclaim()
}

// NextFrame implements FrameAdvancer. It switches to the other set of
// upload buffers, first waiting for the work that last read them, and
// frees the command buffers of finished submissions.
func (r *GPURenderer) NextFrame() {
	r.gpu.Lock()
	defer r.gpu.Unlock()

	r.frame ^= 1
	r.stats.Frames++
	if last := r.frames[r.frame].last; last > 0 && r.cfg.Queue.PollCompleted() < last {
		if err := r.cfg.Device.WaitIdle(); err != nil {
			logger.Load().Error("renderer: wait for frame", "submission", last, "err", err)
		}
	}
	r.reclaim()
}

// Close waits for outstanding work and releases the renderer's buffers.
func (r *GPURenderer) Close() {
	r.gpu.Lock()
	defer r.gpu.Unlock()

	r.waitInFlight()
	for _, s := range r.inFlight {
		r.cfg.Device.FreeCommandBuffer(s.cmd)
	}
	r.inFlight = nil
	for i := range r.frames {
		fb := &r.frames[i]
		if fb.stateBuf != nil {
			r.cfg.Device.DestroyBuffer(fb.stateBuf)
		}
		if fb.workBuf != nil {
			r.cfg.Device.DestroyBuffer(fb.workBuf)
		}
		*fb = frameBuffers{}
	}
}

// submissionSignal fires when the queue has completed a submission. It
// polls the queue for a short while, releasing the lock between polls so
// the consumer can keep submitting, and then waits for the device to go
// idle, which also covers every later submission.
type submissionSignal struct {
	device hal.Device
	queue  hal.Queue
	gpu    sync.Locker
	index  uint64
}

func (s *submissionSignal) completed() bool {
	s.gpu.Lock()
	defer s.gpu.Unlock()
	return s.queue.PollCompleted() >= s.index
}

func (s *submissionSignal) Wait() error {
	for delay := signalPollMin; ; delay *= 2 {
		if s.completed() {
			return nil
		}
		if delay > signalPollMax {
			break
		}
		time.Sleep(delay)
	}

	s.gpu.Lock()
	defer s.gpu.Unlock()
	if s.queue.PollCompleted() >= s.index {
		return nil
	}
	if err := s.device.WaitIdle(); err != nil {
		return fmt.Errorf("renderer: wait for submission %d: %w", s.index, err)
	}
	return nil
}

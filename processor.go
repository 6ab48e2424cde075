// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rdp

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rdp/command"
	"github.com/gogpu/rdp/dispatch"
	"github.com/gogpu/rdp/internal/ring"
	"github.com/gogpu/rdp/memory"
	"github.com/gogpu/rdp/renderer"
	"github.com/gogpu/rdp/state"
	"github.com/gogpu/rdp/timeline"
	"github.com/gogpu/rdp/vi"
)

var (
	// ErrAllocation wraps failures to create the processor's memory.
	ErrAllocation = errors.New("rdp: allocation failed")

	// ErrTicketNotSubmitted is returned when waiting for a ticket that
	// SignalTimeline never issued.
	ErrTicketNotSubmitted = errors.New("rdp: timeline ticket was never submitted")

	// ErrClosed is returned by operations on a closed processor.
	ErrClosed = errors.New("rdp: command processor closed")

	// ErrNoDevice is returned when no device or queue is given.
	ErrNoDevice = errors.New("rdp: nil device or queue")
)

// hiddenRDRAMClear is the pattern hidden RDRAM holds after construction.
const hiddenRDRAMClear = 0x03030303

// CommandProcessor decodes RDP command streams and feeds them to a
// renderer.
//
// Submit, Flush and SignalTimeline are meant for one producer goroutine.
// WaitForTimeline, Idle and the memory accessors may be called from any
// goroutine.
type CommandProcessor struct {
	device hal.Device
	queue  hal.Queue
	flags  Flags

	// log is the logger given with WithLogger; nil means the package
	// logger at the time of each call.
	log *slog.Logger

	// gpu is held around every call on device and queue, whichever
	// goroutine makes it.
	gpu sync.Mutex

	rdram  *memory.Region
	hidden *memory.Region
	tmem   *memory.Region

	renderer     renderer.Renderer
	ownsRenderer bool

	// consumerMu serializes SubmitDirect with readers of the decoder
	// state.
	consumerMu sync.Mutex
	dispatcher *dispatch.Dispatcher

	timeline *timeline.Timeline
	ring     *ring.Ring
	vi       *vi.VI

	// submitMu keeps ticket order equal to stream order.
	submitMu sync.Mutex
	issued   atomic.Uint64
	frames   atomic.Uint64
	rejected atomic.Uint64

	// pushed is the last ticket handed to the timeline. Only the
	// consumer goroutine uses it.
	pushed uint64

	closeOnce sync.Once
}

// New creates a processor on device and queue. On error nothing is left
// allocated.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*CommandProcessor, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	p := &CommandProcessor{
		device: device,
		queue:  queue,
		flags:  o.flags,
		log:    o.logger,
	}

	if err := p.allocate(&o); err != nil {
		p.destroyMemory()
		return nil, err
	}

	p.renderer = o.renderer
	if p.renderer == nil {
		r, err := renderer.New(o.rendererName, renderer.Config{
			Device:      device,
			Queue:       queue,
			Lock:        &p.gpu,
			RDRAM:       p.rdram.Buffer(),
			HiddenRDRAM: p.hidden.Buffer(),
			TMEM:        p.tmem.Buffer(),
		})
		if err != nil {
			p.destroyMemory()
			return nil, fmt.Errorf("rdp: create renderer: %w", err)
		}
		p.renderer = r
		p.ownsRenderer = true
	}

	p.timeline = timeline.New()
	p.dispatcher = dispatch.New(p.renderer, ticketGate{p})
	p.vi = vi.New()
	p.ring = ring.New(o.ringCapacity, p)

	p.logger().Info("rdp: command processor created",
		"rdram", p.rdram.Size(),
		"hidden_rdram", p.hidden.Size(),
		"flags", o.flags,
		"renderer", fmt.Sprintf("%T", p.renderer))
	return p, nil
}

// NewFromProvider creates a processor on the device of a provider that
// exposes its HAL objects through HalDevice() and HalQueue().
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*CommandProcessor, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("rdp: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("rdp: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("rdp: provider HalQueue is not hal.Queue")
	}
	return New(device, queue, opts...)
}

// logger returns the WithLogger logger or, without one, the current
// package logger.
func (p *CommandProcessor) logger() *slog.Logger {
	if p.log != nil {
		return p.log
	}
	return Logger()
}

// ticketGate hands timeline signals to the timeline. Only the ticket
// following the last one pushed is accepted, and only once SignalTimeline
// has issued it; any other value did not come from SignalTimeline and
// would release waiters early.
type ticketGate struct{ p *CommandProcessor }

func (g ticketGate) Push(sig renderer.Signal, value uint64) {
	p := g.p
	if value != p.pushed+1 || value > p.issued.Load() {
		p.rejected.Add(1)
		p.logger().Warn("rdp: dropping timeline signal that was not issued",
			"value", value, "expected", p.pushed+1, "issued", p.issued.Load())
		return
	}
	p.pushed = value
	p.timeline.Push(sig, value)
}

func (p *CommandProcessor) domain(f Flags) memory.Domain {
	if p.flags&f != 0 {
		return memory.CachedHost
	}
	return memory.Device
}

func (p *CommandProcessor) allocate(o *options) error {
	var err error
	p.rdram, err = memory.NewRegion(p.device, p.queue, memory.RegionDescriptor{
		Label:  "rdp_rdram",
		Size:   o.rdramSize,
		Domain: memory.CachedHost,
		Host:   o.rdram,
		Lock:   &p.gpu,
	})
	if err != nil {
		return fmt.Errorf("%w: rdram: %w", ErrAllocation, err)
	}

	p.hidden, err = memory.NewRegion(p.device, p.queue, memory.RegionDescriptor{
		Label:  "rdp_hidden_rdram",
		Size:   o.hiddenSize,
		Domain: p.domain(FlagHostVisibleHiddenRDRAM),
		Lock:   &p.gpu,
	})
	if err != nil {
		return fmt.Errorf("%w: hidden rdram: %w", ErrAllocation, err)
	}
	if err := p.hidden.Fill(hiddenRDRAMClear); err != nil {
		return fmt.Errorf("%w: clear hidden rdram: %w", ErrAllocation, err)
	}

	p.tmem, err = memory.NewRegion(p.device, p.queue, memory.RegionDescriptor{
		Label:  "rdp_tmem",
		Size:   TMEMSize,
		Domain: p.domain(FlagHostVisibleTMEM),
		Lock:   &p.gpu,
	})
	if err != nil {
		return fmt.Errorf("%w: tmem: %w", ErrAllocation, err)
	}
	if err := p.tmem.Fill(0); err != nil {
		return fmt.Errorf("%w: clear tmem: %w", ErrAllocation, err)
	}
	return nil
}

func (p *CommandProcessor) destroyMemory() {
	for _, r := range []*memory.Region{p.tmem, p.hidden, p.rdram} {
		if r != nil {
			r.Destroy()
		}
	}
}

func (p *CommandProcessor) enqueue(words []uint32) error {
	if err := p.ring.Enqueue(words); err != nil {
		if errors.Is(err, ring.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Submit queues command words for decoding. It may return before they are
// decoded. A batch may hold several commands but must not end inside one.
// Meta commands are reserved for the processor and are dropped.
func (p *CommandProcessor) Submit(words []uint32) error {
	words = p.dropMeta(words)
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	return p.enqueue(words)
}

// dropMeta returns words without the meta commands it holds. words is
// returned as is when there are none.
func (p *CommandProcessor) dropMeta(words []uint32) []uint32 {
	var out []uint32
	for off := 0; off < len(words); {
		op := command.OpOf(words[off])
		end := min(off+command.Length(op), len(words))
		switch {
		case op.IsMeta():
			if out == nil {
				out = append(make([]uint32, 0, len(words)), words[:off]...)
			}
			p.rejected.Add(1)
			p.logger().Warn("rdp: dropping meta command from submitted stream", "op", op, "offset", off)
		case out != nil:
			out = append(out, words[off:end]...)
		}
		off = end
	}
	if out == nil {
		return words
	}
	return out
}

// SubmitDirect decodes the command at the start of words on the calling
// goroutine. The consumer goroutine calls it for every queued command;
// callers that bypass Submit must not interleave with queued work.
func (p *CommandProcessor) SubmitDirect(words []uint32) {
	p.consumerMu.Lock()
	defer p.consumerMu.Unlock()
	p.dispatcher.Apply(words)
}

// Flush queues a flush of all pending renderer work.
func (p *CommandProcessor) Flush() error {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()
	return p.enqueue(command.Flush())
}

// SignalTimeline queues a timeline signal and returns its ticket. The
// ticket is reached once everything submitted before it has completed.
func (p *CommandProcessor) SignalTimeline() (uint64, error) {
	p.submitMu.Lock()
	defer p.submitMu.Unlock()

	// The ticket is issued before the consumer can see it.
	ticket := p.issued.Load() + 1
	p.issued.Store(ticket)
	if err := p.enqueue(command.SignalTimeline(ticket)); err != nil {
		p.issued.Store(ticket - 1)
		return 0, err
	}
	return ticket, nil
}

// WaitForTimeline blocks until ticket is reached or ctx is done. Tickets
// that were never issued fail at once with ErrTicketNotSubmitted.
func (p *CommandProcessor) WaitForTimeline(ctx context.Context, ticket uint64) error {
	if ticket > p.issued.Load() {
		return fmt.Errorf("%w: ticket %d, last issued %d", ErrTicketNotSubmitted, ticket, p.issued.Load())
	}
	if err := p.timeline.Wait(ctx, ticket); err != nil {
		if errors.Is(err, timeline.ErrClosed) {
			return ErrClosed
		}
		return err
	}
	return nil
}

// Idle waits until all submitted work has completed.
func (p *CommandProcessor) Idle() error {
	return p.IdleContext(context.Background())
}

// IdleContext is Idle with cancellation.
func (p *CommandProcessor) IdleContext(ctx context.Context) error {
	ticket, err := p.SignalTimeline()
	if err != nil {
		return err
	}
	return p.WaitForTimeline(ctx, ticket)
}

// BeginFrameContext marks a frame boundary. It flushes, waits until the
// consumer has decoded everything queued so far and moves a renderer that
// implements renderer.FrameAdvancer to its next frame. Call it once per
// emulated frame.
func (p *CommandProcessor) BeginFrameContext() error {
	if err := p.Flush(); err != nil {
		return err
	}
	p.ring.Drain()
	if fa, ok := p.renderer.(renderer.FrameAdvancer); ok {
		p.consumerMu.Lock()
		fa.NextFrame()
		p.consumerMu.Unlock()
	}
	n := p.frames.Add(1)
	p.logger().Debug("rdp: frame", "frame", n)
	return nil
}

// SetVIRegister writes a video interface register.
func (p *CommandProcessor) SetVIRegister(reg vi.Register, value uint32) {
	p.vi.SetRegister(reg, value)
}

// Scanout waits for all work and returns the framebuffer the VI registers
// select.
func (p *CommandProcessor) Scanout() (*image.RGBA, error) {
	return p.scanout(func(ram []byte) *image.RGBA { return p.vi.Scanout(ram) })
}

// ScanoutScaled is Scanout resampled to width x height.
func (p *CommandProcessor) ScanoutScaled(width, height int) (*image.RGBA, error) {
	return p.scanout(func(ram []byte) *image.RGBA { return p.vi.ScanoutScaled(ram, width, height) })
}

func (p *CommandProcessor) scanout(f func([]byte) *image.RGBA) (*image.RGBA, error) {
	if err := p.Idle(); err != nil {
		return nil, err
	}
	ram, err := p.rdram.Map(memory.Read)
	if err != nil {
		return nil, err
	}
	defer p.rdram.Unmap(memory.Read)
	return f(ram), nil
}

// BeginReadRDRAM waits for all work and maps RDRAM. The mapping stays
// open until EndReadRDRAM or EndWriteRDRAM.
func (p *CommandProcessor) BeginReadRDRAM() ([]byte, error) {
	return p.beginRead(p.rdram)
}

// EndReadRDRAM closes a mapping without uploading host changes.
func (p *CommandProcessor) EndReadRDRAM() error {
	return p.rdram.Unmap(memory.Read)
}

// EndWriteRDRAM closes a mapping and uploads host changes to the GPU.
func (p *CommandProcessor) EndWriteRDRAM() error {
	return p.rdram.Unmap(memory.ReadWrite)
}

// BeginReadHiddenRDRAM maps hidden RDRAM. It requires
// FlagHostVisibleHiddenRDRAM.
func (p *CommandProcessor) BeginReadHiddenRDRAM() ([]byte, error) {
	return p.beginRead(p.hidden)
}

// EndReadHiddenRDRAM closes a hidden RDRAM mapping without uploading.
func (p *CommandProcessor) EndReadHiddenRDRAM() error {
	return p.hidden.Unmap(memory.Read)
}

// EndWriteHiddenRDRAM closes a hidden RDRAM mapping and uploads it.
func (p *CommandProcessor) EndWriteHiddenRDRAM() error {
	return p.hidden.Unmap(memory.ReadWrite)
}

func (p *CommandProcessor) beginRead(r *memory.Region) ([]byte, error) {
	if r.Domain() != memory.CachedHost {
		return nil, memory.ErrNotHostVisible
	}
	if err := p.Idle(); err != nil {
		return nil, err
	}
	return r.Map(memory.ReadWrite)
}

// TMEM returns the texture memory region.
func (p *CommandProcessor) TMEM() *memory.Region { return p.tmem }

// RDRAMSize returns the size of RDRAM in bytes.
func (p *CommandProcessor) RDRAMSize() uint64 { return p.rdram.Size() }

// HiddenRDRAMSize returns the size of hidden RDRAM in bytes.
func (p *CommandProcessor) HiddenRDRAMSize() uint64 { return p.hidden.Size() }

// RenderState is a copy of the decoder's register state.
type RenderState struct {
	Static       state.StaticRasterizationState
	DepthBlend   state.DepthBlendState
	Scissor      state.ScissorState
	TextureImage state.TextureImage
	Tiles        [state.NumTiles]state.TileInfo
	TileSizes    [state.NumTiles]state.TileSize
}

// RenderState returns the register state after every command decoded so
// far. Queued commands are not included; call Idle first to see them.
func (p *CommandProcessor) RenderState() RenderState {
	p.consumerMu.Lock()
	defer p.consumerMu.Unlock()
	rs := RenderState{
		Static:       p.dispatcher.StaticState(),
		DepthBlend:   p.dispatcher.DepthBlendState(),
		Scissor:      p.dispatcher.ScissorState(),
		TextureImage: p.dispatcher.TextureImage(),
	}
	rs.Tiles, rs.TileSizes = p.dispatcher.Tiles()
	return rs
}

// Stats collects the counters of the processor's parts.
type Stats struct {
	Dispatch dispatch.Stats
	Ring     ring.Stats
	Timeline timeline.Stats

	Issued  uint64
	Reached uint64
	Frames  uint64

	// Rejected counts meta commands dropped from submitted streams and
	// timeline signals for tickets that were never issued.
	Rejected uint64
}

// Stats returns a snapshot of the processor counters.
func (p *CommandProcessor) Stats() Stats {
	p.consumerMu.Lock()
	ds := p.dispatcher.Stats()
	p.consumerMu.Unlock()
	return Stats{
		Dispatch: ds,
		Ring:     p.ring.Stats(),
		Timeline: p.timeline.Stats(),
		Issued:   p.issued.Load(),
		Reached:  p.timeline.Reached(),
		Frames:   p.frames.Load(),
		Rejected: p.rejected.Load(),
	}
}

type closer interface{ Close() }

// Close waits for outstanding work, stops the worker goroutines and frees
// GPU memory. It is safe to call more than once.
func (p *CommandProcessor) Close() error {
	var err error
	p.closeOnce.Do(func() {
		err = p.Idle()
		if err != nil {
			p.logger().Error("rdp: idle on close", "err", err)
		}
		p.ring.Close()
		p.timeline.Close()
		if c, ok := p.renderer.(closer); ok && p.ownsRenderer {
			c.Close()
		}
		p.destroyMemory()
		p.logger().Info("rdp: command processor closed")
	})
	return err
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"sync"

	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/renderer"
	"github.com/gogpu/rdp/state"
)

func init() {
	renderer.Register("recording", func(renderer.Config) (renderer.Renderer, error) {
		return NewRecorder(), nil
	})
}

// SignalFactory creates the completion signal for the seq-th
// FlushAndSignal call, starting at 1.
type SignalFactory func(seq uint64) renderer.Signal

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithSignalFactory makes FlushAndSignal return signals from f.
func WithSignalFactory(f SignalFactory) RecorderOption {
	return func(r *Recorder) { r.signals = f }
}

// WithCapacity preallocates room for n commands.
func WithCapacity(n int) RecorderOption {
	return func(r *Recorder) { r.commands = make([]Command, 0, n) }
}

// Recorder captures renderer calls as commands.
//
// The processor calls a Recorder from its consumer goroutine while tests
// usually inspect it from another, so all methods are safe for concurrent
// use.
type Recorder struct {
	mu       sync.Mutex
	commands []Command
	signals  SignalFactory
	seq      uint64
}

var _ renderer.Renderer = (*Recorder)(nil)

// NewRecorder creates an empty Recorder.
func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{}
	for _, opt := range opts {
		opt(r)
	}
	if r.commands == nil {
		r.commands = make([]Command, 0, 256)
	}
	return r
}

func (r *Recorder) record(c Command) {
	r.mu.Lock()
	r.commands = append(r.commands, c)
	r.mu.Unlock()
}

// Commands returns a copy of the commands recorded so far.
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Len returns the number of recorded commands.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commands)
}

// Count returns how many commands of type t were recorded.
func (r *Recorder) Count(t CommandType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.commands {
		if c.Type() == t {
			n++
		}
	}
	return n
}

// Draws returns the recorded draw commands in order.
func (r *Recorder) Draws() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Command
	for _, c := range r.commands {
		if c.Type().IsDraw() {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards all recorded commands. The signal sequence keeps counting.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.commands = r.commands[:0]
	r.mu.Unlock()
}

// FinishRecording returns an immutable Recording of the commands so far
// and leaves the Recorder empty.
func (r *Recorder) FinishRecording() *Recording {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := &Recording{commands: r.commands}
	r.commands = make([]Command, 0, cap(rec.commands))
	return rec
}

// DrawFlat implements renderer.Renderer.
func (r *Recorder) DrawFlat(setup decode.TriangleSetup) {
	r.record(DrawFlatCommand{Setup: setup})
}

// DrawShaded implements renderer.Renderer.
func (r *Recorder) DrawShaded(setup decode.TriangleSetup, attr decode.AttributeSetup) {
	r.record(DrawShadedCommand{Setup: setup, Attr: attr})
}

func (r *Recorder) SetStaticRasterizationState(s state.StaticRasterizationState) {
	r.record(SetStaticRasterizationStateCommand{State: s})
}

func (r *Recorder) SetDepthBlendState(s state.DepthBlendState) {
	r.record(SetDepthBlendStateCommand{State: s})
}

func (r *Recorder) SetScissorState(s state.ScissorState) {
	r.record(SetScissorStateCommand{State: s})
}

func (r *Recorder) SetEnablePrimitiveDepth(enable bool) {
	r.record(SetEnablePrimitiveDepthCommand{Enable: enable})
}

func (r *Recorder) SetTile(tile uint8, info state.TileInfo) {
	r.record(SetTileCommand{Tile: tile, Info: info})
}

func (r *Recorder) SetTileSize(tile uint8, size state.TileSize) {
	r.record(SetTileSizeCommand{Tile: tile, Size: size})
}

func (r *Recorder) LoadTile(tile uint8, info state.LoadTileInfo) {
	r.record(LoadTileCommand{Tile: tile, Info: info})
}

func (r *Recorder) SetColorFramebuffer(addr, width uint32, format state.FBFormat) {
	r.record(SetColorFramebufferCommand{Addr: addr, Width: width, Format: format})
}

func (r *Recorder) SetDepthFramebuffer(addr uint32) {
	r.record(SetDepthFramebufferCommand{Addr: addr})
}

func (r *Recorder) SetFillColor(rgba uint32) {
	r.record(SetColorCommand{Kind: CmdSetFillColor, RGBA: rgba})
}

func (r *Recorder) SetFogColor(rgba uint32) {
	r.record(SetColorCommand{Kind: CmdSetFogColor, RGBA: rgba})
}

func (r *Recorder) SetBlendColor(rgba uint32) {
	r.record(SetColorCommand{Kind: CmdSetBlendColor, RGBA: rgba})
}

func (r *Recorder) SetEnvColor(rgba uint32) {
	r.record(SetColorCommand{Kind: CmdSetEnvColor, RGBA: rgba})
}

func (r *Recorder) SetPrimitiveColor(minLevel, levelFrac uint8, rgba uint32) {
	r.record(SetPrimitiveColorCommand{MinLevel: minLevel, LevelFrac: levelFrac, RGBA: rgba})
}

func (r *Recorder) SetPrimitiveDepth(z, dz uint16) {
	r.record(SetPrimitiveDepthCommand{Z: z, DZ: dz})
}

func (r *Recorder) SetConvert(k [6]uint16) {
	r.record(SetConvertCommand{K: k})
}

// Flush implements renderer.Renderer. It never fails.
func (r *Recorder) Flush() error {
	r.record(FlushCommand{})
	return nil
}

// FlushAndSignal implements renderer.Renderer.
func (r *Recorder) FlushAndSignal() (renderer.Signal, error) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.commands = append(r.commands, FlushAndSignalCommand{Seq: seq})
	f := r.signals
	r.mu.Unlock()

	if f == nil {
		return renderer.Signaled(), nil
	}
	return f(seq), nil
}

// NextFrame implements renderer.FrameAdvancer.
func (r *Recorder) NextFrame() {
	r.record(NextFrameCommand{})
}

// Recording is an immutable list of recorded commands.
type Recording struct {
	commands []Command
}

// Commands returns the recorded commands.
func (r *Recording) Commands() []Command {
	return r.commands
}

// Playback replays the recording into dst in the original order. Flush
// commands are replayed too; completion signals returned by dst are
// waited on before continuing.
func (r *Recording) Playback(dst renderer.Renderer) error {
	for _, cmd := range r.commands {
		switch c := cmd.(type) {
		case DrawFlatCommand:
			dst.DrawFlat(c.Setup)
		case DrawShadedCommand:
			dst.DrawShaded(c.Setup, c.Attr)
		case SetStaticRasterizationStateCommand:
			dst.SetStaticRasterizationState(c.State)
		case SetDepthBlendStateCommand:
			dst.SetDepthBlendState(c.State)
		case SetScissorStateCommand:
			dst.SetScissorState(c.State)
		case SetEnablePrimitiveDepthCommand:
			dst.SetEnablePrimitiveDepth(c.Enable)
		case SetTileCommand:
			dst.SetTile(c.Tile, c.Info)
		case SetTileSizeCommand:
			dst.SetTileSize(c.Tile, c.Size)
		case LoadTileCommand:
			dst.LoadTile(c.Tile, c.Info)
		case SetColorFramebufferCommand:
			dst.SetColorFramebuffer(c.Addr, c.Width, c.Format)
		case SetDepthFramebufferCommand:
			dst.SetDepthFramebuffer(c.Addr)
		case SetColorCommand:
			switch c.Kind {
			case CmdSetFillColor:
				dst.SetFillColor(c.RGBA)
			case CmdSetFogColor:
				dst.SetFogColor(c.RGBA)
			case CmdSetBlendColor:
				dst.SetBlendColor(c.RGBA)
			case CmdSetEnvColor:
				dst.SetEnvColor(c.RGBA)
			}
		case SetPrimitiveColorCommand:
			dst.SetPrimitiveColor(c.MinLevel, c.LevelFrac, c.RGBA)
		case SetPrimitiveDepthCommand:
			dst.SetPrimitiveDepth(c.Z, c.DZ)
		case SetConvertCommand:
			dst.SetConvert(c.K)
		case FlushCommand:
			if err := dst.Flush(); err != nil {
				return err
			}
		case FlushAndSignalCommand:
			sig, err := dst.FlushAndSignal()
			if err != nil {
				return err
			}
			if err := sig.Wait(); err != nil {
				return err
			}
		case NextFrameCommand:
			if fa, ok := dst.(renderer.FrameAdvancer); ok {
				fa.NextFrame()
			}
		}
	}
	return nil
}

// Gate is a signal that fires when Open is called. It lets tests hold a
// timeline value back for as long as they need.
type Gate struct {
	once sync.Once
	ch   chan struct{}
	err  error
}

// NewGate returns a gate that has not fired yet.
func NewGate() *Gate { return &Gate{ch: make(chan struct{})} }

// Open fires the gate. Only the first call has an effect.
func (g *Gate) Open() { g.OpenWithError(nil) }

// OpenWithError fires the gate and makes Wait return err.
func (g *Gate) OpenWithError(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.ch)
	})
}

// Wait implements renderer.Signal.
func (g *Gate) Wait() error {
	<-g.ch
	return g.err
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package dispatch decodes RDP commands and forwards them to a renderer.
//
// A Dispatcher owns the persistent register state. Mode commands update it
// bit by bit and hand complete copies to the renderer; draw commands are
// decoded against the current state and forwarded at once. Unknown opcodes
// are ignored, so a malformed stream never stops the dispatcher.
//
// A Dispatcher is not safe for concurrent use. The command processor runs
// it on its consumer goroutine.
package dispatch

import (
	"log/slog"

	"github.com/gogpu/rdp/command"
	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/internal/logging"
	"github.com/gogpu/rdp/renderer"
	"github.com/gogpu/rdp/state"
)

var logger logging.Pointer

// SetLogger sets the logger of this package. nil disables logging.
func SetLogger(l *slog.Logger) { logger.Store(l) }

// Signaler receives the completion signal of a timeline meta command
// together with the value to publish once it fires.
type Signaler interface {
	Push(sig renderer.Signal, value uint64)
}

// Draw is a decoded draw command.
type Draw struct {
	Op     command.Op
	Setup  decode.TriangleSetup
	Attr   decode.AttributeSetup
	Shaded bool
}

// Stats counts what a Dispatcher has processed.
type Stats struct {
	// Ops counts commands per opcode, meta opcodes included.
	Ops [64]uint64

	Draws     uint64
	Unknown   uint64
	Truncated uint64

	// Unsupported counts commands ignored for an encoding the RDP
	// cannot execute, such as a color image in YUV.
	Unsupported uint64

	Signals   uint64
	Flushes   uint64
	Errors    uint64
}

// Commands returns the total number of commands applied.
func (s *Stats) Commands() uint64 {
	var n uint64
	for _, c := range s.Ops {
		n += c
	}
	return n
}

// Dispatcher applies commands to the register state and a renderer.
type Dispatcher struct {
	r        renderer.Renderer
	signaler Signaler

	static     state.StaticRasterizationState
	depthBlend state.DepthBlendState
	scissor    state.ScissorState
	texImage   state.TextureImage
	tiles      [state.NumTiles]state.TileInfo
	tileSizes  [state.NumTiles]state.TileSize

	stats Stats
}

// New creates a Dispatcher that forwards to r. Timeline meta commands push
// their signals to s; s may be nil, in which case the value is dropped
// after the flush.
func New(r renderer.Renderer, s Signaler) *Dispatcher {
	return &Dispatcher{r: r, signaler: s}
}

// StaticState returns the current rasterizer and combiner state.
func (d *Dispatcher) StaticState() state.StaticRasterizationState { return d.static }

// DepthBlendState returns the current depth and blend state.
func (d *Dispatcher) DepthBlendState() state.DepthBlendState { return d.depthBlend }

// ScissorState returns the current scissor box.
func (d *Dispatcher) ScissorState() state.ScissorState { return d.scissor }

// TextureImage returns the current texture image.
func (d *Dispatcher) TextureImage() state.TextureImage { return d.texImage }

// Tiles returns the eight tile descriptors and their coordinates.
func (d *Dispatcher) Tiles() ([state.NumTiles]state.TileInfo, [state.NumTiles]state.TileSize) {
	return d.tiles, d.tileSizes
}

// Stats returns the counters accumulated so far.
func (d *Dispatcher) Stats() Stats { return d.stats }

// Apply decodes one command. words must start at the opcode word and hold
// at least command.Length words. If the command is a draw, Apply forwards
// it and also returns it.
func (d *Dispatcher) Apply(words []uint32) (Draw, bool) {
	if len(words) == 0 {
		return Draw{}, false
	}
	op := command.OpOf(words[0])
	if n := command.Length(op); len(words) < n {
		d.stats.Truncated++
		logger.Load().Warn("dispatch: truncated command", "op", op, "words", len(words), "want", n)
		return Draw{}, false
	}
	d.stats.Ops[op]++

	switch op {
	case command.OpMetaSignalTimeline:
		d.signalTimeline(uint64(words[1]) | uint64(words[2])<<32)
		return Draw{}, false
	case command.OpMetaFlush:
		d.flush()
		return Draw{}, false
	}

	h := handlers[op]
	if h == nil {
		d.stats.Unknown++
		logger.Load().Debug("dispatch: ignoring undefined opcode", "op", op)
		return Draw{}, false
	}
	draw, ok := h(d, words)
	if ok {
		draw.Op = op
		d.stats.Draws++
	}
	return draw, ok
}

// ApplyStream applies every complete command in words and returns the
// number of words consumed. A trailing partial command is left unconsumed.
func (d *Dispatcher) ApplyStream(words []uint32) int {
	off := 0
	for off < len(words) {
		n := command.Length(command.OpOf(words[off]))
		if off+n > len(words) {
			break
		}
		d.Apply(words[off : off+n])
		off += n
	}
	return off
}

func (d *Dispatcher) signalTimeline(value uint64) {
	d.stats.Signals++
	sig, err := d.r.FlushAndSignal()
	if err != nil {
		d.stats.Errors++
		logger.Load().Error("dispatch: flush and signal", "value", value, "err", err)
		sig = renderer.SignalFunc(func() error { return err })
	}
	if d.signaler == nil {
		return
	}
	d.signaler.Push(sig, value)
}

func (d *Dispatcher) flush() {
	d.stats.Flushes++
	if err := d.r.Flush(); err != nil {
		d.stats.Errors++
		logger.Load().Error("dispatch: flush", "err", err)
	}
}

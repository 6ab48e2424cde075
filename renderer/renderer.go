// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package renderer defines the contract between the RDP command decoder
// and the engine that rasterizes its output, and provides a GPU-backed
// implementation of it.
//
// The decoder calls a Renderer from a single goroutine in command order.
// State setters replace the renderer's copy of a register block; draws use
// whatever copy is current at the time of the call. A renderer that defers
// work must snapshot that state per draw.
package renderer

import (
	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/state"
)

// Renderer consumes decoded RDP work.
type Renderer interface {
	// DrawFlat draws a primitive without interpolated attributes.
	DrawFlat(setup decode.TriangleSetup)

	// DrawShaded draws a primitive with color, texture or depth
	// attributes.
	DrawShaded(setup decode.TriangleSetup, attr decode.AttributeSetup)

	SetStaticRasterizationState(s state.StaticRasterizationState)
	SetDepthBlendState(s state.DepthBlendState)
	SetScissorState(s state.ScissorState)
	SetEnablePrimitiveDepth(enable bool)

	SetTile(tile uint8, info state.TileInfo)
	SetTileSize(tile uint8, size state.TileSize)
	LoadTile(tile uint8, info state.LoadTileInfo)

	SetColorFramebuffer(addr, width uint32, format state.FBFormat)
	SetDepthFramebuffer(addr uint32)

	SetFillColor(rgba uint32)
	SetFogColor(rgba uint32)
	SetBlendColor(rgba uint32)
	SetEnvColor(rgba uint32)
	SetPrimitiveColor(minLevel, levelFrac uint8, rgba uint32)
	SetPrimitiveDepth(z, dz uint16)
	SetConvert(k [6]uint16)

	// Flush submits all pending work.
	Flush() error

	// FlushAndSignal submits all pending work and returns a signal that
	// fires once that work has completed.
	FlushAndSignal() (Signal, error)
}

// Signal is a completion signal for submitted work.
type Signal interface {
	// Wait blocks until the work has completed.
	Wait() error
}

// SignalFunc adapts a function to the Signal interface.
type SignalFunc func() error

// Wait calls f.
func (f SignalFunc) Wait() error { return f() }

type signaled struct{}

func (signaled) Wait() error { return nil }

// Signaled returns a signal that has already fired.
func Signaled() Signal { return signaled{} }

// FrameAdvancer is implemented by renderers that keep per-frame resources.
// The command processor calls NextFrame at every frame boundary, after all
// work queued before the boundary has been handed to the renderer.
type FrameAdvancer interface {
	NextFrame()
}

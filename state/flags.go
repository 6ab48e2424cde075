// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package state holds the persistent RDP register state.
//
// Mode commands update the registers incrementally. Each command owns a
// fixed set of bits and touches nothing else, so every flag field is only
// ever changed through [SetMask]. Nothing in this package resets state on
// its own; the zero value is the power-on state.
package state

// SetMask clears mask in *flags and sets it again if cond holds.
func SetMask[F ~uint32](flags *F, cond bool, mask F) {
	*flags &^= mask
	if cond {
		*flags |= mask
	}
}

// RasterizationFlags are the boolean registers of the rasterizer.
type RasterizationFlags uint32

const (
	RasterizationInterlaceField RasterizationFlags = 1 << iota
	RasterizationInterlaceKeepOdd
	RasterizationAA
	RasterizationPerspectiveCorrect
	RasterizationTLUT
	RasterizationTLUTType
	RasterizationCvgTimesAlpha
	RasterizationAlphaCvgSelect
	RasterizationMultiCycle
	RasterizationFill
	RasterizationCopy
	RasterizationSampleMode
	RasterizationAlphaTest
	RasterizationAlphaTestDither
	RasterizationSampleMidTexel
	RasterizationTexLODEnable
	RasterizationSharpenLODEnable
	RasterizationDetailLODEnable
)

// RasterizationCycleMask covers the mutually exclusive cycle-type flags.
const RasterizationCycleMask = RasterizationMultiCycle | RasterizationFill | RasterizationCopy

// Has reports whether all bits of m are set.
func (f RasterizationFlags) Has(m RasterizationFlags) bool { return f&m == m }

// Any reports whether at least one bit of m is set.
func (f RasterizationFlags) Any(m RasterizationFlags) bool { return f&m != 0 }

// DepthBlendFlags are the boolean registers of the depth and blend unit.
type DepthBlendFlags uint32

const (
	DepthBlendDepthTest DepthBlendFlags = 1 << iota
	DepthBlendDepthUpdate
	DepthBlendForceBlend
	DepthBlendImageReadEnable
	DepthBlendColorOnCoverage
	DepthBlendMultiCycle
	DepthBlendAA
	DepthBlendDitherEnable
)

// Has reports whether all bits of m are set.
func (f DepthBlendFlags) Has(m DepthBlendFlags) bool { return f&m == m }

// TileFlags are the per-axis wrap controls of a tile.
type TileFlags uint32

const (
	TileClampS TileFlags = 1 << iota
	TileMirrorS
	TileClampT
	TileMirrorT
)

// Has reports whether all bits of m are set.
func (f TileFlags) Has(m TileFlags) bool { return f&m == m }

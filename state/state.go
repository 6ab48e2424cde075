// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

// RGBInputs are the RGB selectors of one combiner cycle.
type RGBInputs struct {
	MulAdd RGBMulAdd
	MulSub RGBMulSub
	Mul    RGBMul
	Add    RGBAdd
}

// AlphaInputs are the alpha selectors of one combiner cycle.
type AlphaInputs struct {
	MulAdd AlphaAddSub
	MulSub AlphaAddSub
	Mul    AlphaMul
	Add    AlphaAddSub
}

// CombinerInputs configure one combiner cycle.
type CombinerInputs struct {
	RGB   RGBInputs
	Alpha AlphaInputs
}

// StaticRasterizationState is the rasterizer and combiner configuration
// that every draw reads.
type StaticRasterizationState struct {
	Combiner [2]CombinerInputs
	Flags    RasterizationFlags

	// Dither holds the RGB selector in bits [3:2] and the alpha selector
	// in bits [1:0].
	Dither uint32
}

// RGBDither returns the RGB dither selector.
func (s *StaticRasterizationState) RGBDither() RGBDitherMode {
	return RGBDitherMode(s.Dither>>2) & 3
}

// AlphaDither returns the alpha dither selector.
func (s *StaticRasterizationState) AlphaDither() AlphaDitherMode {
	return AlphaDitherMode(s.Dither) & 3
}

// Cycle returns the cycle type the flags encode.
func (s *StaticRasterizationState) Cycle() CycleType {
	switch {
	case s.Flags.Any(RasterizationMultiCycle):
		return CycleTwo
	case s.Flags.Any(RasterizationCopy):
		return CycleCopy
	case s.Flags.Any(RasterizationFill):
		return CycleFill
	default:
		return CycleOne
	}
}

// BlendModes are the blender selectors of one cycle.
type BlendModes struct {
	Blend1A BlendMode1A
	Blend1B BlendMode1B
	Blend2A BlendMode2A
	Blend2B BlendMode2B
}

// DepthBlendState configures depth testing and blending.
type DepthBlendState struct {
	BlendCycles  [2]BlendModes
	Flags        DepthBlendFlags
	CoverageMode CoverageMode
	ZMode        ZMode
}

// ScissorState holds the scissor bounds in 10.2 fixed point.
type ScissorState struct {
	XLo, YLo uint32
	XHi, YHi uint32
}

// TextureImage is the source image of tile loads.
type TextureImage struct {
	Addr   uint32
	Width  uint32
	Size   TextureSize
	Format TextureFormat
}

// LoadTileInfo describes one upload into TMEM. It carries a copy of the
// texture image that was current when the load was issued.
type LoadTileInfo struct {
	TexAddr  uint32
	TexWidth uint32
	SLo, TLo uint32
	SHi, THi uint32
	Format   TextureFormat
	Size     TextureSize
	Mode     UploadMode
}

// TileSize is the texel rectangle of a tile in 10.2 fixed point.
type TileSize struct {
	SLo, TLo uint32
	SHi, THi uint32
}

// NumTiles is the number of tile descriptors.
const NumTiles = 8

// MaxTileMask is the largest usable wrap mask.
const MaxTileMask = 10

// TileInfo is one tile descriptor.
type TileInfo struct {
	Offset  uint32 // TMEM byte offset
	Stride  uint32 // bytes per line
	Size    TextureSize
	Format  TextureFormat
	Palette uint8

	ShiftS, MaskS uint8
	ShiftT, MaskT uint8

	Flags TileFlags
}

// Normalize applies the hardware mask rules: a mask of zero disables
// wrapping and forces clamping on that axis, and masks above MaxTileMask
// behave like MaxTileMask.
func (t *TileInfo) Normalize() {
	if t.MaskS > MaxTileMask {
		t.MaskS = MaxTileMask
	} else if t.MaskS == 0 {
		t.Flags |= TileClampS
	}
	if t.MaskT > MaxTileMask {
		t.MaskT = MaxTileMask
	} else if t.MaskT == 0 {
		t.Flags |= TileClampT
	}
}

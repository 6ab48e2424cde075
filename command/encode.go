// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package command

// Encoders build the raw words of a single command. Coordinates are in the
// hardware's unsigned 10.2 fixed-point screen format unless noted otherwise.

func header(op Op) uint32 {
	return uint32(op) << 24
}

func bit(b bool, shift uint) uint32 {
	if b {
		return 1 << shift
	}
	return 0
}

// SignalTimeline encodes the meta command that flushes the renderer and
// pairs the resulting completion signal with value.
func SignalTimeline(value uint64) []uint32 {
	return []uint32{header(OpMetaSignalTimeline), uint32(value), uint32(value >> 32)}
}

// Flush encodes the meta command that flushes the renderer.
func Flush() []uint32 {
	return []uint32{header(OpMetaFlush)}
}

// Sync encodes one of the four sync commands. Any other opcode is encoded
// as a 2-word command with empty operands.
func Sync(op Op) []uint32 {
	return []uint32{header(op), 0}
}

// SetScissor encodes a scissor box. field selects interlaced rendering and
// keepOdd selects which lines survive.
func SetScissor(xlo, ylo, xhi, yhi uint32, field, keepOdd bool) []uint32 {
	return []uint32{
		header(OpSetScissor) | (xlo&0xfff)<<12 | ylo&0xfff,
		bit(field, 25) | bit(keepOdd, 24) | (xhi&0xfff)<<12 | yhi&0xfff,
	}
}

// Cycle types as encoded in bits [21:20] of the first other-modes word.
const (
	CycleOne  = 0
	CycleTwo  = 1
	CycleCopy = 2
	CycleFill = 3
)

// BlendSelect holds the four blender selectors of one cycle.
type BlendSelect struct {
	P, A, M, B uint8
}

// OtherModes is the decoded form of a set-other-modes command.
type OtherModes struct {
	Cycle uint8

	Perspective bool
	DetailLOD   bool
	SharpenLOD  bool
	TextureLOD  bool
	TLUT        bool
	TLUTType    bool
	SampleType  bool
	MidTexel    bool

	RGBDither   uint8
	AlphaDither uint8

	Blend [2]BlendSelect

	ForceBlend      bool
	AlphaCvgSelect  bool
	CvgTimesAlpha   bool
	ZMode           uint8
	CvgDest         uint8
	ColorOnCvg      bool
	ImageRead       bool
	ZUpdate         bool
	ZCompare        bool
	AntiAlias       bool
	ZSourcePrim     bool
	DitherAlphaTest bool
	AlphaCompare    bool
}

// Words encodes m as a set-other-modes command.
func (m OtherModes) Words() []uint32 {
	w0 := header(OpSetOtherModes) |
		uint32(m.Cycle&3)<<20 |
		bit(m.Perspective, 19) |
		bit(m.DetailLOD, 18) |
		bit(m.SharpenLOD, 17) |
		bit(m.TextureLOD, 16) |
		bit(m.TLUT, 15) |
		bit(m.TLUTType, 14) |
		bit(m.SampleType, 13) |
		bit(m.MidTexel, 12) |
		uint32(m.RGBDither&3)<<6 |
		uint32(m.AlphaDither&3)<<4

	w1 := uint32(m.Blend[0].P&3)<<30 |
		uint32(m.Blend[1].P&3)<<28 |
		uint32(m.Blend[0].A&3)<<26 |
		uint32(m.Blend[1].A&3)<<24 |
		uint32(m.Blend[0].M&3)<<22 |
		uint32(m.Blend[1].M&3)<<20 |
		uint32(m.Blend[0].B&3)<<18 |
		uint32(m.Blend[1].B&3)<<16 |
		bit(m.ForceBlend, 14) |
		bit(m.AlphaCvgSelect, 13) |
		bit(m.CvgTimesAlpha, 12) |
		uint32(m.ZMode&3)<<10 |
		uint32(m.CvgDest&3)<<8 |
		bit(m.ColorOnCvg, 7) |
		bit(m.ImageRead, 6) |
		bit(m.ZUpdate, 5) |
		bit(m.ZCompare, 4) |
		bit(m.AntiAlias, 3) |
		bit(m.ZSourcePrim, 2) |
		bit(m.DitherAlphaTest, 1) |
		bit(m.AlphaCompare, 0)

	return []uint32{w0, w1}
}

// CombineStage selects the inputs of one combiner cycle. The RGB and alpha
// equations are (MulAdd - MulSub) * Mul + Add.
type CombineStage struct {
	RGBMulAdd, RGBMul, RGBMulSub, RGBAdd         uint8
	AlphaMulAdd, AlphaMulSub, AlphaMul, AlphaAdd uint8
}

// SetCombine encodes both combiner cycles.
func SetCombine(c0, c1 CombineStage) []uint32 {
	w0 := header(OpSetCombine) |
		uint32(c0.RGBMulAdd&0xf)<<20 |
		uint32(c0.RGBMul&0x1f)<<15 |
		uint32(c0.AlphaMulAdd&7)<<12 |
		uint32(c0.AlphaMul&7)<<9 |
		uint32(c1.RGBMulAdd&0xf)<<5 |
		uint32(c1.RGBMul&0x1f)
	w1 := uint32(c0.RGBMulSub&0xf)<<28 |
		uint32(c1.RGBMulSub&0xf)<<24 |
		uint32(c1.AlphaMulAdd&7)<<21 |
		uint32(c1.AlphaMul&7)<<18 |
		uint32(c0.RGBAdd&7)<<15 |
		uint32(c0.AlphaMulSub&7)<<12 |
		uint32(c0.AlphaAdd&7)<<9 |
		uint32(c1.RGBAdd&7)<<6 |
		uint32(c1.AlphaMulSub&7)<<3 |
		uint32(c1.AlphaAdd&7)
	return []uint32{w0, w1}
}

func imageWords(op Op, format, size uint8, width, addr uint32) []uint32 {
	return []uint32{
		header(op) | uint32(format&7)<<21 | uint32(size&3)<<19 | (width-1)&0x3ff,
		addr & 0xffffff,
	}
}

// SetTextureImage encodes the source image of subsequent tile loads.
// width is in pixels, 1 to 1024.
func SetTextureImage(format, size uint8, width, addr uint32) []uint32 {
	return imageWords(OpSetTextureImage, format, size, width, addr)
}

// SetColorImage encodes the color framebuffer.
func SetColorImage(format, size uint8, width, addr uint32) []uint32 {
	return imageWords(OpSetColorImage, format, size, width, addr)
}

// SetMaskImage encodes the depth framebuffer address.
func SetMaskImage(addr uint32) []uint32 {
	return []uint32{header(OpSetMaskImage), addr & 0xffffff}
}

// Tile describes one of the eight tile descriptors.
type Tile struct {
	Index    uint8
	Format   uint8
	Size     uint8
	Line     uint16 // stride in 64-bit words, 9 bits
	TMEMAddr uint16 // in 64-bit words, 9 bits
	Palette  uint8

	ShiftS, MaskS uint8
	ShiftT, MaskT uint8

	MirrorS, ClampS bool
	MirrorT, ClampT bool
}

// Words encodes t as a set-tile command.
func (t Tile) Words() []uint32 {
	w0 := header(OpSetTile) |
		uint32(t.Format&7)<<21 |
		uint32(t.Size&3)<<19 |
		uint32(t.Line&511)<<9 |
		uint32(t.TMEMAddr&511)
	w1 := uint32(t.Index&7)<<24 |
		uint32(t.Palette&15)<<20 |
		bit(t.ClampT, 19) |
		bit(t.MirrorT, 18) |
		uint32(t.MaskT&15)<<14 |
		uint32(t.ShiftT&15)<<10 |
		bit(t.ClampS, 9) |
		bit(t.MirrorS, 8) |
		uint32(t.MaskS&15)<<4 |
		uint32(t.ShiftS&15)
	return []uint32{w0, w1}
}

// TileRect encodes one of the commands that share the tile rectangle
// layout: LoadTile, LoadBlock, LoadTLUT and SetTileSize.
func TileRect(op Op, tile uint8, slo, tlo, shi, thi uint32) []uint32 {
	return []uint32{
		header(op) | (slo&0xfff)<<12 | tlo&0xfff,
		uint32(tile&7)<<24 | (shi&0xfff)<<12 | thi&0xfff,
	}
}

// FillRectangle encodes a rectangle from (xh, yh) to (xl, yl).
func FillRectangle(xl, yl, xh, yh uint32) []uint32 {
	return []uint32{
		header(OpFillRectangle) | (xl&0xfff)<<12 | yl&0xfff,
		(xh&0xfff)<<12 | yh&0xfff,
	}
}

// TexRect describes a textured rectangle. S and T are s10.5 texel
// coordinates, DsDx and DtDy s5.10 steps.
type TexRect struct {
	Flip   bool
	Tile   uint8
	XL, YL uint32
	XH, YH uint32
	S, T   uint16
	DsDx   int16
	DtDy   int16
}

// Words encodes r as a 4-word texture rectangle command.
func (r TexRect) Words() []uint32 {
	op := OpTextureRectangle
	if r.Flip {
		op = OpTextureRectangleFlip
	}
	return []uint32{
		header(op) | (r.XL&0xfff)<<12 | r.YL&0xfff,
		uint32(r.Tile&7)<<24 | (r.XH&0xfff)<<12 | r.YH&0xfff,
		uint32(r.S)<<16 | uint32(r.T),
		uint32(uint16(r.DsDx))<<16 | uint32(uint16(r.DtDy)),
	}
}

// Edges holds the edge walker inputs of a triangle. Y values are s11.2,
// X values and slopes s15.16.
type Edges struct {
	Flip  bool
	Level uint8
	Tile  uint8

	YL, YM, YH int32

	XL, DxLDy int32
	XH, DxHDy int32
	XM, DxMDy int32
}

// Words encodes the 8 edge words of a triangle with opcode op. Attribute
// blocks, if op requires them, must be appended by the caller.
func (e Edges) Words(op Op) []uint32 {
	return []uint32{
		header(op) | bit(e.Flip, 23) | uint32(e.Level&7)<<19 | uint32(e.Tile&7)<<16 | uint32(e.YL)&0x3fff,
		(uint32(e.YM)&0x3fff)<<16 | uint32(e.YH)&0x3fff,
		uint32(e.XL), uint32(e.DxLDy),
		uint32(e.XH), uint32(e.DxHDy),
		uint32(e.XM), uint32(e.DxMDy),
	}
}

// Color encodes one of the single-color commands (fill, fog, blend, env).
func Color(op Op, rgba uint32) []uint32 {
	return []uint32{header(op), rgba}
}

// SetPrimColor encodes the primitive color with its LOD parameters.
func SetPrimColor(minLevel, levelFrac uint8, rgba uint32) []uint32 {
	return []uint32{header(OpSetPrimColor) | uint32(minLevel&31)<<8 | uint32(levelFrac), rgba}
}

// SetPrimDepth encodes the primitive depth and its delta.
func SetPrimDepth(z, dz uint16) []uint32 {
	return []uint32{header(OpSetPrimDepth), uint32(z)<<16 | uint32(dz)}
}

// SetConvert encodes the six 9-bit YUV conversion coefficients.
func SetConvert(k [6]uint16) []uint32 {
	merged := uint64(k[0]&0x1ff)<<45 |
		uint64(k[1]&0x1ff)<<36 |
		uint64(k[2]&0x1ff)<<27 |
		uint64(k[3]&0x1ff)<<18 |
		uint64(k[4]&0x1ff)<<9 |
		uint64(k[5]&0x1ff)
	return []uint32{header(OpSetConvert) | uint32(merged>>32), uint32(merged)}
}

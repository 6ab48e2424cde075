// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package state

import "fmt"

// CycleType selects how many pipeline passes a pixel takes.
type CycleType uint8

const (
	CycleOne CycleType = iota
	CycleTwo
	CycleCopy
	CycleFill
)

var cycleTypeNames = [...]string{
	CycleOne:  "OneCycle",
	CycleTwo:  "TwoCycle",
	CycleCopy: "Copy",
	CycleFill: "Fill",
}

func (c CycleType) String() string { return enumName(cycleTypeNames[:], uint8(c), "CycleType") }

// RGBDitherMode is the 2-bit RGB dither selector.
type RGBDitherMode uint8

const (
	RGBDitherMagic RGBDitherMode = iota
	RGBDitherBayer
	RGBDitherNoise
	RGBDitherOff
)

var rgbDitherNames = [...]string{"Magic", "Bayer", "Noise", "Off"}

func (m RGBDitherMode) String() string { return enumName(rgbDitherNames[:], uint8(m), "RGBDitherMode") }

// AlphaDitherMode is the 2-bit alpha dither selector.
type AlphaDitherMode uint8

const (
	AlphaDitherPattern AlphaDitherMode = iota
	AlphaDitherInvPattern
	AlphaDitherNoise
	AlphaDitherOff
)

var alphaDitherNames = [...]string{"Pattern", "InvPattern", "Noise", "Off"}

func (m AlphaDitherMode) String() string {
	return enumName(alphaDitherNames[:], uint8(m), "AlphaDitherMode")
}

// CoverageMode controls how pixel coverage is written back.
type CoverageMode uint8

const (
	CoverageClamp CoverageMode = iota
	CoverageWrap
	CoverageZap
	CoverageSave
)

var coverageNames = [...]string{"Clamp", "Wrap", "Zap", "Save"}

func (m CoverageMode) String() string { return enumName(coverageNames[:], uint8(m), "CoverageMode") }

// ZMode is the depth comparison mode.
type ZMode uint8

const (
	ZModeOpaque ZMode = iota
	ZModeInterpenetrating
	ZModeTransparent
	ZModeDecal
)

var zModeNames = [...]string{"Opaque", "Interpenetrating", "Transparent", "Decal"}

func (m ZMode) String() string { return enumName(zModeNames[:], uint8(m), "ZMode") }

// Blender input selectors. The blender computes
// (P*A + M*B) / (A + B) with each operand picked by a 2-bit field.
type (
	BlendMode1A uint8 // P
	BlendMode1B uint8 // A
	BlendMode2A uint8 // M
	BlendMode2B uint8 // B
)

const (
	BlendPixelColor BlendMode1A = iota
	BlendMemoryColor
	BlendBlendColor
	BlendFogColor
)

const (
	BlendPixelAlpha BlendMode1B = iota
	BlendFogAlpha
	BlendShadeAlpha
	BlendZero
)

const (
	BlendMPixelColor BlendMode2A = iota
	BlendMMemoryColor
	BlendMBlendColor
	BlendMFogColor
)

const (
	BlendInvPixelAlpha BlendMode2B = iota
	BlendMemoryAlpha
	BlendOne
	BlendBZero
)

// Combiner input selectors. The combiner computes (A - B) * C + D per
// channel; RGB and alpha take their inputs from separate tables.
type (
	RGBMulAdd   uint8 // A, 4 bits
	RGBMulSub   uint8 // B, 4 bits
	RGBMul      uint8 // C, 5 bits
	RGBAdd      uint8 // D, 3 bits
	AlphaAddSub uint8 // A, B and D, 3 bits
	AlphaMul    uint8 // C, 3 bits
)

const (
	RGBMulAddCombined RGBMulAdd = iota
	RGBMulAddTexel0
	RGBMulAddTexel1
	RGBMulAddPrimitive
	RGBMulAddShade
	RGBMulAddEnvironment
	RGBMulAddOne
	RGBMulAddNoise
	RGBMulAddZero
)

const (
	RGBMulSubCombined RGBMulSub = iota
	RGBMulSubTexel0
	RGBMulSubTexel1
	RGBMulSubPrimitive
	RGBMulSubShade
	RGBMulSubEnvironment
	RGBMulSubKeyCenter
	RGBMulSubConvertK4
	RGBMulSubZero
)

const (
	RGBMulCombined RGBMul = iota
	RGBMulTexel0
	RGBMulTexel1
	RGBMulPrimitive
	RGBMulShade
	RGBMulEnvironment
	RGBMulKeyScale
	RGBMulCombinedAlpha
	RGBMulTexel0Alpha
	RGBMulTexel1Alpha
	RGBMulPrimitiveAlpha
	RGBMulShadeAlpha
	RGBMulEnvironmentAlpha
	RGBMulLODFrac
	RGBMulPrimLODFrac
	RGBMulConvertK5
	RGBMulZero
)

const (
	RGBAddCombined RGBAdd = iota
	RGBAddTexel0
	RGBAddTexel1
	RGBAddPrimitive
	RGBAddShade
	RGBAddEnvironment
	RGBAddOne
	RGBAddZero
)

const (
	AlphaAddSubCombined AlphaAddSub = iota
	AlphaAddSubTexel0
	AlphaAddSubTexel1
	AlphaAddSubPrimitive
	AlphaAddSubShade
	AlphaAddSubEnvironment
	AlphaAddSubOne
	AlphaAddSubZero
)

const (
	AlphaMulLODFrac AlphaMul = iota
	AlphaMulTexel0
	AlphaMulTexel1
	AlphaMulPrimitive
	AlphaMulShade
	AlphaMulEnvironment
	AlphaMulPrimLODFrac
	AlphaMulZero
)

// TextureFormat is the 3-bit image format field.
type TextureFormat uint8

const (
	FormatRGBA TextureFormat = iota
	FormatYUV
	FormatCI
	FormatIA
	FormatI
)

var textureFormatNames = [...]string{"RGBA", "YUV", "CI", "IA", "I"}

func (f TextureFormat) String() string {
	return enumName(textureFormatNames[:], uint8(f), "TextureFormat")
}

// TextureSize is the 2-bit texel size field.
type TextureSize uint8

const (
	Size4 TextureSize = iota
	Size8
	Size16
	Size32
)

// Bits returns the texel size in bits.
func (s TextureSize) Bits() int { return 4 << (s & 3) }

func (s TextureSize) String() string { return fmt.Sprintf("%dbpp", s.Bits()) }

// FBFormat is the pixel format of the color framebuffer.
type FBFormat uint8

const (
	FBI4 FBFormat = iota
	FBI8
	FBRGBA5551
	FBIA88
	FBRGBA8888
)

var fbFormatNames = [...]string{"I4", "I8", "RGBA5551", "IA88", "RGBA8888"}

func (f FBFormat) String() string { return enumName(fbFormatNames[:], uint8(f), "FBFormat") }

// BytesPerPixel returns the storage size of one pixel. I4 reports 1 since
// the hardware renders it as I8.
func (f FBFormat) BytesPerPixel() int {
	switch f {
	case FBRGBA5551, FBIA88:
		return 2
	case FBRGBA8888:
		return 4
	default:
		return 1
	}
}

// UploadMode says which load command produced a LoadTileInfo.
type UploadMode uint8

const (
	UploadTile UploadMode = iota
	UploadTLUT
	UploadBlock
)

var uploadModeNames = [...]string{"Tile", "TLUT", "Block"}

func (m UploadMode) String() string { return enumName(uploadModeNames[:], uint8(m), "UploadMode") }

func enumName(names []string, v uint8, typ string) string {
	if int(v) < len(names) && names[v] != "" {
		return names[v]
	}
	return fmt.Sprintf("%s(%d)", typ, v)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decode

import "github.com/gogpu/rdp/state"

// Box is the screen rectangle shared by rectangle and tile commands:
// 12-bit low corner in word 0, 12-bit high corner in word 1.
type Box struct {
	XL, YL uint32
	XH, YH uint32
}

// RectBox extracts the rectangle of a fill or texture rectangle command.
func RectBox(words []uint32) Box {
	_ = words[1]
	return Box{
		XL: (words[0] >> 12) & 0xfff,
		YL: words[0] & 0xfff,
		XH: (words[1] >> 12) & 0xfff,
		YH: words[1] & 0xfff,
	}
}

// quad encodes a rectangle as a flipped triangle with vertical edges.
func quad(b Box, quantizeY bool) TriangleSetup {
	yl := b.YL
	if quantizeY {
		// Copy and fill cycles always cover whole scanlines.
		yl |= 3
	}
	return TriangleSetup{
		XH:    int32(b.XH << 14),
		XL:    int32(b.XL << 14),
		XM:    int32(b.XL << 14),
		YM:    int32(yl),
		YL:    int32(yl),
		YH:    int32(b.YH),
		Flags: TriangleFlip,
	}
}

// Rectangle decodes a fill rectangle. quantizeY must be set in copy and
// fill cycle.
func Rectangle(words []uint32, quantizeY bool) TriangleSetup {
	return quad(RectBox(words), quantizeY)
}

// TextureRectangle decodes both texture rectangle variants. A flipped
// rectangle walks s down the screen and t across it.
func TextureRectangle(words []uint32, flipped, copyCycle, quantizeY bool) (TriangleSetup, AttributeSetup) {
	_ = words[3]

	setup := quad(RectBox(words), quantizeY)
	setup.Tile = uint8(words[1]>>24) & 7
	if copyCycle {
		setup.Flags |= TriangleSkipXFrac
	}

	s := int32((words[2] >> 16) & 0xffff)
	t := int32(words[2] & 0xffff)
	dsdx := Sext(words[3]>>16, 16)
	dtdy := Sext(words[3], 16)

	var attr AttributeSetup
	attr.S = s << 16
	attr.T = t << 16
	if flipped {
		attr.DtDx = dtdy << 11
		attr.DsDe = dsdx << 11
		attr.DsDy = dsdx << 11
	} else {
		attr.DsDx = dsdx << 11
		attr.DtDe = dtdy << 11
		attr.DtDy = dtdy << 11
	}
	return setup, attr
}

// TileRect decodes the shared layout of LoadTile, LoadBlock, LoadTLUT and
// SetTileSize: a tile index and a texel rectangle.
func TileRect(words []uint32) (tile uint8, size state.TileSize) {
	_ = words[1]
	tile = uint8(words[1]>>24) & 7
	size = state.TileSize{
		SLo: (words[0] >> 12) & 0xfff,
		TLo: words[0] & 0xfff,
		SHi: (words[1] >> 12) & 0xfff,
		THi: words[1] & 0xfff,
	}
	return tile, size
}

// Tile decodes a set-tile command into its index and normalized
// descriptor.
func Tile(words []uint32) (uint8, state.TileInfo) {
	_ = words[1]
	w0, w1 := words[0], words[1]

	info := state.TileInfo{
		Offset:  (w0 & 511) << 3,
		Stride:  ((w0 >> 9) & 511) << 3,
		Size:    state.TextureSize((w0 >> 19) & 3),
		Format:  state.TextureFormat((w0 >> 21) & 7),
		Palette: uint8(w1>>20) & 15,
		ShiftS:  uint8(w1) & 15,
		MaskS:   uint8(w1>>4) & 15,
		ShiftT:  uint8(w1>>10) & 15,
		MaskT:   uint8(w1>>14) & 15,
	}
	if w1&(1<<8) != 0 {
		info.Flags |= state.TileMirrorS
	}
	if w1&(1<<9) != 0 {
		info.Flags |= state.TileClampS
	}
	if w1&(1<<18) != 0 {
		info.Flags |= state.TileMirrorT
	}
	if w1&(1<<19) != 0 {
		info.Flags |= state.TileClampT
	}
	info.Normalize()
	return uint8(w1>>24) & 7, info
}

// Image is the operand of SetTextureImage and SetColorImage.
type Image struct {
	Format uint8
	Size   uint8
	Width  uint32
	Addr   uint32
}

// ImageOf decodes the image operand layout.
func ImageOf(words []uint32) Image {
	_ = words[1]
	return Image{
		Format: uint8(words[0]>>21) & 7,
		Size:   uint8(words[0]>>19) & 3,
		Width:  (words[0] & 0x3ff) + 1,
		Addr:   words[1] & 0xffffff,
	}
}

// Convert extracts the six 9-bit conversion coefficients k0..k5 from a
// set-convert command.
func Convert(words []uint32) [6]uint16 {
	_ = words[1]
	merged := uint64(words[0])<<32 | uint64(words[1])
	var k [6]uint16
	for i := range k {
		k[i] = uint16(merged>>(45-9*uint(i))) & 0x1ff
	}
	return k
}

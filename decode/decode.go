// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package decode turns raw RDP command words into typed records.
//
// All functions are pure. They assume the caller passes at least as many
// words as the command needs; the word counts come from command.Length.
//
// Fixed-point fields are sign extended arithmetically, and the 32-bit
// attribute values are reassembled from 16-bit halves that the hardware
// stores four words apart.
package decode

import "github.com/gogpu/rdp/command"

// Sext sign extends the low bits of v, replicating bit bits-1 upward.
// bits must be in [1, 32].
func Sext(v uint32, bits uint) int32 {
	shift := 32 - bits
	return int32(v<<shift) >> shift
}

// TriangleFlags are the derived flags of a triangle setup.
type TriangleFlags uint32

const (
	TriangleFlip TriangleFlags = 1 << iota
	TriangleDoOffset
	TriangleSkipXFrac
)

// Has reports whether all bits of m are set.
func (f TriangleFlags) Has(m TriangleFlags) bool { return f&m == m }

// TriangleSetup is the edge walker input of one primitive. Y values are
// s11.2. X values and slopes are s11.16 with bit 0 cleared.
type TriangleSetup struct {
	XH, XM, XL          int32
	DxHDy, DxMDy, DxLDy int32
	YH, YM, YL          int32
	Flags               TriangleFlags
	Tile                uint8
}

// AttributeSetup holds start values and gradients of the interpolated
// attributes. Every field is an s15.16 value. Gradients are per x step
// (dx), along the major edge (de) and per scanline (dy).
type AttributeSetup struct {
	R, G, B, A             int32
	DrDx, DgDx, DbDx, DaDx int32
	DrDe, DgDe, DbDe, DaDe int32
	DrDy, DgDy, DbDy, DaDy int32

	S, T, W          int32
	DsDx, DtDx, DwDx int32
	DsDe, DtDe, DwDe int32
	DsDy, DtDy, DwDy int32

	Z, DzDx, DzDe, DzDy int32
}

// Triangle decodes the 8 edge words of a triangle command. copyCycle is
// the current copy-cycle flag, which disables the sub-pixel x fraction.
func Triangle(words []uint32, copyCycle bool) TriangleSetup {
	_ = words[7]

	flip := words[0]&(1<<23) != 0
	signDxHDy := words[5]&(1<<31) != 0

	var setup TriangleSetup
	if flip {
		setup.Flags |= TriangleFlip
	}
	if flip == signDxHDy {
		setup.Flags |= TriangleDoOffset
	}
	if copyCycle {
		setup.Flags |= TriangleSkipXFrac
	}
	setup.Tile = uint8(words[0]>>16) & 63

	setup.YL = Sext(words[0], 14)
	setup.YM = Sext(words[1]>>16, 14)
	setup.YH = Sext(words[1], 14)
	setup.XL = Sext(words[2], 28) &^ 1
	setup.XH = Sext(words[4], 28) &^ 1
	setup.XM = Sext(words[6], 28) &^ 1
	setup.DxLDy = Sext(words[3]>>2, 28) &^ 1
	setup.DxHDy = Sext(words[5]>>2, 28) &^ 1
	setup.DxMDy = Sext(words[7]>>2, 28) &^ 1
	return setup
}

// hi joins the high halves of w[i] and w[i+4].
func hi(w []uint32, i int) int32 {
	return int32(w[i]&0xffff0000 | w[i+4]>>16)
}

// lo joins the low halves of w[i] and w[i+4].
func lo(w []uint32, i int) int32 {
	return int32(w[i]<<16 | w[i+4]&0xffff)
}

// Shade decodes a 16-word color block into attr.
func Shade(attr *AttributeSetup, words []uint32) {
	_ = words[15]

	attr.R, attr.G = hi(words, 0), lo(words, 0)
	attr.B, attr.A = hi(words, 1), lo(words, 1)

	attr.DrDx, attr.DgDx = hi(words, 2), lo(words, 2)
	attr.DbDx, attr.DaDx = hi(words, 3), lo(words, 3)

	attr.DrDe, attr.DgDe = hi(words, 8), lo(words, 8)
	attr.DbDe, attr.DaDe = hi(words, 9), lo(words, 9)

	attr.DrDy, attr.DgDy = hi(words, 10), lo(words, 10)
	attr.DbDy, attr.DaDy = hi(words, 11), lo(words, 11)
}

// Texture decodes a 16-word texture coordinate block into attr.
func Texture(attr *AttributeSetup, words []uint32) {
	_ = words[15]

	attr.S, attr.T = hi(words, 0), lo(words, 0)
	attr.W = hi(words, 1)

	attr.DsDx, attr.DtDx = hi(words, 2), lo(words, 2)
	attr.DwDx = hi(words, 3)

	attr.DsDe, attr.DtDe = hi(words, 8), lo(words, 8)
	attr.DwDe = hi(words, 9)

	attr.DsDy, attr.DtDy = hi(words, 10), lo(words, 10)
	attr.DwDy = hi(words, 11)
}

// Depth decodes a 4-word depth block into attr.
func Depth(attr *AttributeSetup, words []uint32) {
	_ = words[3]

	attr.Z = int32(words[0])
	attr.DzDx = int32(words[1])
	attr.DzDe = int32(words[2])
	attr.DzDy = int32(words[3])
}

// Primitive decodes a complete triangle command with opcode op. Attribute
// blocks follow the edge words in the order color, texture, depth, each
// present only if op selects it. shaded is false only for the plain fill
// triangle, which has no attribute block at all.
func Primitive(op command.Op, words []uint32, copyCycle bool) (setup TriangleSetup, attr AttributeSetup, shaded bool) {
	setup = Triangle(words, copyCycle)
	off := command.EdgeWords
	if op.HasShade() {
		Shade(&attr, words[off:])
		off += command.ShadeWords
	}
	if op.HasTexture() {
		Texture(&attr, words[off:])
		off += command.TextureWords
	}
	if op.HasDepth() {
		Depth(&attr, words[off:])
	}
	shaded = op.HasShade() || op.HasTexture() || op.HasDepth()
	return setup, attr, shaded
}

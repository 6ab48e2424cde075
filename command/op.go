// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package command defines the RDP command word namespace: opcodes, their
// fixed word counts and encoders that build well-formed command words.
//
// A command is a run of 32-bit words. The opcode lives in bits [29:24] of
// the first word and determines how many words follow. There are no
// boundary markers in the stream; a reader splits it with [Length].
//
// Two meta opcodes, [OpMetaSignalTimeline] and [OpMetaFlush], sit in the
// reserved range 0x00-0x07 that the hardware never decodes. They are
// injected by the host for synchronization and are handled before any
// hardware opcode.
package command

import "fmt"

// Op is a 6-bit RDP opcode.
type Op uint8

// Meta opcodes. These never appear in a hardware command list.
const (
	OpMetaSignalTimeline Op = 0x01 // flush and signal; words 1-2 carry a 64-bit value
	OpMetaFlush          Op = 0x02 // flush without a completion signal
)

// Hardware opcodes.
const (
	OpFillTriangle                Op = 0x08
	OpFillZBufferTriangle         Op = 0x09
	OpTextureTriangle             Op = 0x0a
	OpTextureZBufferTriangle      Op = 0x0b
	OpShadeTriangle               Op = 0x0c
	OpShadeZBufferTriangle        Op = 0x0d
	OpShadeTextureTriangle        Op = 0x0e
	OpShadeTextureZBufferTriangle Op = 0x0f

	OpTextureRectangle     Op = 0x24
	OpTextureRectangleFlip Op = 0x25
	OpSyncLoad             Op = 0x26
	OpSyncPipe             Op = 0x27
	OpSyncTile             Op = 0x28
	OpSyncFull             Op = 0x29
	OpSetKeyGB             Op = 0x2a
	OpSetKeyR              Op = 0x2b
	OpSetConvert           Op = 0x2c
	OpSetScissor           Op = 0x2d
	OpSetPrimDepth         Op = 0x2e
	OpSetOtherModes        Op = 0x2f
	OpLoadTLUT             Op = 0x30
	OpSetTileSize          Op = 0x32
	OpLoadBlock            Op = 0x33
	OpLoadTile             Op = 0x34
	OpSetTile              Op = 0x35
	OpFillRectangle        Op = 0x36
	OpSetFillColor         Op = 0x37
	OpSetFogColor          Op = 0x38
	OpSetBlendColor        Op = 0x39
	OpSetPrimColor         Op = 0x3a
	OpSetEnvColor          Op = 0x3b
	OpSetCombine           Op = 0x3c
	OpSetTextureImage      Op = 0x3d
	OpSetMaskImage         Op = 0x3e
	OpSetColorImage        Op = 0x3f
)

// Triangle opcode bits. The low three bits of a triangle opcode select
// which attribute blocks follow the 8 edge words.
const (
	triangleZBit       = 0x1
	triangleTextureBit = 0x2
	triangleShadeBit   = 0x4
)

// Word counts of the blocks that make up a triangle command.
const (
	EdgeWords    = 8
	ShadeWords   = 16
	TextureWords = 16
	DepthWords   = 4
)

// MaxWords is the length of the longest command (shade+texture+z triangle).
const MaxWords = EdgeWords + ShadeWords + TextureWords + DepthWords

var opNames = [64]string{
	OpMetaSignalTimeline: "MetaSignalTimeline",
	OpMetaFlush:          "MetaFlush",

	OpFillTriangle:                "FillTriangle",
	OpFillZBufferTriangle:         "FillZBufferTriangle",
	OpTextureTriangle:             "TextureTriangle",
	OpTextureZBufferTriangle:      "TextureZBufferTriangle",
	OpShadeTriangle:               "ShadeTriangle",
	OpShadeZBufferTriangle:        "ShadeZBufferTriangle",
	OpShadeTextureTriangle:        "ShadeTextureTriangle",
	OpShadeTextureZBufferTriangle: "ShadeTextureZBufferTriangle",

	OpTextureRectangle:     "TextureRectangle",
	OpTextureRectangleFlip: "TextureRectangleFlip",
	OpSyncLoad:             "SyncLoad",
	OpSyncPipe:             "SyncPipe",
	OpSyncTile:             "SyncTile",
	OpSyncFull:             "SyncFull",
	OpSetKeyGB:             "SetKeyGB",
	OpSetKeyR:              "SetKeyR",
	OpSetConvert:           "SetConvert",
	OpSetScissor:           "SetScissor",
	OpSetPrimDepth:         "SetPrimDepth",
	OpSetOtherModes:        "SetOtherModes",
	OpLoadTLUT:             "LoadTLUT",
	OpSetTileSize:          "SetTileSize",
	OpLoadBlock:            "LoadBlock",
	OpLoadTile:             "LoadTile",
	OpSetTile:              "SetTile",
	OpFillRectangle:        "FillRectangle",
	OpSetFillColor:         "SetFillColor",
	OpSetFogColor:          "SetFogColor",
	OpSetBlendColor:        "SetBlendColor",
	OpSetPrimColor:         "SetPrimColor",
	OpSetEnvColor:          "SetEnvColor",
	OpSetCombine:           "SetCombine",
	OpSetTextureImage:      "SetTextureImage",
	OpSetMaskImage:         "SetMaskImage",
	OpSetColorImage:        "SetColorImage",
}

// lengths holds the word count of every opcode. Undefined opcodes are 2
// words long so that a malformed stream still advances.
var lengths = func() [64]uint8 {
	var l [64]uint8
	for i := range l {
		l[i] = 2
	}
	for op := OpFillTriangle; op <= OpShadeTextureZBufferTriangle; op++ {
		n := EdgeWords
		if op&triangleShadeBit != 0 {
			n += ShadeWords
		}
		if op&triangleTextureBit != 0 {
			n += TextureWords
		}
		if op&triangleZBit != 0 {
			n += DepthWords
		}
		l[op] = uint8(n)
	}
	l[OpTextureRectangle] = 4
	l[OpTextureRectangleFlip] = 4
	l[OpMetaSignalTimeline] = 3
	l[OpMetaFlush] = 1
	return l
}()

// OpOf extracts the opcode from the first word of a command.
func OpOf(word0 uint32) Op {
	return Op((word0 >> 24) & 63)
}

// Length returns the number of words of a command with the given opcode.
func Length(op Op) int {
	return int(lengths[op&63])
}

// Defined reports whether op is a hardware or meta opcode.
func (op Op) Defined() bool {
	return int(op) < len(opNames) && opNames[op] != ""
}

// IsMeta reports whether op is one of the synthetic synchronization opcodes.
func (op Op) IsMeta() bool {
	return op == OpMetaSignalTimeline || op == OpMetaFlush
}

// IsTriangle reports whether op draws a triangle.
func (op Op) IsTriangle() bool {
	return op >= OpFillTriangle && op <= OpShadeTextureZBufferTriangle
}

// IsDraw reports whether op produces rasterization work.
func (op Op) IsDraw() bool {
	return op.IsTriangle() || op == OpTextureRectangle || op == OpTextureRectangleFlip || op == OpFillRectangle
}

// HasShade reports whether a triangle opcode carries a color block.
func (op Op) HasShade() bool { return op.IsTriangle() && op&triangleShadeBit != 0 }

// HasTexture reports whether a triangle opcode carries a texture block.
func (op Op) HasTexture() bool { return op.IsTriangle() && op&triangleTextureBit != 0 }

// HasDepth reports whether a triangle opcode carries a depth block.
func (op Op) HasDepth() bool { return op.IsTriangle() && op&triangleZBit != 0 }

// String returns the opcode name, or Op(0xNN) for undefined encodings.
func (op Op) String() string {
	if op.Defined() {
		return opNames[op]
	}
	return fmt.Sprintf("Op(0x%02x)", uint8(op))
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package renderer

import (
	"encoding/binary"

	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/state"
)

// Work records are packed little-endian with encoding/binary, so their
// layout is the field order below without padding.

// recordKind tags a work record.
type recordKind uint32

const (
	recordFlat recordKind = iota
	recordShaded
	recordLoad
)

// stateBlock is one snapshot of every register a draw may read. Records
// refer to snapshots by index; a new snapshot is emitted only after a
// setter changed something.
type stateBlock struct {
	Static     state.StaticRasterizationState
	DepthBlend state.DepthBlendState
	Scissor    state.ScissorState

	Tiles     [state.NumTiles]state.TileInfo
	TileSizes [state.NumTiles]state.TileSize

	FillColor  uint32
	FogColor   uint32
	BlendColor uint32
	EnvColor   uint32
	PrimColor  uint32

	PrimMinLevel    uint8
	PrimLevelFrac   uint8
	PrimZ           uint16
	PrimDZ          uint16
	PrimDepthEnable bool

	Convert [6]uint16

	ColorAddr   uint32
	ColorWidth  uint32
	ColorFormat state.FBFormat
	DepthAddr   uint32
}

// workRecord is one unit of ordered work. Flat draws leave Attr zero,
// loads leave Setup and Attr zero.
type workRecord struct {
	Kind  recordKind
	State uint32
	Setup decode.TriangleSetup
	Attr  decode.AttributeSetup

	LoadTile uint32
	Load     state.LoadTileInfo
}

var (
	stateBlockSize = binary.Size(stateBlock{})
	workRecordSize = binary.Size(workRecord{})
)

func appendStateBlock(buf []byte, b *stateBlock) []byte {
	out, err := binary.Append(buf, binary.LittleEndian, b)
	if err != nil {
		// Only reachable if stateBlock gains a variable-size field.
		panic("renderer: state block is not fixed-size: " + err.Error())
	}
	return out
}

func appendWorkRecord(buf []byte, r *workRecord) []byte {
	out, err := binary.Append(buf, binary.LittleEndian, r)
	if err != nil {
		panic("renderer: work record is not fixed-size: " + err.Error())
	}
	return out
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/state"
)

// CommandType identifies the type of a command.
// Each command type corresponds to one renderer call.
type CommandType uint8

const (
	// Draw commands
	CmdDrawFlat   CommandType = iota // Draw without attributes
	CmdDrawShaded                    // Draw with color, texture or depth

	// State commands
	CmdSetStaticRasterizationState
	CmdSetDepthBlendState
	CmdSetScissorState
	CmdSetEnablePrimitiveDepth
	CmdSetTile
	CmdSetTileSize
	CmdLoadTile
	CmdSetColorFramebuffer
	CmdSetDepthFramebuffer
	CmdSetFillColor
	CmdSetFogColor
	CmdSetBlendColor
	CmdSetEnvColor
	CmdSetPrimitiveColor
	CmdSetPrimitiveDepth
	CmdSetConvert

	// Submission commands
	CmdFlush
	CmdFlushAndSignal
	CmdNextFrame

	numCommandTypes
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdDrawFlat:                    "DrawFlat",
	CmdDrawShaded:                  "DrawShaded",
	CmdSetStaticRasterizationState: "SetStaticRasterizationState",
	CmdSetDepthBlendState:          "SetDepthBlendState",
	CmdSetScissorState:             "SetScissorState",
	CmdSetEnablePrimitiveDepth:     "SetEnablePrimitiveDepth",
	CmdSetTile:                     "SetTile",
	CmdSetTileSize:                 "SetTileSize",
	CmdLoadTile:                    "LoadTile",
	CmdSetColorFramebuffer:         "SetColorFramebuffer",
	CmdSetDepthFramebuffer:         "SetDepthFramebuffer",
	CmdSetFillColor:                "SetFillColor",
	CmdSetFogColor:                 "SetFogColor",
	CmdSetBlendColor:               "SetBlendColor",
	CmdSetEnvColor:                 "SetEnvColor",
	CmdSetPrimitiveColor:           "SetPrimitiveColor",
	CmdSetPrimitiveDepth:           "SetPrimitiveDepth",
	CmdSetConvert:                  "SetConvert",
	CmdFlush:                       "Flush",
	CmdFlushAndSignal:              "FlushAndSignal",
	CmdNextFrame:                   "NextFrame",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// IsDraw reports whether the command produces pixels.
func (c CommandType) IsDraw() bool { return c == CmdDrawFlat || c == CmdDrawShaded }

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Draw Commands
// --------------------------------------------------------------------------

// DrawFlatCommand is a draw without interpolated attributes.
type DrawFlatCommand struct {
	Setup decode.TriangleSetup
}

// Type implements Command.
func (DrawFlatCommand) Type() CommandType { return CmdDrawFlat }

// DrawShadedCommand is a draw with interpolated attributes.
type DrawShadedCommand struct {
	Setup decode.TriangleSetup
	Attr  decode.AttributeSetup
}

// Type implements Command.
func (DrawShadedCommand) Type() CommandType { return CmdDrawShaded }

// --------------------------------------------------------------------------
// State Commands
// --------------------------------------------------------------------------

// SetStaticRasterizationStateCommand replaces the combiner and rasterizer
// configuration.
type SetStaticRasterizationStateCommand struct {
	State state.StaticRasterizationState
}

// Type implements Command.
func (SetStaticRasterizationStateCommand) Type() CommandType {
	return CmdSetStaticRasterizationState
}

// SetDepthBlendStateCommand replaces the depth and blender configuration.
type SetDepthBlendStateCommand struct {
	State state.DepthBlendState
}

// Type implements Command.
func (SetDepthBlendStateCommand) Type() CommandType { return CmdSetDepthBlendState }

// SetScissorStateCommand replaces the scissor box.
type SetScissorStateCommand struct {
	State state.ScissorState
}

// Type implements Command.
func (SetScissorStateCommand) Type() CommandType { return CmdSetScissorState }

// SetEnablePrimitiveDepthCommand toggles the primitive depth source.
type SetEnablePrimitiveDepthCommand struct {
	Enable bool
}

// Type implements Command.
func (SetEnablePrimitiveDepthCommand) Type() CommandType { return CmdSetEnablePrimitiveDepth }

// SetTileCommand replaces a tile descriptor.
type SetTileCommand struct {
	Tile uint8
	Info state.TileInfo
}

// Type implements Command.
func (SetTileCommand) Type() CommandType { return CmdSetTile }

// SetTileSizeCommand replaces the texel rectangle of a tile.
type SetTileSizeCommand struct {
	Tile uint8
	Size state.TileSize
}

// Type implements Command.
func (SetTileSizeCommand) Type() CommandType { return CmdSetTileSize }

// LoadTileCommand uploads texels into TMEM.
type LoadTileCommand struct {
	Tile uint8
	Info state.LoadTileInfo
}

// Type implements Command.
func (LoadTileCommand) Type() CommandType { return CmdLoadTile }

// SetColorFramebufferCommand selects the color image.
type SetColorFramebufferCommand struct {
	Addr   uint32
	Width  uint32
	Format state.FBFormat
}

// Type implements Command.
func (SetColorFramebufferCommand) Type() CommandType { return CmdSetColorFramebuffer }

// SetDepthFramebufferCommand selects the depth image.
type SetDepthFramebufferCommand struct {
	Addr uint32
}

// Type implements Command.
func (SetDepthFramebufferCommand) Type() CommandType { return CmdSetDepthFramebuffer }

// SetColorCommand sets one of the fill, fog, blend or environment color
// registers. Kind tells which.
type SetColorCommand struct {
	Kind CommandType
	RGBA uint32
}

// Type implements Command.
func (c SetColorCommand) Type() CommandType { return c.Kind }

// SetPrimitiveColorCommand sets the primitive color and its LOD fields.
type SetPrimitiveColorCommand struct {
	MinLevel  uint8
	LevelFrac uint8
	RGBA      uint32
}

// Type implements Command.
func (SetPrimitiveColorCommand) Type() CommandType { return CmdSetPrimitiveColor }

// SetPrimitiveDepthCommand sets the primitive depth.
type SetPrimitiveDepthCommand struct {
	Z, DZ uint16
}

// Type implements Command.
func (SetPrimitiveDepthCommand) Type() CommandType { return CmdSetPrimitiveDepth }

// SetConvertCommand sets the YUV conversion coefficients.
type SetConvertCommand struct {
	K [6]uint16
}

// Type implements Command.
func (SetConvertCommand) Type() CommandType { return CmdSetConvert }

// --------------------------------------------------------------------------
// Submission Commands
// --------------------------------------------------------------------------

// FlushCommand marks a Flush call.
type FlushCommand struct{}

// Type implements Command.
func (FlushCommand) Type() CommandType { return CmdFlush }

// FlushAndSignalCommand marks a FlushAndSignal call. Seq numbers the
// signals a recorder handed out, starting at 1.
type FlushAndSignalCommand struct {
	Seq uint64
}

// Type implements Command.
func (FlushAndSignalCommand) Type() CommandType { return CmdFlushAndSignal }

// NextFrameCommand marks a frame boundary.
type NextFrameCommand struct{}

// Type implements Command.
func (NextFrameCommand) Type() CommandType { return CmdNextFrame }

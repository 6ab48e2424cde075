// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package dispatch

import (
	"github.com/gogpu/rdp/command"
	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/state"
)

type handler func(d *Dispatcher, words []uint32) (Draw, bool)

// handlers is indexed by opcode. nil entries are undefined opcodes.
var handlers = [64]handler{
	command.OpFillTriangle:                (*Dispatcher).opTriangle,
	command.OpFillZBufferTriangle:         (*Dispatcher).opTriangle,
	command.OpTextureTriangle:             (*Dispatcher).opTriangle,
	command.OpTextureZBufferTriangle:      (*Dispatcher).opTriangle,
	command.OpShadeTriangle:               (*Dispatcher).opTriangle,
	command.OpShadeZBufferTriangle:        (*Dispatcher).opTriangle,
	command.OpShadeTextureTriangle:        (*Dispatcher).opTriangle,
	command.OpShadeTextureZBufferTriangle: (*Dispatcher).opTriangle,

	command.OpTextureRectangle:     (*Dispatcher).opTextureRectangle,
	command.OpTextureRectangleFlip: (*Dispatcher).opTextureRectangle,
	command.OpSyncLoad:             (*Dispatcher).opNop,
	command.OpSyncPipe:             (*Dispatcher).opNop,
	command.OpSyncTile:             (*Dispatcher).opNop,
	command.OpSyncFull:             (*Dispatcher).opSyncFull,
	command.OpSetKeyGB:             (*Dispatcher).opNop,
	command.OpSetKeyR:              (*Dispatcher).opNop,
	command.OpSetConvert:           (*Dispatcher).opSetConvert,
	command.OpSetScissor:           (*Dispatcher).opSetScissor,
	command.OpSetPrimDepth:         (*Dispatcher).opSetPrimDepth,
	command.OpSetOtherModes:        (*Dispatcher).opSetOtherModes,
	command.OpLoadTLUT:             (*Dispatcher).opLoad,
	command.OpSetTileSize:          (*Dispatcher).opSetTileSize,
	command.OpLoadBlock:            (*Dispatcher).opLoad,
	command.OpLoadTile:             (*Dispatcher).opLoad,
	command.OpSetTile:              (*Dispatcher).opSetTile,
	command.OpFillRectangle:        (*Dispatcher).opFillRectangle,
	command.OpSetFillColor:         (*Dispatcher).opSetColor,
	command.OpSetFogColor:          (*Dispatcher).opSetColor,
	command.OpSetBlendColor:        (*Dispatcher).opSetColor,
	command.OpSetPrimColor:         (*Dispatcher).opSetPrimColor,
	command.OpSetEnvColor:          (*Dispatcher).opSetColor,
	command.OpSetCombine:           (*Dispatcher).opSetCombine,
	command.OpSetTextureImage:      (*Dispatcher).opSetTextureImage,
	command.OpSetMaskImage:         (*Dispatcher).opSetMaskImage,
	command.OpSetColorImage:        (*Dispatcher).opSetColorImage,
}

func (d *Dispatcher) copyCycle() bool {
	return d.static.Flags.Any(state.RasterizationCopy)
}

// quantizeY reports whether rectangles cover whole scanlines.
func (d *Dispatcher) quantizeY() bool {
	return d.static.Flags.Any(state.RasterizationCopy | state.RasterizationFill)
}

func (d *Dispatcher) opNop([]uint32) (Draw, bool) { return Draw{}, false }

func (d *Dispatcher) opTriangle(words []uint32) (Draw, bool) {
	op := command.OpOf(words[0])
	setup, attr, shaded := decode.Primitive(op, words, d.copyCycle())
	if shaded {
		d.r.DrawShaded(setup, attr)
	} else {
		d.r.DrawFlat(setup)
	}
	return Draw{Setup: setup, Attr: attr, Shaded: shaded}, true
}

func (d *Dispatcher) opTextureRectangle(words []uint32) (Draw, bool) {
	flipped := command.OpOf(words[0]) == command.OpTextureRectangleFlip
	setup, attr := decode.TextureRectangle(words, flipped, d.copyCycle(), d.quantizeY())
	d.r.DrawShaded(setup, attr)
	return Draw{Setup: setup, Attr: attr, Shaded: true}, true
}

func (d *Dispatcher) opFillRectangle(words []uint32) (Draw, bool) {
	setup := decode.Rectangle(words, d.quantizeY())
	d.r.DrawFlat(setup)
	return Draw{Setup: setup}, true
}

func (d *Dispatcher) opSyncFull([]uint32) (Draw, bool) {
	d.flush()
	return Draw{}, false
}

func (d *Dispatcher) opSetOtherModes(words []uint32) (Draw, bool) {
	w0, w1 := words[0], words[1]
	s, db := &d.static, &d.depthBlend

	state.SetMask(&s.Flags, w0&(1<<19) != 0, state.RasterizationPerspectiveCorrect)
	state.SetMask(&s.Flags, w0&(1<<18) != 0, state.RasterizationDetailLODEnable)
	state.SetMask(&s.Flags, w0&(1<<17) != 0, state.RasterizationSharpenLODEnable)
	state.SetMask(&s.Flags, w0&(1<<16) != 0, state.RasterizationTexLODEnable)
	state.SetMask(&s.Flags, w0&(1<<15) != 0, state.RasterizationTLUT)
	state.SetMask(&s.Flags, w0&(1<<14) != 0, state.RasterizationTLUTType)
	state.SetMask(&s.Flags, w0&(1<<13) != 0, state.RasterizationSampleMode)
	state.SetMask(&s.Flags, w0&(1<<12) != 0, state.RasterizationSampleMidTexel)
	state.SetMask(&db.Flags, w1&(1<<14) != 0, state.DepthBlendForceBlend)
	state.SetMask(&s.Flags, w1&(1<<13) != 0, state.RasterizationAlphaCvgSelect)
	state.SetMask(&s.Flags, w1&(1<<12) != 0, state.RasterizationCvgTimesAlpha)
	state.SetMask(&db.Flags, w1&(1<<7) != 0, state.DepthBlendColorOnCoverage)
	state.SetMask(&db.Flags, w1&(1<<6) != 0, state.DepthBlendImageReadEnable)
	state.SetMask(&db.Flags, w1&(1<<5) != 0, state.DepthBlendDepthUpdate)
	state.SetMask(&db.Flags, w1&(1<<4) != 0, state.DepthBlendDepthTest)
	state.SetMask(&s.Flags, w1&(1<<3) != 0, state.RasterizationAA)
	state.SetMask(&db.Flags, w1&(1<<3) != 0, state.DepthBlendAA)
	state.SetMask(&s.Flags, w1&(1<<1) != 0, state.RasterizationAlphaTestDither)
	state.SetMask(&s.Flags, w1&(1<<0) != 0, state.RasterizationAlphaTest)

	s.Dither = (w0 >> 4) & 0xf
	state.SetMask(&db.Flags, s.RGBDither() != state.RGBDitherOff, state.DepthBlendDitherEnable)
	db.CoverageMode = state.CoverageMode((w1 >> 8) & 3)
	db.ZMode = state.ZMode((w1 >> 10) & 3)

	cycle := state.CycleType((w0 >> 20) & 3)
	state.SetMask(&s.Flags, cycle == state.CycleTwo, state.RasterizationMultiCycle)
	state.SetMask(&s.Flags, cycle == state.CycleFill, state.RasterizationFill)
	state.SetMask(&s.Flags, cycle == state.CycleCopy, state.RasterizationCopy)
	state.SetMask(&db.Flags, cycle == state.CycleTwo, state.DepthBlendMultiCycle)

	db.BlendCycles[0].Blend1A = state.BlendMode1A((w1 >> 30) & 3)
	db.BlendCycles[1].Blend1A = state.BlendMode1A((w1 >> 28) & 3)
	db.BlendCycles[0].Blend1B = state.BlendMode1B((w1 >> 26) & 3)
	db.BlendCycles[1].Blend1B = state.BlendMode1B((w1 >> 24) & 3)
	db.BlendCycles[0].Blend2A = state.BlendMode2A((w1 >> 22) & 3)
	db.BlendCycles[1].Blend2A = state.BlendMode2A((w1 >> 20) & 3)
	db.BlendCycles[0].Blend2B = state.BlendMode2B((w1 >> 18) & 3)
	db.BlendCycles[1].Blend2B = state.BlendMode2B((w1 >> 16) & 3)

	d.r.SetStaticRasterizationState(d.static)
	d.r.SetDepthBlendState(d.depthBlend)
	d.r.SetEnablePrimitiveDepth(w1&(1<<2) != 0)
	return Draw{}, false
}

func (d *Dispatcher) opSetScissor(words []uint32) (Draw, bool) {
	w0, w1 := words[0], words[1]
	d.scissor = state.ScissorState{
		XLo: (w0 >> 12) & 0xfff,
		YLo: w0 & 0xfff,
		XHi: (w1 >> 12) & 0xfff,
		YHi: w1 & 0xfff,
	}
	state.SetMask(&d.static.Flags, w1&(1<<25) != 0, state.RasterizationInterlaceField)
	state.SetMask(&d.static.Flags, w1&(1<<24) != 0, state.RasterizationInterlaceKeepOdd)

	d.r.SetScissorState(d.scissor)
	d.r.SetStaticRasterizationState(d.static)
	return Draw{}, false
}

func (d *Dispatcher) opSetCombine(words []uint32) (Draw, bool) {
	w0, w1 := words[0], words[1]
	c := &d.static.Combiner

	c[0].RGB.MulAdd = state.RGBMulAdd((w0 >> 20) & 0xf)
	c[0].RGB.Mul = state.RGBMul((w0 >> 15) & 0x1f)
	c[0].RGB.MulSub = state.RGBMulSub((w1 >> 28) & 0xf)
	c[0].RGB.Add = state.RGBAdd((w1 >> 15) & 7)
	c[0].Alpha.MulAdd = state.AlphaAddSub((w0 >> 12) & 7)
	c[0].Alpha.MulSub = state.AlphaAddSub((w1 >> 12) & 7)
	c[0].Alpha.Mul = state.AlphaMul((w0 >> 9) & 7)
	c[0].Alpha.Add = state.AlphaAddSub((w1 >> 9) & 7)

	c[1].RGB.MulAdd = state.RGBMulAdd((w0 >> 5) & 0xf)
	c[1].RGB.Mul = state.RGBMul(w0 & 0x1f)
	c[1].RGB.MulSub = state.RGBMulSub((w1 >> 24) & 0xf)
	c[1].RGB.Add = state.RGBAdd((w1 >> 6) & 7)
	c[1].Alpha.MulAdd = state.AlphaAddSub((w1 >> 21) & 7)
	c[1].Alpha.MulSub = state.AlphaAddSub((w1 >> 3) & 7)
	c[1].Alpha.Mul = state.AlphaMul((w1 >> 18) & 7)
	c[1].Alpha.Add = state.AlphaAddSub(w1 & 7)

	d.r.SetStaticRasterizationState(d.static)
	return Draw{}, false
}

func (d *Dispatcher) opSetTextureImage(words []uint32) (Draw, bool) {
	img := decode.ImageOf(words)
	d.texImage = state.TextureImage{
		Addr:   img.Addr,
		Width:  img.Width,
		Size:   state.TextureSize(img.Size),
		Format: state.TextureFormat(img.Format),
	}
	return Draw{}, false
}

func (d *Dispatcher) opSetColorImage(words []uint32) (Draw, bool) {
	img := decode.ImageOf(words)
	format, ok := colorImageFormat(img.Size, state.TextureFormat(img.Format))
	if !ok {
		d.stats.Unsupported++
		logger.Load().Warn("dispatch: unsupported color image format",
			"format", state.TextureFormat(img.Format), "size", state.TextureSize(img.Size))
		return Draw{}, false
	}
	d.r.SetColorFramebuffer(img.Addr, img.Width, format)
	return Draw{}, false
}

// colorImageFormat maps the pixel size and format of a color image to a
// framebuffer format. The RDP renders to 4 and 8 bit intensity, 8 bit
// color index, 16 bit RGBA or IA and 32 bit RGBA.
func colorImageFormat(size uint8, format state.TextureFormat) (state.FBFormat, bool) {
	switch size {
	case 0:
		if format == state.FormatI || format == state.FormatIA {
			return state.FBI4, true
		}
	case 1:
		if format == state.FormatI || format == state.FormatIA || format == state.FormatCI {
			return state.FBI8, true
		}
	case 2:
		switch format {
		case state.FormatRGBA:
			return state.FBRGBA5551, true
		case state.FormatIA:
			return state.FBIA88, true
		}
	case 3:
		if format == state.FormatRGBA {
			return state.FBRGBA8888, true
		}
	}
	return 0, false
}

func (d *Dispatcher) opSetMaskImage(words []uint32) (Draw, bool) {
	d.r.SetDepthFramebuffer(words[1] & 0xffffff)
	return Draw{}, false
}

func (d *Dispatcher) opSetTile(words []uint32) (Draw, bool) {
	tile, info := decode.Tile(words)
	d.tiles[tile&(state.NumTiles-1)] = info
	d.r.SetTile(tile, info)
	return Draw{}, false
}

func (d *Dispatcher) opSetTileSize(words []uint32) (Draw, bool) {
	tile, size := decode.TileRect(words)
	d.tileSizes[tile&(state.NumTiles-1)] = size
	d.r.SetTileSize(tile, size)
	return Draw{}, false
}

// opLoad handles LoadTile, LoadBlock and LoadTLUT. The load carries a copy
// of the texture image current at this point in the stream.
func (d *Dispatcher) opLoad(words []uint32) (Draw, bool) {
	tile, rect := decode.TileRect(words)

	mode := state.UploadTile
	switch command.OpOf(words[0]) {
	case command.OpLoadBlock:
		mode = state.UploadBlock
	case command.OpLoadTLUT:
		mode = state.UploadTLUT
	}
	d.r.LoadTile(tile, state.LoadTileInfo{
		TexAddr:  d.texImage.Addr,
		TexWidth: d.texImage.Width,
		SLo:      rect.SLo,
		TLo:      rect.TLo,
		SHi:      rect.SHi,
		THi:      rect.THi,
		Format:   d.texImage.Format,
		Size:     d.texImage.Size,
		Mode:     mode,
	})
	return Draw{}, false
}

func (d *Dispatcher) opSetColor(words []uint32) (Draw, bool) {
	switch command.OpOf(words[0]) {
	case command.OpSetFillColor:
		d.r.SetFillColor(words[1])
	case command.OpSetFogColor:
		d.r.SetFogColor(words[1])
	case command.OpSetBlendColor:
		d.r.SetBlendColor(words[1])
	case command.OpSetEnvColor:
		d.r.SetEnvColor(words[1])
	}
	return Draw{}, false
}

func (d *Dispatcher) opSetPrimColor(words []uint32) (Draw, bool) {
	d.r.SetPrimitiveColor(uint8(words[0]>>8)&31, uint8(words[0]), words[1])
	return Draw{}, false
}

func (d *Dispatcher) opSetPrimDepth(words []uint32) (Draw, bool) {
	d.r.SetPrimitiveDepth(uint16(words[1]>>16), uint16(words[1]))
	return Draw{}, false
}

func (d *Dispatcher) opSetConvert(words []uint32) (Draw, bool) {
	d.r.SetConvert(decode.Convert(words))
	return Draw{}, false
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decode

import (
	"testing"

	"github.com/gogpu/rdp/command"
	"github.com/gogpu/rdp/state"
)

func TestRectangle(t *testing.T) {
	words := command.FillRectangle(0x140, 0xf0, 0x10, 0x20)

	tests := []struct {
		name     string
		quantize bool
		wantYL   int32
	}{
		{"one cycle", false, 0xf0},
		{"copy or fill", true, 0xf3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setup := Rectangle(words, tt.quantize)
			if setup.YL != tt.wantYL || setup.YM != tt.wantYL {
				t.Errorf("yl, ym = %#x, %#x, want %#x", setup.YL, setup.YM, tt.wantYL)
			}
			if setup.YH != 0x20 {
				t.Errorf("yh = %#x, want 0x20", setup.YH)
			}
			if setup.XL != 0x140<<14 || setup.XM != 0x140<<14 || setup.XH != 0x10<<14 {
				t.Errorf("x = (%#x, %#x, %#x)", setup.XL, setup.XM, setup.XH)
			}
			if setup.Flags != TriangleFlip {
				t.Errorf("flags = %03b, want flip only", setup.Flags)
			}
			if setup.DxHDy != 0 || setup.DxMDy != 0 || setup.DxLDy != 0 {
				t.Error("rectangle edges must be vertical")
			}
		})
	}
}

func TestTextureRectangle(t *testing.T) {
	r := command.TexRect{
		Tile: 3,
		XL:   0x100, YL: 0x80,
		S: 0x20, T: 0x40,
		DsDx: -1024, DtDy: 1024,
	}
	const (
		pos = 1024 << 11
		neg = -1024 << 11
	)

	t.Run("normal", func(t *testing.T) {
		setup, attr := TextureRectangle(r.Words(), false, false, false)
		if setup.Tile != 3 {
			t.Errorf("tile = %d", setup.Tile)
		}
		if setup.Flags != TriangleFlip {
			t.Errorf("flags = %03b", setup.Flags)
		}
		if attr.S != 0x20<<16 || attr.T != 0x40<<16 {
			t.Errorf("s, t = %#x, %#x", attr.S, attr.T)
		}
		if attr.DsDx != neg || attr.DtDe != pos || attr.DtDy != pos {
			t.Errorf("gradients = %d %d %d", attr.DsDx, attr.DtDe, attr.DtDy)
		}
		if attr.DtDx != 0 || attr.DsDe != 0 || attr.DsDy != 0 {
			t.Error("normal rectangle set flipped gradients")
		}
	})

	t.Run("flipped", func(t *testing.T) {
		r := r
		r.Flip = true
		_, attr := TextureRectangle(r.Words(), true, false, false)
		if attr.DtDx != pos || attr.DsDe != neg || attr.DsDy != neg {
			t.Errorf("gradients = %d %d %d", attr.DtDx, attr.DsDe, attr.DsDy)
		}
		if attr.DsDx != 0 || attr.DtDe != 0 || attr.DtDy != 0 {
			t.Error("flipped rectangle set normal gradients")
		}
	})

	t.Run("copy cycle", func(t *testing.T) {
		setup, _ := TextureRectangle(r.Words(), false, true, true)
		if setup.Flags != TriangleFlip|TriangleSkipXFrac {
			t.Errorf("flags = %03b", setup.Flags)
		}
		if setup.YL != 0x83 {
			t.Errorf("yl = %#x, want 0x83", setup.YL)
		}
	})

	t.Run("fill cycle", func(t *testing.T) {
		setup, _ := TextureRectangle(r.Words(), false, false, true)
		if setup.Flags.Has(TriangleSkipXFrac) {
			t.Error("skip-xfrac set outside copy cycle")
		}
		if setup.YL != 0x83 {
			t.Errorf("yl = %#x, want 0x83", setup.YL)
		}
	})
}

func TestTileMask(t *testing.T) {
	tests := []struct {
		mask      uint8
		wantMask  uint8
		wantClamp bool
	}{
		{0, 0, true},
		{1, 1, false},
		{10, 10, false},
		{11, 10, false},
		{15, 10, false},
	}
	for _, tt := range tests {
		idx, info := Tile(command.Tile{Index: 6, MaskS: tt.mask, MaskT: tt.mask}.Words())
		if idx != 6 {
			t.Errorf("index = %d, want 6", idx)
		}
		if info.MaskS != tt.wantMask || info.MaskT != tt.wantMask {
			t.Errorf("mask %d: got s=%d t=%d, want %d", tt.mask, info.MaskS, info.MaskT, tt.wantMask)
		}
		if info.Flags.Has(state.TileClampS) != tt.wantClamp || info.Flags.Has(state.TileClampT) != tt.wantClamp {
			t.Errorf("mask %d: flags = %04b, clamp want %v", tt.mask, info.Flags, tt.wantClamp)
		}
	}
}

func TestTileFields(t *testing.T) {
	words := command.Tile{
		Index: 7, Format: uint8(state.FormatCI), Size: uint8(state.Size8),
		Line: 4, TMEMAddr: 0x100, Palette: 9,
		ShiftS: 3, MaskS: 5, ShiftT: 15, MaskT: 6,
		MirrorS: true, ClampT: true,
	}.Words()

	idx, info := Tile(words)
	want := state.TileInfo{
		Offset:  0x100 << 3,
		Stride:  4 << 3,
		Size:    state.Size8,
		Format:  state.FormatCI,
		Palette: 9,
		ShiftS:  3, MaskS: 5,
		ShiftT: 15, MaskT: 6,
		Flags: state.TileMirrorS | state.TileClampT,
	}
	if idx != 7 {
		t.Errorf("index = %d", idx)
	}
	if info != want {
		t.Errorf("tile = %+v\nwant   %+v", info, want)
	}
}

func TestTileRect(t *testing.T) {
	tile, size := TileRect(command.TileRect(command.OpLoadTile, 5, 1, 2, 0xffe, 0xfff))
	if tile != 5 {
		t.Errorf("tile = %d", tile)
	}
	want := state.TileSize{SLo: 1, TLo: 2, SHi: 0xffe, THi: 0xfff}
	if size != want {
		t.Errorf("size = %+v, want %+v", size, want)
	}
}

func TestImageOf(t *testing.T) {
	img := ImageOf(command.SetColorImage(uint8(state.FormatRGBA), uint8(state.Size16), 320, 0x12345678))
	if img.Format != 0 || img.Size != 2 || img.Width != 320 || img.Addr != 0x345678 {
		t.Errorf("image = %+v", img)
	}
	if w := ImageOf(command.SetTextureImage(0, 0, 1024, 0)).Width; w != 1024 {
		t.Errorf("width = %d, want 1024", w)
	}
}

func TestConvert(t *testing.T) {
	k := [6]uint16{175, 0x1a5, 0x1d5, 222, 114, 42}
	if got := Convert(command.SetConvert(k)); got != k {
		t.Errorf("Convert = %v, want %v", got, k)
	}
}

func TestFixedViews(t *testing.T) {
	if f := S15_16(0x18000); f.Float64() != 1.5 || f.String() != "1.5" || f.Floor() != 1 {
		t.Errorf("S15_16 = %v", f)
	}
	if f := S15_16(-0x8000); f.Floor() != -1 {
		t.Errorf("S15_16(-0.5).Floor() = %d", f.Floor())
	}
	if f := S11_2(-6); f.Float64() != -1.5 || f.Floor() != -2 {
		t.Errorf("S11_2 = %v floor %d", f, f.Floor())
	}
	if f := U10_2(0x140 << 2); f.Floor() != 0x140 || f.String() != "320" {
		t.Errorf("U10_2 = %v", f)
	}
}

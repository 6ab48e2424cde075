// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package vi

import (
	"encoding/binary"
	"image/color"
	"sync"
	"testing"
)

func put16(rdram []byte, addr uint32, v uint16) {
	binary.LittleEndian.PutUint16(rdram[(addr&^1)^2:], v)
}

func put32(rdram []byte, addr uint32, v uint32) {
	binary.LittleEndian.PutUint32(rdram[addr&^3:], v)
}

// setMode programs a width x height framebuffer at origin with no scaling.
func setMode(v *VI, typ, origin uint32, width, height int) {
	v.SetRegister(Control, typ)
	v.SetRegister(Origin, origin)
	v.SetRegister(Width, uint32(width))
	v.SetRegister(HStart, 0x6c<<16|uint32(0x6c+width))
	v.SetRegister(VStart, 0x25<<16|uint32(0x25+2*height))
	v.SetRegister(XScale, 0x400)
	v.SetRegister(YScale, 0x400)
}

func TestRegisterNames(t *testing.T) {
	tests := []struct {
		reg  Register
		want string
	}{
		{Control, "Control"},
		{VCurrentLine, "VCurrentLine"},
		{YScale, "YScale"},
		{NumRegisters, "Register(14)"},
	}
	for _, tt := range tests {
		if got := tt.reg.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.reg, got, tt.want)
		}
	}
}

func TestSetRegister(t *testing.T) {
	v := New()
	v.SetRegister(Origin, 0x100000)
	v.SetRegister(NumRegisters+3, 1)

	if got := v.Register(Origin); got != 0x100000 {
		t.Errorf("Origin = %#x, want 0x100000", got)
	}
	if got := v.Register(NumRegisters + 3); got != 0 {
		t.Errorf("out of range register = %d, want 0", got)
	}
	regs := v.Registers()
	regs[Origin] = 0
	if v.Register(Origin) != 0x100000 {
		t.Error("Registers() does not return a copy")
	}
}

func TestModeGeometry(t *testing.T) {
	tests := []struct {
		name          string
		regs          Registers
		width, height int
	}{
		{
			name: "blank",
			regs: Registers{Control: 0, Width: 320},
		},
		{
			name:   "ntsc 320x240",
			regs:   Registers{Control: 2, Width: 320, HStart: 0x006c02ec, VStart: 0x002501ff, XScale: 0x200, YScale: 0x400},
			width:  320,
			height: 237,
		},
		{
			name:   "unscaled",
			regs:   Registers{Control: 3, Width: 64, HStart: 0x00000040, VStart: 0x00000020},
			width:  64,
			height: 16,
		},
		{
			name:   "width bounded by stride",
			regs:   Registers{Control: 3, Width: 8, HStart: 0x00000040, VStart: 0x00000004},
			width:  8,
			height: 2,
		},
		{
			name:   "empty vertical span",
			regs:   Registers{Control: 2, Width: 16, HStart: 0x10, VStart: 0x00200010},
			width:  16,
			height: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := tt.regs.Mode()
			if m.Width != tt.width || m.Height != tt.height {
				t.Errorf("Mode() = %dx%d, want %dx%d", m.Width, m.Height, tt.width, tt.height)
			}
		})
	}
}

func TestScanoutRGBA5551(t *testing.T) {
	v := New()
	const origin = 0x100
	setMode(v, TypeRGBA5551, origin, 4, 2)

	rdram := make([]byte, 0x200)
	put16(rdram, origin, 0xf801)     // red
	put16(rdram, origin+2, 0x07c1)   // green
	put16(rdram, origin+4*2, 0x003e) // blue, first pixel of line 1

	img := v.Scanout(rdram)
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("bounds = %v, want 4x2", b)
	}
	tests := []struct {
		x, y int
		want color.RGBA
	}{
		{0, 0, color.RGBA{0xff, 0, 0, 0xff}},
		{1, 0, color.RGBA{0, 0xff, 0, 0xff}},
		{0, 1, color.RGBA{0, 0, 0xff, 0xff}},
		{3, 1, color.RGBA{0, 0, 0, 0xff}},
	}
	for _, tt := range tests {
		if got := img.RGBAAt(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel (%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestScanoutRGBA8888(t *testing.T) {
	v := New()
	setMode(v, TypeRGBA8888, 0, 2, 2)

	rdram := make([]byte, 64)
	put32(rdram, 0, 0x11223344)
	put32(rdram, 12, 0xaabbccdd)

	img := v.Scanout(rdram)
	if got := img.RGBAAt(0, 0); got != (color.RGBA{0x11, 0x22, 0x33, 0xff}) {
		t.Errorf("pixel (0,0) = %v", got)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{0xaa, 0xbb, 0xcc, 0xff}) {
		t.Errorf("pixel (1,1) = %v", got)
	}
}

func TestScanoutOutOfRange(t *testing.T) {
	v := New()
	setMode(v, TypeRGBA8888, 0x1000, 4, 4)

	img := v.Scanout(make([]byte, 16))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := img.RGBAAt(x, y); got != (color.RGBA{A: 0xff}) {
				t.Fatalf("pixel (%d,%d) = %v, want opaque black", x, y, got)
			}
		}
	}
}

func TestScanoutBlank(t *testing.T) {
	v := New()
	if img := v.Scanout(make([]byte, 16)); !img.Bounds().Empty() {
		t.Errorf("blank scanout bounds = %v", img.Bounds())
	}
	img := v.ScanoutScaled(make([]byte, 16), 8, 6)
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 6 {
		t.Errorf("scaled blank bounds = %v, want 8x6", b)
	}
}

func TestScanoutScaled(t *testing.T) {
	v := New()
	setMode(v, TypeRGBA8888, 0, 2, 2)

	rdram := make([]byte, 16)
	for i := uint32(0); i < 4; i++ {
		put32(rdram, i*4, 0x808080ff)
	}
	img := v.ScanoutScaled(rdram, 8, 8)
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("bounds = %v, want 8x8", b)
	}
	want := color.RGBA{0x80, 0x80, 0x80, 0xff}
	if got := img.RGBAAt(4, 4); got != want {
		t.Errorf("pixel (4,4) = %v, want %v", got, want)
	}
}

func TestConcurrentRegisterAccess(t *testing.T) {
	v := New()
	setMode(v, TypeRGBA5551, 0, 4, 4)
	rdram := make([]byte, 64)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			v.SetRegister(Origin, uint32(i%2)*8)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = v.Scanout(rdram)
		}
	}()
	wg.Wait()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package vi models the video interface: a register file written by the
// emulated CPU and a scanout that turns the framebuffer those registers
// point at into an image.
//
// RDRAM is addressed the way the RDP sees it. Each 32-bit word is stored in
// host little-endian order, so 16-bit pixels sit at halfword index
// (addr/2)^1 and 32-bit pixels at word addr/4.
package vi

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"sync"

	"golang.org/x/image/draw"
)

// Register names one VI register.
type Register uint8

const (
	Control Register = iota
	Origin
	Width
	Intr
	VCurrentLine
	Timing
	VSync
	HSync
	Leap
	HStart
	VStart
	VBurst
	XScale
	YScale

	NumRegisters
)

var registerNames = [NumRegisters]string{
	"Control", "Origin", "Width", "Intr", "VCurrentLine", "Timing", "VSync",
	"HSync", "Leap", "HStart", "VStart", "VBurst", "XScale", "YScale",
}

func (r Register) String() string {
	if r < NumRegisters {
		return registerNames[r]
	}
	return fmt.Sprintf("Register(%d)", r)
}

// Pixel types selected by Control bits [1:0].
const (
	TypeBlank    = 0
	TypeRGBA5551 = 2
	TypeRGBA8888 = 3
)

// Registers is a snapshot of the register file.
type Registers [NumRegisters]uint32

// VI holds the register file. It is safe for concurrent use.
type VI struct {
	mu   sync.Mutex
	regs Registers
}

// New returns a VI with all registers zero, which scans out nothing.
func New() *VI { return &VI{} }

// SetRegister writes one register. Out of range registers are ignored.
func (v *VI) SetRegister(reg Register, value uint32) {
	if reg >= NumRegisters {
		return
	}
	v.mu.Lock()
	v.regs[reg] = value
	v.mu.Unlock()
}

// Register returns the value of reg, or 0 if it is out of range.
func (v *VI) Register(reg Register) uint32 {
	if reg >= NumRegisters {
		return 0
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs[reg]
}

// Registers returns a copy of the register file.
func (v *VI) Registers() Registers {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.regs
}

// Mode describes the framebuffer a register snapshot selects.
type Mode struct {
	Type   uint32
	Origin uint32
	Stride uint32 // pixels per line in memory
	Width  int
	Height int
}

// span decodes a start/end pair packed as start<<16 | end, 10 bits each.
func span(v uint32) int {
	start := int(v>>16) & 0x3ff
	end := int(v) & 0x3ff
	if end <= start {
		return 0
	}
	return end - start
}

// scale applies a 2.10 fixed-point scale factor to n. A zero factor is
// treated as 1.0.
func scale(n int, factor uint32) int {
	f := int(factor & 0xfff)
	if f == 0 {
		return n
	}
	return n * f >> 10
}

// Mode derives the visible framebuffer from the registers. The visible
// width is bounded by the line stride.
func (r *Registers) Mode() Mode {
	m := Mode{
		Type:   r[Control] & 3,
		Origin: r[Origin] & 0xffffff,
		Stride: r[Width] & 0xfff,
	}
	if m.Type != TypeRGBA5551 && m.Type != TypeRGBA8888 {
		return m
	}
	m.Width = scale(span(r[HStart]), r[XScale])
	if m.Width == 0 || m.Width > int(m.Stride) {
		m.Width = int(m.Stride)
	}
	// VStart counts half-lines.
	m.Height = scale(span(r[VStart])>>1, r[YScale])
	return m
}

// Scanout decodes the current framebuffer from rdram. A blank mode yields
// an empty image.
func (v *VI) Scanout(rdram []byte) *image.RGBA {
	regs := v.Registers()
	return scanout(regs.Mode(), rdram)
}

// ScanoutScaled is Scanout resampled to width x height with bilinear
// filtering.
func (v *VI) ScanoutScaled(rdram []byte, width, height int) *image.RGBA {
	src := v.Scanout(rdram)
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if src.Bounds().Empty() {
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

func scanout(m Mode, rdram []byte) *image.RGBA {
	if m.Width <= 0 || m.Height <= 0 {
		return image.NewRGBA(image.Rectangle{})
	}
	img := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			idx := m.Stride*uint32(y) + uint32(x)
			var c color.RGBA
			switch m.Type {
			case TypeRGBA5551:
				c = rgba5551(load16(rdram, m.Origin+idx*2))
			case TypeRGBA8888:
				c = rgba8888(load32(rdram, m.Origin+idx*4))
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// load16 reads the halfword at RDP address addr. Reads past the end of
// rdram return 0.
func load16(rdram []byte, addr uint32) uint16 {
	off := uint64(addr&^1) ^ 2
	if off+2 > uint64(len(rdram)) {
		return 0
	}
	return binary.LittleEndian.Uint16(rdram[off:])
}

func load32(rdram []byte, addr uint32) uint32 {
	off := uint64(addr &^ 3)
	if off+4 > uint64(len(rdram)) {
		return 0
	}
	return binary.LittleEndian.Uint32(rdram[off:])
}

func expand5(v uint16) uint8 {
	v &= 31
	return uint8(v<<3 | v>>2)
}

func rgba5551(p uint16) color.RGBA {
	return color.RGBA{R: expand5(p >> 11), G: expand5(p >> 6), B: expand5(p >> 1), A: 0xff}
}

func rgba8888(w uint32) color.RGBA {
	return color.RGBA{R: uint8(w >> 24), G: uint8(w >> 16), B: uint8(w >> 8), A: 0xff}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package decode

import "strconv"

// Fixed-point views of decoded fields, for diagnostics and tools.
//
//   - S15_16: signed 15.16, attribute values and gradients
//   - S11_2:  signed 11.2, triangle Y bounds
//   - U10_2:  unsigned 10.2, rectangle, scissor and tile coordinates

// S15_16 is a signed fixed-point value with 16 fractional bits.
type S15_16 int32

// S15_16One is 1.0.
const S15_16One S15_16 = 1 << 16

// Float64 converts f to a float.
func (f S15_16) Float64() float64 { return float64(f) / float64(S15_16One) }

// Floor returns the integer part, rounded toward negative infinity.
func (f S15_16) Floor() int32 { return int32(f) >> 16 }

func (f S15_16) String() string { return strconv.FormatFloat(f.Float64(), 'f', -1, 64) }

// S11_2 is a signed fixed-point value with 2 fractional bits.
type S11_2 int32

// Float64 converts f to a float.
func (f S11_2) Float64() float64 { return float64(f) / 4 }

// Floor returns the integer part, rounded toward negative infinity.
func (f S11_2) Floor() int32 { return int32(f) >> 2 }

func (f S11_2) String() string { return strconv.FormatFloat(f.Float64(), 'f', -1, 64) }

// U10_2 is an unsigned fixed-point value with 2 fractional bits.
type U10_2 uint32

// Float64 converts f to a float.
func (f U10_2) Float64() float64 { return float64(f) / 4 }

// Floor returns the integer part.
func (f U10_2) Floor() uint32 { return uint32(f) >> 2 }

func (f U10_2) String() string { return strconv.FormatFloat(f.Float64(), 'f', -1, 64) }

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rdp

import (
	"log/slog"

	"github.com/gogpu/rdp/internal/ring"
	"github.com/gogpu/rdp/renderer"
)

// Default sizes.
const (
	DefaultRDRAMSize       = 8 << 20
	DefaultHiddenRDRAMSize = 4 << 20

	// TMEMSize is the size of texture memory in bytes.
	TMEMSize = 0x1000

	// DefaultRingCapacity is the number of batches Submit can queue before
	// it blocks.
	DefaultRingCapacity = ring.DefaultCapacity
)

// Flags select optional behavior of a CommandProcessor.
type Flags uint32

const (
	// FlagHostVisibleHiddenRDRAM makes hidden RDRAM mappable with
	// BeginReadHiddenRDRAM.
	FlagHostVisibleHiddenRDRAM Flags = 1 << iota

	// FlagHostVisibleTMEM makes TMEM mappable from the host.
	FlagHostVisibleTMEM
)

// Option configures a CommandProcessor during creation.
//
// Example:
//
//	// Defaults: 8 MiB RDRAM, 4 MiB hidden RDRAM, GPU renderer
//	p, err := rdp.New(device, queue)
//
//	// Emulator-owned RDRAM and a debug renderer
//	p, err := rdp.New(device, queue,
//	    rdp.WithRDRAM(ram),
//	    rdp.WithRendererName("recording"))
type Option func(*options)

type options struct {
	rdram        []byte
	rdramSize    uint64
	hiddenSize   uint64
	flags        Flags
	renderer     renderer.Renderer
	rendererName string
	ringCapacity int
	logger       *slog.Logger
}

func defaultOptions() options {
	return options{
		rdramSize:    DefaultRDRAMSize,
		hiddenSize:   DefaultHiddenRDRAMSize,
		rendererName: "gpu",
		ringCapacity: DefaultRingCapacity,
	}
}

// WithRDRAM uses ram as main memory instead of allocating it. The processor
// reads and writes ram between BeginReadRDRAM and EndWriteRDRAM; the caller
// keeps ownership. The RDRAM size becomes len(ram).
func WithRDRAM(ram []byte) Option {
	return func(o *options) {
		o.rdram = ram
		o.rdramSize = uint64(len(ram))
	}
}

// WithRDRAMSize sets the size of internally allocated RDRAM.
func WithRDRAMSize(size uint64) Option {
	return func(o *options) {
		if o.rdram == nil {
			o.rdramSize = size
		}
	}
}

// WithHiddenRDRAMSize sets the size of hidden RDRAM.
func WithHiddenRDRAMSize(size uint64) Option {
	return func(o *options) { o.hiddenSize = size }
}

// WithFlags sets the processor flags.
func WithFlags(f Flags) Option {
	return func(o *options) { o.flags = f }
}

// WithRenderer uses r instead of a registered renderer. The processor does
// not close it.
func WithRenderer(r renderer.Renderer) Option {
	return func(o *options) { o.renderer = r }
}

// WithRendererName selects a renderer from the renderer registry.
// The default is "gpu".
func WithRendererName(name string) Option {
	return func(o *options) { o.rendererName = name }
}

// WithRingCapacity sets how many batches Submit queues before blocking.
func WithRingCapacity(n int) Option {
	return func(o *options) { o.ringCapacity = n }
}

// WithLogger sets the logger of this processor. Package loggers are set
// with SetLogger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

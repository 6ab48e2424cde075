// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package memory manages the GPU buffers that back RDRAM, hidden RDRAM and
// TMEM.
//
// A Region lives either in device-local memory, where only the GPU touches
// it, or in a cached host domain, where the CPU reads and writes a shadow
// copy between Map and Unmap calls. Unmapping after a write uploads the
// shadow so the GPU sees it on the next submission.
package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rdp/internal/logging"
)

var logger logging.Pointer

// SetLogger sets the logger of this package. nil disables logging.
func SetLogger(l *slog.Logger) { logger.Store(l) }

var (
	// ErrNotHostVisible is returned when mapping a device-local region.
	ErrNotHostVisible = errors.New("memory: region is not host visible")

	// ErrAlreadyMapped is returned by Map while a mapping is open.
	ErrAlreadyMapped = errors.New("memory: region is already mapped")

	// ErrNotMapped is returned by Unmap without a matching Map.
	ErrNotMapped = errors.New("memory: region is not mapped")

	// ErrNoDevice is returned when a region is created without a device
	// or queue.
	ErrNoDevice = errors.New("memory: nil device or queue")
)

// Domain is where a region's contents live.
type Domain uint8

const (
	// Device regions are only reachable from the GPU.
	Device Domain = iota

	// CachedHost regions keep a CPU shadow that is uploaded on unmap.
	CachedHost
)

func (d Domain) String() string {
	switch d {
	case Device:
		return "Device"
	case CachedHost:
		return "CachedHost"
	default:
		return fmt.Sprintf("Domain(%d)", d)
	}
}

// Access is the direction of a host mapping.
type Access uint8

const (
	Read Access = 1 << iota
	Write

	ReadWrite = Read | Write
)

// RegionDescriptor describes a region to create.
type RegionDescriptor struct {
	Label  string
	Size   uint64
	Domain Domain

	// Host, if set, is used as the shadow of a CachedHost region instead
	// of a fresh allocation. It must be at least Size bytes long; the
	// caller keeps ownership and must not touch it while it is unmapped.
	Host []byte

	// Lock, if set, is held around every call on the device and queue.
	// Everything sharing them must use the same lock.
	Lock sync.Locker
}

// Region is one GPU buffer plus, in the host domain, its CPU shadow.
type Region struct {
	device hal.Device
	queue  hal.Queue
	gpu    sync.Locker
	buf    hal.Buffer
	label  string
	size   uint64
	domain Domain

	mu     sync.Mutex
	shadow []byte
	mapped Access

	filler *Filler
}

// NewRegion allocates a region. The contents start out zero.
func NewRegion(device hal.Device, queue hal.Queue, desc RegionDescriptor) (*Region, error) {
	if device == nil || queue == nil {
		return nil, ErrNoDevice
	}
	if desc.Size == 0 || desc.Size%4 != 0 {
		return nil, fmt.Errorf("memory: %s: size %d is not a positive multiple of 4", desc.Label, desc.Size)
	}

	lock := desc.Lock
	if lock == nil {
		lock = new(sync.Mutex)
	}
	lock.Lock()
	defer lock.Unlock()

	usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst
	if desc.Domain == CachedHost {
		usage |= gputypes.BufferUsageMapRead
	}
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("memory: create %s (%d bytes): %w", desc.Label, desc.Size, err)
	}

	r := &Region{
		device: device,
		queue:  queue,
		gpu:    lock,
		buf:    buf,
		label:  desc.Label,
		size:   desc.Size,
		domain: desc.Domain,
	}
	if desc.Domain == CachedHost {
		if desc.Host != nil {
			if uint64(len(desc.Host)) < desc.Size {
				device.DestroyBuffer(buf)
				return nil, fmt.Errorf("memory: %s: host memory holds %d bytes, need %d", desc.Label, len(desc.Host), desc.Size)
			}
			r.shadow = desc.Host[:desc.Size:desc.Size]
			if err := queue.WriteBuffer(buf, 0, r.shadow); err != nil {
				device.DestroyBuffer(buf)
				return nil, fmt.Errorf("memory: upload %s: %w", desc.Label, err)
			}
		} else {
			r.shadow = make([]byte, desc.Size)
		}
	}
	logger.Load().Debug("memory: region created", "label", desc.Label, "size", desc.Size, "domain", desc.Domain)
	return r, nil
}

// Buffer returns the GPU buffer of the region.
func (r *Region) Buffer() hal.Buffer { return r.buf }

// Size returns the size of the region in bytes.
func (r *Region) Size() uint64 { return r.size }

// Domain returns where the region lives.
func (r *Region) Domain() Domain { return r.domain }

// Label returns the debug name of the region.
func (r *Region) Label() string { return r.label }

// Map opens a host mapping and returns the shadow. With Read access the
// shadow is refreshed from the GPU buffer first, so the caller must make
// sure no GPU work writing the region is still running.
func (r *Region) Map(access Access) ([]byte, error) {
	if r.domain != CachedHost {
		return nil, ErrNotHostVisible
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mapped != 0 {
		return nil, ErrAlreadyMapped
	}
	if access == 0 {
		access = ReadWrite
	}
	if access&Read != 0 {
		if err := r.readBack(); err != nil {
			return nil, err
		}
	}
	r.mapped = access
	return r.shadow, nil
}

func (r *Region) readBack() error {
	r.gpu.Lock()
	defer r.gpu.Unlock()

	m, err := r.device.MapBuffer(r.buf, 0, r.size)
	if err != nil {
		return fmt.Errorf("memory: map %s: %w", r.label, err)
	}
	copy(r.shadow, unsafe.Slice((*byte)(m.Ptr), r.size))
	if err := r.device.UnmapBuffer(r.buf); err != nil {
		return fmt.Errorf("memory: unmap %s: %w", r.label, err)
	}
	return nil
}

// Unmap closes the mapping opened by Map. With Write access the shadow is
// uploaded to the GPU buffer.
func (r *Region) Unmap(access Access) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.mapped == 0 {
		return ErrNotMapped
	}
	r.mapped = 0
	if access&Write == 0 {
		return nil
	}
	return r.upload()
}

func (r *Region) upload() error {
	r.gpu.Lock()
	defer r.gpu.Unlock()
	if err := r.queue.WriteBuffer(r.buf, 0, r.shadow); err != nil {
		return fmt.Errorf("memory: upload %s: %w", r.label, err)
	}
	return nil
}

// Fill sets every word of the region to value. Host regions replicate the
// low byte of value across the shadow and upload it; device regions run a
// fill shader and wait for it.
func (r *Region) Fill(value uint32) error {
	if r.domain == CachedHost {
		r.mu.Lock()
		defer r.mu.Unlock()
		b := byte(value)
		for i := range r.shadow {
			r.shadow[i] = b
		}
		return r.upload()
	}

	r.mu.Lock()
	if r.filler == nil {
		r.filler = NewFiller(r.device, r.queue, r.gpu)
	}
	f := r.filler
	r.mu.Unlock()
	return f.Fill(r.buf, r.size, value)
}

// Destroy releases the region's GPU objects.
func (r *Region) Destroy() {
	if r.filler != nil {
		r.filler.Destroy()
		r.filler = nil
	}
	if r.buf != nil {
		r.gpu.Lock()
		r.device.DestroyBuffer(r.buf)
		r.gpu.Unlock()
		r.buf = nil
	}
}

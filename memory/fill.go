// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package memory

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// fillShader writes params.value to the first params.count words of dst.
// Workgroups are laid out in rows of params.pitch invocations so large
// regions stay under the per-dimension dispatch limit.
const fillShader = `
struct Params {
    value: u32,
    count: u32,
    pitch: u32,
    _pad: u32,
}

@group(0) @binding(0) var<storage, read_write> dst: array<u32>;
@group(0) @binding(1) var<uniform> params: Params;

@compute @workgroup_size(64)
fn main(@builtin(global_invocation_id) id: vec3<u32>) {
    let i = id.y * params.pitch + id.x;
    if (i < params.count) {
        dst[i] = params.value;
    }
}
`

const (
	fillWGSize       = 64
	maxWorkgroupsDim = 65535
	fillParamsSize   = 16
)

// Filler clears buffers on the GPU. The pipeline is built on first use; if
// that fails, fills fall back to uploading the pattern from the CPU.
type Filler struct {
	device hal.Device
	queue  hal.Queue
	gpu    sync.Locker

	once     sync.Once
	initErr  error
	module   hal.ShaderModule
	bgl      hal.BindGroupLayout
	layout   hal.PipelineLayout
	pipeline hal.ComputePipeline
	params   hal.Buffer
}

// NewFiller returns a filler for device. No GPU objects are created until
// the first Fill. lock is held around every call on device and queue; nil
// gives the filler a lock of its own.
func NewFiller(device hal.Device, queue hal.Queue, lock sync.Locker) *Filler {
	if lock == nil {
		lock = new(sync.Mutex)
	}
	return &Filler{device: device, queue: queue, gpu: lock}
}

// compileSPIRV compiles WGSL to SPIR-V words.
func compileSPIRV(src string) ([]uint32, error) {
	b, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("memory: compile fill shader: %w", err)
	}
	words := make([]uint32, len(b)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return words, nil
}

func (f *Filler) init() error {
	spirv, err := compileSPIRV(fillShader)
	if err != nil {
		return err
	}
	f.module, err = f.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "rdp_fill",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("memory: create fill shader module: %w", err)
	}

	f.bgl, err = f.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "rdp_fill_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("memory: create fill bind group layout: %w", err)
	}

	f.layout, err = f.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "rdp_fill_pl",
		BindGroupLayouts: []hal.BindGroupLayout{f.bgl},
	})
	if err != nil {
		return fmt.Errorf("memory: create fill pipeline layout: %w", err)
	}

	f.pipeline, err = f.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "rdp_fill",
		Layout: f.layout,
		Compute: hal.ComputeState{
			Module:     f.module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		return fmt.Errorf("memory: create fill pipeline: %w", err)
	}

	f.params, err = f.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "rdp_fill_params",
		Size:  fillParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("memory: create fill params: %w", err)
	}
	logger.Load().Debug("memory: fill pipeline created")
	return nil
}

// groups returns the dispatch size for count words and the row pitch in
// invocations.
func groups(count uint32) (x, y, pitch uint32) {
	total := (count + fillWGSize - 1) / fillWGSize
	if total == 0 {
		return 0, 0, 0
	}
	x = min(total, maxWorkgroupsDim)
	y = (total + x - 1) / x
	return x, y, x * fillWGSize
}

// Fill writes value to every word of the first size bytes of buf and waits
// for the GPU to finish.
func (f *Filler) Fill(buf hal.Buffer, size uint64, value uint32) error {
	f.gpu.Lock()
	defer f.gpu.Unlock()

	f.once.Do(func() {
		f.initErr = f.init()
		if f.initErr != nil {
			logger.Load().Warn("memory: fill pipeline unavailable, filling from host", "err", f.initErr)
		}
	})
	if f.initErr != nil {
		return f.fillFromHost(buf, size, value)
	}

	count := uint32(size / 4)
	x, y, pitch := groups(count)
	if x == 0 {
		return nil
	}

	var params [fillParamsSize]byte
	binary.LittleEndian.PutUint32(params[0:], value)
	binary.LittleEndian.PutUint32(params[4:], count)
	binary.LittleEndian.PutUint32(params[8:], pitch)
	if err := f.queue.WriteBuffer(f.params, 0, params[:]); err != nil {
		return fmt.Errorf("memory: upload fill params: %w", err)
	}

	bg, err := f.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "rdp_fill_bg",
		Layout: f.bgl,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: buf.NativeHandle(), Size: size}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: f.params.NativeHandle(), Size: fillParamsSize}},
		},
	})
	if err != nil {
		return fmt.Errorf("memory: create fill bind group: %w", err)
	}
	defer f.device.DestroyBindGroup(bg)

	encoder, err := f.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "rdp_fill"})
	if err != nil {
		return fmt.Errorf("memory: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("rdp_fill"); err != nil {
		return fmt.Errorf("memory: begin encoding: %w", err)
	}
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "rdp_fill"})
	pass.SetPipeline(f.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(x, y, 1)
	pass.End()
	cmd, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("memory: end encoding: %w", err)
	}
	defer f.device.FreeCommandBuffer(cmd)

	index, err := f.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		return fmt.Errorf("memory: submit fill: %w", err)
	}
	if f.queue.PollCompleted() < index {
		if err := f.device.WaitIdle(); err != nil {
			return fmt.Errorf("memory: wait for fill: %w", err)
		}
	}
	logger.Load().Debug("memory: filled", "words", count, "value", value, "groups_x", x, "groups_y", y)
	return nil
}

func (f *Filler) fillFromHost(buf hal.Buffer, size uint64, value uint32) error {
	data := make([]byte, size)
	for i := 0; i+4 <= len(data); i += 4 {
		binary.LittleEndian.PutUint32(data[i:], value)
	}
	if err := f.queue.WriteBuffer(buf, 0, data); err != nil {
		return fmt.Errorf("memory: upload fill pattern: %w", err)
	}
	return nil
}

// Destroy releases the pipeline objects.
func (f *Filler) Destroy() {
	f.gpu.Lock()
	defer f.gpu.Unlock()
	if f.params != nil {
		f.device.DestroyBuffer(f.params)
		f.params = nil
	}
	if f.pipeline != nil {
		f.device.DestroyComputePipeline(f.pipeline)
		f.pipeline = nil
	}
	if f.layout != nil {
		f.device.DestroyPipelineLayout(f.layout)
		f.layout = nil
	}
	if f.bgl != nil {
		f.device.DestroyBindGroupLayout(f.bgl)
		f.bgl = nil
	}
	if f.module != nil {
		f.device.DestroyShaderModule(f.module)
		f.module = nil
	}
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package rdp is a command processor for the Nintendo 64 Reality Display
// Processor that runs on a WebGPU HAL device.
//
// # Overview
//
// An emulator appends RDP command words with [CommandProcessor.Submit].
// A consumer goroutine splits them into commands, decodes each one into
// register state and draw setups, and hands the result to a
// [renderer.Renderer]. The default renderer packs draws into storage
// buffers and submits them to the device.
//
// # Synchronization
//
// [CommandProcessor.SignalTimeline] returns a ticket that becomes reached
// once all work submitted before it has completed on the GPU.
// [CommandProcessor.WaitForTimeline] blocks until then, and
// [CommandProcessor.Idle] signals and waits in one call:
//
//	p, err := rdp.New(device, queue, rdp.WithRDRAM(ram))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	p.Submit(words)
//	ticket, _ := p.SignalTimeline()
//	if err := p.WaitForTimeline(ctx, ticket); err != nil {
//	    return err
//	}
//
// # Memory
//
// RDRAM is host visible. Hidden RDRAM and TMEM live on the device unless
// [FlagHostVisibleHiddenRDRAM] or [FlagHostVisibleTMEM] is set. Host
// access goes through BeginRead*/End* pairs.
//
// # Sub-packages
//
//   - command: opcodes, command lengths and word encoders
//   - decode: bitfield decoding of triangle and rectangle setups
//   - state: persistent register state
//   - dispatch: the opcode handler table
//   - timeline: the completion timeline
//   - renderer: the renderer contract and GPU renderer
//   - recording: a renderer that records what it is given
//   - memory: RDRAM, hidden RDRAM and TMEM buffers
//   - vi: video interface registers and scanout
package rdp

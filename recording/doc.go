// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package recording provides a renderer that records decoded RDP work
// instead of rasterizing it.
//
// A Recorder implements renderer.Renderer. Each call is captured as a
// typed command holding a copy of its arguments, so a recording reflects
// the exact register state every draw saw. Recordings can be inspected,
// counted per command type and replayed into any other renderer.
//
// # Basic Usage
//
//	rec := recording.NewRecorder()
//	proc, _ := rdp.New(device, queue, rdp.WithRenderer(rec))
//	proc.Submit(words)
//	proc.Idle()
//
//	for _, cmd := range rec.Commands() {
//		fmt.Println(cmd.Type())
//	}
//
// # Playback
//
// A finished Recording replays into another renderer in the original
// order:
//
//	r := rec.FinishRecording()
//	gpu, _ := renderer.New("gpu", cfg)
//	r.Playback(gpu)
//
// # Completion signals
//
// By default FlushAndSignal returns an already fired signal. Tests that
// need to control when work "completes" install a factory with
// WithSignalFactory, for example one that returns a Gate.
//
// The recorder registers itself under the name "recording" in the
// renderer registry.
package recording

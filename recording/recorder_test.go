// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package recording

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gogpu/rdp/decode"
	"github.com/gogpu/rdp/renderer"
	"github.com/gogpu/rdp/state"
)

func TestNewRecorder(t *testing.T) {
	rec := NewRecorder()
	if rec.Len() != 0 {
		t.Errorf("Len() = %d, want 0", rec.Len())
	}
	if len(rec.Commands()) != 0 {
		t.Error("new recorder has commands")
	}
}

func TestRecorderCapturesArguments(t *testing.T) {
	rec := NewRecorder()

	scissor := state.ScissorState{XHi: 1280, YHi: 960}
	rec.SetScissorState(scissor)
	rec.SetTile(3, state.TileInfo{Offset: 0x100, MaskS: 5})
	rec.SetFillColor(0x12345678)
	rec.SetPrimitiveColor(1, 2, 0xaabbccdd)
	rec.DrawFlat(decode.TriangleSetup{YH: 1, YM: 2, YL: 3})

	// Later state changes must not leak into recorded commands.
	scissor.XHi = 0

	cmds := rec.Commands()
	if len(cmds) != 5 {
		t.Fatalf("len = %d, want 5", len(cmds))
	}
	if c := cmds[0].(SetScissorStateCommand); c.State.XHi != 1280 {
		t.Errorf("scissor = %+v", c.State)
	}
	if c := cmds[1].(SetTileCommand); c.Tile != 3 || c.Info.Offset != 0x100 || c.Info.MaskS != 5 {
		t.Errorf("tile = %+v", c)
	}
	if c := cmds[2].(SetColorCommand); c.Type() != CmdSetFillColor || c.RGBA != 0x12345678 {
		t.Errorf("fill = %+v", c)
	}
	if c := cmds[3].(SetPrimitiveColorCommand); c.MinLevel != 1 || c.LevelFrac != 2 || c.RGBA != 0xaabbccdd {
		t.Errorf("prim = %+v", c)
	}
	if c := cmds[4].(DrawFlatCommand); c.Setup.YL != 3 {
		t.Errorf("draw = %+v", c)
	}
}

func TestRecorderCountAndDraws(t *testing.T) {
	rec := NewRecorder()
	rec.DrawFlat(decode.TriangleSetup{})
	rec.SetEnvColor(1)
	rec.DrawShaded(decode.TriangleSetup{}, decode.AttributeSetup{Z: 7})
	rec.DrawFlat(decode.TriangleSetup{})

	if got := rec.Count(CmdDrawFlat); got != 2 {
		t.Errorf("Count(DrawFlat) = %d, want 2", got)
	}
	if got := rec.Count(CmdSetEnvColor); got != 1 {
		t.Errorf("Count(SetEnvColor) = %d, want 1", got)
	}
	draws := rec.Draws()
	if len(draws) != 3 || draws[1].Type() != CmdDrawShaded {
		t.Errorf("Draws() = %v", draws)
	}

	rec.Reset()
	if rec.Len() != 0 {
		t.Errorf("Len() after Reset = %d", rec.Len())
	}
}

func TestRecorderSignals(t *testing.T) {
	rec := NewRecorder()
	sig, err := rec.FlushAndSignal()
	if err != nil || sig.Wait() != nil {
		t.Fatalf("default signal: %v", err)
	}

	var seqs []uint64
	rec = NewRecorder(WithSignalFactory(func(seq uint64) renderer.Signal {
		seqs = append(seqs, seq)
		return renderer.Signaled()
	}))
	for i := 0; i < 3; i++ {
		if _, err := rec.FlushAndSignal(); err != nil {
			t.Fatal(err)
		}
	}
	if len(seqs) != 3 || seqs[0] != 1 || seqs[2] != 3 {
		t.Errorf("seqs = %v", seqs)
	}
	if c := rec.Commands()[1].(FlushAndSignalCommand); c.Seq != 2 {
		t.Errorf("Seq = %d, want 2", c.Seq)
	}
}

func TestRecordingPlayback(t *testing.T) {
	src := NewRecorder()
	src.SetStaticRasterizationState(state.StaticRasterizationState{Flags: state.RasterizationCopy})
	src.SetDepthBlendState(state.DepthBlendState{ZMode: state.ZModeDecal})
	src.SetEnablePrimitiveDepth(true)
	src.SetTileSize(1, state.TileSize{SHi: 4})
	src.LoadTile(1, state.LoadTileInfo{Mode: state.UploadBlock})
	src.SetColorFramebuffer(0x1000, 320, state.FBRGBA5551)
	src.SetDepthFramebuffer(0x2000)
	src.SetFillColor(1)
	src.SetFogColor(2)
	src.SetBlendColor(3)
	src.SetEnvColor(4)
	src.SetPrimitiveDepth(5, 6)
	src.SetConvert([6]uint16{1, 2, 3, 4, 5, 6})
	src.DrawShaded(decode.TriangleSetup{XH: 9}, decode.AttributeSetup{S: 10})
	src.Flush()
	src.FlushAndSignal()

	r := src.FinishRecording()
	if src.Len() != 0 {
		t.Errorf("recorder not empty after FinishRecording")
	}

	dst := NewRecorder()
	if err := r.Playback(dst); err != nil {
		t.Fatalf("Playback: %v", err)
	}
	got, want := dst.Commands(), r.Commands()
	if len(got) != len(want) {
		t.Fatalf("replayed %d commands, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestPlaybackSignalError(t *testing.T) {
	src := NewRecorder()
	src.FlushAndSignal()
	r := src.FinishRecording()

	errGPU := errors.New("device lost")
	dst := NewRecorder(WithSignalFactory(func(uint64) renderer.Signal {
		g := NewGate()
		g.OpenWithError(errGPU)
		return g
	}))
	if err := r.Playback(dst); !errors.Is(err, errGPU) {
		t.Errorf("Playback err = %v, want %v", err, errGPU)
	}
}

func TestGate(t *testing.T) {
	g := NewGate()
	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case <-done:
		t.Fatal("gate fired before Open")
	case <-time.After(20 * time.Millisecond):
	}

	g.Open()
	g.OpenWithError(errors.New("ignored"))
	if err := <-done; err != nil {
		t.Errorf("Wait() = %v", err)
	}
}

func TestRecorderConcurrentUse(t *testing.T) {
	rec := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				rec.DrawFlat(decode.TriangleSetup{})
				_ = rec.Len()
			}
		}()
	}
	wg.Wait()
	if rec.Len() != 400 {
		t.Errorf("Len() = %d, want 400", rec.Len())
	}
}

func TestRecorderRegistered(t *testing.T) {
	r, err := renderer.New("recording", renderer.Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := r.(*Recorder); !ok {
		t.Errorf("New returned %T", r)
	}
}

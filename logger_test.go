// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rdp

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/gogpu/rdp/command"
	"github.com/gogpu/rdp/recording"
)

// syncBuffer is a bytes.Buffer that can be written from the worker
// goroutines while the test reads it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLoggerDefaultSilent(t *testing.T) {
	l := Logger()
	if l == nil {
		t.Fatal("Logger() returned nil")
	}
	for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l.Enabled(context.Background(), level) {
			t.Errorf("default logger should not be enabled for %v", level)
		}
	}
}

func TestSetLogger(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf bytes.Buffer
	custom := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	SetLogger(custom)

	if Logger() != custom {
		t.Error("Logger() did not return the custom logger set via SetLogger")
	}
	Logger().Info("test message", "key", "value")
	if !strings.Contains(buf.String(), "test message") {
		t.Errorf("expected log output to contain 'test message', got: %s", buf.String())
	}
}

func TestSetLoggerNilRestoresSilent(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	SetLogger(slog.Default())
	SetLogger(nil)

	l := Logger()
	if l == nil {
		t.Fatal("SetLogger(nil) should set nop logger, not nil")
	}
	if l.Enabled(context.Background(), slog.LevelError) {
		t.Error("SetLogger(nil) should produce a disabled logger")
	}
}

func TestSetLoggerPropagates(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var buf syncBuffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	p := newTestProcessor(t, WithRenderer(recording.NewRecorder()))
	// A fill rectangle cut after its first word, then an undefined opcode.
	p.Submit(command.FillRectangle(0, 0, 8, 8)[:1])
	p.Submit([]uint32{0x10 << 24, 0})
	if err := p.Idle(); err != nil {
		t.Fatalf("Idle: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"ring: dropping truncated command", "dispatch: ignoring undefined opcode", "memory: region created"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestSetLoggerReachesExistingProcessor(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	p := newTestProcessor(t, WithRenderer(recording.NewRecorder()))

	var buf syncBuffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	if err := p.BeginFrameContext(); err != nil {
		t.Fatalf("BeginFrameContext: %v", err)
	}
	if !strings.Contains(buf.String(), "rdp: frame") {
		t.Errorf("processor did not use the new logger: %q", buf.String())
	}
}

func TestWithLoggerIsPerProcessor(t *testing.T) {
	var buf syncBuffer
	l := slog.New(slog.NewTextHandler(&buf, nil))

	p := newTestProcessor(t, WithLogger(l))
	if p.log != l {
		t.Error("WithLogger not applied")
	}
	if Logger() == l {
		t.Error("WithLogger changed the package logger")
	}
	if !strings.Contains(buf.String(), "command processor created") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestLoggerConcurrentAccess(t *testing.T) {
	orig := Logger()
	t.Cleanup(func() { SetLogger(orig) })

	var wg sync.WaitGroup
	const goroutines = 100

	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l := Logger()
			if l == nil {
				t.Error("Logger() returned nil during concurrent access")
			}
			l.Debug("concurrent read")
		}()
	}
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			SetLogger(slog.Default())
			SetLogger(nil)
		}()
	}
	wg.Wait()
}

func BenchmarkLoggerDisabledLog(b *testing.B) {
	l := Logger()
	b.ReportAllocs()
	for b.Loop() {
		l.Debug("message", "key", "value")
	}
}

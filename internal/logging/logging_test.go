// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPointerDefaultsToDiscard(t *testing.T) {
	var p Pointer
	if p.Load() != Discard() {
		t.Fatal("zero Pointer should load the discard logger")
	}
	if p.Load().Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger must not be enabled")
	}
}

func TestPointerStore(t *testing.T) {
	var buf bytes.Buffer
	var p Pointer
	p.Store(slog.New(slog.NewTextHandler(&buf, nil)))
	p.Load().Info("hello", "n", 1)
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("output = %q", buf.String())
	}

	p.Store(nil)
	if p.Load() != Discard() {
		t.Error("Store(nil) should restore the discard logger")
	}
}

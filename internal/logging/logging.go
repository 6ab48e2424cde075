// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package logging holds the swappable package loggers of the rdp module.
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler silently discards all log records. Enabled returns false so
// callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var discard = slog.New(nopHandler{})

// Discard returns a logger that drops everything.
func Discard() *slog.Logger { return discard }

// Pointer is a logger slot that can be swapped while other goroutines
// log through it. The zero value discards.
type Pointer struct {
	p atomic.Pointer[slog.Logger]
}

// Load returns the current logger.
func (p *Pointer) Load() *slog.Logger {
	if l := p.p.Load(); l != nil {
		return l
	}
	return discard
}

// Store replaces the logger. nil restores the silent default.
func (p *Pointer) Store(l *slog.Logger) {
	if l == nil {
		l = discard
	}
	p.p.Store(l)
}

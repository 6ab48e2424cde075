// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package rdp

import (
	"log/slog"

	"github.com/gogpu/rdp/dispatch"
	"github.com/gogpu/rdp/internal/logging"
	"github.com/gogpu/rdp/internal/ring"
	"github.com/gogpu/rdp/memory"
	"github.com/gogpu/rdp/renderer"
	"github.com/gogpu/rdp/timeline"
)

var logger logging.Pointer

// SetLogger configures the logger for rdp and all its sub-packages.
// By default, rdp produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by rdp:
//   - [slog.LevelDebug]: per-command tracing, buffer allocation
//   - [slog.LevelInfo]: processor lifecycle
//   - [slog.LevelWarn]: malformed or unsupported encodings, truncated batches
//   - [slog.LevelError]: GPU submission and wait failures
//
// Example:
//
//	rdp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logger.Store(l)
	l = logger.Load()

	dispatch.SetLogger(l)
	timeline.SetLogger(l)
	ring.SetLogger(l)
	memory.SetLogger(l)
	renderer.SetLogger(l)
}

// Logger returns the current logger used by rdp.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return logger.Load()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package renderer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/gogpu/wgpu/hal"
)

// Config carries the GPU objects a renderer may bind to.
type Config struct {
	Device hal.Device
	Queue  hal.Queue

	// Lock, if set, is held around every call on Device and Queue.
	// Everything else using them, completion signals included, must
	// hold the same lock.
	Lock sync.Locker

	RDRAM       hal.Buffer
	HiddenRDRAM hal.Buffer
	TMEM        hal.Buffer
}

// Factory creates a renderer for the given configuration.
type Factory func(cfg Config) (Renderer, error)

var (
	registryMu sync.RWMutex
	factories  = make(map[string]Factory)
)

// Register makes a renderer available by name. It is meant to be called
// from init functions:
//
//	func init() {
//	    renderer.Register("recording", func(renderer.Config) (renderer.Renderer, error) {
//	        return recording.NewRecorder(), nil
//	    })
//	}
//
// Register panics if factory is nil or name is already taken.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("renderer: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("renderer: Register called twice for " + name)
	}
	factories[name] = factory
}

// Unregister removes a renderer. Unknown names are ignored.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(factories, name)
}

// New creates the renderer registered under name.
func New(name string, cfg Config) (Renderer, error) {
	registryMu.RLock()
	factory, ok := factories[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("renderer: unknown renderer %q (forgotten import?)", name)
	}
	return factory(cfg)
}

// Names returns the registered renderer names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a renderer with the given name exists.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := factories[name]
	return ok
}

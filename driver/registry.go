// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"sync"
)

// Driver names known to this module.
const (
	// DriverSDL is the FFI driver backed by the native shared library.
	DriverSDL = "sdl"

	// DriverStub is the in-memory fake used for testing.
	DriverStub = "stub"
)

// Factory creates a new driver instance.
type Factory func() API

// registry holds registered drivers.
var (
	registryMu sync.RWMutex
	drivers    = make(map[string]Factory)
	// Priority order for driver selection (first available wins). The stub
	// is never selected by default; tests and integrators ask for it by name.
	driverPriority = []string{DriverSDL}
)

// Register registers a driver factory with the given name.
// This is typically called from init() functions in driver files.
// If a driver with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	drivers[name] = factory
}

// Unregister removes a driver from the registry.
// This is useful for testing.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(drivers, name)
}

// Available returns a list of registered driver names.
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	return names
}

// IsRegistered checks if a driver with the given name is registered.
func IsRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := drivers[name]
	return ok
}

// Get returns a driver instance by name.
// Returns nil if the driver is not registered, or its factory declined
// (for example the FFI driver on a platform without the native library).
func Get(name string) API {
	registryMu.RLock()
	defer registryMu.RUnlock()

	factory, ok := drivers[name]
	if !ok {
		return nil
	}
	return factory()
}

// Default returns the best available driver based on priority.
// Returns nil if no driver is available.
func Default() API {
	registryMu.RLock()
	defer registryMu.RUnlock()

	for _, name := range driverPriority {
		if factory, ok := drivers[name]; ok {
			if d := factory(); d != nil {
				return d
			}
		}
	}
	return nil
}

// Load returns the default driver or ErrNotAvailable.
func Load() (API, error) {
	d := Default()
	if d == nil {
		return nil, ErrNotAvailable
	}
	return d, nil
}

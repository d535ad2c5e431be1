// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"errors"
	"slices"
	"testing"
)

func TestRegisterGetUnregister(t *testing.T) {
	const name = "registry-test"
	stub := NewStub()
	Register(name, func() API { return stub })
	defer Unregister(name)

	if !IsRegistered(name) {
		t.Fatalf("IsRegistered(%q) = false after Register", name)
	}
	if !slices.Contains(Available(), name) {
		t.Errorf("Available() = %v, missing %q", Available(), name)
	}
	if got := Get(name); got != stub {
		t.Errorf("Get(%q) = %v, want the registered instance", name, got)
	}

	Unregister(name)
	if IsRegistered(name) {
		t.Errorf("IsRegistered(%q) = true after Unregister", name)
	}
	if got := Get(name); got != nil {
		t.Errorf("Get(%q) after Unregister = %v, want nil", name, got)
	}
}

func TestGetUnknown(t *testing.T) {
	if got := Get("no-such-driver"); got != nil {
		t.Errorf("Get(unknown) = %v, want nil", got)
	}
}

func TestRegisterReplaces(t *testing.T) {
	const name = "registry-replace-test"
	first := NewStub()
	second := NewStub()
	Register(name, func() API { return first })
	defer Unregister(name)

	Register(name, func() API { return second })
	if got := Get(name); got != second {
		t.Errorf("Get(%q) = %v, want the replacement instance", name, got)
	}
}

// The stub is registered under its name but must never win default
// selection; only the native driver participates in the priority order.
func TestDefaultSkipsStub(t *testing.T) {
	if d := Default(); d != nil && d.Name() == DriverStub {
		t.Errorf("Default() selected the stub driver")
	}
}

func TestLoadErrNotAvailable(t *testing.T) {
	// Take the native driver out of the running so Load has nothing left.
	factory, registered := func() (Factory, bool) {
		registryMu.Lock()
		defer registryMu.Unlock()
		f, ok := drivers[DriverSDL]
		delete(drivers, DriverSDL)
		return f, ok
	}()
	defer func() {
		if registered {
			Register(DriverSDL, factory)
		}
	}()

	if _, err := Load(); !errors.Is(err, ErrNotAvailable) {
		t.Errorf("Load() with no drivers = %v, want ErrNotAvailable", err)
	}
}

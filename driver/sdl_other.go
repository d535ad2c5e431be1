// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !(linux || darwin)

package driver

// init registers a nil-returning factory on platforms without the FFI
// loader. This allows code to compile everywhere while Get(DriverSDL)
// returns nil gracefully.
func init() {
	Register(DriverSDL, func() API { return nil })
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package driver defines the native call surface that the sdl3 and gpu
// packages are built on, and the registry used to select an implementation.
//
// The API interface mirrors the documented C-ABI contract of the wrapped
// library one call per function: subsystem init/quit, opaque handle-returning
// GPU object creation, the command-buffer acquire/submit pair, swapchain
// texture acquisition (which may legitimately yield no texture), and fence
// query/wait. Implementations must not add semantics of their own; every
// ordering and lifetime rule lives in the packages above.
//
// Two implementations ship with the module:
//
//   - The FFI driver (linux/darwin) loads the native shared library at
//     runtime via purego. Registered under the name "sdl".
//   - Stub, an in-memory fake of the whole surface, used by the test suites
//     and available to integrators who want to test without the native
//     library installed.
package driver

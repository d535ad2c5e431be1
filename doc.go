// Package sdl3 provides a safe, lifetime-checked wrapper around the SDL3
// native library.
//
// # Overview
//
// sdl3 loads the native shared library at runtime (no cgo) and layers Go
// ownership semantics on top of it: subsystems are reference counted, GPU
// command encoding is a checked state machine, and misuse surfaces as errors
// instead of undefined behavior.
//
// # Quick Start
//
//	import "github.com/gogpu/sdl3"
//
//	ctx, err := sdl3.Init()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ctx.Release()
//
//	video, err := ctx.Video()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer video.Release()
//
//	win, err := video.CreateWindow("demo", 800, 600, 0)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer win.Destroy()
//
// GPU work lives in the gpu subpackage; it takes a *VideoSubsystem and keeps
// it alive for the lifetime of the device.
//
// # Lifetimes
//
// Every subsystem handle is a token on a shared reference count. The native
// subsystem initializes on the first token and shuts down on the last
// release. The root context must be released after all subsystem handles;
// releasing it early is reported as an error and nothing is torn down.
//
// # Threading
//
// The goroutine that calls Init is pinned to its OS thread and becomes the
// main thread. Init, Release, and event pumping must happen there. Tests can
// lift the restriction with WithAnyThread.
package sdl3

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sdl3

import (
	"fmt"
	"runtime"

	"github.com/gogpu/sdl3/driver"
)

// Context is the root handle on the native library. It owns the process-wide
// init/quit pair and hands out subsystem tokens. The context must outlive
// every subsystem handle acquired through it.
type Context struct {
	api     driver.API
	reg     *Registry
	root    *Token
	watches *EventWatchRegistry

	mainGID   int64
	anyThread bool
}

// Init loads a driver, initializes the native library, and pins the calling
// goroutine to its OS thread as the main thread. The returned context must
// be released on that same goroutine after all subsystem handles.
func Init(opts ...Option) (*Context, error) {
	var o initOptions
	for _, opt := range opts {
		opt(&o)
	}

	var api driver.API
	if o.driverName != "" {
		api = driver.Get(o.driverName)
		if api == nil {
			return nil, configErr("sdl3.Init", fmt.Errorf("%w: driver %q", ErrNoDriver, o.driverName))
		}
	} else {
		var err error
		api, err = driver.Load()
		if err != nil {
			return nil, configErr("sdl3.Init", fmt.Errorf("%w: %v", ErrNoDriver, err))
		}
	}

	if !o.anyThread {
		runtime.LockOSThread()
	}

	if err := api.Init(); err != nil {
		if !o.anyThread {
			runtime.UnlockOSThread()
		}
		return nil, nativeErr("sdl3.Init", err)
	}

	ctx := &Context{
		api:       api,
		reg:       newRegistry(api, o.sharedCounters),
		mainGID:   goroutineID(),
		anyThread: o.anyThread,
	}
	ctx.root = newToken(func() {
		api.Quit()
		Logger().Info("library shut down", "driver", api.Name())
	}, o.sharedCounters)
	ctx.watches = newEventWatchRegistry(api)

	Logger().Info("library initialized",
		"driver", api.Name(),
		"platform", api.Platform())
	return ctx, nil
}

// checkMainThread returns an error when called off the goroutine that ran
// Init, unless the context was built with WithAnyThread.
func (c *Context) checkMainThread(op string) error {
	if c.anyThread || goroutineID() == c.mainGID {
		return nil
	}
	return configErr(op, ErrNotMainThread)
}

// Driver returns the name of the loaded driver.
func (c *Context) Driver() string { return c.api.Name() }

// Platform returns the native platform name.
func (c *Context) Platform() string { return c.api.Platform() }

// Registry exposes the subsystem reference counts for diagnostics.
func (c *Context) Registry() *Registry { return c.reg }

// Video acquires the video subsystem, initializing it on first use.
// Must be called on the main thread.
func (c *Context) Video() (*VideoSubsystem, error) {
	h, err := c.acquireSubsystem("sdl3.Context.Video", driver.InitVideo)
	if err != nil {
		return nil, err
	}
	return &VideoSubsystem{subsystem: h}, nil
}

// Audio acquires the audio subsystem, initializing it on first use.
// Must be called on the main thread.
func (c *Context) Audio() (*AudioSubsystem, error) {
	h, err := c.acquireSubsystem("sdl3.Context.Audio", driver.InitAudio)
	if err != nil {
		return nil, err
	}
	return &AudioSubsystem{subsystem: h}, nil
}

// Events acquires the events subsystem, initializing it on first use.
// Must be called on the main thread.
func (c *Context) Events() (*EventsSubsystem, error) {
	h, err := c.acquireSubsystem("sdl3.Context.Events", driver.InitEvents)
	if err != nil {
		return nil, err
	}
	return &EventsSubsystem{subsystem: h}, nil
}

// Joystick acquires the joystick subsystem, initializing it on first use.
// Must be called on the main thread.
func (c *Context) Joystick() (*JoystickSubsystem, error) {
	h, err := c.acquireSubsystem("sdl3.Context.Joystick", driver.InitJoystick)
	if err != nil {
		return nil, err
	}
	return &JoystickSubsystem{subsystem: h}, nil
}

func (c *Context) acquireSubsystem(op string, flag driver.InitFlags) (subsystem, error) {
	if c.root.Released() {
		return subsystem{}, stateErr(op, ErrReleased)
	}
	if err := c.checkMainThread(op); err != nil {
		return subsystem{}, err
	}
	tok, err := c.reg.acquire(flag)
	if err != nil {
		return subsystem{}, err
	}
	return subsystem{ctx: c, flag: flag, tok: tok}, nil
}

// Release shuts the native library down. It fails, and tears nothing down,
// while subsystem handles are still outstanding: release those first.
// Must be called on the main thread.
func (c *Context) Release() error {
	const op = "sdl3.Context.Release"
	if err := c.checkMainThread(op); err != nil {
		return err
	}
	if c.reg.live() {
		Logger().Warn("context released before its subsystems", "counts", c.reg.Counts())
		return configErr(op, ErrSubsystemsLive)
	}
	c.watches.removeAll()
	return c.root.Release()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sdl3

import (
	"sync/atomic"

	"github.com/gogpu/sdl3/driver"
)

// Event is the minimal event view delivered to polls and watches.
type Event = driver.Event

// subsystem is the common core of every subsystem handle: a token on the
// registry's per-subsystem count plus the context it came from.
type subsystem struct {
	ctx  *Context
	flag driver.InitFlags
	tok  *Token
}

// clone acquires a sibling token. Safe from any goroutine.
func (s subsystem) clone() (subsystem, error) {
	tok, err := s.tok.Acquire()
	if err != nil {
		return subsystem{}, err
	}
	return subsystem{ctx: s.ctx, flag: s.flag, tok: tok}, nil
}

// Release drops this handle's reference. The native subsystem shuts down
// when the last handle is released. Safe from any goroutine.
func (s subsystem) Release() error { return s.tok.Release() }

// Count returns the live handle count for this subsystem.
func (s subsystem) Count() int64 { return s.tok.Count() }

func (s subsystem) alive(op string) error {
	if s.tok.Released() {
		return stateErr(op, ErrReleased)
	}
	return nil
}

// VideoSubsystem is a handle on the native video subsystem. It creates
// windows and anchors GPU devices.
type VideoSubsystem struct {
	subsystem
}

// Clone returns an additional handle on the video subsystem.
func (v *VideoSubsystem) Clone() (*VideoSubsystem, error) {
	h, err := v.clone()
	if err != nil {
		return nil, err
	}
	return &VideoSubsystem{subsystem: h}, nil
}

// Driver exposes the native call surface to the gpu package. Not intended
// for application use.
func (v *VideoSubsystem) Driver() driver.API { return v.ctx.api }

// CreateWindow creates a native window. The window holds its own reference
// on the video subsystem until Destroy. Must be called on the main thread.
func (v *VideoSubsystem) CreateWindow(title string, w, h int32, flags uint64) (*Window, error) {
	const op = "sdl3.VideoSubsystem.CreateWindow"
	if err := v.alive(op); err != nil {
		return nil, err
	}
	if err := v.ctx.checkMainThread(op); err != nil {
		return nil, err
	}
	tok, err := v.tok.Acquire()
	if err != nil {
		return nil, err
	}
	handle, err := v.ctx.api.CreateWindow(title, w, h, flags)
	if err != nil {
		tok.Release() //nolint:errcheck // fresh token, cannot be doubly released
		return nil, nativeErr(op, err)
	}
	Logger().Debug("window created", "title", title, "w", w, "h", h)
	return &Window{api: v.ctx.api, handle: handle, tok: tok}, nil
}

// Window is a native window handle.
type Window struct {
	api       driver.API
	handle    driver.Handle
	tok       *Token
	destroyed atomic.Bool
}

// Handle returns the native handle for the gpu package. Nil after Destroy.
func (w *Window) Handle() driver.Handle {
	if w.destroyed.Load() {
		return driver.NilHandle
	}
	return w.handle
}

// Destroy destroys the native window and drops its subsystem reference.
// Idempotent.
func (w *Window) Destroy() error {
	if w.destroyed.Swap(true) {
		return nil
	}
	w.api.DestroyWindow(w.handle)
	return w.tok.Release()
}

// AudioSubsystem is a handle on the native audio subsystem.
type AudioSubsystem struct {
	subsystem
}

// Clone returns an additional handle on the audio subsystem.
func (a *AudioSubsystem) Clone() (*AudioSubsystem, error) {
	h, err := a.clone()
	if err != nil {
		return nil, err
	}
	return &AudioSubsystem{subsystem: h}, nil
}

// JoystickSubsystem is a handle on the native joystick subsystem.
type JoystickSubsystem struct {
	subsystem
}

// Clone returns an additional handle on the joystick subsystem.
func (j *JoystickSubsystem) Clone() (*JoystickSubsystem, error) {
	h, err := j.clone()
	if err != nil {
		return nil, err
	}
	return &JoystickSubsystem{subsystem: h}, nil
}

// EventsSubsystem is a handle on the native event queue.
type EventsSubsystem struct {
	subsystem
}

// Clone returns an additional handle on the events subsystem.
func (e *EventsSubsystem) Clone() (*EventsSubsystem, error) {
	h, err := e.clone()
	if err != nil {
		return nil, err
	}
	return &EventsSubsystem{subsystem: h}, nil
}

// Pump drains the native event sources into the queue, invoking event
// watches along the way. Must be called on the main thread.
func (e *EventsSubsystem) Pump() error {
	const op = "sdl3.EventsSubsystem.Pump"
	if err := e.alive(op); err != nil {
		return err
	}
	if err := e.ctx.checkMainThread(op); err != nil {
		return err
	}
	e.ctx.api.PumpEvents()
	return nil
}

// Poll removes and returns the next queued event. The second result is
// false when the queue is empty.
func (e *EventsSubsystem) Poll() (Event, bool) {
	if e.tok.Released() {
		return Event{}, false
	}
	return e.ctx.api.PollEvent()
}

// AddWatch registers an event watcher. See EventWatchRegistry.
func (e *EventsSubsystem) AddWatch(w EventWatcher) (*EventWatch, error) {
	const op = "sdl3.EventsSubsystem.AddWatch"
	if err := e.alive(op); err != nil {
		return nil, err
	}
	return e.ctx.watches.add(op, w)
}

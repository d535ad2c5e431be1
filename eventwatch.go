// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sdl3

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/sdl3/driver"
)

// EventWatcher receives events as the native layer reports them, before
// they reach the poll queue.
//
// Watches are invoked from whatever thread the native event pump runs on,
// and may be dropped from any thread once removed. The ConcurrentSafe
// marker makes implementers acknowledge that contract explicitly; a type
// that cannot honor it must not be registered.
type EventWatcher interface {
	HandleEvent(Event)

	// ConcurrentSafe is a no-op marker. Implementing it declares that
	// HandleEvent is safe to call, and the watcher safe to discard, from
	// any thread.
	ConcurrentSafe()
}

// WatchFunc adapts a function to the EventWatcher interface. The function
// must be safe to call from any thread.
type WatchFunc func(Event)

// HandleEvent calls f.
func (f WatchFunc) HandleEvent(e Event) { f(e) }

// ConcurrentSafe marks the adapter as thread-safe; the burden is on the
// wrapped function.
func (f WatchFunc) ConcurrentSafe() {}

// EventWatchRegistry fans native event-watch callbacks out to registered
// watchers. One native trampoline serves all of them.
type EventWatchRegistry struct {
	api driver.API

	mu        sync.Mutex
	watches   map[uint64]EventWatcher
	nextID    uint64
	installed bool
}

func newEventWatchRegistry(api driver.API) *EventWatchRegistry {
	return &EventWatchRegistry{
		api:     api,
		watches: make(map[uint64]EventWatcher),
	}
}

// add registers w and installs the native trampoline on first use.
func (r *EventWatchRegistry) add(op string, w EventWatcher) (*EventWatch, error) {
	if w == nil {
		return nil, configErr(op, ErrNilWatcher)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.installed {
		if err := r.api.SetEventWatch(r.dispatch); err != nil {
			return nil, nativeErr(op, err)
		}
		r.installed = true
	}
	r.nextID++
	id := r.nextID
	r.watches[id] = w
	return &EventWatch{reg: r, id: id}, nil
}

// dispatch runs on the native pump thread. The lock covers only the
// snapshot; watcher invocation happens outside it so a watcher may remove
// itself (or others) without deadlocking.
func (r *EventWatchRegistry) dispatch(e Event) {
	r.mu.Lock()
	snapshot := make([]EventWatcher, 0, len(r.watches))
	for _, w := range r.watches {
		snapshot = append(snapshot, w)
	}
	r.mu.Unlock()

	for _, w := range snapshot {
		w.HandleEvent(e)
	}
}

func (r *EventWatchRegistry) remove(id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.watches, id)
	if len(r.watches) == 0 && r.installed {
		// Best effort: a failure to uninstall leaves a trampoline that
		// dispatches to nobody.
		if err := r.api.SetEventWatch(nil); err == nil {
			r.installed = false
		}
	}
}

// removeAll drops every watch. Called on context release.
func (r *EventWatchRegistry) removeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.watches)
	if r.installed {
		if err := r.api.SetEventWatch(nil); err == nil {
			r.installed = false
		}
	}
}

// Len returns the number of registered watches.
func (r *EventWatchRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.watches)
}

// EventWatch is a registration handle. Remove is idempotent and safe from
// any goroutine.
type EventWatch struct {
	reg     *EventWatchRegistry
	id      uint64
	removed atomic.Bool
}

// Remove unregisters the watcher. A dispatch already in flight may still
// invoke it once; no new dispatch will.
func (w *EventWatch) Remove() {
	if w.removed.Swap(true) {
		return
	}
	w.reg.remove(w.id)
}

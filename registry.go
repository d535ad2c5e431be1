// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sdl3

import (
	"fmt"
	"sync"

	"github.com/gogpu/sdl3/driver"
)

// Registry tracks per-subsystem reference counts for one native library
// instance. The native subsystem is initialized on the first acquisition
// and shut down on the last release; the counts in between are purely
// process-side bookkeeping.
//
// Registry is safe for concurrent use.
type Registry struct {
	api    driver.API
	shared bool // counter layout for new token chains

	mu   sync.Mutex
	subs map[driver.InitFlags]*Token
}

// newRegistry creates a registry over api. shared selects the counter
// layout used for every token chain it creates.
func newRegistry(api driver.API, shared bool) *Registry {
	return &Registry{
		api:    api,
		shared: shared,
		subs:   make(map[driver.InitFlags]*Token),
	}
}

// acquire returns a token for the subsystem, initializing the native
// subsystem on the 0->1 transition.
func (r *Registry) acquire(sub driver.InitFlags) (*Token, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tok, ok := r.subs[sub]; ok {
		clone, err := tok.acquireChain()
		if err == nil {
			return clone, nil
		}
		// The chain is dead; sweep it and start a fresh one.
		delete(r.subs, sub)
	}

	if err := r.api.InitSubSystem(sub); err != nil {
		return nil, nativeErr("sdl3.Registry", fmt.Errorf("init subsystem %#x: %w", uint32(sub), err))
	}
	Logger().Info("subsystem initialized", "flags", uint32(sub))

	// Dead chains are swept lazily by the next acquire; the teardown
	// itself must not touch the registry lock.
	tok := newToken(func() {
		r.api.QuitSubSystem(sub)
		Logger().Info("subsystem shut down", "flags", uint32(sub))
	}, r.shared)
	r.subs[sub] = tok
	return tok, nil
}

// Count returns the live reference count for one subsystem.
func (r *Registry) Count(sub driver.InitFlags) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	tok, ok := r.subs[sub]
	if !ok {
		return 0
	}
	return tok.Count()
}

// Counts returns a snapshot of all nonzero subsystem counts.
func (r *Registry) Counts() map[driver.InitFlags]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[driver.InitFlags]int64, len(r.subs))
	for sub, tok := range r.subs {
		if n := tok.Count(); n > 0 {
			out[sub] = n
		}
	}
	return out
}

// live reports whether any subsystem still has outstanding tokens.
func (r *Registry) live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, tok := range r.subs {
		if tok.Count() > 0 {
			return true
		}
	}
	return false
}

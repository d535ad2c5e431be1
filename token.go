// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package sdl3

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// SharedCount is a reference count with a fixed memory layout: the 64-bit
// counter is the first word of the struct. Any independently compiled unit
// that holds the address of a SharedCount manipulates the same count, which
// is what makes tokens valid across plugin boundaries.
//
// The zero value is a count of zero.
type SharedCount struct {
	n atomic.Int64
}

// Add adds delta and returns the new count.
func (s *SharedCount) Add(delta int64) int64 { return s.n.Add(delta) }

// Load returns the current count.
func (s *SharedCount) Load() int64 { return s.n.Load() }

// tokenState is the shared core of one token chain. Every Token cloned from
// the same origin points at the same tokenState, so pinning the chain to the
// shared layout is visible to all of them.
type tokenState struct {
	mu       sync.Mutex
	cell     *SharedCount
	shared   bool
	teardown func()
	dead     bool
}

// Token is a handle on a reference-counted native facility. Acquiring
// returns a sibling token on the same count; releasing the last token runs
// the teardown exactly once.
//
// A Token is not itself safe for concurrent use, but distinct tokens on the
// same count may be acquired and released from any goroutines.
type Token struct {
	st       *tokenState
	released atomic.Bool
}

// newToken creates the first token of a chain with count 1. teardown runs
// on the final release; it may be nil.
func newToken(teardown func(), shared bool) *Token {
	st := &tokenState{
		cell:     new(SharedCount),
		shared:   shared,
		teardown: teardown,
	}
	st.cell.Add(1)
	return &Token{st: st}
}

// Acquire increments the count and returns a new token on it.
func (t *Token) Acquire() (*Token, error) {
	if t.released.Load() {
		return nil, stateErr("sdl3.Token.Acquire", ErrReleased)
	}
	return t.acquireChain()
}

// acquireChain clones from the underlying chain regardless of this token's
// own released flag. The registry holds the chain's first token as its map
// anchor and must keep cloning after that handle is released, as long as
// sibling tokens keep the chain alive.
func (t *Token) acquireChain() (*Token, error) {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	if t.st.dead {
		return nil, stateErr("sdl3.Token.Acquire", ErrReleased)
	}
	t.st.cell.Add(1)
	return &Token{st: t.st}, nil
}

// Release decrements the count. The 1->0 transition runs the teardown.
// Releasing a token twice, or driving the count negative, is a state error
// and leaves the count untouched.
func (t *Token) Release() error {
	if t.released.Swap(true) {
		return stateErr("sdl3.Token.Release", ErrReleased)
	}
	t.st.mu.Lock()
	if t.st.dead || t.st.cell.Load() <= 0 {
		t.st.mu.Unlock()
		return stateErr("sdl3.Token.Release", fmt.Errorf("%w: count underflow", ErrReleased))
	}
	last := t.st.cell.Add(-1) == 0
	if last {
		t.st.dead = true
	}
	teardown := t.st.teardown
	t.st.mu.Unlock()

	// Teardown runs outside the chain lock so it may call back into
	// structures that create new chains.
	if last && teardown != nil {
		teardown()
	}
	return nil
}

// Count returns the current reference count of the chain.
func (t *Token) Count() int64 { return t.st.cell.Load() }

// Released reports whether this particular token has been released.
func (t *Token) Released() bool { return t.released.Load() }

// Shared reports whether the chain uses the shared counter layout.
func (t *Token) Shared() bool {
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	return t.st.shared
}

// Pin converts the whole token chain to the shared counter layout and
// returns the counter cell. The address is stable for the remaining life of
// the chain and may be handed across a plugin boundary. Pinning an already
// shared chain returns the existing cell.
func (t *Token) Pin() (*SharedCount, error) {
	if t.released.Load() {
		return nil, stateErr("sdl3.Token.Pin", ErrReleased)
	}
	t.st.mu.Lock()
	defer t.st.mu.Unlock()
	if t.st.dead {
		return nil, stateErr("sdl3.Token.Pin", ErrReleased)
	}
	if t.st.shared {
		return t.st.cell, nil
	}
	// Move the count into a fresh heap cell. The old cell was only ever
	// reachable through this state, so swapping under the lock is enough.
	pinned := new(SharedCount)
	pinned.Add(t.st.cell.Load())
	t.st.cell = pinned
	t.st.shared = true
	return pinned, nil
}

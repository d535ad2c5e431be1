// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"sync"

	"github.com/gogpu/sdl3"
	"github.com/gogpu/sdl3/driver"
)

// submissionTracker maps in-flight fences to the native handles their
// command buffers referenced. Resource destruction consults it: releasing a
// resource that an incomplete submission still references blocks until the
// fence completes. Nothing is freed early and nothing leaks.
type submissionTracker struct {
	dev *Device

	mu       sync.Mutex
	inFlight map[*Fence]map[driver.Handle]struct{}
}

func newSubmissionTracker(d *Device) *submissionTracker {
	return &submissionTracker{
		dev:      d,
		inFlight: make(map[*Fence]map[driver.Handle]struct{}),
	}
}

// register records a submission and returns its fence.
func (t *submissionTracker) register(cb *CommandBuffer, fh driver.Handle, refs map[driver.Handle]struct{}) *Fence {
	f := &Fence{dev: t.dev, cb: cb, h: fh}
	snapshot := make(map[driver.Handle]struct{}, len(refs))
	for h := range refs {
		snapshot[h] = struct{}{}
	}
	t.mu.Lock()
	t.inFlight[f] = snapshot
	t.mu.Unlock()
	return f
}

// complete removes a submission. Called when its fence signals or is
// released.
func (t *submissionTracker) complete(f *Fence) {
	t.mu.Lock()
	delete(t.inFlight, f)
	t.mu.Unlock()
}

// completeAll marks every in-flight submission done. Called after a native
// wait-for-idle, which guarantees the GPU finished them.
func (t *submissionTracker) completeAll() {
	t.mu.Lock()
	fences := make([]*Fence, 0, len(t.inFlight))
	for f := range t.inFlight {
		fences = append(fences, f)
	}
	clear(t.inFlight)
	t.mu.Unlock()

	for _, f := range fences {
		if !f.done.Swap(true) {
			f.cb.markCompleted()
		}
	}
}

// awaitHandle blocks until no in-flight submission references h.
func (t *submissionTracker) awaitHandle(h driver.Handle) {
	for {
		t.mu.Lock()
		var pending *Fence
		for f, refs := range t.inFlight {
			if _, ok := refs[h]; ok {
				pending = f
				break
			}
		}
		t.mu.Unlock()
		if pending == nil {
			return
		}
		sdl3.Logger().Debug("release blocked on in-flight submission", "handle", uint64(h))

		// The blocking wait marks the fence done, which removes it from
		// the map; the loop then rechecks for other submissions.
		if err := t.dev.api.WaitForFences(t.dev.h, true, []driver.Handle{pending.h}); err != nil {
			// The fence may have been released concurrently; drop the
			// stale entry rather than spin.
			t.complete(pending)
			continue
		}
		pending.markDone()
	}
}

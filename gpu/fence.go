// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"sync/atomic"
	"time"

	"github.com/gogpu/sdl3/driver"
)

// FenceStatus is the outcome of a fence wait.
type FenceStatus int

const (
	// FenceIncomplete means the submission has not finished yet. A timed
	// out wait reports Incomplete; it never fabricates completion.
	FenceIncomplete FenceStatus = iota

	// FenceCompleted means the GPU finished the submission.
	FenceCompleted
)

func (s FenceStatus) String() string {
	if s == FenceCompleted {
		return "completed"
	}
	return "incomplete"
}

// Fence tracks one submission. Once it completes, Poll and Wait report
// completion forever. Release frees the native fence and unblocks resources
// the submission referenced.
//
// Fence is safe for concurrent use.
type Fence struct {
	dev *Device
	cb  *CommandBuffer
	h   driver.Handle

	done     atomic.Bool
	released atomic.Bool
}

// markDone records completion exactly once and unblocks dependents.
func (f *Fence) markDone() {
	if f.done.Swap(true) {
		return
	}
	f.cb.markCompleted()
	f.dev.tracker.complete(f)
}

// Poll reports whether the submission has completed, without blocking.
func (f *Fence) Poll() (bool, error) {
	const op = "gpu.Fence.Poll"
	if f.released.Load() {
		return false, stateErr(op, ErrReleased)
	}
	if f.done.Load() {
		return true, nil
	}
	if f.dev.api.QueryFence(f.dev.h, f.h) {
		f.markDone()
		return true, nil
	}
	return false, nil
}

// pollInterval bounds for the timed wait loop.
const (
	fencePollMin = 50 * time.Microsecond
	fencePollMax = 2 * time.Millisecond
)

// Wait blocks until the submission completes or the timeout elapses.
// A negative timeout waits indefinitely; a zero timeout queries once
// without blocking. When the deadline passes first the status is
// FenceIncomplete with a nil error: poll or wait again.
func (f *Fence) Wait(timeout time.Duration) (FenceStatus, error) {
	const op = "gpu.Fence.Wait"
	if f.released.Load() {
		return FenceIncomplete, stateErr(op, ErrReleased)
	}
	if f.done.Load() {
		return FenceCompleted, nil
	}

	if timeout < 0 {
		if err := f.dev.api.WaitForFences(f.dev.h, true, []driver.Handle{f.h}); err != nil {
			return FenceIncomplete, nativeErr(op, err)
		}
		f.markDone()
		return FenceCompleted, nil
	}
	if timeout == 0 {
		if f.dev.api.QueryFence(f.dev.h, f.h) {
			f.markDone()
			return FenceCompleted, nil
		}
		return FenceIncomplete, nil
	}

	// The native wait has no timeout form, so a bounded wait polls the
	// query with exponential backoff until the deadline.
	deadline := time.Now().Add(timeout)
	interval := fencePollMin
	for {
		if f.dev.api.QueryFence(f.dev.h, f.h) {
			f.markDone()
			return FenceCompleted, nil
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return FenceIncomplete, nil
		}
		if interval > remaining {
			interval = remaining
		}
		time.Sleep(interval)
		if interval < fencePollMax {
			interval *= 2
		}
	}
}

// Release frees the native fence and unregisters the submission from the
// tracker, lifting any destruction blocks it held. Double release is an
// error.
func (f *Fence) Release() error {
	const op = "gpu.Fence.Release"
	if f.released.Swap(true) {
		return stateErr(op, ErrReleased)
	}
	f.dev.tracker.complete(f)
	// Device teardown already freed the native fence.
	if err := f.dev.alive(op); err != nil {
		return err
	}
	f.dev.api.ReleaseFence(f.dev.h, f.h)
	return nil
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"sync"

	"github.com/gogpu/sdl3"
	"github.com/gogpu/sdl3/driver"
)

// State is the lifecycle state of a command buffer.
type State int

const (
	// StateRecording accepts pass begins, swapchain acquisition, uniform
	// pushes, and submission.
	StateRecording State = iota + 1

	// StateRenderPass, StateComputePass, and StateCopyPass mean the
	// corresponding pass is open; only its operations are valid.
	StateRenderPass
	StateComputePass
	StateCopyPass

	// StateSubmitted means the buffer was handed to the GPU and accepts
	// nothing further.
	StateSubmitted

	// StateCompleted and StateFailed are terminal submission outcomes.
	StateCompleted
	StateFailed

	// StateCanceled means the buffer was discarded without submission.
	StateCanceled
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateRenderPass:
		return "render-pass"
	case StateComputePass:
		return "compute-pass"
	case StateCopyPass:
		return "copy-pass"
	case StateSubmitted:
		return "submitted"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCanceled:
		return "canceled"
	default:
		return "invalid"
	}
}

// CommandBuffer records GPU work. It moves through a strict lifecycle:
// recording, optionally in and out of passes (one at a time), then exactly
// one of Submit, SubmitNoFence, or Cancel. Consumed buffers reject every
// operation.
//
// A CommandBuffer must not be used from multiple goroutines concurrently,
// but independent buffers of the same device may be recorded in parallel.
type CommandBuffer struct {
	dev *Device
	h   driver.Handle

	mu    sync.Mutex
	state State
	refs  map[driver.Handle]struct{}
}

// AcquireCommandBuffer starts recording a new command buffer.
func (d *Device) AcquireCommandBuffer() (*CommandBuffer, error) {
	const op = "gpu.Device.AcquireCommandBuffer"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	h, err := d.api.AcquireCommandBuffer(d.h)
	if err != nil {
		return nil, nativeErr(op, err)
	}
	return &CommandBuffer{
		dev:   d,
		h:     h,
		state: StateRecording,
		refs:  make(map[driver.Handle]struct{}),
	}, nil
}

// State returns the current lifecycle state.
func (cb *CommandBuffer) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// checkRecordingLocked verifies the buffer is in StateRecording.
func (cb *CommandBuffer) checkRecordingLocked(op string) error {
	switch cb.state {
	case StateRecording:
		return nil
	case StateRenderPass, StateComputePass, StateCopyPass:
		return stateErr(op, ErrPassActive)
	default:
		return stateErr(op, ErrConsumed)
	}
}

// checkLiveLocked verifies the buffer has not been consumed. Pass states
// are accepted; uniform pushes are legal inside passes.
func (cb *CommandBuffer) checkLiveLocked(op string) error {
	switch cb.state {
	case StateRecording, StateRenderPass, StateComputePass, StateCopyPass:
		return nil
	default:
		return stateErr(op, ErrConsumed)
	}
}

// track remembers resources referenced by this buffer so the tracker can
// block their destruction while the submission is in flight.
func (cb *CommandBuffer) track(rs ...resource) {
	for _, r := range rs {
		if r != nil {
			cb.refs[r.nativeHandle()] = struct{}{}
		}
	}
}

// validate checks a resource against this buffer's device.
func (cb *CommandBuffer) validate(op string, r resource) error {
	return cb.dev.validate(op, r)
}

// AcquireSwapchainTexture asks the swapchain attached to the window for a
// texture to render into. A false second result with a nil error means the
// swapchain declined (for example, a minimized window); render nothing this
// frame. The texture is borrowed and is valid only until this buffer is
// submitted or canceled.
func (cb *CommandBuffer) AcquireSwapchainTexture(w *sdl3.Window) (*Texture, bool, error) {
	return cb.acquireSwapchain("gpu.CommandBuffer.AcquireSwapchainTexture", w, false)
}

// WaitAndAcquireSwapchainTexture is AcquireSwapchainTexture, but blocks
// until the swapchain has a texture instead of declining.
func (cb *CommandBuffer) WaitAndAcquireSwapchainTexture(w *sdl3.Window) (*Texture, bool, error) {
	return cb.acquireSwapchain("gpu.CommandBuffer.WaitAndAcquireSwapchainTexture", w, true)
}

func (cb *CommandBuffer) acquireSwapchain(op string, w *sdl3.Window, wait bool) (*Texture, bool, error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkRecordingLocked(op); err != nil {
		return nil, false, err
	}
	wh := w.Handle()
	if wh == driver.NilHandle {
		return nil, false, stateErr(op, ErrReleased)
	}

	var (
		th   driver.Handle
		ww   uint32
		whgt uint32
		err  error
	)
	if wait {
		th, ww, whgt, err = cb.dev.api.WaitAndAcquireSwapchainTexture(cb.h, wh)
	} else {
		th, ww, whgt, err = cb.dev.api.AcquireSwapchainTexture(cb.h, wh)
	}
	if err != nil {
		return nil, false, nativeErr(op, err)
	}
	if th == driver.NilHandle {
		// Not an error: the swapchain has nothing to hand out right now.
		return nil, false, nil
	}

	tex := &Texture{
		resourceState: resourceState{dev: cb.dev, h: th},
		format:        TextureFormat(cb.dev.api.SwapchainTextureFormat(cb.dev.h, wh)),
		swapchain:     true,
	}
	tex.size.Width = ww
	tex.size.Height = whgt
	tex.size.DepthOrArrayLayers = 1
	return tex, true, nil
}

// PushVertexUniformData writes uniform data for the vertex stage into the
// given slot. Valid any time before the buffer is consumed.
func (cb *CommandBuffer) PushVertexUniformData(slot uint32, data []byte) error {
	const op = "gpu.CommandBuffer.PushVertexUniformData"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkLiveLocked(op); err != nil {
		return err
	}
	cb.dev.api.PushVertexUniformData(cb.h, slot, data)
	return nil
}

// PushFragmentUniformData writes uniform data for the fragment stage.
func (cb *CommandBuffer) PushFragmentUniformData(slot uint32, data []byte) error {
	const op = "gpu.CommandBuffer.PushFragmentUniformData"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkLiveLocked(op); err != nil {
		return err
	}
	cb.dev.api.PushFragmentUniformData(cb.h, slot, data)
	return nil
}

// PushComputeUniformData writes uniform data for the compute stage.
func (cb *CommandBuffer) PushComputeUniformData(slot uint32, data []byte) error {
	const op = "gpu.CommandBuffer.PushComputeUniformData"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkLiveLocked(op); err != nil {
		return err
	}
	cb.dev.api.PushComputeUniformData(cb.h, slot, data)
	return nil
}

// Submit hands the recorded work to the GPU and returns a fence that
// signals when it completes. The buffer is consumed either way.
func (cb *CommandBuffer) Submit() (*Fence, error) {
	const op = "gpu.CommandBuffer.Submit"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkRecordingLocked(op); err != nil {
		return nil, err
	}

	fh, err := cb.dev.api.SubmitAndAcquireFence(cb.h)
	if err != nil {
		cb.state = StateFailed
		return nil, nativeErr(op, err)
	}
	cb.state = StateSubmitted
	fence := cb.dev.tracker.register(cb, fh, cb.refs)
	sdl3.Logger().Debug("command buffer submitted", "refs", len(cb.refs))
	return fence, nil
}

// SubmitNoFence hands the recorded work to the GPU without a completion
// fence. The buffer is consumed either way. Completion is observable only
// through Device.WaitIdle.
func (cb *CommandBuffer) SubmitNoFence() error {
	const op = "gpu.CommandBuffer.SubmitNoFence"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkRecordingLocked(op); err != nil {
		return err
	}
	if err := cb.dev.api.SubmitCommandBuffer(cb.h); err != nil {
		cb.state = StateFailed
		return nativeErr(op, err)
	}
	cb.state = StateSubmitted
	return nil
}

// Cancel discards the recorded work without submitting it. Any swapchain
// texture acquired through this buffer is returned to the swapchain.
func (cb *CommandBuffer) Cancel() error {
	const op = "gpu.CommandBuffer.Cancel"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkRecordingLocked(op); err != nil {
		return err
	}
	if err := cb.dev.api.CancelCommandBuffer(cb.h); err != nil {
		cb.state = StateFailed
		return nativeErr(op, err)
	}
	cb.state = StateCanceled
	return nil
}

// markCompleted is called by the tracker when the submission's fence
// signals.
func (cb *CommandBuffer) markCompleted() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == StateSubmitted {
		cb.state = StateCompleted
	}
}

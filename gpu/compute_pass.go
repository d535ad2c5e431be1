// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/sdl3/driver"
)

// StorageTextureBinding binds a texture subresource for read-write storage
// access at compute pass begin.
type StorageTextureBinding struct {
	Texture  *Texture
	MipLevel uint32
	Layer    uint32
	Cycle    bool
}

// StorageBufferBinding binds a buffer for read-write storage access at
// compute pass begin.
type StorageBufferBinding struct {
	Buffer *Buffer
	Cycle  bool
}

// ComputePass encodes dispatch work. Obtained from
// CommandBuffer.BeginComputePass; every operation after End fails with a
// state error.
type ComputePass struct {
	cb    *CommandBuffer
	h     driver.Handle
	ended bool
}

// BeginComputePass opens a compute pass. Read-write storage bindings are
// fixed at begin, matching the native contract; read-only bindings are
// bound inside the pass.
func (cb *CommandBuffer) BeginComputePass(textures []StorageTextureBinding, buffers []StorageBufferBinding) (*ComputePass, error) {
	const op = "gpu.CommandBuffer.BeginComputePass"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkRecordingLocked(op); err != nil {
		return nil, err
	}

	ts := make([]driver.StorageTextureRWBinding, len(textures))
	for i, t := range textures {
		if err := cb.validate(op, t.Texture); err != nil {
			return nil, err
		}
		cb.track(t.Texture)
		ts[i] = driver.StorageTextureRWBinding{
			Texture:  t.Texture.h,
			MipLevel: t.MipLevel,
			Layer:    t.Layer,
			Cycle:    t.Cycle,
		}
	}
	bs := make([]driver.StorageBufferRWBinding, len(buffers))
	for i, b := range buffers {
		if err := cb.validate(op, b.Buffer); err != nil {
			return nil, err
		}
		cb.track(b.Buffer)
		bs[i] = driver.StorageBufferRWBinding{Buffer: b.Buffer.h, Cycle: b.Cycle}
	}

	h, err := cb.dev.api.BeginComputePass(cb.h, ts, bs)
	if err != nil {
		return nil, nativeErr(op, err)
	}
	cb.state = StateComputePass
	return &ComputePass{cb: cb, h: h}, nil
}

func (p *ComputePass) check(op string) error {
	if p.ended {
		return stateErr(op, ErrPassEnded)
	}
	return nil
}

// BindPipeline binds a compute pipeline for subsequent dispatches.
func (p *ComputePass) BindPipeline(pipe *ComputePipeline) error {
	const op = "gpu.ComputePass.BindPipeline"
	if err := p.check(op); err != nil {
		return err
	}
	if err := p.cb.validate(op, pipe); err != nil {
		return err
	}
	p.cb.mu.Lock()
	p.cb.track(pipe)
	p.cb.mu.Unlock()
	p.cb.dev.api.BindComputePipeline(p.h, pipe.h)
	return nil
}

// BindStorageBuffers binds read-only storage buffers starting at firstSlot.
func (p *ComputePass) BindStorageBuffers(firstSlot uint32, buffers ...*Buffer) error {
	const op = "gpu.ComputePass.BindStorageBuffers"
	if err := p.check(op); err != nil {
		return err
	}
	handles := make([]driver.Handle, len(buffers))
	p.cb.mu.Lock()
	for i, b := range buffers {
		if err := p.cb.validate(op, b); err != nil {
			p.cb.mu.Unlock()
			return err
		}
		p.cb.track(b)
		handles[i] = b.h
	}
	p.cb.mu.Unlock()
	p.cb.dev.api.BindComputeStorageBuffers(p.h, firstSlot, handles)
	return nil
}

// Dispatch launches workgroups.
func (p *ComputePass) Dispatch(groupsX, groupsY, groupsZ uint32) error {
	const op = "gpu.ComputePass.Dispatch"
	if err := p.check(op); err != nil {
		return err
	}
	p.cb.dev.api.DispatchCompute(p.h, groupsX, groupsY, groupsZ)
	return nil
}

// End closes the pass and returns the command buffer to recording.
// Idempotent.
func (p *ComputePass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.cb.dev.api.EndComputePass(p.h)
	p.cb.mu.Lock()
	if p.cb.state == StateComputePass {
		p.cb.state = StateRecording
	}
	p.cb.mu.Unlock()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/sdl3/driver"
)

// ColorTargetInfo describes one color attachment of a render pass.
type ColorTargetInfo struct {
	Texture  *Texture
	MipLevel uint32
	Layer    uint32

	LoadOp  gputypes.LoadOp
	StoreOp gputypes.StoreOp
	Clear   gputypes.Color

	// Cycle requests a fresh backing allocation when the texture contents
	// are still in use by the GPU and the load op discards them anyway.
	Cycle bool
}

// DepthStencilTargetInfo describes the depth/stencil attachment of a
// render pass.
type DepthStencilTargetInfo struct {
	Texture    *Texture
	ClearDepth float32

	LoadOp         gputypes.LoadOp
	StoreOp        gputypes.StoreOp
	StencilLoadOp  gputypes.LoadOp
	StencilStoreOp gputypes.StoreOp
	ClearStencil   uint8
	Cycle          bool
}

// RenderPass encodes draw work. Obtained from CommandBuffer.BeginRenderPass;
// every operation after End fails with a state error.
type RenderPass struct {
	cb    *CommandBuffer
	h     driver.Handle
	ended bool
}

// BeginRenderPass opens a render pass over the given attachments. The
// command buffer moves out of the recording state; no other pass may be
// open, and only render pass operations are valid until End.
func (cb *CommandBuffer) BeginRenderPass(colors []ColorTargetInfo, depthStencil *DepthStencilTargetInfo) (*RenderPass, error) {
	const op = "gpu.CommandBuffer.BeginRenderPass"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkRecordingLocked(op); err != nil {
		return nil, err
	}

	cts := make([]driver.ColorTargetInfo, len(colors))
	for i, c := range colors {
		if err := cb.validate(op, c.Texture); err != nil {
			return nil, err
		}
		cb.track(c.Texture)
		cts[i] = driver.ColorTargetInfo{
			Texture:           c.Texture.h,
			MipLevel:          c.MipLevel,
			LayerOrDepthPlane: c.Layer,
			ClearColor:        [4]float32{float32(c.Clear.R), float32(c.Clear.G), float32(c.Clear.B), float32(c.Clear.A)},
			LoadOp:            nativeLoadOp(c.LoadOp),
			StoreOp:           nativeStoreOp(c.StoreOp),
			Cycle:             c.Cycle,
		}
	}
	var ds *driver.DepthStencilTargetInfo
	if depthStencil != nil {
		if err := cb.validate(op, depthStencil.Texture); err != nil {
			return nil, err
		}
		cb.track(depthStencil.Texture)
		ds = &driver.DepthStencilTargetInfo{
			Texture:        depthStencil.Texture.h,
			ClearDepth:     depthStencil.ClearDepth,
			LoadOp:         nativeLoadOp(depthStencil.LoadOp),
			StoreOp:        nativeStoreOp(depthStencil.StoreOp),
			StencilLoadOp:  nativeLoadOp(depthStencil.StencilLoadOp),
			StencilStoreOp: nativeStoreOp(depthStencil.StencilStoreOp),
			Cycle:          depthStencil.Cycle,
			ClearStencil:   depthStencil.ClearStencil,
		}
	}

	h, err := cb.dev.api.BeginRenderPass(cb.h, cts, ds)
	if err != nil {
		return nil, nativeErr(op, err)
	}
	cb.state = StateRenderPass
	return &RenderPass{cb: cb, h: h}, nil
}

// check verifies the pass is still open.
func (p *RenderPass) check(op string) error {
	if p.ended {
		return stateErr(op, ErrPassEnded)
	}
	return nil
}

// BindPipeline binds a graphics pipeline for subsequent draws.
func (p *RenderPass) BindPipeline(pipe *GraphicsPipeline) error {
	const op = "gpu.RenderPass.BindPipeline"
	if err := p.check(op); err != nil {
		return err
	}
	if err := p.cb.validate(op, pipe); err != nil {
		return err
	}
	p.cb.mu.Lock()
	p.cb.track(pipe)
	p.cb.mu.Unlock()
	p.cb.dev.api.BindGraphicsPipeline(p.h, pipe.h)
	return nil
}

// BindVertexBuffers binds vertex buffers starting at firstSlot.
func (p *RenderPass) BindVertexBuffers(firstSlot uint32, buffers ...*Buffer) error {
	const op = "gpu.RenderPass.BindVertexBuffers"
	if err := p.check(op); err != nil {
		return err
	}
	bindings := make([]driver.BufferBinding, len(buffers))
	p.cb.mu.Lock()
	for i, b := range buffers {
		if err := p.cb.validate(op, b); err != nil {
			p.cb.mu.Unlock()
			return err
		}
		p.cb.track(b)
		bindings[i] = driver.BufferBinding{Buffer: b.h}
	}
	p.cb.mu.Unlock()
	p.cb.dev.api.BindVertexBuffers(p.h, firstSlot, bindings)
	return nil
}

// BindIndexBuffer binds the index buffer.
func (p *RenderPass) BindIndexBuffer(b *Buffer, size IndexElementSize) error {
	const op = "gpu.RenderPass.BindIndexBuffer"
	if err := p.check(op); err != nil {
		return err
	}
	if err := p.cb.validate(op, b); err != nil {
		return err
	}
	p.cb.mu.Lock()
	p.cb.track(b)
	p.cb.mu.Unlock()
	p.cb.dev.api.BindIndexBuffer(p.h, driver.BufferBinding{Buffer: b.h}, uint32(size))
	return nil
}

// BindFragmentSamplers binds texture/sampler pairs for the fragment stage.
func (p *RenderPass) BindFragmentSamplers(firstSlot uint32, bindings ...TextureSamplerBinding) error {
	const op = "gpu.RenderPass.BindFragmentSamplers"
	if err := p.check(op); err != nil {
		return err
	}
	raw := make([]driver.TextureSamplerBinding, len(bindings))
	p.cb.mu.Lock()
	for i, tb := range bindings {
		if err := p.cb.validate(op, tb.Texture); err != nil {
			p.cb.mu.Unlock()
			return err
		}
		if err := p.cb.validate(op, tb.Sampler); err != nil {
			p.cb.mu.Unlock()
			return err
		}
		p.cb.track(tb.Texture, tb.Sampler)
		raw[i] = driver.TextureSamplerBinding{Texture: tb.Texture.h, Sampler: tb.Sampler.h}
	}
	p.cb.mu.Unlock()
	p.cb.dev.api.BindFragmentSamplers(p.h, firstSlot, raw)
	return nil
}

// TextureSamplerBinding pairs a texture with a sampler.
type TextureSamplerBinding struct {
	Texture *Texture
	Sampler *Sampler
}

// SetViewport sets the viewport transform.
func (p *RenderPass) SetViewport(vp driver.Viewport) error {
	const op = "gpu.RenderPass.SetViewport"
	if err := p.check(op); err != nil {
		return err
	}
	p.cb.dev.api.SetViewport(p.h, vp)
	return nil
}

// SetScissor sets the scissor rectangle.
func (p *RenderPass) SetScissor(r driver.Rect) error {
	const op = "gpu.RenderPass.SetScissor"
	if err := p.check(op); err != nil {
		return err
	}
	p.cb.dev.api.SetScissor(p.h, r)
	return nil
}

// DrawPrimitives draws non-indexed primitives.
func (p *RenderPass) DrawPrimitives(numVertices, numInstances, firstVertex, firstInstance uint32) error {
	const op = "gpu.RenderPass.DrawPrimitives"
	if err := p.check(op); err != nil {
		return err
	}
	p.cb.dev.api.DrawPrimitives(p.h, numVertices, numInstances, firstVertex, firstInstance)
	return nil
}

// DrawIndexedPrimitives draws indexed primitives.
func (p *RenderPass) DrawIndexedPrimitives(numIndices, numInstances, firstIndex uint32, vertexOffset int32, firstInstance uint32) error {
	const op = "gpu.RenderPass.DrawIndexedPrimitives"
	if err := p.check(op); err != nil {
		return err
	}
	p.cb.dev.api.DrawIndexedPrimitives(p.h, numIndices, numInstances, firstIndex, vertexOffset, firstInstance)
	return nil
}

// End closes the pass and returns the command buffer to recording.
// Idempotent.
func (p *RenderPass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.cb.dev.api.EndRenderPass(p.h)
	p.cb.mu.Lock()
	if p.cb.state == StateRenderPass {
		p.cb.state = StateRecording
	}
	p.cb.mu.Unlock()
}

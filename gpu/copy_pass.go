// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/sdl3/driver"
)

// TextureRegion addresses a subregion of one texture subresource.
type TextureRegion struct {
	Texture  *Texture
	MipLevel uint32
	Layer    uint32
	Origin   gputypes.Origin3D
	Size     gputypes.Extent3D
}

// TextureTransferInfo addresses texel data inside a transfer buffer.
// PixelsPerRow and RowsPerLayer of zero mean tightly packed.
type TextureTransferInfo struct {
	Buffer       *TransferBuffer
	Offset       uint32
	PixelsPerRow uint32
	RowsPerLayer uint32
}

// CopyPass encodes transfer work between buffers, textures, and transfer
// buffers. Obtained from CommandBuffer.BeginCopyPass; every operation after
// End fails with a state error.
type CopyPass struct {
	cb    *CommandBuffer
	h     driver.Handle
	ended bool
}

// BeginCopyPass opens a copy pass. Mutually exclusive with render and
// compute passes on the same command buffer.
func (cb *CommandBuffer) BeginCopyPass() (*CopyPass, error) {
	const op = "gpu.CommandBuffer.BeginCopyPass"
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err := cb.checkRecordingLocked(op); err != nil {
		return nil, err
	}
	h, err := cb.dev.api.BeginCopyPass(cb.h)
	if err != nil {
		return nil, nativeErr(op, err)
	}
	cb.state = StateCopyPass
	return &CopyPass{cb: cb, h: h}, nil
}

func (p *CopyPass) check(op string) error {
	if p.ended {
		return stateErr(op, ErrPassEnded)
	}
	return nil
}

func (p *CopyPass) validateAndTrack(op string, rs ...resource) error {
	p.cb.mu.Lock()
	defer p.cb.mu.Unlock()
	for _, r := range rs {
		if err := p.cb.validate(op, r); err != nil {
			return err
		}
	}
	p.cb.track(rs...)
	return nil
}

// UploadToBuffer copies bytes from a transfer buffer into a GPU buffer.
func (p *CopyPass) UploadToBuffer(src *TransferBuffer, srcOffset uint32, dst *Buffer, dstOffset, size uint32, cycle bool) error {
	const op = "gpu.CopyPass.UploadToBuffer"
	if err := p.check(op); err != nil {
		return err
	}
	if err := p.validateAndTrack(op, src, dst); err != nil {
		return err
	}
	p.cb.dev.api.UploadToBuffer(p.h,
		driver.TransferBufferLocation{TransferBuffer: src.h, Offset: srcOffset},
		driver.BufferRegion{Buffer: dst.h, Offset: dstOffset, Size: size},
		cycle)
	return nil
}

// DownloadFromBuffer copies bytes from a GPU buffer into a transfer buffer.
// The data is readable after the submission's fence completes.
func (p *CopyPass) DownloadFromBuffer(src *Buffer, srcOffset, size uint32, dst *TransferBuffer, dstOffset uint32) error {
	const op = "gpu.CopyPass.DownloadFromBuffer"
	if err := p.check(op); err != nil {
		return err
	}
	if err := p.validateAndTrack(op, src, dst); err != nil {
		return err
	}
	p.cb.dev.api.DownloadFromBuffer(p.h,
		driver.BufferRegion{Buffer: src.h, Offset: srcOffset, Size: size},
		driver.TransferBufferLocation{TransferBuffer: dst.h, Offset: dstOffset})
	return nil
}

// CopyBufferToBuffer copies bytes between GPU buffers.
func (p *CopyPass) CopyBufferToBuffer(src *Buffer, srcOffset uint32, dst *Buffer, dstOffset, size uint32, cycle bool) error {
	const op = "gpu.CopyPass.CopyBufferToBuffer"
	if err := p.check(op); err != nil {
		return err
	}
	if err := p.validateAndTrack(op, src, dst); err != nil {
		return err
	}
	p.cb.dev.api.CopyBufferToBuffer(p.h,
		driver.BufferLocation{Buffer: src.h, Offset: srcOffset},
		driver.BufferLocation{Buffer: dst.h, Offset: dstOffset},
		size, cycle)
	return nil
}

// UploadToTexture copies texel data from a transfer buffer into a texture
// region.
func (p *CopyPass) UploadToTexture(src TextureTransferInfo, dst TextureRegion, cycle bool) error {
	const op = "gpu.CopyPass.UploadToTexture"
	if err := p.check(op); err != nil {
		return err
	}
	if err := p.validateAndTrack(op, src.Buffer, dst.Texture); err != nil {
		return err
	}
	p.cb.dev.api.UploadToTexture(p.h,
		driver.TextureTransferInfo{
			TransferBuffer: src.Buffer.h,
			Offset:         src.Offset,
			PixelsPerRow:   src.PixelsPerRow,
			RowsPerLayer:   src.RowsPerLayer,
		},
		driver.TextureRegion{
			Texture:  dst.Texture.h,
			MipLevel: dst.MipLevel,
			Layer:    dst.Layer,
			X:        dst.Origin.X, Y: dst.Origin.Y, Z: dst.Origin.Z,
			W: dst.Size.Width, H: dst.Size.Height, D: dst.Size.DepthOrArrayLayers,
		},
		cycle)
	return nil
}

// End closes the pass and returns the command buffer to recording.
// Idempotent.
func (p *CopyPass) End() {
	if p.ended {
		return
	}
	p.ended = true
	p.cb.dev.api.EndCopyPass(p.h)
	p.cb.mu.Lock()
	if p.cb.state == StateCopyPass {
		p.cb.state = StateRecording
	}
	p.cb.mu.Unlock()
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"sync/atomic"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/sdl3/driver"
)

// resource is the common view of every device-owned object.
type resource interface {
	deviceRef() *Device
	nativeHandle() driver.Handle
	isReleased() bool
}

// resourceState is embedded by every resource type. It carries the
// non-owning device back-reference used to reject foreign-device use.
type resourceState struct {
	dev      *Device
	h        driver.Handle
	released atomic.Bool
}

func (r *resourceState) deviceRef() *Device          { return r.dev }
func (r *resourceState) nativeHandle() driver.Handle { return r.h }
func (r *resourceState) isReleased() bool            { return r.released.Load() }

// release marks the resource dead, waits out any in-flight submission that
// references it, then frees the native object. Double release is an error.
func (r *resourceState) release(op string, free func(device, handle driver.Handle)) error {
	if r.released.Swap(true) {
		return stateErr(op, ErrReleased)
	}
	// Device teardown already freed every native object it owned; handing
	// the dead device handle back to the native layer would be a
	// use-after-free there.
	if err := r.dev.alive(op); err != nil {
		return err
	}
	// Destruction while referenced by an incomplete fence blocks until the
	// fence completes. Never frees early, never leaks.
	r.dev.tracker.awaitHandle(r.h)
	free(r.dev.h, r.h)
	return nil
}

// Buffer is GPU-local memory.
type Buffer struct {
	resourceState
	usage BufferUsage
	size  uint32
}

// Usage returns the usage flags the buffer was created with.
func (b *Buffer) Usage() BufferUsage { return b.usage }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint32 { return b.size }

// Release frees the buffer, blocking while in-flight submissions still
// reference it.
func (b *Buffer) Release() error {
	return b.release("gpu.Buffer.Release", b.dev.api.ReleaseBuffer)
}

// CreateBuffer allocates a GPU buffer.
func (d *Device) CreateBuffer(usage BufferUsage, size uint32) (*Buffer, error) {
	const op = "gpu.Device.CreateBuffer"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	h, err := d.api.CreateBuffer(d.h, driver.BufferInfo{Usage: uint32(usage), Size: size})
	if err != nil {
		return nil, resourceErr(op, err)
	}
	return &Buffer{resourceState: resourceState{dev: d, h: h}, usage: usage, size: size}, nil
}

// TransferBuffer is CPU-visible staging memory for uploads and downloads.
type TransferBuffer struct {
	resourceState
	usage TransferBufferUsage
	size  uint32
}

// Size returns the transfer buffer size in bytes.
func (t *TransferBuffer) Size() uint32 { return t.size }

// Map exposes the buffer memory. cycle requests a fresh backing allocation
// if the previous contents are still in use by the GPU. The slice is valid
// until Unmap.
func (t *TransferBuffer) Map(cycle bool) ([]byte, error) {
	const op = "gpu.TransferBuffer.Map"
	if t.isReleased() {
		return nil, stateErr(op, ErrReleased)
	}
	if err := t.dev.alive(op); err != nil {
		return nil, err
	}
	mem, err := t.dev.api.MapTransferBuffer(t.dev.h, t.h, cycle, t.size)
	if err != nil {
		return nil, nativeErr(op, err)
	}
	return mem, nil
}

// Unmap invalidates the slice returned by Map.
func (t *TransferBuffer) Unmap() {
	if t.isReleased() || t.dev.alive("gpu.TransferBuffer.Unmap") != nil {
		return
	}
	t.dev.api.UnmapTransferBuffer(t.dev.h, t.h)
}

// Release frees the transfer buffer, blocking while in-flight submissions
// still reference it.
func (t *TransferBuffer) Release() error {
	return t.release("gpu.TransferBuffer.Release", t.dev.api.ReleaseTransferBuffer)
}

// CreateTransferBuffer allocates a CPU-visible staging buffer.
func (d *Device) CreateTransferBuffer(usage TransferBufferUsage, size uint32) (*TransferBuffer, error) {
	const op = "gpu.Device.CreateTransferBuffer"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	h, err := d.api.CreateTransferBuffer(d.h, driver.TransferBufferInfo{Usage: uint32(usage), Size: size})
	if err != nil {
		return nil, resourceErr(op, err)
	}
	return &TransferBuffer{resourceState: resourceState{dev: d, h: h}, usage: usage, size: size}, nil
}

// TextureInfo describes a texture allocation.
type TextureInfo struct {
	Type        TextureType
	Format      TextureFormat
	Usage       TextureUsage
	Size        gputypes.Extent3D
	NumLevels   uint32
	SampleCount SampleCount
}

// Texture is a GPU image. Swapchain textures are borrowed, not owned: they
// are valid only until their command buffer is submitted and must not be
// released.
type Texture struct {
	resourceState
	format    TextureFormat
	size      gputypes.Extent3D
	swapchain bool
}

// Format returns the texture format.
func (t *Texture) Format() TextureFormat { return t.format }

// Size returns the texture extent.
func (t *Texture) Size() gputypes.Extent3D { return t.size }

// Swapchain reports whether this texture was borrowed from a swapchain.
func (t *Texture) Swapchain() bool { return t.swapchain }

// Release frees the texture, blocking while in-flight submissions still
// reference it. Releasing a swapchain texture only invalidates the Go
// handle; the native object belongs to the swapchain.
func (t *Texture) Release() error {
	const op = "gpu.Texture.Release"
	if t.swapchain {
		if t.released.Swap(true) {
			return stateErr(op, ErrReleased)
		}
		return nil
	}
	return t.release(op, t.dev.api.ReleaseTexture)
}

// CreateTexture allocates a texture.
func (d *Device) CreateTexture(info TextureInfo) (*Texture, error) {
	const op = "gpu.Device.CreateTexture"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	if info.NumLevels == 0 {
		info.NumLevels = 1
	}
	h, err := d.api.CreateTexture(d.h, driver.TextureInfo{
		Type:              uint32(info.Type),
		Format:            uint32(info.Format),
		Usage:             uint32(info.Usage),
		Width:             info.Size.Width,
		Height:            info.Size.Height,
		LayerCountOrDepth: info.Size.DepthOrArrayLayers,
		NumLevels:         info.NumLevels,
		SampleCount:       uint32(info.SampleCount),
	})
	if err != nil {
		return nil, resourceErr(op, err)
	}
	return &Texture{
		resourceState: resourceState{dev: d, h: h},
		format:        info.Format,
		size:          info.Size,
	}, nil
}

// SamplerInfo describes a texture sampler.
type SamplerInfo struct {
	MinFilter     Filter
	MagFilter     Filter
	MipmapMode    Filter
	AddressModeU  AddressMode
	AddressModeV  AddressMode
	AddressModeW  AddressMode
	MipLodBias    float32
	MaxAnisotropy float32
	MinLod        float32
	MaxLod        float32
}

// Sampler configures texture filtering and addressing.
type Sampler struct {
	resourceState
}

// Release frees the sampler, blocking while in-flight submissions still
// reference it.
func (s *Sampler) Release() error {
	return s.release("gpu.Sampler.Release", s.dev.api.ReleaseSampler)
}

// CreateSampler allocates a sampler.
func (d *Device) CreateSampler(info SamplerInfo) (*Sampler, error) {
	const op = "gpu.Device.CreateSampler"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	h, err := d.api.CreateSampler(d.h, driver.SamplerInfo{
		MinFilter:        uint32(info.MinFilter),
		MagFilter:        uint32(info.MagFilter),
		MipmapMode:       uint32(info.MipmapMode),
		AddressModeU:     uint32(info.AddressModeU),
		AddressModeV:     uint32(info.AddressModeV),
		AddressModeW:     uint32(info.AddressModeW),
		MipLodBias:       info.MipLodBias,
		MaxAnisotropy:    info.MaxAnisotropy,
		MinLod:           info.MinLod,
		MaxLod:           info.MaxLod,
		EnableAnisotropy: info.MaxAnisotropy > 0,
	})
	if err != nil {
		return nil, resourceErr(op, err)
	}
	return &Sampler{resourceState: resourceState{dev: d, h: h}}, nil
}

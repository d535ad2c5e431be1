// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"errors"
	"sync"

	"github.com/gogpu/sdl3"
	"github.com/gogpu/sdl3/driver"
)

// Device owns a native GPU device and every resource created through it.
// It holds its own reference on the video subsystem until Destroy.
//
// Device is safe for concurrent use.
type Device struct {
	api     driver.API
	video   *sdl3.VideoSubsystem
	h       driver.Handle
	tracker *submissionTracker

	mu        sync.Mutex
	destroyed bool
	claimed   map[driver.Handle]struct{}
}

// NewDevice creates a GPU device over the given video subsystem. The device
// clones the subsystem handle, so the caller may release theirs first;
// Destroy releases the clone.
func NewDevice(video *sdl3.VideoSubsystem, opts ...DeviceOption) (*Device, error) {
	const op = "gpu.NewDevice"
	o := defaultDeviceOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.formats == 0 {
		return nil, configErr(op, errors.New("no shader formats selected"))
	}

	clone, err := video.Clone()
	if err != nil {
		return nil, err
	}
	api := clone.Driver()

	h, err := api.CreateGPUDevice(uint32(o.formats), o.debug, o.driverName)
	if err != nil {
		clone.Release() //nolint:errcheck // fresh clone, cannot be doubly released
		return nil, resourceErr(op, err)
	}

	d := &Device{
		api:     api,
		video:   clone,
		h:       h,
		claimed: make(map[driver.Handle]struct{}),
	}
	d.tracker = newSubmissionTracker(d)

	sdl3.Logger().Info("gpu device created",
		"backend", api.DeviceDriver(h),
		"debug", o.debug)
	return d, nil
}

// Driver returns the name of the native GPU backend in use.
func (d *Device) Driver() string { return d.api.DeviceDriver(d.h) }

// alive returns a state error if the device was destroyed.
func (d *Device) alive(op string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return stateErr(op, ErrDeviceDestroyed)
	}
	return nil
}

// validate checks that r is a live resource of this device.
func (d *Device) validate(op string, r resource) error {
	if r.deviceRef() != d {
		return stateErr(op, ErrForeignDevice)
	}
	if r.isReleased() {
		return stateErr(op, ErrReleased)
	}
	return nil
}

// ClaimWindow attaches a swapchain to the window. Required before acquiring
// swapchain textures for it.
func (d *Device) ClaimWindow(w *sdl3.Window) error {
	const op = "gpu.Device.ClaimWindow"
	if err := d.alive(op); err != nil {
		return err
	}
	wh := w.Handle()
	if wh == driver.NilHandle {
		return stateErr(op, ErrReleased)
	}
	if err := d.api.ClaimWindow(d.h, wh); err != nil {
		return nativeErr(op, err)
	}
	d.mu.Lock()
	d.claimed[wh] = struct{}{}
	d.mu.Unlock()
	return nil
}

// ReleaseWindow detaches the window's swapchain.
func (d *Device) ReleaseWindow(w *sdl3.Window) {
	wh := w.Handle()
	if wh == driver.NilHandle {
		return
	}
	d.mu.Lock()
	_, ok := d.claimed[wh]
	delete(d.claimed, wh)
	destroyed := d.destroyed
	d.mu.Unlock()
	if ok && !destroyed {
		d.api.ReleaseWindow(d.h, wh)
	}
}

// SwapchainTextureFormat returns the texture format of the window's
// swapchain.
func (d *Device) SwapchainTextureFormat(w *sdl3.Window) TextureFormat {
	return TextureFormat(d.api.SwapchainTextureFormat(d.h, w.Handle()))
}

// WaitIdle blocks until the GPU has finished all submitted work.
func (d *Device) WaitIdle() error {
	const op = "gpu.Device.WaitIdle"
	if err := d.alive(op); err != nil {
		return err
	}
	if err := d.api.WaitForIdle(d.h); err != nil {
		return nativeErr(op, err)
	}
	d.tracker.completeAll()
	return nil
}

// Destroy waits for in-flight submissions, detaches claimed windows, and
// releases the native device and the video subsystem reference. Destroy is
// idempotent; resources not yet released are invalidated with the device.
func (d *Device) Destroy() error {
	d.mu.Lock()
	if d.destroyed {
		d.mu.Unlock()
		return nil
	}
	d.destroyed = true
	claimed := make([]driver.Handle, 0, len(d.claimed))
	for wh := range d.claimed {
		claimed = append(claimed, wh)
	}
	clear(d.claimed)
	d.mu.Unlock()

	// Block until nothing references this device on the GPU side.
	if err := d.api.WaitForIdle(d.h); err != nil {
		sdl3.Logger().Warn("wait for idle during destroy", "err", err)
	}
	d.tracker.completeAll()

	for _, wh := range claimed {
		d.api.ReleaseWindow(d.h, wh)
	}
	d.api.DestroyGPUDevice(d.h)
	sdl3.Logger().Info("gpu device destroyed")
	return d.video.Release()
}

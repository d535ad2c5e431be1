package gpu

import (
	"errors"

	"github.com/gogpu/sdl3"
)

// Sentinel errors reported by the gpu package. Match with errors.Is.
var (
	// ErrDeviceDestroyed is returned when a destroyed device is used.
	ErrDeviceDestroyed = errors.New("gpu: device destroyed")

	// ErrForeignDevice is returned when a resource is used with a device
	// other than the one that created it.
	ErrForeignDevice = errors.New("gpu: resource belongs to a different device")

	// ErrReleased is returned when a released resource is used.
	ErrReleased = errors.New("gpu: resource already released")

	// ErrConsumed is returned when a submitted or canceled command buffer
	// is used.
	ErrConsumed = errors.New("gpu: command buffer already consumed")

	// ErrPassActive is returned when an operation requires no active pass
	// but one is open.
	ErrPassActive = errors.New("gpu: a pass is active")

	// ErrPassEnded is returned by pass operations after End.
	ErrPassEnded = errors.New("gpu: pass already ended")
)

func configErr(op string, err error) error {
	return sdl3.NewError(sdl3.KindConfiguration, op, err)
}

func stateErr(op string, err error) error {
	return sdl3.NewError(sdl3.KindState, op, err)
}

func resourceErr(op string, err error) error {
	return sdl3.NewError(sdl3.KindResource, op, err)
}

func nativeErr(op string, err error) error {
	return sdl3.NewError(sdl3.KindNative, op, err)
}

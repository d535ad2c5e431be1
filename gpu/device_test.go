package gpu

import (
	"errors"
	"testing"
	"time"

	"github.com/gogpu/sdl3"
	"github.com/gogpu/sdl3/driver"
)

// testEnv is a full stack over a private stub instance: context, video
// subsystem, and device. Cleanup tears it down in reverse order, ignoring
// errors from pieces the test already released.
type testEnv struct {
	ctx   *sdl3.Context
	video *sdl3.VideoSubsystem
	dev   *Device
	stub  *driver.Stub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	stub := driver.NewStub()
	name := "stub-gpu-" + t.Name()
	driver.Register(name, func() driver.API { return stub })
	t.Cleanup(func() { driver.Unregister(name) })

	ctx, err := sdl3.Init(sdl3.WithDriver(name), sdl3.WithAnyThread())
	if err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	video, err := ctx.Video()
	if err != nil {
		t.Fatalf("Video() error: %v", err)
	}
	dev, err := NewDevice(video)
	if err != nil {
		t.Fatalf("NewDevice() error: %v", err)
	}

	env := &testEnv{ctx: ctx, video: video, dev: dev, stub: stub}
	t.Cleanup(func() {
		env.dev.Destroy()   //nolint:errcheck
		env.video.Release() //nolint:errcheck
		env.ctx.Release()   //nolint:errcheck
	})
	return env
}

// window creates a claimed window.
func (e *testEnv) window(t *testing.T) *sdl3.Window {
	t.Helper()
	win, err := e.video.CreateWindow("test", 640, 480, 0)
	if err != nil {
		t.Fatalf("CreateWindow() error: %v", err)
	}
	if err := e.dev.ClaimWindow(win); err != nil {
		t.Fatalf("ClaimWindow() error: %v", err)
	}
	t.Cleanup(func() { win.Destroy() }) //nolint:errcheck
	return win
}

func TestNewDeviceHoldsVideoReference(t *testing.T) {
	env := newTestEnv(t)

	// The device clones the video handle: two references live.
	if got := env.ctx.Registry().Count(driver.InitVideo); got != 2 {
		t.Errorf("video count with device = %d, want 2", got)
	}
	if err := env.dev.Destroy(); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}
	if got := env.ctx.Registry().Count(driver.InitVideo); got != 1 {
		t.Errorf("video count after destroy = %d, want 1", got)
	}

	// Destroy is idempotent.
	if err := env.dev.Destroy(); err != nil {
		t.Errorf("second Destroy() = %v, want nil", err)
	}
}

func TestNewDeviceNoShaderFormats(t *testing.T) {
	env := newTestEnv(t)

	_, err := NewDevice(env.video, WithShaderFormats())
	if err == nil {
		t.Fatal("NewDevice() with no shader formats succeeded")
	}
	var e *sdl3.Error
	if !errors.As(err, &e) || e.Kind != sdl3.KindConfiguration {
		t.Errorf("NewDevice() error = %v, want configuration kind", err)
	}
}

func TestDeviceDestroyedRejectsUse(t *testing.T) {
	env := newTestEnv(t)
	if err := env.dev.Destroy(); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}

	if _, err := env.dev.CreateBuffer(BufferUsageVertex, 64); !errors.Is(err, ErrDeviceDestroyed) {
		t.Errorf("CreateBuffer() = %v, want ErrDeviceDestroyed", err)
	}
	if _, err := env.dev.AcquireCommandBuffer(); !errors.Is(err, ErrDeviceDestroyed) {
		t.Errorf("AcquireCommandBuffer() = %v, want ErrDeviceDestroyed", err)
	}
}

func TestReleaseAfterDeviceDestroy(t *testing.T) {
	env := newTestEnv(t)

	buf, err := env.dev.CreateBuffer(BufferUsageVertex, 64)
	if err != nil {
		t.Fatalf("CreateBuffer() error: %v", err)
	}
	fence := submitEmpty(t, env.dev)
	if err := env.dev.Destroy(); err != nil {
		t.Fatalf("Destroy() error: %v", err)
	}

	// Teardown already freed the native objects; releasing the Go handles
	// afterwards must report the state error without touching the driver.
	if err := buf.Release(); !errors.Is(err, ErrDeviceDestroyed) {
		t.Errorf("buf.Release() after destroy = %v, want ErrDeviceDestroyed", err)
	}
	if err := fence.Release(); !errors.Is(err, ErrDeviceDestroyed) {
		t.Errorf("fence.Release() after destroy = %v, want ErrDeviceDestroyed", err)
	}
	if got := env.stub.LiveObjects(); got != 0 {
		t.Errorf("LiveObjects() after destroy = %d, want 0", got)
	}
	if msg := env.stub.LastError(); msg != "" {
		t.Errorf("driver diagnostic after destroy: %q", msg)
	}
}

func TestCreateBufferFailure(t *testing.T) {
	env := newTestEnv(t)
	env.stub.FailNext("out of device memory")

	_, err := env.dev.CreateBuffer(BufferUsageVertex, 1<<20)
	if err == nil {
		t.Fatal("CreateBuffer() succeeded, want resource error")
	}
	var e *sdl3.Error
	if !errors.As(err, &e) {
		t.Fatalf("CreateBuffer() error %v is not *sdl3.Error", err)
	}
	if e.Kind != sdl3.KindResource {
		t.Errorf("error kind = %v, want resource", e.Kind)
	}
}

func TestForeignDeviceResource(t *testing.T) {
	env := newTestEnv(t)

	other, err := NewDevice(env.video)
	if err != nil {
		t.Fatalf("second NewDevice() error: %v", err)
	}
	defer other.Destroy() //nolint:errcheck

	tex, err := other.CreateTexture(TextureInfo{
		Format: TextureFormatR8G8B8A8Unorm,
		Usage:  TextureUsageColorTarget,
	})
	if err != nil {
		t.Fatalf("CreateTexture() error: %v", err)
	}
	defer tex.Release() //nolint:errcheck

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	defer cb.Cancel() //nolint:errcheck

	_, err = cb.BeginRenderPass([]ColorTargetInfo{{Texture: tex}}, nil)
	if !errors.Is(err, ErrForeignDevice) {
		t.Errorf("BeginRenderPass() with foreign texture = %v, want ErrForeignDevice", err)
	}
}

func TestReleasedResourceRejected(t *testing.T) {
	env := newTestEnv(t)

	buf, err := env.dev.CreateBuffer(BufferUsageVertex, 64)
	if err != nil {
		t.Fatalf("CreateBuffer() error: %v", err)
	}
	if err := buf.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if err := buf.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("double Release() = %v, want ErrReleased", err)
	}

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	defer cb.Cancel() //nolint:errcheck

	pass, err := cb.BeginCopyPass()
	if err != nil {
		t.Fatalf("BeginCopyPass() error: %v", err)
	}
	staging, err := env.dev.CreateTransferBuffer(TransferBufferUsageUpload, 64)
	if err != nil {
		t.Fatalf("CreateTransferBuffer() error: %v", err)
	}
	defer staging.Release() //nolint:errcheck

	if err := pass.UploadToBuffer(staging, 0, buf, 0, 64, false); !errors.Is(err, ErrReleased) {
		t.Errorf("UploadToBuffer() with released target = %v, want ErrReleased", err)
	}
	pass.End()
}

func TestReleaseBlocksOnInFlightSubmission(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SetAutoSignalFences(false)

	buf, err := env.dev.CreateBuffer(BufferUsageVertex, 256)
	if err != nil {
		t.Fatalf("CreateBuffer() error: %v", err)
	}
	staging, err := env.dev.CreateTransferBuffer(TransferBufferUsageUpload, 256)
	if err != nil {
		t.Fatalf("CreateTransferBuffer() error: %v", err)
	}
	defer staging.Release() //nolint:errcheck

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	pass, err := cb.BeginCopyPass()
	if err != nil {
		t.Fatalf("BeginCopyPass() error: %v", err)
	}
	if err := pass.UploadToBuffer(staging, 0, buf, 0, 256, false); err != nil {
		t.Fatalf("UploadToBuffer() error: %v", err)
	}
	pass.End()

	fence, err := cb.Submit()
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	defer fence.Release() //nolint:errcheck

	released := make(chan error, 1)
	go func() { released <- buf.Release() }()

	// The release must block while the submission is in flight.
	select {
	case err := <-released:
		t.Fatalf("Release() returned %v before fence completion", err)
	case <-time.After(50 * time.Millisecond):
	}

	env.stub.SignalAllFences()

	select {
	case err := <-released:
		if err != nil {
			t.Fatalf("Release() after completion error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Release() still blocked after fence completion")
	}
}

func TestClaimWindowAndSwapchainFormat(t *testing.T) {
	env := newTestEnv(t)
	win := env.window(t)

	if got := env.dev.SwapchainTextureFormat(win); got == TextureFormatInvalid {
		t.Errorf("SwapchainTextureFormat() = invalid, want a concrete format")
	}
	env.dev.ReleaseWindow(win)
}

package gpu

import (
	"errors"
	"testing"
)

// renderTarget creates a color-target texture.
func renderTarget(t *testing.T, dev *Device) *Texture {
	t.Helper()
	tex, err := dev.CreateTexture(TextureInfo{
		Format: TextureFormatR8G8B8A8Unorm,
		Usage:  TextureUsageColorTarget,
	})
	if err != nil {
		t.Fatalf("CreateTexture() error: %v", err)
	}
	t.Cleanup(func() { tex.Release() }) //nolint:errcheck
	return tex
}

func TestCommandBufferStateMachine(t *testing.T) {
	env := newTestEnv(t)
	tex := renderTarget(t, env.dev)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	if got := cb.State(); got != StateRecording {
		t.Fatalf("State() = %v, want recording", got)
	}

	pass, err := cb.BeginRenderPass([]ColorTargetInfo{{Texture: tex}}, nil)
	if err != nil {
		t.Fatalf("BeginRenderPass() error: %v", err)
	}
	if got := cb.State(); got != StateRenderPass {
		t.Errorf("State() = %v, want render-pass", got)
	}

	// One pass at a time.
	if _, err := cb.BeginComputePass(nil, nil); !errors.Is(err, ErrPassActive) {
		t.Errorf("BeginComputePass() during render pass = %v, want ErrPassActive", err)
	}
	if _, err := cb.BeginCopyPass(); !errors.Is(err, ErrPassActive) {
		t.Errorf("BeginCopyPass() during render pass = %v, want ErrPassActive", err)
	}
	// Submission requires the pass to be closed first.
	if _, err := cb.Submit(); !errors.Is(err, ErrPassActive) {
		t.Errorf("Submit() during render pass = %v, want ErrPassActive", err)
	}

	pass.End()
	if got := cb.State(); got != StateRecording {
		t.Errorf("State() after End = %v, want recording", got)
	}
	pass.End() // idempotent

	// Operations on the ended pass fail.
	if err := pass.DrawPrimitives(3, 1, 0, 0); !errors.Is(err, ErrPassEnded) {
		t.Errorf("DrawPrimitives() after End = %v, want ErrPassEnded", err)
	}

	// A second pass on the same buffer is fine.
	pass2, err := cb.BeginCopyPass()
	if err != nil {
		t.Fatalf("BeginCopyPass() after render pass error: %v", err)
	}
	pass2.End()

	fence, err := cb.Submit()
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	defer fence.Release() //nolint:errcheck

	// Consumed: everything fails from here.
	if _, err := cb.BeginRenderPass([]ColorTargetInfo{{Texture: tex}}, nil); !errors.Is(err, ErrConsumed) {
		t.Errorf("BeginRenderPass() after submit = %v, want ErrConsumed", err)
	}
	if _, err := cb.Submit(); !errors.Is(err, ErrConsumed) {
		t.Errorf("second Submit() = %v, want ErrConsumed", err)
	}
	if err := cb.Cancel(); !errors.Is(err, ErrConsumed) {
		t.Errorf("Cancel() after submit = %v, want ErrConsumed", err)
	}
	if err := cb.PushVertexUniformData(0, []byte{1}); !errors.Is(err, ErrConsumed) {
		t.Errorf("PushVertexUniformData() after submit = %v, want ErrConsumed", err)
	}

	// Auto-signaling stub: the fence is already done; wait flips the
	// buffer to its terminal state.
	if status, err := fence.Wait(0); err != nil || status != FenceCompleted {
		t.Fatalf("Wait() = %v, %v, want completed", status, err)
	}
	if got := cb.State(); got != StateCompleted {
		t.Errorf("State() after completion = %v, want completed", got)
	}
}

func TestCommandBufferCancel(t *testing.T) {
	env := newTestEnv(t)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	if err := cb.Cancel(); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if got := cb.State(); got != StateCanceled {
		t.Errorf("State() = %v, want canceled", got)
	}
	if _, err := cb.Submit(); !errors.Is(err, ErrConsumed) {
		t.Errorf("Submit() after cancel = %v, want ErrConsumed", err)
	}
}

func TestSubmitFailure(t *testing.T) {
	env := newTestEnv(t)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	env.stub.FailNext("device lost")
	if _, err := cb.Submit(); err == nil {
		t.Fatal("Submit() succeeded, want native error")
	}
	if got := cb.State(); got != StateFailed {
		t.Errorf("State() after failed submit = %v, want failed", got)
	}
}

func TestSubmitNoFence(t *testing.T) {
	env := newTestEnv(t)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	if err := cb.SubmitNoFence(); err != nil {
		t.Fatalf("SubmitNoFence() error: %v", err)
	}
	if got := cb.State(); got != StateSubmitted {
		t.Errorf("State() = %v, want submitted", got)
	}
	// Completion is observable through WaitIdle.
	if err := env.dev.WaitIdle(); err != nil {
		t.Fatalf("WaitIdle() error: %v", err)
	}
}

func TestSwapchainAcquire(t *testing.T) {
	env := newTestEnv(t)
	win := env.window(t)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}

	tex, ok, err := cb.AcquireSwapchainTexture(win)
	if err != nil || !ok {
		t.Fatalf("AcquireSwapchainTexture() = %v, %v, want texture", ok, err)
	}
	if !tex.Swapchain() {
		t.Error("swapchain texture not marked as borrowed")
	}
	if got := tex.Format(); got != TextureFormatB8G8R8A8Unorm {
		t.Errorf("Format() = %v, want B8G8R8A8Unorm", got)
	}
	if tex.Size().Width == 0 || tex.Size().Height == 0 {
		t.Errorf("Size() = %+v, want nonzero extent", tex.Size())
	}

	if err := cb.Cancel(); err != nil {
		t.Fatalf("Cancel() error: %v", err)
	}
	if err := tex.Release(); err != nil {
		t.Errorf("Release() of swapchain texture = %v, want nil (borrowed)", err)
	}
}

func TestSwapchainTextureReturnedOnSubmit(t *testing.T) {
	env := newTestEnv(t)
	win := env.window(t)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	tex, ok, err := cb.AcquireSwapchainTexture(win)
	if err != nil || !ok {
		t.Fatalf("AcquireSwapchainTexture() = %v, %v, want texture", ok, err)
	}

	pass, err := cb.BeginRenderPass([]ColorTargetInfo{{Texture: tex}}, nil)
	if err != nil {
		t.Fatalf("BeginRenderPass() error: %v", err)
	}
	pass.End()

	fence, err := cb.Submit()
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	if status, err := fence.Wait(0); err != nil || status != FenceCompleted {
		t.Fatalf("Wait() = %v, %v, want completed", status, err)
	}
	if err := fence.Release(); err != nil {
		t.Fatalf("fence.Release() error: %v", err)
	}

	// The swapchain took its texture back at submission; only the device
	// and the window remain.
	if got := env.stub.LiveObjects(); got != 2 {
		t.Errorf("LiveObjects() after present = %d, want 2", got)
	}
}

func TestSwapchainUnavailable(t *testing.T) {
	env := newTestEnv(t)
	win := env.window(t)
	env.stub.SetSwapchainAvailable(win.Handle(), false)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	defer cb.Cancel() //nolint:errcheck

	tex, ok, err := cb.AcquireSwapchainTexture(win)
	if err != nil {
		t.Fatalf("AcquireSwapchainTexture() error: %v (absence is not an error)", err)
	}
	if ok || tex != nil {
		t.Errorf("AcquireSwapchainTexture() = %v, %v, want declined", tex, ok)
	}
}

func TestSwapchainAcquireRequiresRecording(t *testing.T) {
	env := newTestEnv(t)
	win := env.window(t)
	tex := renderTarget(t, env.dev)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	defer cb.Cancel() //nolint:errcheck

	pass, err := cb.BeginRenderPass([]ColorTargetInfo{{Texture: tex}}, nil)
	if err != nil {
		t.Fatalf("BeginRenderPass() error: %v", err)
	}
	defer pass.End()

	if _, _, err := cb.AcquireSwapchainTexture(win); !errors.Is(err, ErrPassActive) {
		t.Errorf("AcquireSwapchainTexture() during pass = %v, want ErrPassActive", err)
	}
}

func TestComputePassDispatch(t *testing.T) {
	env := newTestEnv(t)

	storage, err := env.dev.CreateBuffer(BufferUsageComputeStorageWrite, 1024)
	if err != nil {
		t.Fatalf("CreateBuffer() error: %v", err)
	}
	defer storage.Release() //nolint:errcheck

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}

	pass, err := cb.BeginComputePass(nil, []StorageBufferBinding{{Buffer: storage}})
	if err != nil {
		t.Fatalf("BeginComputePass() error: %v", err)
	}
	if got := cb.State(); got != StateComputePass {
		t.Errorf("State() = %v, want compute-pass", got)
	}
	if err := pass.Dispatch(8, 8, 1); err != nil {
		t.Fatalf("Dispatch() error: %v", err)
	}
	pass.End()

	if err := pass.Dispatch(1, 1, 1); !errors.Is(err, ErrPassEnded) {
		t.Errorf("Dispatch() after End = %v, want ErrPassEnded", err)
	}

	fence, err := cb.Submit()
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	defer fence.Release() //nolint:errcheck
}

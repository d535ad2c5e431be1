package gpu

import (
	"errors"
	"testing"
	"time"
)

// submitEmpty records and submits an empty command buffer.
func submitEmpty(t *testing.T, dev *Device) *Fence {
	t.Helper()
	cb, err := dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	fence, err := cb.Submit()
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	return fence
}

func TestFenceWaitTimeoutNeverFabricatesCompletion(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SetAutoSignalFences(false)

	fence := submitEmpty(t, env.dev)
	defer fence.Release() //nolint:errcheck

	status, err := fence.Wait(20 * time.Millisecond)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if status != FenceIncomplete {
		t.Fatalf("Wait() on pending fence = %v, want incomplete", status)
	}

	done, err := fence.Poll()
	if err != nil || done {
		t.Fatalf("Poll() = %v, %v, want pending", done, err)
	}

	env.stub.SignalAllFences()

	status, err = fence.Wait(0)
	if err != nil || status != FenceCompleted {
		t.Fatalf("Wait(0) after signal = %v, %v, want completed", status, err)
	}

	// Completion is sticky.
	for i := 0; i < 2; i++ {
		if done, err := fence.Poll(); err != nil || !done {
			t.Errorf("Poll() after completion = %v, %v, want done", done, err)
		}
		if status, err := fence.Wait(time.Millisecond); err != nil || status != FenceCompleted {
			t.Errorf("Wait() after completion = %v, %v, want completed", status, err)
		}
	}
}

func TestFenceZeroTimeoutWaitIsInstant(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SetAutoSignalFences(false)

	fence := submitEmpty(t, env.dev)
	defer fence.Release() //nolint:errcheck

	// A zero timeout queries once and returns immediately.
	start := time.Now()
	status, err := fence.Wait(0)
	if err != nil {
		t.Fatalf("Wait(0) error: %v", err)
	}
	if status != FenceIncomplete {
		t.Fatalf("Wait(0) on pending fence = %v, want incomplete", status)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Wait(0) took %v, want an instant query", elapsed)
	}

	env.stub.SignalAllFences()
	if status, err := fence.Wait(0); err != nil || status != FenceCompleted {
		t.Fatalf("Wait(0) after signal = %v, %v, want completed", status, err)
	}
}

func TestFenceUnboundedWaitBlocksUntilSignal(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SetAutoSignalFences(false)

	fence := submitEmpty(t, env.dev)
	defer fence.Release() //nolint:errcheck

	go func() {
		time.Sleep(10 * time.Millisecond)
		env.stub.SignalAllFences()
	}()

	status, err := fence.Wait(-1)
	if err != nil || status != FenceCompleted {
		t.Fatalf("Wait(-1) = %v, %v, want completed", status, err)
	}
}

func TestFenceBoundedWaitObservesLateSignal(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SetAutoSignalFences(false)

	fence := submitEmpty(t, env.dev)
	defer fence.Release() //nolint:errcheck

	go func() {
		time.Sleep(10 * time.Millisecond)
		env.stub.SignalAllFences()
	}()

	status, err := fence.Wait(5 * time.Second)
	if err != nil || status != FenceCompleted {
		t.Fatalf("Wait() = %v, %v, want completed before timeout", status, err)
	}
}

func TestFenceDoubleRelease(t *testing.T) {
	env := newTestEnv(t)

	fence := submitEmpty(t, env.dev)
	if err := fence.Release(); err != nil {
		t.Fatalf("Release() error: %v", err)
	}
	if err := fence.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("second Release() = %v, want ErrReleased", err)
	}
	if _, err := fence.Wait(0); !errors.Is(err, ErrReleased) {
		t.Errorf("Wait() after release = %v, want ErrReleased", err)
	}
	if _, err := fence.Poll(); !errors.Is(err, ErrReleased) {
		t.Errorf("Poll() after release = %v, want ErrReleased", err)
	}
}

func TestFenceReleaseUnblocksResources(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SetAutoSignalFences(false)

	buf, err := env.dev.CreateBuffer(BufferUsageVertex, 64)
	if err != nil {
		t.Fatalf("CreateBuffer() error: %v", err)
	}
	staging, err := env.dev.CreateTransferBuffer(TransferBufferUsageUpload, 64)
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
	if err := pass.UploadToBuffer(staging, 0, buf, 0, 64, false); err != nil {
		t.Fatalf("UploadToBuffer() error: %v", err)
	}
	pass.End()

	fence, err := cb.Submit()
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}

	// Releasing the fence abandons completion tracking and lifts the
	// destruction block.
	if err := fence.Release(); err != nil {
		t.Fatalf("fence.Release() error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- buf.Release() }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("buf.Release() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("buf.Release() blocked after fence release")
	}
}

func TestWaitIdleCompletesSubmissions(t *testing.T) {
	env := newTestEnv(t)
	env.stub.SetAutoSignalFences(false)

	cb, err := env.dev.AcquireCommandBuffer()
	if err != nil {
		t.Fatalf("AcquireCommandBuffer() error: %v", err)
	}
	fence, err := cb.Submit()
	if err != nil {
		t.Fatalf("Submit() error: %v", err)
	}
	defer fence.Release() //nolint:errcheck

	idle := make(chan error, 1)
	go func() { idle <- env.dev.WaitIdle() }()

	select {
	case err := <-idle:
		t.Fatalf("WaitIdle() returned %v with work in flight", err)
	case <-time.After(50 * time.Millisecond):
	}

	env.stub.SignalAllFences()
	select {
	case err := <-idle:
		if err != nil {
			t.Fatalf("WaitIdle() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("WaitIdle() still blocked after signal")
	}

	if got := cb.State(); got != StateCompleted {
		t.Errorf("State() after idle = %v, want completed", got)
	}
}

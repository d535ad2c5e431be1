// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import (
	"fmt"
	"sync"
)

// objKind discriminates stub handles.
type objKind int

const (
	kindWindow objKind = iota + 1
	kindDevice
	kindBuffer
	kindTransferBuffer
	kindTexture
	kindSampler
	kindShader
	kindGraphicsPipeline
	kindComputePipeline
	kindCommandBuffer
	kindRenderPass
	kindComputePass
	kindCopyPass
	kindFence
)

func (k objKind) String() string {
	switch k {
	case kindWindow:
		return "window"
	case kindDevice:
		return "device"
	case kindBuffer:
		return "buffer"
	case kindTransferBuffer:
		return "transfer buffer"
	case kindTexture:
		return "texture"
	case kindSampler:
		return "sampler"
	case kindShader:
		return "shader"
	case kindGraphicsPipeline:
		return "graphics pipeline"
	case kindComputePipeline:
		return "compute pipeline"
	case kindCommandBuffer:
		return "command buffer"
	case kindRenderPass:
		return "render pass"
	case kindComputePass:
		return "compute pass"
	case kindCopyPass:
		return "copy pass"
	case kindFence:
		return "fence"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// stubObject is one live native object.
type stubObject struct {
	kind   objKind
	device Handle // owning device, NilHandle for windows and devices

	// command buffer state
	activePass   Handle
	consumed     bool
	swapTextures []Handle

	// pass state
	parent Handle

	// fence state
	signaled bool

	// transfer buffer backing store
	backing []byte
	mapped  bool
}

// Stub is an in-memory implementation of the full native surface.
//
// It validates the call contract the way the native library would: using a
// released handle, double-ending a pass, or submitting a consumed command
// buffer sets the error string and fails the call. Tests drive asynchronous
// behavior explicitly: fences signal on submission when AutoSignalFences is
// true (the default), otherwise via SignalFence/SignalAllFences.
//
// Stub is safe for concurrent use.
type Stub struct {
	mu   sync.Mutex
	cond *sync.Cond

	next    Handle
	objects map[Handle]*stubObject

	rootInits      int
	subsystemInits map[InitFlags]int

	lastError string
	failNext  string

	// AutoSignalFences makes every submission's fence signal immediately.
	autoSignal bool

	// swapchain availability per window; missing entry means available.
	swapchainUnavailable map[Handle]bool

	watch  func(Event)
	queued []Event

	releasedCount map[objKind]int
}

// NewStub creates a stub driver with fences auto-signaling on submit.
func NewStub() *Stub {
	s := &Stub{
		next:                 1,
		objects:              make(map[Handle]*stubObject),
		subsystemInits:       make(map[InitFlags]int),
		autoSignal:           true,
		swapchainUnavailable: make(map[Handle]bool),
		releasedCount:        make(map[objKind]int),
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func init() {
	Register(DriverStub, func() API { return NewStub() })
}

// Name returns the driver identifier.
func (s *Stub) Name() string { return DriverStub }

// SetAutoSignalFences controls whether submission fences signal immediately.
func (s *Stub) SetAutoSignalFences(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoSignal = v
}

// SignalFence marks one fence as signaled and wakes blocked waiters.
func (s *Stub) SignalFence(fence Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.objects[fence]; ok && obj.kind == kindFence {
		obj.signaled = true
	}
	s.cond.Broadcast()
}

// SignalAllFences signals every live fence.
func (s *Stub) SignalAllFences() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obj := range s.objects {
		if obj.kind == kindFence {
			obj.signaled = true
		}
	}
	s.cond.Broadcast()
}

// SetSwapchainAvailable toggles swapchain texture availability for a window,
// simulating a minimized or occluded window when set to false.
func (s *Stub) SetSwapchainAvailable(window Handle, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swapchainUnavailable[window] = !available
}

// FailNext makes the next fallible call fail with the given diagnostic.
func (s *Stub) FailNext(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = msg
}

// InitCount reports the current init count for a subsystem flag.
func (s *Stub) InitCount(flags InitFlags) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subsystemInits[flags]
}

// RootInitCount reports the current root init count.
func (s *Stub) RootInitCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rootInits
}

// LiveObjects reports the number of live native objects.
func (s *Stub) LiveObjects() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}

// PushEvent feeds an event through the watch trampoline and the poll queue,
// as the native pump would.
func (s *Stub) PushEvent(ev Event) {
	s.mu.Lock()
	watch := s.watch
	s.queued = append(s.queued, ev)
	s.mu.Unlock()

	// The native pump invokes watches outside any queue lock.
	if watch != nil {
		watch(ev)
	}
}

// failf records a diagnostic and returns it as an error.
func (s *Stub) failf(format string, args ...any) error {
	s.lastError = fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: %s", ErrNotLoaded, s.lastError)
}

// takeInjectedLocked consumes a FailNext injection, if armed.
func (s *Stub) takeInjectedLocked() (string, bool) {
	if s.failNext == "" {
		return "", false
	}
	msg := s.failNext
	s.failNext = ""
	return msg, true
}

func (s *Stub) allocLocked(kind objKind, device Handle) Handle {
	h := s.next
	s.next++
	s.objects[h] = &stubObject{kind: kind, device: device}
	return h
}

// checkLocked validates that h is a live object of the given kind.
func (s *Stub) checkLocked(h Handle, kind objKind) (*stubObject, error) {
	obj, ok := s.objects[h]
	if !ok {
		return nil, s.failf("%v handle %#x is not live", kind, uintptr(h))
	}
	if obj.kind != kind {
		return nil, s.failf("handle %#x is a %v, not a %v", uintptr(h), obj.kind, kind)
	}
	return obj, nil
}

func (s *Stub) releaseLocked(h Handle, kind objKind) {
	obj, ok := s.objects[h]
	if !ok || obj.kind != kind {
		s.lastError = fmt.Sprintf("release of dead or mistyped %v handle %#x", kind, uintptr(h))
		return
	}
	delete(s.objects, h)
	s.releasedCount[kind]++
}

// --- library lifecycle ---

func (s *Stub) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return s.failf("%s", msg)
	}
	s.rootInits++
	return nil
}

func (s *Stub) InitSubSystem(flags InitFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return s.failf("%s", msg)
	}
	s.subsystemInits[flags]++
	return nil
}

func (s *Stub) QuitSubSystem(flags InitFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subsystemInits[flags] == 0 {
		s.lastError = fmt.Sprintf("quit of uninitialized subsystem %#x", uint32(flags))
		return
	}
	s.subsystemInits[flags]--
}

func (s *Stub) Quit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rootInits > 0 {
		s.rootInits--
	}
}

func (s *Stub) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastError
}

func (s *Stub) Platform() string { return "stub" }

// --- windowing ---

func (s *Stub) CreateWindow(title string, w, h int32, flags uint64) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return NilHandle, s.failf("%s", msg)
	}
	if w <= 0 || h <= 0 {
		return NilHandle, s.failf("window size %dx%d is not positive", w, h)
	}
	return s.allocLocked(kindWindow, NilHandle), nil
}

func (s *Stub) DestroyWindow(window Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(window, kindWindow)
}

// --- events ---

func (s *Stub) SetEventWatch(fn func(Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watch = fn
	return nil
}

func (s *Stub) PumpEvents() {}

func (s *Stub) PollEvent() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queued) == 0 {
		return Event{}, false
	}
	ev := s.queued[0]
	s.queued = s.queued[1:]
	return ev, true
}

// --- GPU device ---

func (s *Stub) CreateGPUDevice(formatFlags uint32, debug bool, name string) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return NilHandle, s.failf("%s", msg)
	}
	if formatFlags == 0 {
		return NilHandle, s.failf("no shader format requested")
	}
	return s.allocLocked(kindDevice, NilHandle), nil
}

func (s *Stub) DestroyGPUDevice(device Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Device teardown invalidates every object the device owns.
	for h, obj := range s.objects {
		if obj.device == device {
			delete(s.objects, h)
			s.releasedCount[obj.kind]++
		}
	}
	s.releaseLocked(device, kindDevice)
	s.cond.Broadcast()
}

func (s *Stub) DeviceDriver(device Handle) string { return "stub" }

func (s *Stub) ClaimWindow(device, window Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.checkLocked(device, kindDevice); err != nil {
		return err
	}
	if _, err := s.checkLocked(window, kindWindow); err != nil {
		return err
	}
	return nil
}

func (s *Stub) ReleaseWindow(device, window Handle) {}

func (s *Stub) SwapchainTextureFormat(device, window Handle) uint32 {
	// B8G8R8A8_UNORM in the native format enumeration.
	return 12
}

// --- GPU resources ---

func (s *Stub) createResource(device Handle, kind objKind) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return NilHandle, s.failf("%s", msg)
	}
	if _, err := s.checkLocked(device, kindDevice); err != nil {
		return NilHandle, err
	}
	return s.allocLocked(kind, device), nil
}

func (s *Stub) CreateBuffer(device Handle, info BufferInfo) (Handle, error) {
	if info.Size == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return NilHandle, s.failf("zero-size buffer")
	}
	return s.createResource(device, kindBuffer)
}

func (s *Stub) ReleaseBuffer(device, buffer Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(buffer, kindBuffer)
}

func (s *Stub) CreateTransferBuffer(device Handle, info TransferBufferInfo) (Handle, error) {
	h, err := s.createResource(device, kindTransferBuffer)
	if err != nil {
		return NilHandle, err
	}
	s.mu.Lock()
	s.objects[h].backing = make([]byte, info.Size)
	s.mu.Unlock()
	return h, nil
}

func (s *Stub) ReleaseTransferBuffer(device, buffer Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(buffer, kindTransferBuffer)
}

func (s *Stub) MapTransferBuffer(device, buffer Handle, cycle bool, size uint32) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, err := s.checkLocked(buffer, kindTransferBuffer)
	if err != nil {
		return nil, err
	}
	if obj.mapped {
		return nil, s.failf("transfer buffer already mapped")
	}
	obj.mapped = true
	return obj.backing, nil
}

func (s *Stub) UnmapTransferBuffer(device, buffer Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj, ok := s.objects[buffer]; ok && obj.kind == kindTransferBuffer {
		obj.mapped = false
	}
}

func (s *Stub) CreateTexture(device Handle, info TextureInfo) (Handle, error) {
	if info.Width == 0 || info.Height == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return NilHandle, s.failf("zero-area texture")
	}
	return s.createResource(device, kindTexture)
}

func (s *Stub) ReleaseTexture(device, texture Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(texture, kindTexture)
}

func (s *Stub) CreateSampler(device Handle, info SamplerInfo) (Handle, error) {
	return s.createResource(device, kindSampler)
}

func (s *Stub) ReleaseSampler(device, sampler Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(sampler, kindSampler)
}

func (s *Stub) CreateShader(device Handle, info ShaderInfo) (Handle, error) {
	if len(info.Code) == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return NilHandle, s.failf("empty shader code")
	}
	return s.createResource(device, kindShader)
}

func (s *Stub) ReleaseShader(device, shader Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(shader, kindShader)
}

func (s *Stub) CreateGraphicsPipeline(device Handle, info GraphicsPipelineInfo) (Handle, error) {
	if info.VertexShader == NilHandle {
		s.mu.Lock()
		defer s.mu.Unlock()
		return NilHandle, s.failf("graphics pipeline without vertex shader")
	}
	return s.createResource(device, kindGraphicsPipeline)
}

func (s *Stub) ReleaseGraphicsPipeline(device, pipeline Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(pipeline, kindGraphicsPipeline)
}

func (s *Stub) CreateComputePipeline(device Handle, info ComputePipelineInfo) (Handle, error) {
	if len(info.Code) == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		return NilHandle, s.failf("empty compute shader code")
	}
	return s.createResource(device, kindComputePipeline)
}

func (s *Stub) ReleaseComputePipeline(device, pipeline Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(pipeline, kindComputePipeline)
}

// --- command buffers and submission ---

func (s *Stub) AcquireCommandBuffer(device Handle) (Handle, error) {
	return s.createResource(device, kindCommandBuffer)
}

func (s *Stub) finishCommandBuffer(cmdbuf Handle) (*stubObject, error) {
	obj, err := s.checkLocked(cmdbuf, kindCommandBuffer)
	if err != nil {
		return nil, err
	}
	if obj.consumed {
		return nil, s.failf("command buffer %#x already consumed", uintptr(cmdbuf))
	}
	if obj.activePass != NilHandle {
		return nil, s.failf("command buffer %#x still has an active pass", uintptr(cmdbuf))
	}
	obj.consumed = true
	// Swapchain textures are owned by the swapchain; consuming the command
	// buffer hands them back.
	for _, tex := range obj.swapTextures {
		s.releaseLocked(tex, kindTexture)
	}
	obj.swapTextures = nil
	delete(s.objects, cmdbuf)
	s.releasedCount[kindCommandBuffer]++
	return obj, nil
}

func (s *Stub) SubmitCommandBuffer(cmdbuf Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return s.failf("%s", msg)
	}
	_, err := s.finishCommandBuffer(cmdbuf)
	return err
}

func (s *Stub) SubmitAndAcquireFence(cmdbuf Handle) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return NilHandle, s.failf("%s", msg)
	}
	obj, err := s.finishCommandBuffer(cmdbuf)
	if err != nil {
		return NilHandle, err
	}
	fence := s.allocLocked(kindFence, obj.device)
	if s.autoSignal {
		s.objects[fence].signaled = true
		s.cond.Broadcast()
	}
	return fence, nil
}

func (s *Stub) CancelCommandBuffer(cmdbuf Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.finishCommandBuffer(cmdbuf)
	return err
}

func (s *Stub) PushVertexUniformData(cmdbuf Handle, slot uint32, data []byte)   {}
func (s *Stub) PushFragmentUniformData(cmdbuf Handle, slot uint32, data []byte) {}
func (s *Stub) PushComputeUniformData(cmdbuf Handle, slot uint32, data []byte)  {}

func (s *Stub) acquireSwapchain(cmdbuf, window Handle) (Handle, uint32, uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, err := s.checkLocked(cmdbuf, kindCommandBuffer)
	if err != nil {
		return NilHandle, 0, 0, err
	}
	if _, err := s.checkLocked(window, kindWindow); err != nil {
		return NilHandle, 0, 0, err
	}
	if s.swapchainUnavailable[window] {
		// Declined, not failed: minimized or occluded window.
		return NilHandle, 0, 0, nil
	}
	tex := s.allocLocked(kindTexture, obj.device)
	obj.swapTextures = append(obj.swapTextures, tex)
	return tex, 640, 480, nil
}

func (s *Stub) AcquireSwapchainTexture(cmdbuf, window Handle) (Handle, uint32, uint32, error) {
	return s.acquireSwapchain(cmdbuf, window)
}

func (s *Stub) WaitAndAcquireSwapchainTexture(cmdbuf, window Handle) (Handle, uint32, uint32, error) {
	return s.acquireSwapchain(cmdbuf, window)
}

// --- passes ---

func (s *Stub) beginPass(cmdbuf Handle, kind objKind) (Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if msg, ok := s.takeInjectedLocked(); ok {
		return NilHandle, s.failf("%s", msg)
	}
	obj, err := s.checkLocked(cmdbuf, kindCommandBuffer)
	if err != nil {
		return NilHandle, err
	}
	if obj.consumed {
		return NilHandle, s.failf("command buffer %#x already consumed", uintptr(cmdbuf))
	}
	if obj.activePass != NilHandle {
		return NilHandle, s.failf("command buffer %#x already has an active pass", uintptr(cmdbuf))
	}
	pass := s.allocLocked(kind, obj.device)
	s.objects[pass].parent = cmdbuf
	obj.activePass = pass
	return pass, nil
}

func (s *Stub) endPass(pass Handle, kind objKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[pass]
	if !ok || obj.kind != kind {
		s.lastError = fmt.Sprintf("end of dead or mistyped %v handle %#x", kind, uintptr(pass))
		return
	}
	if parent, ok := s.objects[obj.parent]; ok && parent.activePass == pass {
		parent.activePass = NilHandle
	}
	delete(s.objects, pass)
	s.releasedCount[kind]++
}

func (s *Stub) BeginRenderPass(cmdbuf Handle, colors []ColorTargetInfo, depthStencil *DepthStencilTargetInfo) (Handle, error) {
	if len(colors) == 0 && depthStencil == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		return NilHandle, s.failf("render pass without targets")
	}
	return s.beginPass(cmdbuf, kindRenderPass)
}

func (s *Stub) EndRenderPass(pass Handle) { s.endPass(pass, kindRenderPass) }

func (s *Stub) BindGraphicsPipeline(pass, pipeline Handle)                                 {}
func (s *Stub) BindVertexBuffers(pass Handle, firstSlot uint32, bindings []BufferBinding)  {}
func (s *Stub) BindIndexBuffer(pass Handle, binding BufferBinding, indexElementSize uint32) {}
func (s *Stub) BindFragmentSamplers(pass Handle, firstSlot uint32, bindings []TextureSamplerBinding) {
}
func (s *Stub) SetViewport(pass Handle, vp Viewport) {}
func (s *Stub) SetScissor(pass Handle, r Rect)       {}
func (s *Stub) DrawPrimitives(pass Handle, numVertices, numInstances, firstVertex, firstInstance uint32) {
}
func (s *Stub) DrawIndexedPrimitives(pass Handle, numIndices, numInstances, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
}

func (s *Stub) BeginComputePass(cmdbuf Handle, textures []StorageTextureRWBinding, buffers []StorageBufferRWBinding) (Handle, error) {
	return s.beginPass(cmdbuf, kindComputePass)
}

func (s *Stub) EndComputePass(pass Handle) { s.endPass(pass, kindComputePass) }

func (s *Stub) BindComputePipeline(pass, pipeline Handle)                            {}
func (s *Stub) BindComputeStorageBuffers(pass Handle, firstSlot uint32, buffers []Handle) {}
func (s *Stub) DispatchCompute(pass Handle, groupsX, groupsY, groupsZ uint32)        {}

func (s *Stub) BeginCopyPass(cmdbuf Handle) (Handle, error) {
	return s.beginPass(cmdbuf, kindCopyPass)
}

func (s *Stub) EndCopyPass(pass Handle) { s.endPass(pass, kindCopyPass) }

func (s *Stub) UploadToBuffer(pass Handle, src TransferBufferLocation, dst BufferRegion, cycle bool) {
}
func (s *Stub) DownloadFromBuffer(pass Handle, src BufferRegion, dst TransferBufferLocation) {}
func (s *Stub) CopyBufferToBuffer(pass Handle, src, dst BufferLocation, size uint32, cycle bool) {}
func (s *Stub) UploadToTexture(pass Handle, src TextureTransferInfo, dst TextureRegion, cycle bool) {
}

// --- fences ---

func (s *Stub) QueryFence(device, fence Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	obj, ok := s.objects[fence]
	return ok && obj.kind == kindFence && obj.signaled
}

func (s *Stub) WaitForFences(device Handle, waitAll bool, fences []Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		done := waitAll
		for _, f := range fences {
			obj, ok := s.objects[f]
			signaled := ok && obj.kind == kindFence && obj.signaled
			// A released fence counts as signaled, like the native layer.
			if !ok {
				signaled = true
			}
			if waitAll {
				done = done && signaled
			} else if signaled {
				done = true
			}
		}
		if done || len(fences) == 0 {
			return nil
		}
		s.cond.Wait()
	}
}

func (s *Stub) ReleaseFence(device, fence Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked(fence, kindFence)
	s.cond.Broadcast()
}

func (s *Stub) WaitForIdle(device Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		idle := true
		for _, obj := range s.objects {
			if obj.kind == kindFence && obj.device == device && !obj.signaled {
				idle = false
				break
			}
		}
		if idle {
			return nil
		}
		s.cond.Wait()
	}
}

var _ API = (*Stub)(nil)

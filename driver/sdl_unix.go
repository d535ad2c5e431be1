// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build linux || darwin

package driver

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// C-layout mirrors of the native create/descriptor structs. Field order and
// padding follow the native headers; these cross the FFI boundary by address.

type cBufferCreateInfo struct {
	usage uint32
	size  uint32
	props uint32
	_     uint32
}

type cTransferBufferCreateInfo struct {
	usage uint32
	size  uint32
	props uint32
	_     uint32
}

type cTextureCreateInfo struct {
	typ               uint32
	format            uint32
	usage             uint32
	width             uint32
	height            uint32
	layerCountOrDepth uint32
	numLevels         uint32
	sampleCount       uint32
	props             uint32
	_                 uint32
}

type cSamplerCreateInfo struct {
	minFilter        uint32
	magFilter        uint32
	mipmapMode       uint32
	addressModeU     uint32
	addressModeV     uint32
	addressModeW     uint32
	mipLodBias       float32
	maxAnisotropy    float32
	compareOp        uint32
	minLod           float32
	maxLod           float32
	enableAnisotropy bool
	enableCompare    bool
	_                [2]byte
	props            uint32
}

type cShaderCreateInfo struct {
	codeSize           uintptr
	code               unsafe.Pointer
	entrypoint         unsafe.Pointer
	format             uint32
	stage              uint32
	numSamplers        uint32
	numStorageTextures uint32
	numStorageBuffers  uint32
	numUniformBuffers  uint32
	props              uint32
	_                  uint32
}

type cComputePipelineCreateInfo struct {
	codeSize                    uintptr
	code                        unsafe.Pointer
	entrypoint                  unsafe.Pointer
	format                      uint32
	numSamplers                 uint32
	numReadonlyStorageTextures  uint32
	numReadonlyStorageBuffers   uint32
	numReadWriteStorageTextures uint32
	numReadWriteStorageBuffers  uint32
	numUniformBuffers           uint32
	threadCountX                uint32
	threadCountY                uint32
	threadCountZ                uint32
	props                       uint32
	_                           uint32
}

type cVertexBufferDescription struct {
	slot             uint32
	pitch            uint32
	inputRate        uint32
	instanceStepRate uint32
}

type cVertexAttribute struct {
	location   uint32
	bufferSlot uint32
	format     uint32
	offset     uint32
}

type cColorTargetBlendState struct {
	srcColorBlendFactor  uint32
	dstColorBlendFactor  uint32
	colorBlendOp         uint32
	srcAlphaBlendFactor  uint32
	dstAlphaBlendFactor  uint32
	alphaBlendOp         uint32
	colorWriteMask       uint8
	enableBlend          bool
	enableColorWriteMask bool
	_                    byte
}

type cColorTargetDescription struct {
	format     uint32
	blendState cColorTargetBlendState
}

type cStencilOpState struct {
	failOp      uint32
	passOp      uint32
	depthFailOp uint32
	compareOp   uint32
}

type cGraphicsPipelineCreateInfo struct {
	vertexShader   uintptr
	fragmentShader uintptr

	// vertex input state
	vertexBufferDescriptions unsafe.Pointer
	numVertexBuffers         uint32
	_                        uint32
	vertexAttributes         unsafe.Pointer
	numVertexAttributes      uint32

	primitiveType uint32

	// rasterizer state
	fillMode                uint32
	cullMode                uint32
	frontFace               uint32
	depthBiasConstantFactor float32
	depthBiasClamp          float32
	depthBiasSlopeFactor    float32
	enableDepthBias         bool
	enableDepthClip         bool
	_                       [2]byte

	// multisample state
	sampleCount           uint32
	sampleMask            uint32
	enableMask            bool
	enableAlphaToCoverage bool
	_                     [2]byte

	// depth stencil state
	compareOp         uint32
	backStencilState  cStencilOpState
	frontStencilState cStencilOpState
	compareMask       uint8
	writeMask         uint8
	enableDepthTest   bool
	enableDepthWrite  bool
	enableStencilTest bool
	_                 [3]byte

	// target info
	colorTargetDescriptions unsafe.Pointer
	numColorTargets         uint32
	depthStencilFormat      uint32
	hasDepthStencilTarget   bool
	_                       [3]byte

	props uint32
	_     uint32
}

type cColorTargetInfo struct {
	texture             uintptr
	mipLevel            uint32
	layerOrDepthPlane   uint32
	clearColor          [4]float32
	loadOp              uint32
	storeOp             uint32
	resolveTexture      uintptr
	resolveMipLevel     uint32
	resolveLayer        uint32
	cycle               bool
	cycleResolveTexture bool
	_                   [2]byte
	_                   uint32
}

type cDepthStencilTargetInfo struct {
	texture        uintptr
	clearDepth     float32
	loadOp         uint32
	storeOp        uint32
	stencilLoadOp  uint32
	stencilStoreOp uint32
	cycle          bool
	clearStencil   uint8
	_              [2]byte
}

type cBufferBinding struct {
	buffer uintptr
	offset uint32
	_      uint32
}

type cTextureSamplerBinding struct {
	texture uintptr
	sampler uintptr
}

type cStorageBufferRWBinding struct {
	buffer uintptr
	cycle  bool
	_      [7]byte
}

type cStorageTextureRWBinding struct {
	texture  uintptr
	mipLevel uint32
	layer    uint32
	cycle    bool
	_        [7]byte
}

type cTransferBufferLocation struct {
	transferBuffer uintptr
	offset         uint32
	_              uint32
}

type cBufferLocation struct {
	buffer uintptr
	offset uint32
	_      uint32
}

type cBufferRegion struct {
	buffer uintptr
	offset uint32
	size   uint32
}

type cTextureTransferInfo struct {
	transferBuffer uintptr
	offset         uint32
	pixelsPerRow   uint32
	rowsPerLayer   uint32
}

type cTextureRegion struct {
	texture  uintptr
	mipLevel uint32
	layer    uint32
	x, y, z  uint32
	w, h, d  uint32
	_        uint32
}

type cViewport struct {
	x, y     float32
	w, h     float32
	minDepth float32
	maxDepth float32
}

type cRect struct {
	x, y int32
	w, h int32
}

// FFI is the purego-backed driver that loads the native shared library.
type FFI struct {
	lib uintptr

	initFn           func(uint32) bool
	initSubSystem    func(uint32) bool
	quitSubSystem    func(uint32)
	quit             func()
	getError         func() string
	getPlatform      func() string
	createWindow     func(string, int32, int32, uint64) uintptr
	destroyWindow    func(uintptr)
	addEventWatch    func(uintptr, uintptr) bool
	removeEventWatch func(uintptr, uintptr)
	pumpEvents       func()
	pollEvent        func(unsafe.Pointer) bool

	createGPUDevice             func(uint32, bool, string) uintptr
	destroyGPUDevice            func(uintptr)
	getGPUDeviceDriver          func(uintptr) string
	claimWindow                 func(uintptr, uintptr) bool
	releaseWindow               func(uintptr, uintptr)
	getSwapchainTextureFormat   func(uintptr, uintptr) uint32
	createBuffer                func(uintptr, unsafe.Pointer) uintptr
	releaseBuffer               func(uintptr, uintptr)
	createTransferBuffer        func(uintptr, unsafe.Pointer) uintptr
	releaseTransferBuffer       func(uintptr, uintptr)
	mapTransferBuffer           func(uintptr, uintptr, bool) unsafe.Pointer
	unmapTransferBuffer         func(uintptr, uintptr)
	createTexture               func(uintptr, unsafe.Pointer) uintptr
	releaseTexture              func(uintptr, uintptr)
	createSampler               func(uintptr, unsafe.Pointer) uintptr
	releaseSampler              func(uintptr, uintptr)
	createShader                func(uintptr, unsafe.Pointer) uintptr
	releaseShader               func(uintptr, uintptr)
	createGraphicsPipeline      func(uintptr, unsafe.Pointer) uintptr
	releaseGraphicsPipeline     func(uintptr, uintptr)
	createComputePipeline       func(uintptr, unsafe.Pointer) uintptr
	releaseComputePipeline      func(uintptr, uintptr)
	acquireCommandBuffer        func(uintptr) uintptr
	submitCommandBuffer         func(uintptr) bool
	submitAndAcquireFence       func(uintptr) uintptr
	cancelCommandBuffer         func(uintptr) bool
	pushVertexUniformData       func(uintptr, uint32, unsafe.Pointer, uint32)
	pushFragmentUniformData     func(uintptr, uint32, unsafe.Pointer, uint32)
	pushComputeUniformData      func(uintptr, uint32, unsafe.Pointer, uint32)
	acquireSwapchainTexture     func(uintptr, uintptr, *uintptr, *uint32, *uint32) bool
	waitAcquireSwapchainTexture func(uintptr, uintptr, *uintptr, *uint32, *uint32) bool

	beginRenderPass       func(uintptr, unsafe.Pointer, uint32, unsafe.Pointer) uintptr
	endRenderPass         func(uintptr)
	bindGraphicsPipeline  func(uintptr, uintptr)
	bindVertexBuffers     func(uintptr, uint32, unsafe.Pointer, uint32)
	bindIndexBuffer       func(uintptr, unsafe.Pointer, uint32)
	bindFragmentSamplers  func(uintptr, uint32, unsafe.Pointer, uint32)
	setViewport           func(uintptr, unsafe.Pointer)
	setScissor            func(uintptr, unsafe.Pointer)
	drawPrimitives        func(uintptr, uint32, uint32, uint32, uint32)
	drawIndexedPrimitives func(uintptr, uint32, uint32, uint32, int32, uint32)

	beginComputePass          func(uintptr, unsafe.Pointer, uint32, unsafe.Pointer, uint32) uintptr
	endComputePass            func(uintptr)
	bindComputePipeline       func(uintptr, uintptr)
	bindComputeStorageBuffers func(uintptr, uint32, unsafe.Pointer, uint32)
	dispatchCompute           func(uintptr, uint32, uint32, uint32)

	beginCopyPass      func(uintptr) uintptr
	endCopyPass        func(uintptr)
	uploadToBuffer     func(uintptr, unsafe.Pointer, unsafe.Pointer, bool)
	downloadFromBuffer func(uintptr, unsafe.Pointer, unsafe.Pointer)
	copyBufferToBuffer func(uintptr, unsafe.Pointer, unsafe.Pointer, uint32, bool)
	uploadToTexture    func(uintptr, unsafe.Pointer, unsafe.Pointer, bool)

	queryFence    func(uintptr, uintptr) bool
	waitForFences func(uintptr, bool, unsafe.Pointer, uint32) bool
	releaseFence  func(uintptr, uintptr)
	waitForIdle   func(uintptr) bool

	watchMu     sync.Mutex
	watch       func(Event)
	watchCB     uintptr
	watchActive bool
}

var (
	ffiOnce sync.Once
	ffiAPI  *FFI
	ffiErr  error
)

func init() {
	Register(DriverSDL, func() API {
		f, err := loadFFI()
		if err != nil {
			return nil
		}
		return f
	})
}

// libraryNames are the candidate shared library names per platform.
func libraryNames() []string {
	if runtime.GOOS == "darwin" {
		return []string{"libSDL3.dylib", "SDL3.framework/SDL3"}
	}
	return []string{"libSDL3.so.0", "libSDL3.so"}
}

// loadFFI loads the native library once per process.
func loadFFI() (*FFI, error) {
	ffiOnce.Do(func() {
		var lib uintptr
		var err error
		for _, name := range libraryNames() {
			lib, err = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err == nil {
				break
			}
		}
		if lib == 0 {
			ffiErr = fmt.Errorf("%w: %v", ErrNotLoaded, err)
			return
		}
		f := &FFI{lib: lib}
		f.register()
		ffiAPI = f
	})
	return ffiAPI, ffiErr
}

// register binds every native entry point this module consumes.
func (f *FFI) register() {
	reg := func(fptr any, name string) {
		purego.RegisterLibFunc(fptr, f.lib, name)
	}

	reg(&f.initFn, "SDL_Init")
	reg(&f.initSubSystem, "SDL_InitSubSystem")
	reg(&f.quitSubSystem, "SDL_QuitSubSystem")
	reg(&f.quit, "SDL_Quit")
	reg(&f.getError, "SDL_GetError")
	reg(&f.getPlatform, "SDL_GetPlatform")
	reg(&f.createWindow, "SDL_CreateWindow")
	reg(&f.destroyWindow, "SDL_DestroyWindow")
	reg(&f.addEventWatch, "SDL_AddEventWatch")
	reg(&f.removeEventWatch, "SDL_RemoveEventWatch")
	reg(&f.pumpEvents, "SDL_PumpEvents")
	reg(&f.pollEvent, "SDL_PollEvent")

	reg(&f.createGPUDevice, "SDL_CreateGPUDevice")
	reg(&f.destroyGPUDevice, "SDL_DestroyGPUDevice")
	reg(&f.getGPUDeviceDriver, "SDL_GetGPUDeviceDriver")
	reg(&f.claimWindow, "SDL_ClaimWindowForGPUDevice")
	reg(&f.releaseWindow, "SDL_ReleaseWindowFromGPUDevice")
	reg(&f.getSwapchainTextureFormat, "SDL_GetGPUSwapchainTextureFormat")
	reg(&f.createBuffer, "SDL_CreateGPUBuffer")
	reg(&f.releaseBuffer, "SDL_ReleaseGPUBuffer")
	reg(&f.createTransferBuffer, "SDL_CreateGPUTransferBuffer")
	reg(&f.releaseTransferBuffer, "SDL_ReleaseGPUTransferBuffer")
	reg(&f.mapTransferBuffer, "SDL_MapGPUTransferBuffer")
	reg(&f.unmapTransferBuffer, "SDL_UnmapGPUTransferBuffer")
	reg(&f.createTexture, "SDL_CreateGPUTexture")
	reg(&f.releaseTexture, "SDL_ReleaseGPUTexture")
	reg(&f.createSampler, "SDL_CreateGPUSampler")
	reg(&f.releaseSampler, "SDL_ReleaseGPUSampler")
	reg(&f.createShader, "SDL_CreateGPUShader")
	reg(&f.releaseShader, "SDL_ReleaseGPUShader")
	reg(&f.createGraphicsPipeline, "SDL_CreateGPUGraphicsPipeline")
	reg(&f.releaseGraphicsPipeline, "SDL_ReleaseGPUGraphicsPipeline")
	reg(&f.createComputePipeline, "SDL_CreateGPUComputePipeline")
	reg(&f.releaseComputePipeline, "SDL_ReleaseGPUComputePipeline")
	reg(&f.acquireCommandBuffer, "SDL_AcquireGPUCommandBuffer")
	reg(&f.submitCommandBuffer, "SDL_SubmitGPUCommandBuffer")
	reg(&f.submitAndAcquireFence, "SDL_SubmitGPUCommandBufferAndAcquireFence")
	reg(&f.cancelCommandBuffer, "SDL_CancelGPUCommandBuffer")
	reg(&f.pushVertexUniformData, "SDL_PushGPUVertexUniformData")
	reg(&f.pushFragmentUniformData, "SDL_PushGPUFragmentUniformData")
	reg(&f.pushComputeUniformData, "SDL_PushGPUComputeUniformData")
	reg(&f.acquireSwapchainTexture, "SDL_AcquireGPUSwapchainTexture")
	reg(&f.waitAcquireSwapchainTexture, "SDL_WaitAndAcquireGPUSwapchainTexture")

	reg(&f.beginRenderPass, "SDL_BeginGPURenderPass")
	reg(&f.endRenderPass, "SDL_EndGPURenderPass")
	reg(&f.bindGraphicsPipeline, "SDL_BindGPUGraphicsPipeline")
	reg(&f.bindVertexBuffers, "SDL_BindGPUVertexBuffers")
	reg(&f.bindIndexBuffer, "SDL_BindGPUIndexBuffer")
	reg(&f.bindFragmentSamplers, "SDL_BindGPUFragmentSamplers")
	reg(&f.setViewport, "SDL_SetGPUViewport")
	reg(&f.setScissor, "SDL_SetGPUScissor")
	reg(&f.drawPrimitives, "SDL_DrawGPUPrimitives")
	reg(&f.drawIndexedPrimitives, "SDL_DrawGPUIndexedPrimitives")

	reg(&f.beginComputePass, "SDL_BeginGPUComputePass")
	reg(&f.endComputePass, "SDL_EndGPUComputePass")
	reg(&f.bindComputePipeline, "SDL_BindGPUComputePipeline")
	reg(&f.bindComputeStorageBuffers, "SDL_BindGPUComputeStorageBuffers")
	reg(&f.dispatchCompute, "SDL_DispatchGPUCompute")

	reg(&f.beginCopyPass, "SDL_BeginGPUCopyPass")
	reg(&f.endCopyPass, "SDL_EndGPUCopyPass")
	reg(&f.uploadToBuffer, "SDL_UploadToGPUBuffer")
	reg(&f.downloadFromBuffer, "SDL_DownloadFromGPUBuffer")
	reg(&f.copyBufferToBuffer, "SDL_CopyGPUBufferToBuffer")
	reg(&f.uploadToTexture, "SDL_UploadToGPUTexture")

	reg(&f.queryFence, "SDL_QueryGPUFence")
	reg(&f.waitForFences, "SDL_WaitForGPUFences")
	reg(&f.releaseFence, "SDL_ReleaseGPUFence")
	reg(&f.waitForIdle, "SDL_WaitForGPUIdle")
}

// Name returns the driver identifier.
func (f *FFI) Name() string { return DriverSDL }

// nativeErr wraps the current native diagnostic.
func (f *FFI) nativeErr(op string) error {
	return fmt.Errorf("%s: %w: %s", op, ErrNotLoaded, f.getError())
}

// cstr returns a NUL-terminated copy of s. Keep the slice alive across the call.
func cstr(s string) []byte {
	b := make([]byte, len(s)+1)
	copy(b, s)
	return b
}

func sliceHead[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Pointer(&s[0])
}

func (f *FFI) Init() error {
	if !f.initFn(0) {
		return f.nativeErr("init")
	}
	return nil
}

func (f *FFI) InitSubSystem(flags InitFlags) error {
	if !f.initSubSystem(uint32(flags)) {
		return f.nativeErr("init subsystem")
	}
	return nil
}

func (f *FFI) QuitSubSystem(flags InitFlags) { f.quitSubSystem(uint32(flags)) }
func (f *FFI) Quit()                         { f.quit() }
func (f *FFI) LastError() string             { return f.getError() }
func (f *FFI) Platform() string              { return f.getPlatform() }

func (f *FFI) CreateWindow(title string, w, h int32, flags uint64) (Handle, error) {
	raw := f.createWindow(title, w, h, flags)
	if raw == 0 {
		return NilHandle, f.nativeErr("create window")
	}
	return Handle(raw), nil
}

func (f *FFI) DestroyWindow(window Handle) { f.destroyWindow(uintptr(window)) }

func (f *FFI) SetEventWatch(fn func(Event)) error {
	f.watchMu.Lock()
	defer f.watchMu.Unlock()

	if fn == nil {
		if f.watchActive {
			f.removeEventWatch(f.watchCB, 0)
			f.watchActive = false
		}
		f.watch = nil
		return nil
	}

	// purego callbacks draw from a small fixed pool and are never freed, so
	// the trampoline is created once per instance and reused across installs.
	// The event pointer layout is the common native header: type u32,
	// reserved u32, timestamp u64, then the event-specific fields starting
	// with the window id.
	if f.watchCB == 0 {
		f.watchCB = purego.NewCallback(func(userdata, event uintptr) uintptr {
			f.watchMu.Lock()
			watch := f.watch
			f.watchMu.Unlock()
			if watch != nil && event != 0 {
				watch(decodeEvent(event))
			}
			return 1
		})
	}
	f.watch = fn
	if !f.watchActive {
		if !f.addEventWatch(f.watchCB, 0) {
			f.watch = nil
			return f.nativeErr("add event watch")
		}
		f.watchActive = true
	}
	return nil
}

func decodeEvent(event uintptr) Event {
	p := unsafe.Pointer(event)
	return Event{
		Type:      *(*uint32)(p),
		Timestamp: *(*uint64)(unsafe.Add(p, 8)),
		WindowID:  *(*uint32)(unsafe.Add(p, 16)),
		Code:      *(*int32)(unsafe.Add(p, 20)),
	}
}

func (f *FFI) PumpEvents() { f.pumpEvents() }

func (f *FFI) PollEvent() (Event, bool) {
	// The native event union is 128 bytes.
	var buf [128]byte
	if !f.pollEvent(unsafe.Pointer(&buf[0])) {
		return Event{}, false
	}
	return decodeEvent(uintptr(unsafe.Pointer(&buf[0]))), true
}

func (f *FFI) CreateGPUDevice(formatFlags uint32, debug bool, name string) (Handle, error) {
	raw := f.createGPUDevice(formatFlags, debug, name)
	if raw == 0 {
		return NilHandle, f.nativeErr("create device")
	}
	return Handle(raw), nil
}

func (f *FFI) DestroyGPUDevice(device Handle) { f.destroyGPUDevice(uintptr(device)) }

func (f *FFI) DeviceDriver(device Handle) string { return f.getGPUDeviceDriver(uintptr(device)) }

func (f *FFI) ClaimWindow(device, window Handle) error {
	if !f.claimWindow(uintptr(device), uintptr(window)) {
		return f.nativeErr("claim window")
	}
	return nil
}

func (f *FFI) ReleaseWindow(device, window Handle) {
	f.releaseWindow(uintptr(device), uintptr(window))
}

func (f *FFI) SwapchainTextureFormat(device, window Handle) uint32 {
	return f.getSwapchainTextureFormat(uintptr(device), uintptr(window))
}

func (f *FFI) CreateBuffer(device Handle, info BufferInfo) (Handle, error) {
	ci := cBufferCreateInfo{usage: info.Usage, size: info.Size}
	raw := f.createBuffer(uintptr(device), unsafe.Pointer(&ci))
	if raw == 0 {
		return NilHandle, f.nativeErr("create buffer")
	}
	return Handle(raw), nil
}

func (f *FFI) ReleaseBuffer(device, buffer Handle) {
	f.releaseBuffer(uintptr(device), uintptr(buffer))
}

func (f *FFI) CreateTransferBuffer(device Handle, info TransferBufferInfo) (Handle, error) {
	ci := cTransferBufferCreateInfo{usage: info.Usage, size: info.Size}
	raw := f.createTransferBuffer(uintptr(device), unsafe.Pointer(&ci))
	if raw == 0 {
		return NilHandle, f.nativeErr("create transfer buffer")
	}
	return Handle(raw), nil
}

func (f *FFI) ReleaseTransferBuffer(device, buffer Handle) {
	f.releaseTransferBuffer(uintptr(device), uintptr(buffer))
}

func (f *FFI) MapTransferBuffer(device, buffer Handle, cycle bool, size uint32) ([]byte, error) {
	p := f.mapTransferBuffer(uintptr(device), uintptr(buffer), cycle)
	if p == nil {
		return nil, f.nativeErr("map transfer buffer")
	}
	return unsafe.Slice((*byte)(p), size), nil
}

func (f *FFI) UnmapTransferBuffer(device, buffer Handle) {
	f.unmapTransferBuffer(uintptr(device), uintptr(buffer))
}

func (f *FFI) CreateTexture(device Handle, info TextureInfo) (Handle, error) {
	ci := cTextureCreateInfo{
		typ:               info.Type,
		format:            info.Format,
		usage:             info.Usage,
		width:             info.Width,
		height:            info.Height,
		layerCountOrDepth: info.LayerCountOrDepth,
		numLevels:         info.NumLevels,
		sampleCount:       info.SampleCount,
	}
	raw := f.createTexture(uintptr(device), unsafe.Pointer(&ci))
	if raw == 0 {
		return NilHandle, f.nativeErr("create texture")
	}
	return Handle(raw), nil
}

func (f *FFI) ReleaseTexture(device, texture Handle) {
	f.releaseTexture(uintptr(device), uintptr(texture))
}

func (f *FFI) CreateSampler(device Handle, info SamplerInfo) (Handle, error) {
	ci := cSamplerCreateInfo{
		minFilter:        info.MinFilter,
		magFilter:        info.MagFilter,
		mipmapMode:       info.MipmapMode,
		addressModeU:     info.AddressModeU,
		addressModeV:     info.AddressModeV,
		addressModeW:     info.AddressModeW,
		mipLodBias:       info.MipLodBias,
		maxAnisotropy:    info.MaxAnisotropy,
		compareOp:        info.CompareOp,
		minLod:           info.MinLod,
		maxLod:           info.MaxLod,
		enableAnisotropy: info.EnableAnisotropy,
		enableCompare:    info.EnableCompare,
	}
	raw := f.createSampler(uintptr(device), unsafe.Pointer(&ci))
	if raw == 0 {
		return NilHandle, f.nativeErr("create sampler")
	}
	return Handle(raw), nil
}

func (f *FFI) ReleaseSampler(device, sampler Handle) {
	f.releaseSampler(uintptr(device), uintptr(sampler))
}

func (f *FFI) CreateShader(device Handle, info ShaderInfo) (Handle, error) {
	entry := cstr(info.EntryPoint)
	ci := cShaderCreateInfo{
		codeSize:           uintptr(len(info.Code)),
		code:               sliceHead(info.Code),
		entrypoint:         unsafe.Pointer(&entry[0]),
		format:             info.Format,
		stage:              info.Stage,
		numSamplers:        info.NumSamplers,
		numStorageTextures: info.NumStorageTextures,
		numStorageBuffers:  info.NumStorageBuffers,
		numUniformBuffers:  info.NumUniformBuffers,
	}
	raw := f.createShader(uintptr(device), unsafe.Pointer(&ci))
	runtime.KeepAlive(info.Code)
	runtime.KeepAlive(entry)
	if raw == 0 {
		return NilHandle, f.nativeErr("create shader")
	}
	return Handle(raw), nil
}

func (f *FFI) ReleaseShader(device, shader Handle) {
	f.releaseShader(uintptr(device), uintptr(shader))
}

func (f *FFI) CreateGraphicsPipeline(device Handle, info GraphicsPipelineInfo) (Handle, error) {
	vbs := make([]cVertexBufferDescription, len(info.VertexBuffers))
	for i, vb := range info.VertexBuffers {
		vbs[i] = cVertexBufferDescription{
			slot:             vb.Slot,
			pitch:            vb.Pitch,
			inputRate:        vb.InputRate,
			instanceStepRate: vb.InstanceStepRate,
		}
	}
	vas := make([]cVertexAttribute, len(info.VertexAttributes))
	for i, va := range info.VertexAttributes {
		vas[i] = cVertexAttribute{
			location:   va.Location,
			bufferSlot: va.BufferSlot,
			format:     va.Format,
			offset:     va.Offset,
		}
	}
	cts := make([]cColorTargetDescription, len(info.ColorTargets))
	for i, ct := range info.ColorTargets {
		cts[i] = cColorTargetDescription{
			format: ct.Format,
			blendState: cColorTargetBlendState{
				srcColorBlendFactor: ct.SrcColorBlendFactor,
				dstColorBlendFactor: ct.DstColorBlendFactor,
				colorBlendOp:        ct.ColorBlendOp,
				srcAlphaBlendFactor: ct.SrcAlphaBlendFactor,
				dstAlphaBlendFactor: ct.DstAlphaBlendFactor,
				alphaBlendOp:        ct.AlphaBlendOp,
				colorWriteMask:      uint8(ct.ColorWriteMask),
				enableBlend:         ct.EnableBlend,
			},
		}
	}

	ci := cGraphicsPipelineCreateInfo{
		vertexShader:             uintptr(info.VertexShader),
		fragmentShader:           uintptr(info.FragmentShader),
		vertexBufferDescriptions: sliceHead(vbs),
		numVertexBuffers:         uint32(len(vbs)),
		vertexAttributes:         sliceHead(vas),
		numVertexAttributes:      uint32(len(vas)),
		primitiveType:            info.PrimitiveType,
		fillMode:                 info.FillMode,
		cullMode:                 info.CullMode,
		frontFace:                info.FrontFace,
		enableDepthClip:          true,
		sampleCount:              info.SampleCount,
		sampleMask:               info.SampleMask,
		compareOp:                info.CompareOp,
		enableDepthTest:          info.EnableDepthTest,
		enableDepthWrite:         info.EnableDepthWrite,
		enableStencilTest:        info.EnableStencilTest,
		colorTargetDescriptions:  sliceHead(cts),
		numColorTargets:          uint32(len(cts)),
		depthStencilFormat:       info.DepthStencilFormat,
		hasDepthStencilTarget:    info.HasDepthStencilTarget,
	}
	raw := f.createGraphicsPipeline(uintptr(device), unsafe.Pointer(&ci))
	runtime.KeepAlive(vbs)
	runtime.KeepAlive(vas)
	runtime.KeepAlive(cts)
	if raw == 0 {
		return NilHandle, f.nativeErr("create graphics pipeline")
	}
	return Handle(raw), nil
}

func (f *FFI) ReleaseGraphicsPipeline(device, pipeline Handle) {
	f.releaseGraphicsPipeline(uintptr(device), uintptr(pipeline))
}

func (f *FFI) CreateComputePipeline(device Handle, info ComputePipelineInfo) (Handle, error) {
	entry := cstr(info.EntryPoint)
	ci := cComputePipelineCreateInfo{
		codeSize:                    uintptr(len(info.Code)),
		code:                        sliceHead(info.Code),
		entrypoint:                  unsafe.Pointer(&entry[0]),
		format:                      info.Format,
		numSamplers:                 info.NumSamplers,
		numReadonlyStorageTextures:  info.NumReadonlyStorageTextures,
		numReadonlyStorageBuffers:   info.NumReadonlyStorageBuffers,
		numReadWriteStorageTextures: info.NumReadWriteStorageTextures,
		numReadWriteStorageBuffers:  info.NumReadWriteStorageBuffers,
		numUniformBuffers:           info.NumUniformBuffers,
		threadCountX:                info.ThreadCountX,
		threadCountY:                info.ThreadCountY,
		threadCountZ:                info.ThreadCountZ,
	}
	raw := f.createComputePipeline(uintptr(device), unsafe.Pointer(&ci))
	runtime.KeepAlive(info.Code)
	runtime.KeepAlive(entry)
	if raw == 0 {
		return NilHandle, f.nativeErr("create compute pipeline")
	}
	return Handle(raw), nil
}

func (f *FFI) ReleaseComputePipeline(device, pipeline Handle) {
	f.releaseComputePipeline(uintptr(device), uintptr(pipeline))
}

func (f *FFI) AcquireCommandBuffer(device Handle) (Handle, error) {
	raw := f.acquireCommandBuffer(uintptr(device))
	if raw == 0 {
		return NilHandle, f.nativeErr("acquire command buffer")
	}
	return Handle(raw), nil
}

func (f *FFI) SubmitCommandBuffer(cmdbuf Handle) error {
	if !f.submitCommandBuffer(uintptr(cmdbuf)) {
		return f.nativeErr("submit")
	}
	return nil
}

func (f *FFI) SubmitAndAcquireFence(cmdbuf Handle) (Handle, error) {
	raw := f.submitAndAcquireFence(uintptr(cmdbuf))
	if raw == 0 {
		return NilHandle, f.nativeErr("submit and acquire fence")
	}
	return Handle(raw), nil
}

func (f *FFI) CancelCommandBuffer(cmdbuf Handle) error {
	if !f.cancelCommandBuffer(uintptr(cmdbuf)) {
		return f.nativeErr("cancel")
	}
	return nil
}

func (f *FFI) PushVertexUniformData(cmdbuf Handle, slot uint32, data []byte) {
	f.pushVertexUniformData(uintptr(cmdbuf), slot, sliceHead(data), uint32(len(data)))
	runtime.KeepAlive(data)
}

func (f *FFI) PushFragmentUniformData(cmdbuf Handle, slot uint32, data []byte) {
	f.pushFragmentUniformData(uintptr(cmdbuf), slot, sliceHead(data), uint32(len(data)))
	runtime.KeepAlive(data)
}

func (f *FFI) PushComputeUniformData(cmdbuf Handle, slot uint32, data []byte) {
	f.pushComputeUniformData(uintptr(cmdbuf), slot, sliceHead(data), uint32(len(data)))
	runtime.KeepAlive(data)
}

func (f *FFI) AcquireSwapchainTexture(cmdbuf, window Handle) (Handle, uint32, uint32, error) {
	var tex uintptr
	var w, h uint32
	if !f.acquireSwapchainTexture(uintptr(cmdbuf), uintptr(window), &tex, &w, &h) {
		return NilHandle, 0, 0, f.nativeErr("acquire swapchain texture")
	}
	// tex may be 0 on success: no texture available this frame.
	return Handle(tex), w, h, nil
}

func (f *FFI) WaitAndAcquireSwapchainTexture(cmdbuf, window Handle) (Handle, uint32, uint32, error) {
	var tex uintptr
	var w, h uint32
	if !f.waitAcquireSwapchainTexture(uintptr(cmdbuf), uintptr(window), &tex, &w, &h) {
		return NilHandle, 0, 0, f.nativeErr("wait and acquire swapchain texture")
	}
	return Handle(tex), w, h, nil
}

func (f *FFI) BeginRenderPass(cmdbuf Handle, colors []ColorTargetInfo, depthStencil *DepthStencilTargetInfo) (Handle, error) {
	cts := make([]cColorTargetInfo, len(colors))
	for i, c := range colors {
		cts[i] = cColorTargetInfo{
			texture:             uintptr(c.Texture),
			mipLevel:            c.MipLevel,
			layerOrDepthPlane:   c.LayerOrDepthPlane,
			clearColor:          c.ClearColor,
			loadOp:              c.LoadOp,
			storeOp:             c.StoreOp,
			resolveTexture:      uintptr(c.ResolveTexture),
			resolveMipLevel:     c.ResolveMipLevel,
			resolveLayer:        c.ResolveLayer,
			cycle:               c.Cycle,
			cycleResolveTexture: c.CycleResolve,
		}
	}
	var ds *cDepthStencilTargetInfo
	if depthStencil != nil {
		ds = &cDepthStencilTargetInfo{
			texture:        uintptr(depthStencil.Texture),
			clearDepth:     depthStencil.ClearDepth,
			loadOp:         depthStencil.LoadOp,
			storeOp:        depthStencil.StoreOp,
			stencilLoadOp:  depthStencil.StencilLoadOp,
			stencilStoreOp: depthStencil.StencilStoreOp,
			cycle:          depthStencil.Cycle,
			clearStencil:   depthStencil.ClearStencil,
		}
	}
	raw := f.beginRenderPass(uintptr(cmdbuf), sliceHead(cts), uint32(len(cts)), unsafe.Pointer(ds))
	runtime.KeepAlive(cts)
	runtime.KeepAlive(ds)
	if raw == 0 {
		return NilHandle, f.nativeErr("begin render pass")
	}
	return Handle(raw), nil
}

func (f *FFI) EndRenderPass(pass Handle) { f.endRenderPass(uintptr(pass)) }

func (f *FFI) BindGraphicsPipeline(pass, pipeline Handle) {
	f.bindGraphicsPipeline(uintptr(pass), uintptr(pipeline))
}

func (f *FFI) BindVertexBuffers(pass Handle, firstSlot uint32, bindings []BufferBinding) {
	bs := make([]cBufferBinding, len(bindings))
	for i, b := range bindings {
		bs[i] = cBufferBinding{buffer: uintptr(b.Buffer), offset: b.Offset}
	}
	f.bindVertexBuffers(uintptr(pass), firstSlot, sliceHead(bs), uint32(len(bs)))
	runtime.KeepAlive(bs)
}

func (f *FFI) BindIndexBuffer(pass Handle, binding BufferBinding, indexElementSize uint32) {
	b := cBufferBinding{buffer: uintptr(binding.Buffer), offset: binding.Offset}
	f.bindIndexBuffer(uintptr(pass), unsafe.Pointer(&b), indexElementSize)
}

func (f *FFI) BindFragmentSamplers(pass Handle, firstSlot uint32, bindings []TextureSamplerBinding) {
	bs := make([]cTextureSamplerBinding, len(bindings))
	for i, b := range bindings {
		bs[i] = cTextureSamplerBinding{texture: uintptr(b.Texture), sampler: uintptr(b.Sampler)}
	}
	f.bindFragmentSamplers(uintptr(pass), firstSlot, sliceHead(bs), uint32(len(bs)))
	runtime.KeepAlive(bs)
}

func (f *FFI) SetViewport(pass Handle, vp Viewport) {
	v := cViewport{x: vp.X, y: vp.Y, w: vp.W, h: vp.H, minDepth: vp.MinDepth, maxDepth: vp.MaxDepth}
	f.setViewport(uintptr(pass), unsafe.Pointer(&v))
}

func (f *FFI) SetScissor(pass Handle, r Rect) {
	c := cRect{x: r.X, y: r.Y, w: r.W, h: r.H}
	f.setScissor(uintptr(pass), unsafe.Pointer(&c))
}

func (f *FFI) DrawPrimitives(pass Handle, numVertices, numInstances, firstVertex, firstInstance uint32) {
	f.drawPrimitives(uintptr(pass), numVertices, numInstances, firstVertex, firstInstance)
}

func (f *FFI) DrawIndexedPrimitives(pass Handle, numIndices, numInstances, firstIndex uint32, vertexOffset int32, firstInstance uint32) {
	f.drawIndexedPrimitives(uintptr(pass), numIndices, numInstances, firstIndex, vertexOffset, firstInstance)
}

func (f *FFI) BeginComputePass(cmdbuf Handle, textures []StorageTextureRWBinding, buffers []StorageBufferRWBinding) (Handle, error) {
	ts := make([]cStorageTextureRWBinding, len(textures))
	for i, t := range textures {
		ts[i] = cStorageTextureRWBinding{
			texture:  uintptr(t.Texture),
			mipLevel: t.MipLevel,
			layer:    t.Layer,
			cycle:    t.Cycle,
		}
	}
	bs := make([]cStorageBufferRWBinding, len(buffers))
	for i, b := range buffers {
		bs[i] = cStorageBufferRWBinding{buffer: uintptr(b.Buffer), cycle: b.Cycle}
	}
	raw := f.beginComputePass(uintptr(cmdbuf), sliceHead(ts), uint32(len(ts)), sliceHead(bs), uint32(len(bs)))
	runtime.KeepAlive(ts)
	runtime.KeepAlive(bs)
	if raw == 0 {
		return NilHandle, f.nativeErr("begin compute pass")
	}
	return Handle(raw), nil
}

func (f *FFI) EndComputePass(pass Handle) { f.endComputePass(uintptr(pass)) }

func (f *FFI) BindComputePipeline(pass, pipeline Handle) {
	f.bindComputePipeline(uintptr(pass), uintptr(pipeline))
}

func (f *FFI) BindComputeStorageBuffers(pass Handle, firstSlot uint32, buffers []Handle) {
	f.bindComputeStorageBuffers(uintptr(pass), firstSlot, sliceHead(buffers), uint32(len(buffers)))
	runtime.KeepAlive(buffers)
}

func (f *FFI) DispatchCompute(pass Handle, groupsX, groupsY, groupsZ uint32) {
	f.dispatchCompute(uintptr(pass), groupsX, groupsY, groupsZ)
}

func (f *FFI) BeginCopyPass(cmdbuf Handle) (Handle, error) {
	raw := f.beginCopyPass(uintptr(cmdbuf))
	if raw == 0 {
		return NilHandle, f.nativeErr("begin copy pass")
	}
	return Handle(raw), nil
}

func (f *FFI) EndCopyPass(pass Handle) { f.endCopyPass(uintptr(pass)) }

func (f *FFI) UploadToBuffer(pass Handle, src TransferBufferLocation, dst BufferRegion, cycle bool) {
	s := cTransferBufferLocation{transferBuffer: uintptr(src.TransferBuffer), offset: src.Offset}
	d := cBufferRegion{buffer: uintptr(dst.Buffer), offset: dst.Offset, size: dst.Size}
	f.uploadToBuffer(uintptr(pass), unsafe.Pointer(&s), unsafe.Pointer(&d), cycle)
}

func (f *FFI) DownloadFromBuffer(pass Handle, src BufferRegion, dst TransferBufferLocation) {
	s := cBufferRegion{buffer: uintptr(src.Buffer), offset: src.Offset, size: src.Size}
	d := cTransferBufferLocation{transferBuffer: uintptr(dst.TransferBuffer), offset: dst.Offset}
	f.downloadFromBuffer(uintptr(pass), unsafe.Pointer(&s), unsafe.Pointer(&d))
}

func (f *FFI) CopyBufferToBuffer(pass Handle, src, dst BufferLocation, size uint32, cycle bool) {
	s := cBufferLocation{buffer: uintptr(src.Buffer), offset: src.Offset}
	d := cBufferLocation{buffer: uintptr(dst.Buffer), offset: dst.Offset}
	f.copyBufferToBuffer(uintptr(pass), unsafe.Pointer(&s), unsafe.Pointer(&d), size, cycle)
}

func (f *FFI) UploadToTexture(pass Handle, src TextureTransferInfo, dst TextureRegion, cycle bool) {
	s := cTextureTransferInfo{
		transferBuffer: uintptr(src.TransferBuffer),
		offset:         src.Offset,
		pixelsPerRow:   src.PixelsPerRow,
		rowsPerLayer:   src.RowsPerLayer,
	}
	d := cTextureRegion{
		texture:  uintptr(dst.Texture),
		mipLevel: dst.MipLevel,
		layer:    dst.Layer,
		x:        dst.X, y: dst.Y, z: dst.Z,
		w: dst.W, h: dst.H, d: dst.D,
	}
	f.uploadToTexture(uintptr(pass), unsafe.Pointer(&s), unsafe.Pointer(&d), cycle)
}

func (f *FFI) QueryFence(device, fence Handle) bool {
	return f.queryFence(uintptr(device), uintptr(fence))
}

func (f *FFI) WaitForFences(device Handle, waitAll bool, fences []Handle) error {
	if len(fences) == 0 {
		return nil
	}
	raw := make([]uintptr, len(fences))
	for i, h := range fences {
		raw[i] = uintptr(h)
	}
	if !f.waitForFences(uintptr(device), waitAll, unsafe.Pointer(&raw[0]), uint32(len(raw))) {
		return f.nativeErr("wait for fences")
	}
	runtime.KeepAlive(raw)
	return nil
}

func (f *FFI) ReleaseFence(device, fence Handle) {
	f.releaseFence(uintptr(device), uintptr(fence))
}

func (f *FFI) WaitForIdle(device Handle) error {
	if !f.waitForIdle(uintptr(device)) {
		return f.nativeErr("wait for idle")
	}
	return nil
}

var _ API = (*FFI)(nil)

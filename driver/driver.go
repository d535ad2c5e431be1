// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package driver

import "errors"

// Common driver errors.
var (
	// ErrNotAvailable is returned when no driver implementation is available
	// for this platform, or the requested driver is not registered.
	ErrNotAvailable = errors.New("driver: not available")

	// ErrNotLoaded is returned when the native library could not be loaded.
	ErrNotLoaded = errors.New("driver: native library not loaded")
)

// Handle is an opaque native object handle. The zero value is the nil handle.
//
// Handles are produced and consumed only by an API implementation; the
// packages above never dereference them.
type Handle uintptr

// NilHandle is the absent handle.
const NilHandle Handle = 0

// InitFlags selects native subsystems. Values match the native library.
type InitFlags uint32

const (
	InitAudio    InitFlags = 0x00000010
	InitVideo    InitFlags = 0x00000020
	InitJoystick InitFlags = 0x00000200
	InitHaptic   InitFlags = 0x00001000
	InitGamepad  InitFlags = 0x00002000
	InitEvents   InitFlags = 0x00004000
	InitSensor   InitFlags = 0x00008000
	InitCamera   InitFlags = 0x00010000
)

// Event is the minimal event view the core needs for watch dispatch.
// Full event translation is out of scope for this module and happens in the
// packages that consume it.
type Event struct {
	// Type is the native event type identifier.
	Type uint32

	// Timestamp is the event timestamp in nanoseconds.
	Timestamp uint64

	// WindowID identifies the associated window, if any.
	WindowID uint32

	// Code carries the event-specific discriminator, if any.
	Code int32
}

// BufferInfo describes a GPU buffer allocation.
type BufferInfo struct {
	Usage uint32
	Size  uint32
}

// TransferBufferInfo describes a CPU-visible transfer buffer allocation.
type TransferBufferInfo struct {
	Usage uint32
	Size  uint32
}

// TextureInfo describes a GPU texture allocation.
type TextureInfo struct {
	Type              uint32
	Format            uint32
	Usage             uint32
	Width             uint32
	Height            uint32
	LayerCountOrDepth uint32
	NumLevels         uint32
	SampleCount       uint32
}

// SamplerInfo describes a texture sampler.
type SamplerInfo struct {
	MinFilter        uint32
	MagFilter        uint32
	MipmapMode       uint32
	AddressModeU     uint32
	AddressModeV     uint32
	AddressModeW     uint32
	MipLodBias       float32
	MaxAnisotropy    float32
	CompareOp        uint32
	MinLod           float32
	MaxLod           float32
	EnableAnisotropy bool
	EnableCompare    bool
}

// ShaderInfo describes a shader module in one of the native byte formats.
type ShaderInfo struct {
	Code               []byte
	EntryPoint         string
	Format             uint32
	Stage              uint32
	NumSamplers        uint32
	NumStorageTextures uint32
	NumStorageBuffers  uint32
	NumUniformBuffers  uint32
}

// VertexBufferDesc describes one vertex buffer slot of a graphics pipeline.
type VertexBufferDesc struct {
	Slot             uint32
	Pitch            uint32
	InputRate        uint32
	InstanceStepRate uint32
}

// VertexAttribute describes one vertex attribute of a graphics pipeline.
type VertexAttribute struct {
	Location   uint32
	BufferSlot uint32
	Format     uint32
	Offset     uint32
}

// ColorTargetDesc describes one color target of a graphics pipeline.
type ColorTargetDesc struct {
	Format              uint32
	SrcColorBlendFactor uint32
	DstColorBlendFactor uint32
	ColorBlendOp        uint32
	SrcAlphaBlendFactor uint32
	DstAlphaBlendFactor uint32
	AlphaBlendOp        uint32
	ColorWriteMask      uint32
	EnableBlend         bool
}

// GraphicsPipelineInfo describes a graphics pipeline.
type GraphicsPipelineInfo struct {
	VertexShader     Handle
	FragmentShader   Handle
	VertexBuffers    []VertexBufferDesc
	VertexAttributes []VertexAttribute
	PrimitiveType    uint32

	FillMode  uint32
	CullMode  uint32
	FrontFace uint32

	SampleCount uint32
	SampleMask  uint32

	CompareOp         uint32
	EnableDepthTest   bool
	EnableDepthWrite  bool
	EnableStencilTest bool

	ColorTargets          []ColorTargetDesc
	DepthStencilFormat    uint32
	HasDepthStencilTarget bool
}

// ComputePipelineInfo describes a compute pipeline.
type ComputePipelineInfo struct {
	Code                        []byte
	EntryPoint                  string
	Format                      uint32
	NumSamplers                 uint32
	NumReadonlyStorageTextures  uint32
	NumReadonlyStorageBuffers   uint32
	NumReadWriteStorageTextures uint32
	NumReadWriteStorageBuffers  uint32
	NumUniformBuffers           uint32
	ThreadCountX                uint32
	ThreadCountY                uint32
	ThreadCountZ                uint32
}

// ColorTargetInfo describes one color attachment of a render pass.
type ColorTargetInfo struct {
	Texture           Handle
	MipLevel          uint32
	LayerOrDepthPlane uint32
	ClearColor        [4]float32
	LoadOp            uint32
	StoreOp           uint32
	ResolveTexture    Handle
	ResolveMipLevel   uint32
	ResolveLayer      uint32
	Cycle             bool
	CycleResolve      bool
}

// DepthStencilTargetInfo describes the depth/stencil attachment of a render pass.
type DepthStencilTargetInfo struct {
	Texture        Handle
	ClearDepth     float32
	LoadOp         uint32
	StoreOp        uint32
	StencilLoadOp  uint32
	StencilStoreOp uint32
	Cycle          bool
	ClearStencil   uint8
}

// BufferBinding binds a buffer at an offset.
type BufferBinding struct {
	Buffer Handle
	Offset uint32
}

// TextureSamplerBinding binds a texture together with a sampler.
type TextureSamplerBinding struct {
	Texture Handle
	Sampler Handle
}

// StorageBufferRWBinding binds a buffer for read-write storage access.
type StorageBufferRWBinding struct {
	Buffer Handle
	Cycle  bool
}

// StorageTextureRWBinding binds a texture subresource for read-write storage access.
type StorageTextureRWBinding struct {
	Texture  Handle
	MipLevel uint32
	Layer    uint32
	Cycle    bool
}

// TransferBufferLocation is an offset into a transfer buffer.
type TransferBufferLocation struct {
	TransferBuffer Handle
	Offset         uint32
}

// BufferLocation is an offset into a GPU buffer.
type BufferLocation struct {
	Buffer Handle
	Offset uint32
}

// BufferRegion is a byte range of a GPU buffer.
type BufferRegion struct {
	Buffer Handle
	Offset uint32
	Size   uint32
}

// TextureTransferInfo describes the transfer-buffer side of a texture upload.
type TextureTransferInfo struct {
	TransferBuffer Handle
	Offset         uint32
	PixelsPerRow   uint32
	RowsPerLayer   uint32
}

// TextureRegion is a subregion of a texture subresource.
type TextureRegion struct {
	Texture  Handle
	MipLevel uint32
	Layer    uint32
	X, Y, Z  uint32
	W, H, D  uint32
}

// Viewport is a render pass viewport transform.
type Viewport struct {
	X, Y     float32
	W, H     float32
	MinDepth float32
	MaxDepth float32
}

// Rect is an integer rectangle.
type Rect struct {
	X, Y int32
	W, H int32
}

// API is the native call surface consumed by the sdl3 and gpu packages.
//
// Every method corresponds to one documented native entry point. Methods
// returning an error attach the native diagnostic string; they never retry.
// Handle-returning creation calls return ErrNotLoaded wrapped failures if the
// library rejected the call, and a nil handle is never paired with a nil
// error except where explicitly documented (swapchain acquisition).
//
// Implementations must be safe for concurrent use: the packages above
// serialize state-machine transitions, but resource creation and fence
// queries arrive from arbitrary goroutines.
type API interface {
	// Name identifies the implementation ("sdl", "stub").
	Name() string

	// --- library lifecycle ---

	Init() error
	InitSubSystem(flags InitFlags) error
	QuitSubSystem(flags InitFlags)
	Quit()
	LastError() string
	Platform() string

	// --- windowing (minimal surface; property plumbing is out of scope) ---

	CreateWindow(title string, w, h int32, flags uint64) (Handle, error)
	DestroyWindow(window Handle)

	// --- events ---

	// SetEventWatch installs the process-wide watch trampoline. The callback
	// runs on whatever thread the native event pump uses. Passing nil removes
	// the trampoline.
	SetEventWatch(fn func(Event)) error
	PumpEvents()
	PollEvent() (Event, bool)

	// --- GPU device ---

	CreateGPUDevice(formatFlags uint32, debug bool, name string) (Handle, error)
	DestroyGPUDevice(device Handle)
	DeviceDriver(device Handle) string
	ClaimWindow(device, window Handle) error
	ReleaseWindow(device, window Handle)
	SwapchainTextureFormat(device, window Handle) uint32

	// --- GPU resources ---

	CreateBuffer(device Handle, info BufferInfo) (Handle, error)
	ReleaseBuffer(device, buffer Handle)
	CreateTransferBuffer(device Handle, info TransferBufferInfo) (Handle, error)
	ReleaseTransferBuffer(device, buffer Handle)
	MapTransferBuffer(device, buffer Handle, cycle bool, size uint32) ([]byte, error)
	UnmapTransferBuffer(device, buffer Handle)
	CreateTexture(device Handle, info TextureInfo) (Handle, error)
	ReleaseTexture(device, texture Handle)
	CreateSampler(device Handle, info SamplerInfo) (Handle, error)
	ReleaseSampler(device, sampler Handle)
	CreateShader(device Handle, info ShaderInfo) (Handle, error)
	ReleaseShader(device, shader Handle)
	CreateGraphicsPipeline(device Handle, info GraphicsPipelineInfo) (Handle, error)
	ReleaseGraphicsPipeline(device, pipeline Handle)
	CreateComputePipeline(device Handle, info ComputePipelineInfo) (Handle, error)
	ReleaseComputePipeline(device, pipeline Handle)

	// --- command buffers and submission ---

	AcquireCommandBuffer(device Handle) (Handle, error)
	SubmitCommandBuffer(cmdbuf Handle) error
	SubmitAndAcquireFence(cmdbuf Handle) (Handle, error)
	CancelCommandBuffer(cmdbuf Handle) error
	PushVertexUniformData(cmdbuf Handle, slot uint32, data []byte)
	PushFragmentUniformData(cmdbuf Handle, slot uint32, data []byte)
	PushComputeUniformData(cmdbuf Handle, slot uint32, data []byte)

	// AcquireSwapchainTexture may return (NilHandle, 0, 0, nil): the native
	// layer declined to hand back a texture (for example a minimized window).
	// Callers treat that as a normal outcome.
	AcquireSwapchainTexture(cmdbuf, window Handle) (tex Handle, w, h uint32, err error)
	WaitAndAcquireSwapchainTexture(cmdbuf, window Handle) (tex Handle, w, h uint32, err error)

	// --- render pass ---

	BeginRenderPass(cmdbuf Handle, colors []ColorTargetInfo, depthStencil *DepthStencilTargetInfo) (Handle, error)
	EndRenderPass(pass Handle)
	BindGraphicsPipeline(pass, pipeline Handle)
	BindVertexBuffers(pass Handle, firstSlot uint32, bindings []BufferBinding)
	BindIndexBuffer(pass Handle, binding BufferBinding, indexElementSize uint32)
	BindFragmentSamplers(pass Handle, firstSlot uint32, bindings []TextureSamplerBinding)
	SetViewport(pass Handle, vp Viewport)
	SetScissor(pass Handle, r Rect)
	DrawPrimitives(pass Handle, numVertices, numInstances, firstVertex, firstInstance uint32)
	DrawIndexedPrimitives(pass Handle, numIndices, numInstances, firstIndex uint32, vertexOffset int32, firstInstance uint32)

	// --- compute pass ---

	BeginComputePass(cmdbuf Handle, textures []StorageTextureRWBinding, buffers []StorageBufferRWBinding) (Handle, error)
	EndComputePass(pass Handle)
	BindComputePipeline(pass, pipeline Handle)
	BindComputeStorageBuffers(pass Handle, firstSlot uint32, buffers []Handle)
	DispatchCompute(pass Handle, groupsX, groupsY, groupsZ uint32)

	// --- copy pass ---

	BeginCopyPass(cmdbuf Handle) (Handle, error)
	EndCopyPass(pass Handle)
	UploadToBuffer(pass Handle, src TransferBufferLocation, dst BufferRegion, cycle bool)
	DownloadFromBuffer(pass Handle, src BufferRegion, dst TransferBufferLocation)
	CopyBufferToBuffer(pass Handle, src, dst BufferLocation, size uint32, cycle bool)
	UploadToTexture(pass Handle, src TextureTransferInfo, dst TextureRegion, cycle bool)

	// --- fences ---

	// QueryFence reports whether the fence has signaled. Non-blocking.
	QueryFence(device, fence Handle) bool

	// WaitForFences blocks until all (or any, if waitAll is false) of the
	// fences signal. The native call has no timeout; bounded waits are built
	// on QueryFence by the caller.
	WaitForFences(device Handle, waitAll bool, fences []Handle) error
	ReleaseFence(device, fence Handle)
	WaitForIdle(device Handle) error
}

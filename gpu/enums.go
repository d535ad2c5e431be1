package gpu

import (
	"github.com/gogpu/gputypes"
)

// ShaderFormat flags declare which shader byte formats the application can
// provide. Values match the native library.
type ShaderFormat uint32

const (
	ShaderFormatPrivate  ShaderFormat = 0x01
	ShaderFormatSPIRV    ShaderFormat = 0x02
	ShaderFormatDXBC     ShaderFormat = 0x04
	ShaderFormatDXIL     ShaderFormat = 0x08
	ShaderFormatMSL      ShaderFormat = 0x10
	ShaderFormatMetalLib ShaderFormat = 0x20
)

// ShaderStage selects the pipeline stage a shader runs in.
type ShaderStage uint32

const (
	ShaderStageVertex ShaderStage = iota
	ShaderStageFragment
)

// BufferUsage flags declare how a GPU buffer will be used.
type BufferUsage uint32

const (
	BufferUsageVertex              BufferUsage = 0x01
	BufferUsageIndex               BufferUsage = 0x02
	BufferUsageIndirect            BufferUsage = 0x04
	BufferUsageGraphicsStorageRead BufferUsage = 0x08
	BufferUsageComputeStorageRead  BufferUsage = 0x10
	BufferUsageComputeStorageWrite BufferUsage = 0x20
)

// TransferBufferUsage selects the direction of a transfer buffer.
type TransferBufferUsage uint32

const (
	TransferBufferUsageUpload TransferBufferUsage = iota
	TransferBufferUsageDownload
)

// TextureType selects the dimensionality of a texture.
type TextureType uint32

const (
	TextureType2D TextureType = iota
	TextureType2DArray
	TextureType3D
	TextureTypeCube
	TextureTypeCubeArray
)

// TextureUsage flags declare how a texture will be used.
type TextureUsage uint32

const (
	TextureUsageSampler                TextureUsage = 0x01
	TextureUsageColorTarget            TextureUsage = 0x02
	TextureUsageDepthStencilTarget     TextureUsage = 0x04
	TextureUsageGraphicsStorageRead    TextureUsage = 0x08
	TextureUsageComputeStorageRead     TextureUsage = 0x10
	TextureUsageComputeStorageWrite    TextureUsage = 0x20
	TextureUsageComputeStorageRWSimult TextureUsage = 0x40
)

// TextureFormat identifies a native texture format. Only the formats this
// module touches are named; the raw value passes through either way.
type TextureFormat uint32

const (
	TextureFormatInvalid TextureFormat = iota
	TextureFormatA8Unorm
	TextureFormatR8Unorm
	TextureFormatR8G8Unorm
	TextureFormatR8G8B8A8Unorm
	TextureFormatR16Unorm
	TextureFormatR16G16Unorm
	TextureFormatR16G16B16A16Unorm
	TextureFormatR10G10B10A2Unorm
	TextureFormatB5G6R5Unorm
	TextureFormatB5G5R5A1Unorm
	TextureFormatB4G4R4A4Unorm
	TextureFormatB8G8R8A8Unorm
)

// Depth formats sit at the tail of the native enum.
const (
	TextureFormatD16Unorm TextureFormat = 0x100 + iota
	TextureFormatD24Unorm
	TextureFormatD32Float
	TextureFormatD24UnormS8Uint
	TextureFormatD32FloatS8Uint
)

// ToGPUTypes maps a native texture format onto the ecosystem-wide
// gputypes.TextureFormat where both sides define it; everything else maps
// to Undefined.
func (f TextureFormat) ToGPUTypes() gputypes.TextureFormat {
	switch f {
	case TextureFormatR8Unorm:
		return gputypes.TextureFormatR8Unorm
	case TextureFormatR8G8B8A8Unorm:
		return gputypes.TextureFormatRGBA8Unorm
	case TextureFormatB8G8R8A8Unorm:
		return gputypes.TextureFormatBGRA8Unorm
	case TextureFormatD24UnormS8Uint:
		return gputypes.TextureFormatDepth24PlusStencil8
	default:
		return gputypes.TextureFormatUndefined
	}
}

// TextureFormatFromGPUTypes is the inverse of ToGPUTypes.
func TextureFormatFromGPUTypes(f gputypes.TextureFormat) TextureFormat {
	switch f {
	case gputypes.TextureFormatR8Unorm:
		return TextureFormatR8Unorm
	case gputypes.TextureFormatRGBA8Unorm:
		return TextureFormatR8G8B8A8Unorm
	case gputypes.TextureFormatBGRA8Unorm:
		return TextureFormatB8G8R8A8Unorm
	case gputypes.TextureFormatDepth24PlusStencil8:
		return TextureFormatD24UnormS8Uint
	default:
		return TextureFormatInvalid
	}
}

// Native load/store op encodings.
const (
	loadOpLoad uint32 = iota
	loadOpClear
	loadOpDontCare
)

const (
	storeOpStore uint32 = iota
	storeOpDontCare
	storeOpResolve
	storeOpResolveAndStore
)

// nativeLoadOp lowers the ecosystem load op to the native encoding.
func nativeLoadOp(op gputypes.LoadOp) uint32 {
	if op == gputypes.LoadOpClear {
		return loadOpClear
	}
	return loadOpLoad
}

// nativeStoreOp lowers the ecosystem store op to the native encoding.
func nativeStoreOp(op gputypes.StoreOp) uint32 {
	if op == gputypes.StoreOpDiscard {
		return storeOpDontCare
	}
	return storeOpStore
}

// PrimitiveType selects the primitive topology of a graphics pipeline.
type PrimitiveType uint32

const (
	PrimitiveTypeTriangleList PrimitiveType = iota
	PrimitiveTypeTriangleStrip
	PrimitiveTypeLineList
	PrimitiveTypeLineStrip
	PrimitiveTypePointList
)

// FillMode selects polygon rasterization.
type FillMode uint32

const (
	FillModeFill FillMode = iota
	FillModeLine
)

// CullMode selects face culling.
type CullMode uint32

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// IndexElementSize selects 16- or 32-bit indices.
type IndexElementSize uint32

const (
	IndexElementSize16 IndexElementSize = iota
	IndexElementSize32
)

// Filter selects texture filtering.
type Filter uint32

const (
	FilterNearest Filter = iota
	FilterLinear
)

// AddressMode selects texture coordinate wrapping.
type AddressMode uint32

const (
	AddressModeRepeat AddressMode = iota
	AddressModeMirroredRepeat
	AddressModeClampToEdge
)

// SampleCount selects multisampling.
type SampleCount uint32

const (
	SampleCount1 SampleCount = iota
	SampleCount2
	SampleCount4
	SampleCount8
)

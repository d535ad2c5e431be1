// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/sdl3/driver"
)

// VertexBufferDesc describes one vertex buffer slot of a graphics pipeline.
type VertexBufferDesc struct {
	Slot             uint32
	Pitch            uint32
	PerInstance      bool
	InstanceStepRate uint32
}

// VertexAttribute describes one vertex attribute.
type VertexAttribute struct {
	Location   uint32
	BufferSlot uint32
	Format     uint32
	Offset     uint32
}

// ColorTargetDesc describes one color target of a graphics pipeline.
// The zero value is an opaque target without blending.
type ColorTargetDesc struct {
	Format      TextureFormat
	EnableBlend bool

	SrcColorBlendFactor uint32
	DstColorBlendFactor uint32
	ColorBlendOp        uint32
	SrcAlphaBlendFactor uint32
	DstAlphaBlendFactor uint32
	AlphaBlendOp        uint32
	ColorWriteMask      uint32
}

// GraphicsPipelineInfo describes a graphics pipeline.
type GraphicsPipelineInfo struct {
	VertexShader   *Shader
	FragmentShader *Shader

	VertexBuffers    []VertexBufferDesc
	VertexAttributes []VertexAttribute

	PrimitiveType PrimitiveType
	FillMode      FillMode
	CullMode      CullMode
	SampleCount   SampleCount

	EnableDepthTest  bool
	EnableDepthWrite bool
	DepthCompareOp   uint32

	ColorTargets       []ColorTargetDesc
	DepthStencilFormat TextureFormat
}

// GraphicsPipeline is a baked graphics pipeline state object.
type GraphicsPipeline struct {
	resourceState
}

// Release frees the pipeline, blocking while in-flight submissions still
// reference it.
func (p *GraphicsPipeline) Release() error {
	return p.release("gpu.GraphicsPipeline.Release", p.dev.api.ReleaseGraphicsPipeline)
}

// CreateGraphicsPipeline bakes a graphics pipeline. Both shaders must
// belong to this device.
func (d *Device) CreateGraphicsPipeline(info GraphicsPipelineInfo) (*GraphicsPipeline, error) {
	const op = "gpu.Device.CreateGraphicsPipeline"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	if err := d.validate(op, info.VertexShader); err != nil {
		return nil, err
	}
	if err := d.validate(op, info.FragmentShader); err != nil {
		return nil, err
	}

	vbs := make([]driver.VertexBufferDesc, len(info.VertexBuffers))
	for i, vb := range info.VertexBuffers {
		var rate uint32
		if vb.PerInstance {
			rate = 1
		}
		vbs[i] = driver.VertexBufferDesc{
			Slot:             vb.Slot,
			Pitch:            vb.Pitch,
			InputRate:        rate,
			InstanceStepRate: vb.InstanceStepRate,
		}
	}
	vas := make([]driver.VertexAttribute, len(info.VertexAttributes))
	for i, va := range info.VertexAttributes {
		vas[i] = driver.VertexAttribute(va)
	}
	cts := make([]driver.ColorTargetDesc, len(info.ColorTargets))
	for i, ct := range info.ColorTargets {
		cts[i] = driver.ColorTargetDesc{
			Format:              uint32(ct.Format),
			SrcColorBlendFactor: ct.SrcColorBlendFactor,
			DstColorBlendFactor: ct.DstColorBlendFactor,
			ColorBlendOp:        ct.ColorBlendOp,
			SrcAlphaBlendFactor: ct.SrcAlphaBlendFactor,
			DstAlphaBlendFactor: ct.DstAlphaBlendFactor,
			AlphaBlendOp:        ct.AlphaBlendOp,
			ColorWriteMask:      ct.ColorWriteMask,
			EnableBlend:         ct.EnableBlend,
		}
	}

	h, err := d.api.CreateGraphicsPipeline(d.h, driver.GraphicsPipelineInfo{
		VertexShader:          info.VertexShader.h,
		FragmentShader:        info.FragmentShader.h,
		VertexBuffers:         vbs,
		VertexAttributes:      vas,
		PrimitiveType:         uint32(info.PrimitiveType),
		FillMode:              uint32(info.FillMode),
		CullMode:              uint32(info.CullMode),
		SampleCount:           uint32(info.SampleCount),
		CompareOp:             info.DepthCompareOp,
		EnableDepthTest:       info.EnableDepthTest,
		EnableDepthWrite:      info.EnableDepthWrite,
		ColorTargets:          cts,
		DepthStencilFormat:    uint32(info.DepthStencilFormat),
		HasDepthStencilTarget: info.DepthStencilFormat != TextureFormatInvalid,
	})
	if err != nil {
		return nil, resourceErr(op, err)
	}
	return &GraphicsPipeline{resourceState: resourceState{dev: d, h: h}}, nil
}

// ComputePipelineInfo describes a compute pipeline.
type ComputePipelineInfo struct {
	// Code is the compute shader byte code in the declared Format.
	Code       []byte
	EntryPoint string
	Format     ShaderFormat

	NumSamplers                 uint32
	NumReadonlyStorageTextures  uint32
	NumReadonlyStorageBuffers   uint32
	NumReadWriteStorageTextures uint32
	NumReadWriteStorageBuffers  uint32
	NumUniformBuffers           uint32

	// Workgroup dimensions declared in the shader.
	ThreadCountX uint32
	ThreadCountY uint32
	ThreadCountZ uint32
}

// ComputePipeline is a baked compute pipeline state object.
type ComputePipeline struct {
	resourceState
}

// Release frees the pipeline, blocking while in-flight submissions still
// reference it.
func (p *ComputePipeline) Release() error {
	return p.release("gpu.ComputePipeline.Release", p.dev.api.ReleaseComputePipeline)
}

// CreateComputePipeline bakes a compute pipeline from shader byte code.
func (d *Device) CreateComputePipeline(info ComputePipelineInfo) (*ComputePipeline, error) {
	const op = "gpu.Device.CreateComputePipeline"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	if info.EntryPoint == "" {
		info.EntryPoint = "main"
	}
	h, err := d.api.CreateComputePipeline(d.h, driver.ComputePipelineInfo{
		Code:                        info.Code,
		EntryPoint:                  info.EntryPoint,
		Format:                      uint32(info.Format),
		NumSamplers:                 info.NumSamplers,
		NumReadonlyStorageTextures:  info.NumReadonlyStorageTextures,
		NumReadonlyStorageBuffers:   info.NumReadonlyStorageBuffers,
		NumReadWriteStorageTextures: info.NumReadWriteStorageTextures,
		NumReadWriteStorageBuffers:  info.NumReadWriteStorageBuffers,
		NumUniformBuffers:           info.NumUniformBuffers,
		ThreadCountX:                info.ThreadCountX,
		ThreadCountY:                info.ThreadCountY,
		ThreadCountZ:                info.ThreadCountZ,
	})
	if err != nil {
		return nil, resourceErr(op, err)
	}
	return &ComputePipeline{resourceState: resourceState{dev: d, h: h}}, nil
}

// CreateComputePipelineFromWGSL compiles WGSL source to SPIR-V and bakes a
// compute pipeline from the result. info.Code is ignored; info.Format is
// forced to SPIR-V.
func (d *Device) CreateComputePipelineFromWGSL(source string, info ComputePipelineInfo) (*ComputePipeline, error) {
	const op = "gpu.Device.CreateComputePipelineFromWGSL"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	spirv, err := compileWGSL(source)
	if err != nil {
		return nil, resourceErr(op, err)
	}
	info.Code = spirv
	info.Format = ShaderFormatSPIRV
	return d.CreateComputePipeline(info)
}

// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"github.com/gogpu/naga"
	"github.com/gogpu/sdl3/driver"
)

// ShaderInfo describes a shader module.
type ShaderInfo struct {
	// Code is the shader byte code in the declared Format.
	Code []byte

	// EntryPoint is the function the stage starts in, typically "main".
	EntryPoint string

	Format ShaderFormat
	Stage  ShaderStage

	// Resource counts the shader declares; the native layer validates
	// bindings against them.
	NumSamplers        uint32
	NumStorageTextures uint32
	NumStorageBuffers  uint32
	NumUniformBuffers  uint32
}

// Shader is a compiled shader module.
type Shader struct {
	resourceState
	stage ShaderStage
}

// Stage returns the pipeline stage the shader was created for.
func (s *Shader) Stage() ShaderStage { return s.stage }

// Release frees the shader, blocking while in-flight submissions still
// reference it. Pipelines created from the shader stay valid.
func (s *Shader) Release() error {
	return s.release("gpu.Shader.Release", s.dev.api.ReleaseShader)
}

// CreateShader creates a shader module from pre-compiled byte code.
func (d *Device) CreateShader(info ShaderInfo) (*Shader, error) {
	const op = "gpu.Device.CreateShader"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	if info.EntryPoint == "" {
		info.EntryPoint = "main"
	}
	h, err := d.api.CreateShader(d.h, driver.ShaderInfo{
		Code:               info.Code,
		EntryPoint:         info.EntryPoint,
		Format:             uint32(info.Format),
		Stage:              uint32(info.Stage),
		NumSamplers:        info.NumSamplers,
		NumStorageTextures: info.NumStorageTextures,
		NumStorageBuffers:  info.NumStorageBuffers,
		NumUniformBuffers:  info.NumUniformBuffers,
	})
	if err != nil {
		return nil, resourceErr(op, err)
	}
	return &Shader{resourceState: resourceState{dev: d, h: h}, stage: info.Stage}, nil
}

// CreateShaderFromWGSL compiles WGSL source to SPIR-V and creates a shader
// module from the result. The device must have been created with SPIR-V
// among its shader formats (the default).
//
// info.Code is ignored; info.Format is forced to SPIR-V.
func (d *Device) CreateShaderFromWGSL(source string, info ShaderInfo) (*Shader, error) {
	const op = "gpu.Device.CreateShaderFromWGSL"
	if err := d.alive(op); err != nil {
		return nil, err
	}
	spirv, err := compileWGSL(source)
	if err != nil {
		return nil, resourceErr(op, err)
	}
	info.Code = spirv
	info.Format = ShaderFormatSPIRV
	return d.CreateShader(info)
}

// compileWGSL lowers WGSL to SPIR-V with the naga compiler.
func compileWGSL(source string) ([]byte, error) {
	return naga.Compile(source)
}

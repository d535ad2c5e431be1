// Package gpu exposes the native GPU API as a checked command-encoding
// state machine.
//
// A Device is created from a video subsystem handle and owns every resource
// created through it. Work is recorded into command buffers:
//
//	dev, err := gpu.NewDevice(video, gpu.WithShaderFormats(gpu.ShaderFormatSPIRV))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Destroy()
//
//	cb, err := dev.AcquireCommandBuffer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pass, err := cb.BeginRenderPass([]gpu.ColorTargetInfo{{
//	    Texture: tex,
//	    LoadOp:  gputypes.LoadOpClear,
//	    Clear:   gputypes.Color{R: 0, G: 0, B: 0, A: 1},
//	}}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pass.BindPipeline(pipe)
//	pass.DrawPrimitives(3, 1, 0, 0)
//	pass.End()
//
//	fence, err := cb.Submit()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fence.Wait(-1)
//	fence.Release()
//
// Sequencing rules are enforced, not assumed: at most one pass is active per
// command buffer, pass operations after End fail, and a submitted or
// canceled buffer rejects everything. Violations return state errors and
// never corrupt native state.
//
// Command buffers from the same device may be recorded concurrently from
// different goroutines; GPU-side execution order is submission order.
//
// Resources referenced by an in-flight submission stay alive: Release and
// Device.Destroy block until the corresponding fences complete.
package gpu

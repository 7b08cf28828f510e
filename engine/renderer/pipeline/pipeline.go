package pipeline

import (
	"github.com/Carmen-Shannon/tiled-lighting/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the compute shader and the WebGPU objects created from it.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// computeShader is required before the pipeline is initialized
	computeShader shader.Shader

	// label is a debug label passed to the GPU objects
	label string

	// the following are GPU resources populated by the backend

	computePipeline *wgpu.ComputePipeline
	pipelineLayout  *wgpu.PipelineLayout
	bindGroupLayout *wgpu.BindGroupLayout
}

// Pipeline defines the interface for a compute pipeline built from one compute
// shader with a single bind group.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Label returns the debug label for the GPU objects.
	//
	// Returns:
	//   - string: the label, defaulting to the pipeline key
	Label() string

	// Shader retrieves the compute shader.
	//
	// Returns:
	//   - shader.Shader: the compute shader, or nil if not set
	Shader() shader.Shader

	// ComputePipeline returns the GPU pipeline, or nil before initialization.
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the compute pipeline
	ComputePipeline() *wgpu.ComputePipeline

	// BindGroupLayout returns the GPU layout of group 0, or nil before initialization.
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the bind group layout
	BindGroupLayout() *wgpu.BindGroupLayout

	// Dispatch returns the work group counts covering a grid of invocations
	// using the shader's workgroup size.
	//
	// Parameters:
	//   - x, y, z: invocation counts per dimension
	//
	// Returns:
	//   - [3]uint32: work group counts
	Dispatch(x, y, z uint32) [3]uint32

	// SetComputePipeline stores the GPU objects after creation by the backend.
	//
	// Parameters:
	//   - cp: the compute pipeline
	//   - pl: the pipeline layout
	//   - bgl: the layout of group 0
	SetComputePipeline(cp *wgpu.ComputePipeline, pl *wgpu.PipelineLayout, bgl *wgpu.BindGroupLayout)

	// Release releases the GPU objects held by the pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new compute Pipeline.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
		label:       pipelineKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) Shader() shader.Shader {
	return p.computeShader
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	return p.computePipeline
}

func (p *pipeline) BindGroupLayout() *wgpu.BindGroupLayout {
	return p.bindGroupLayout
}

func (p *pipeline) Dispatch(x, y, z uint32) [3]uint32 {
	size := [3]uint32{1, 1, 1}
	if p.computeShader != nil {
		size = p.computeShader.WorkgroupSize()
	}
	counts := [3]uint32{x, y, z}
	for i := range counts {
		counts[i] = (counts[i] + size[i] - 1) / size[i]
	}
	return counts
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline, pl *wgpu.PipelineLayout, bgl *wgpu.BindGroupLayout) {
	p.computePipeline = cp
	p.pipelineLayout = pl
	p.bindGroupLayout = bgl
}

func (p *pipeline) Release() {
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	if p.bindGroupLayout != nil {
		p.bindGroupLayout.Release()
		p.bindGroupLayout = nil
	}
}

package pipeline

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies whether a pipeline is a compute pipeline or a render pipeline.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota

	// PipelineTypeRender indicates a render pipeline with vertex and fragment shader entry points.
	PipelineTypeRender
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	pipelineType PipelineType
	pipelineKey  string

	// stage shaders; Bindings and Link need the ones the pipeline type uses.

	vertexShader, fragmentShader, computeShader shader.Shader

	// resources are the named resource components the pipeline expects, in declaration order.
	resources []resource.Component

	// linkMu guards bindings and layout, which are filled once by Link.
	linkMu   sync.Mutex
	bindings *shader.BindingTable
	layout   *resource.Layout

	// at most one of these is set, matching pipelineType
	renderPipeline  *wgpu.RenderPipeline
	computePipeline *wgpu.ComputePipeline

	// fixed-function render state, set by the builder options

	depthTestEnabled    bool
	depthWriteEnabled   bool
	depthBias           int32
	depthBiasSlopeScale float32
	blendEnabled        bool
	cullMode            wgpu.CullMode
	topology            wgpu.PrimitiveTopology
	frontFace           wgpu.FrontFace
	writeMask           wgpu.ColorWriteMask
	blendState          *wgpu.BlendState
}

// Pipeline describes one render or compute pipeline: its stage shaders, the resource components it declares
// and its fixed-function state. Link resolves the components against the shaders; the renderer then creates
// the GPU object and hands it back through SetRenderPipeline or SetComputePipeline.
type Pipeline interface {
	// Type reports whether this is a render or a compute pipeline.
	Type() PipelineType

	// PipelineKey returns the key the renderer caches the pipeline under.
	PipelineKey() string

	// Shader returns the shader set for a stage, or nil.
	Shader(shaderType shader.ShaderType) shader.Shader

	// Pipeline returns the created *wgpu.RenderPipeline or *wgpu.ComputePipeline; callers type assert it.
	// The pointer inside is nil until the renderer has registered the pipeline.
	Pipeline() any

	// Render state read by the backend when the render pipeline is created. Compute pipelines ignore it.

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	DepthBias() int32
	DepthBiasSlopeScale() float32
	BlendEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask
	BlendState() *wgpu.BlendState

	// Resources returns the resource components declared for this pipeline.
	//
	// Returns:
	//   - []resource.Component: the components in declaration order
	Resources() []resource.Component

	// Bindings merges the binding tables of the pipeline's shader stages. Visibility of a binding declared by
	// both the vertex and fragment stage covers both stages.
	//
	// Returns:
	//   - *shader.BindingTable: the merged table
	//   - error: an error if a required shader is missing or the stages disagree on a binding
	Bindings() (*shader.BindingTable, error)

	// Link links the declared resource components against the merged binding table. The first successful
	// result is cached; later calls return it.
	//
	// Returns:
	//   - *resource.Layout: the linked resource layout
	//   - error: an error if the bindings cannot be merged or any component fails to link
	Link() (*resource.Layout, error)

	// Layout returns the cached resource layout, or nil before a successful Link.
	//
	// Returns:
	//   - *resource.Layout: the linked resource layout or nil
	Layout() *resource.Layout

	// BindGroupLayoutDescriptors returns the layout descriptors of the merged binding table, keyed by group.
	// The table must have been merged by Link first.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: the descriptors, nil before a successful Link
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// SetRenderPipeline and SetComputePipeline store the GPU object created by the renderer backend.
	SetRenderPipeline(p *wgpu.RenderPipeline)
	SetComputePipeline(p *wgpu.ComputePipeline)
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an unlinked pipeline description. Render defaults are depth test and write on, blending
// off with an alpha blend state ready for WithBlendEnabled, no culling, triangle lists and CCW front faces.
//
// Parameters:
//   - pipelineKey: the key the renderer registers the pipeline under
//   - pipelineType: PipelineTypeRender or PipelineTypeCompute
//   - opts: builder options
//
// Returns:
//   - Pipeline: the configured pipeline
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		pipelineType:      pipelineType,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
		blendState: &wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Pipeline() any {
	switch p.pipelineType {
	case PipelineTypeRender:
		return p.renderPipeline
	case PipelineTypeCompute:
		return p.computePipeline
	default:
		return nil
	}
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthBias() int32 {
	return p.depthBias
}

func (p *pipeline) DepthBiasSlopeScale() float32 {
	return p.depthBiasSlopeScale
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendState
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	case shader.ShaderTypeCompute:
		return p.computeShader
	default:
		return nil
	}
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline) {
	p.computePipeline = cp
}

func (p *pipeline) Resources() []resource.Component {
	return append([]resource.Component(nil), p.resources...)
}

func (p *pipeline) Bindings() (*shader.BindingTable, error) {
	switch p.pipelineType {
	case PipelineTypeCompute:
		if p.computeShader == nil {
			return nil, fmt.Errorf("pipeline %s: compute pipeline has no compute shader", p.pipelineKey)
		}
		return p.computeShader.Bindings(), nil
	case PipelineTypeRender:
		if p.vertexShader == nil {
			return nil, fmt.Errorf("pipeline %s: render pipeline has no vertex shader", p.pipelineKey)
		}
		var fragment *shader.BindingTable
		if p.fragmentShader != nil {
			fragment = p.fragmentShader.Bindings()
		}
		merged, err := shader.MergeBindingTables(p.vertexShader.Bindings(), fragment)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
		}
		return merged, nil
	default:
		return nil, fmt.Errorf("pipeline %s: unknown pipeline type %d", p.pipelineKey, p.pipelineType)
	}
}

func (p *pipeline) Link() (*resource.Layout, error) {
	p.linkMu.Lock()
	defer p.linkMu.Unlock()
	if p.layout != nil {
		return p.layout, nil
	}

	table, err := p.Bindings()
	if err != nil {
		return nil, err
	}
	set, err := resource.NewSet(p.resources...)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	layout, err := set.Link(table)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", p.pipelineKey, err)
	}
	p.bindings = table
	p.layout = layout
	return layout, nil
}

func (p *pipeline) Layout() *resource.Layout {
	p.linkMu.Lock()
	defer p.linkMu.Unlock()
	return p.layout
}

func (p *pipeline) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	p.linkMu.Lock()
	defer p.linkMu.Unlock()
	if p.bindings == nil {
		return nil
	}
	descs := p.bindings.LayoutDescriptors()
	for g, d := range descs {
		d.Label = fmt.Sprintf("%s_group%d", p.pipelineKey, g)
		descs[g] = d
	}
	return descs
}

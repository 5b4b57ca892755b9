package pipeline

import (
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex stage.
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment stage. A render pipeline without one writes depth only.
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithComputeShader sets the compute stage.
func WithComputeShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.computeShader = s
	}
}

// WithShaders assigns each shader to the stage its ShaderType names, so the output of shader.LoadShaders can be
// passed straight through. Nil shaders are skipped; a later shader of the same stage wins.
//
// Parameters:
//   - shaders: the stage shaders in any order
//
// Returns:
//   - PipelineBuilderOption: a function that sets every given stage
func WithShaders(shaders ...shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		for _, s := range shaders {
			if s == nil {
				continue
			}
			switch s.ShaderType() {
			case shader.ShaderTypeVertex:
				p.vertexShader = s
			case shader.ShaderTypeFragment:
				p.fragmentShader = s
			case shader.ShaderTypeCompute:
				p.computeShader = s
			}
		}
	}
}

// WithResources declares the named resource components the pipeline expects. Repeated use appends.
//
// Parameters:
//   - components: the resource components, linked against the shaders by Pipeline.Link
//
// Returns:
//   - PipelineBuilderOption: a function that adds the components to this pipeline
func WithResources(components ...resource.Component) PipelineBuilderOption {
	return func(p *pipeline) {
		p.resources = append(p.resources, components...)
	}
}

// WithDepthTestEnabled turns the depth test on or off. On by default.
func WithDepthTestEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthTestEnabled = enabled
	}
}

// WithDepthWriteEnabled turns depth writes on or off. On by default; ignored when the depth test is off.
func WithDepthWriteEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthWriteEnabled = enabled
	}
}

// WithDepthBias sets the constant and slope-scaled depth bias.
func WithDepthBias(bias int32, slopeScale float32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.depthBias = bias
		p.depthBiasSlopeScale = slopeScale
	}
}

// WithBlendEnabled turns blending with the pipeline's blend state on or off. Off by default; the default state
// is premultiplied-style alpha blending.
func WithBlendEnabled(enabled bool) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendEnabled = enabled
	}
}

// WithBlendState replaces the blend state. A non-nil state also enables blending.
//
// Parameters:
//   - blendState: the color and alpha blend components
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend state for this pipeline
func WithBlendState(blendState *wgpu.BlendState) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendState = blendState
		p.blendEnabled = blendState != nil
	}
}

// WithCullMode sets which faces are discarded. wgpu.CullModeNone by default.
func WithCullMode(mode wgpu.CullMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.cullMode = mode
	}
}

// WithTopology sets the primitive topology. Triangle lists by default.
func WithTopology(topology wgpu.PrimitiveTopology) PipelineBuilderOption {
	return func(p *pipeline) {
		p.topology = topology
	}
}

// WithFrontFace sets the winding of front faces. Counter-clockwise by default.
func WithFrontFace(frontFace wgpu.FrontFace) PipelineBuilderOption {
	return func(p *pipeline) {
		p.frontFace = frontFace
	}
}

// WithWriteMask sets the color channels the fragment stage writes.
func WithWriteMask(writeMask wgpu.ColorWriteMask) PipelineBuilderOption {
	return func(p *pipeline) {
		p.writeMask = writeMask
	}
}

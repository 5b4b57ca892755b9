package renderer

import (
	"fmt"
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-pso/common"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-pso/engine/window"
	"github.com/cogentcore/webgpu/wgpu"
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	samplers      *samplerCache

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	pendingPresentMode   *PresentMode
	pendingMSAA          *MSAASampleCount
	samplerCacheSize     int
}

// Renderer defines the interface for the rendering system.
//
// Pipelines declare their non-buffer resources by name with resource components. RegisterPipelines links those
// declarations against the pipeline's shaders before any GPU object is created, and BindResources turns a
// resource.DataSet into bind group providers ready for DrawCall or DispatchCompute.
type Renderer interface {
	// Pipeline retrieves the registered Pipeline associated with the given key, or nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves a copy of the registered pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines links each pipeline's resource components against its shaders, then creates the
	// GPU pipeline objects and caches them by PipelineKey. Pipelines whose keys are already registered are skipped.
	// A link failure aborts registration before any GPU object of that pipeline is created.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if linking or pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// Resize configures the underlying backend to handle a new surface size.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode. A call to Resize is required for it to take effect.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// InitMeshBuffers creates GPU vertex and index buffers from raw byte data and stores them
	// on the given BindGroupProvider for later use in draw calls.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created buffers on
	//   - vertexData: the raw vertex data bytes, empty for meshes generated in the vertex shader
	//   - indexData: the raw uint32 index data bytes, empty for a non-indexed mesh
	//   - count: the number of indices, or vertices for a non-indexed mesh
	//
	// Returns:
	//   - error: an error if buffer creation fails
	InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, count int) error

	// CreateSampler returns a sampler for the configuration. Samplers are cached by descriptor; the least
	// recently used one is released once the cache is full.
	//
	// Parameters:
	//   - info: the sampler configuration
	//
	// Returns:
	//   - *wgpu.Sampler: the sampler, owned by the renderer
	//   - error: an error if sampler creation fails
	CreateSampler(info common.SamplerInfo) (*wgpu.Sampler, error)

	// CreateTextureView uploads RGBA8 pixels to a new sampled texture for use as a shader resource.
	//
	// Parameters:
	//   - staging: the pixel data and dimensions
	//
	// Returns:
	//   - *wgpu.TextureView: the view to bind
	//   - *wgpu.Texture: the texture (caller must release when done)
	//   - error: an error if the staging data is invalid or texture creation fails
	CreateTextureView(staging common.TextureStagingData) (*wgpu.TextureView, *wgpu.Texture, error)

	// CreateStorageTexture creates a texture writable through an unordered access view and readable as a
	// shader resource afterwards.
	//
	// Parameters:
	//   - width, height: the texture extent
	//   - format: the storage texel format, matching the shader's texture_storage_2d declaration
	//
	// Returns:
	//   - *wgpu.TextureView: the view to bind
	//   - *wgpu.Texture: the texture (caller must release when done)
	//   - error: an error if texture creation fails
	CreateStorageTexture(width, height uint32, format wgpu.TextureFormat) (*wgpu.TextureView, *wgpu.Texture, error)

	// CreateStorageBuffer creates a storage buffer usable as a shader resource or unordered access view.
	//
	// Parameters:
	//   - label: the debug label
	//   - size: the buffer size in bytes
	//   - data: the initial contents, nil to leave it zeroed
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer (caller must release when done)
	//   - error: an error if buffer creation fails
	CreateStorageBuffer(label string, size uint64, data []byte) (*wgpu.Buffer, error)

	// BindResources resolves the data set against a registered pipeline's linked layout and creates one
	// provider per bind group. Resource entries are borrowed from the data set; uniform buffers are created and
	// owned by the providers.
	//
	// Parameters:
	//   - pipelineKey: the key of the registered pipeline
	//   - data: the data of the pipeline's resource components
	//
	// Returns:
	//   - []bind_group_provider.BindGroupProvider: the providers in ascending group order
	//   - error: an error if the pipeline is unknown, the data does not resolve, or GPU creation fails
	BindResources(pipelineKey string, data resource.DataSet) ([]bind_group_provider.BindGroupProvider, error)

	// UpdateResources re-resolves the data set and rebuilds the bind groups of providers returned by
	// BindResources, keeping their uniform buffers.
	//
	// Parameters:
	//   - pipelineKey: the key of the registered pipeline
	//   - providers: the providers to update
	//   - data: the new resource data
	//
	// Returns:
	//   - error: an error if the data does not resolve or GPU creation fails
	UpdateResources(pipelineKey string, providers []bind_group_provider.BindGroupProvider, data resource.DataSet) error

	// WriteBuffers writes all staged uniform buffer writes to the GPU queue.
	//
	// Parameters:
	//   - writes: a slice of BufferWrite structs describing the data to write
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame creates a single command encoder for batching all compute dispatches
	// within a frame into one GPU submission.
	//
	// Returns:
	//   - error: an error if the command encoder could not be created
	BeginComputeFrame() error

	// EndComputeFrame finishes the batched compute command encoder and submits it.
	EndComputeFrame()

	// DispatchCompute encodes a compute pass within the current compute frame. No barrier is inserted between
	// dispatches that write the same unordered access view; ordering is the caller's responsibility.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the registered compute Pipeline to use
	//   - bindGroups: the providers returned by BindResources
	//   - workGroupCount: the number of workgroups to dispatch in the x, y, and z dimensions
	//
	// Returns:
	//   - error: an error if the pipeline is not registered
	DispatchCompute(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// BeginFrame acquires the swapchain texture and begins the main render pass.
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame() error

	// DrawCall encodes a single instanced draw command within the current render pass.
	//
	// Parameters:
	//   - pipelineKey: the unique identifier for the registered render Pipeline to use
	//   - meshProvider: the BindGroupProvider holding vertex and index buffers
	//   - instanceCount: the number of instances to draw
	//   - bindGroups: the providers returned by BindResources
	//
	// Returns:
	//   - error: an error if the pipeline is not found
	DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error

	// EndFrame ends the current render pass and submits the command buffer to the GPU.
	EndFrame()

	// Present presents the surface to the display and releases the swapchain texture.
	Present()

	// Release releases the cached samplers and the bind group layouts of every registered pipeline.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type for the given window.
//
// Parameters:
//   - backendType: the type of rendering backend to use (e.g., WGPU)
//   - window: the window whose surface is rendered to
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, window window.Window, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:               &sync.Mutex{},
		pipelineCache:    make(map[string]pipeline.Pipeline),
		backendType:      backendType,
		samplerCacheSize: defaultSamplerCacheSize,
	}

	// options first so forceFallbackAdapter is known before the adapter request
	for _, opt := range options {
		opt(r)
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}

	switch backendType {
	case BackendTypeWGPU:
		fallthrough
	default:
		r.backend = newWGPURendererBackend(window.SurfaceDescriptor(), r.forceFallbackAdapter, msaa)
	}

	samplers, err := newSamplerCache(r.samplerCacheSize, r.backend.CreateSampler, func(s *wgpu.Sampler) { s.Release() })
	if err != nil {
		panic(fmt.Sprintf("renderer: %v", err))
	}
	r.samplers = samplers

	if r.pendingPresentMode != nil {
		r.backend.SetPresentMode(*r.pendingPresentMode)
	}

	r.backend.ConfigureSurface(window.Width(), window.Height())
	return r
}

func (r *renderer) Resize(width, height int) {
	r.backend.ConfigureSurface(width, height)
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.backend.SetPresentMode(mode)
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]pipeline.Pipeline, len(r.pipelineCache))
	for k, p := range r.pipelineCache {
		out[k] = p
	}
	return out
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if _, err := p.Link(); err != nil {
			return err
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := r.backend.RegisterComputePipeline(p); err != nil {
				return fmt.Errorf("failed to register compute pipeline %s: %w", key, err)
			}
		case pipeline.PipelineTypeRender:
			if err := r.backend.RegisterRenderPipeline(p); err != nil {
				return fmt.Errorf("failed to register render pipeline %s: %w", key, err)
			}
		}
		for _, m := range p.Layout().Metas() {
			if !m.Active() {
				log.Printf("renderer: pipeline %s: %s %q is not used by its shaders", key, m.Kind, m.Name)
			}
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) InitMeshBuffers(provider bind_group_provider.BindGroupProvider, vertexData, indexData []byte, count int) error {
	return r.backend.InitMeshBuffers(provider, vertexData, indexData, count)
}

func (r *renderer) CreateSampler(info common.SamplerInfo) (*wgpu.Sampler, error) {
	return r.samplers.Get(info)
}

func (r *renderer) CreateTextureView(staging common.TextureStagingData) (*wgpu.TextureView, *wgpu.Texture, error) {
	if err := staging.Validate(); err != nil {
		return nil, nil, err
	}
	return r.backend.CreateTexture(
		textureLabel("Shader Resource Texture", staging),
		staging.Width, staging.Height,
		wgpu.TextureFormatRGBA8UnormSrgb,
		wgpu.TextureUsageTextureBinding,
		staging.Pixels,
	)
}

func (r *renderer) CreateStorageTexture(width, height uint32, format wgpu.TextureFormat) (*wgpu.TextureView, *wgpu.Texture, error) {
	return r.backend.CreateTexture(
		fmt.Sprintf("Storage Texture %dx%d", width, height),
		width, height,
		format,
		wgpu.TextureUsageStorageBinding|wgpu.TextureUsageTextureBinding|wgpu.TextureUsageCopySrc,
		nil,
	)
}

func (r *renderer) CreateStorageBuffer(label string, size uint64, data []byte) (*wgpu.Buffer, error) {
	return r.backend.CreateBuffer(label, size, wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc, data)
}

func (r *renderer) linkedPipeline(pipelineKey string) (pipeline.Pipeline, *resource.Layout, error) {
	r.mu.Lock()
	p, exists := r.pipelineCache[pipelineKey]
	r.mu.Unlock()
	if !exists {
		return nil, nil, fmt.Errorf("pipeline %q not found in cache", pipelineKey)
	}
	return p, p.Layout(), nil
}

func (r *renderer) BindResources(pipelineKey string, data resource.DataSet) ([]bind_group_provider.BindGroupProvider, error) {
	_, layout, err := r.linkedPipeline(pipelineKey)
	if err != nil {
		return nil, err
	}
	providers, err := newProviders(pipelineKey, layout, data)
	if err != nil {
		return nil, err
	}
	for _, provider := range providers {
		if err := r.backend.InitBindGroup(pipelineKey, provider, layout.UniformBindings(provider.Group())); err != nil {
			for _, created := range providers {
				created.Release()
			}
			return nil, fmt.Errorf("failed to bind group %d of %s: %w", provider.Group(), pipelineKey, err)
		}
	}
	return providers, nil
}

func (r *renderer) UpdateResources(pipelineKey string, providers []bind_group_provider.BindGroupProvider, data resource.DataSet) error {
	_, layout, err := r.linkedPipeline(pipelineKey)
	if err != nil {
		return err
	}
	groups, err := layout.Resolve(data)
	if err != nil {
		return fmt.Errorf("pipeline %s: %w", pipelineKey, err)
	}
	for _, provider := range providers {
		for _, e := range groups[provider.Group()] {
			provider.SetResourceEntry(e)
		}
		if err := r.backend.InitBindGroup(pipelineKey, provider, layout.UniformBindings(provider.Group())); err != nil {
			return fmt.Errorf("failed to rebind group %d of %s: %w", provider.Group(), pipelineKey, err)
		}
	}
	return nil
}

// newProviders resolves data against a layout and creates one provider per group of the layout's table, holding
// that group's resource entries.
func newProviders(pipelineKey string, layout *resource.Layout, data resource.DataSet) ([]bind_group_provider.BindGroupProvider, error) {
	groups, err := layout.Resolve(data)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", pipelineKey, err)
	}
	providers := make([]bind_group_provider.BindGroupProvider, 0, len(layout.Groups()))
	for _, g := range layout.Groups() {
		providers = append(providers, bind_group_provider.NewBindGroupProvider(
			fmt.Sprintf("%s_group%d", pipelineKey, g),
			bind_group_provider.WithGroup(g),
			bind_group_provider.WithResourceEntries(groups[g]...),
		))
	}
	return providers, nil
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginComputeFrame() error {
	return r.backend.BeginComputeFrame()
}

func (r *renderer) EndComputeFrame() {
	r.backend.EndComputeFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, bindGroups []bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	p, _, err := r.linkedPipeline(pipelineKey)
	if err != nil {
		return err
	}
	if p.Type() != pipeline.PipelineTypeCompute {
		return fmt.Errorf("pipeline %q is not a compute pipeline", pipelineKey)
	}
	r.backend.DispatchCompute(p, bindGroups, workGroupCount)
	return nil
}

func (r *renderer) BeginFrame() error {
	return r.backend.BeginFrame()
}

func (r *renderer) DrawCall(pipelineKey string, meshProvider bind_group_provider.BindGroupProvider, instanceCount uint32, bindGroups []bind_group_provider.BindGroupProvider) error {
	p, _, err := r.linkedPipeline(pipelineKey)
	if err != nil {
		return err
	}
	if p.Type() != pipeline.PipelineTypeRender {
		return fmt.Errorf("pipeline %q is not a render pipeline", pipelineKey)
	}
	if meshProvider == nil {
		return fmt.Errorf("pipeline %q: draw call has no mesh provider", pipelineKey)
	}
	r.backend.DrawCall(p, meshProvider, instanceCount, bindGroups)
	return nil
}

func (r *renderer) EndFrame() {
	r.backend.EndFrame()
}

func (r *renderer) Present() {
	r.backend.Present()
}

func (r *renderer) Release() {
	r.samplers.Purge()
	r.backend.Release()
}

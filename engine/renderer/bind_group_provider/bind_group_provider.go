package bind_group_provider

import (
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	// label is a debug label, also used as the bind group label.
	label string
	// group is the @group index the bind group is set at.
	group uint32

	// The following fields are owned by the provider and released by Release. They are populated by the Renderer.

	// bindGroup is the GPU bind group created for this provider, or nil until the Renderer initializes it.
	bindGroup *wgpu.BindGroup
	// buffers holds the uniform buffers created for this provider, keyed by binding index.
	buffers map[uint32]*wgpu.Buffer

	// resourceEntries holds the entries resolved from resource components, keyed by binding index.
	// The views, samplers and buffers they reference are borrowed from the caller and never released here.
	resourceEntries map[uint32]wgpu.BindGroupEntry

	// The following fields are only used by mesh providers, which carry vertex and index data instead of a bind group.

	// vertexBuffer is the GPU vertex buffer, or nil if not initialized with the Renderer.
	vertexBuffer *wgpu.Buffer
	// indexBuffer is the GPU index buffer, or nil if not initialized with the Renderer.
	indexBuffer *wgpu.Buffer
	// indexCount is the number of indices for indexed draws; a mesh without an index buffer uses it as the vertex count.
	indexCount int
}

// BindGroupProvider holds the GPU objects of one bind group of one pipeline. Uniform buffers are created and owned
// by the provider; texture views, samplers and storage buffers reach it as resource entries resolved from the
// pipeline's resource components, and stay owned by the caller.
//
// Usage pattern:
//  1. Renderer.BindResources resolves a resource.DataSet and creates one provider per group
//  2. the resolved entries are stored with SetResourceEntry
//  3. Renderer.InitBindGroup creates the uniform buffers and the bind group from Entries
//  4. Renderer.WriteBuffers updates the uniform buffers each frame
//  5. the provider is passed to DrawCall or DispatchCompute
type BindGroupProvider interface {
	// Release releases the GPU objects owned by this provider. Resource entries are dropped but the views,
	// samplers and buffers they reference are left alone.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// Group returns the @group index this provider's bind group is set at.
	//
	// Returns:
	//   - uint32: the group index
	Group() uint32

	// BindGroup returns the created bind group for shader binding.
	// Returns nil if GPU resources have not been initialized.
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group or nil
	BindGroup() *wgpu.BindGroup

	// Buffer returns the uniform buffer created for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer or nil
	Buffer(binding uint32) *wgpu.Buffer

	// Buffers returns the uniform buffers owned by this provider, keyed by binding index.
	//
	// Returns:
	//   - map[uint32]*wgpu.Buffer: the owned buffers
	Buffers() map[uint32]*wgpu.Buffer

	// ResourceEntry returns the borrowed resource entry stored for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//
	// Returns:
	//   - wgpu.BindGroupEntry: the entry
	//   - bool: true if an entry is stored for the binding
	ResourceEntry(binding uint32) (wgpu.BindGroupEntry, bool)

	// Entries returns every bind group entry of the provider, the owned buffers and the borrowed resource
	// entries, sorted by binding. A resource entry wins over an owned buffer at the same binding.
	//
	// Returns:
	//   - []wgpu.BindGroupEntry: the entries used to create the bind group
	Entries() []wgpu.BindGroupEntry

	// VertexBuffer returns the GPU vertex buffer, or nil if not initialized.
	//
	// Returns:
	//   - *wgpu.Buffer: the vertex buffer or nil
	VertexBuffer() *wgpu.Buffer

	// IndexBuffer returns the GPU index buffer, or nil if the mesh is not indexed.
	//
	// Returns:
	//   - *wgpu.Buffer: the index buffer or nil
	IndexBuffer() *wgpu.Buffer

	// IndexCount returns the number of indices for draw calls.
	//
	// Returns:
	//   - int: the index count
	IndexCount() int

	// SetBindGroup sets the bind group after GPU initialization, releasing the one it replaces.
	// Called by Renderer.InitBindGroup().
	//
	// Parameters:
	//   - bg: the created bind group
	SetBindGroup(bg *wgpu.BindGroup)

	// SetBuffer stores an owned uniform buffer for a binding.
	//
	// Parameters:
	//   - binding: the binding index
	//   - buf: the created buffer
	SetBuffer(binding uint32, buf *wgpu.Buffer)

	// SetResourceEntry stores a borrowed entry resolved from a resource component. The entry's Binding field
	// is its key.
	//
	// Parameters:
	//   - entry: the resolved bind group entry
	SetResourceEntry(entry wgpu.BindGroupEntry)

	// SetVertexBuffer stores the GPU vertex buffer.
	//
	// Parameters:
	//   - buf: the created vertex buffer
	SetVertexBuffer(buf *wgpu.Buffer)

	// SetIndexBuffer stores the GPU index buffer.
	//
	// Parameters:
	//   - buf: the created index buffer
	SetIndexBuffer(buf *wgpu.Buffer)

	// SetIndexCount sets the number of indices for draw calls.
	//
	// Parameters:
	//   - count: the index count
	SetIndexCount(count int)
}

// Compile-time check that bindGroupProvider implements BindGroupProvider
var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates a new BindGroupProvider with the provided options.
//
// Parameters:
//   - label: the debug label of the provider
//   - options: a variadic list of options to configure the provider
//
// Returns:
//   - BindGroupProvider: a new instance of BindGroupProvider configured with the provided options
func NewBindGroupProvider(label string, options ...BindGroupProviderOption) BindGroupProvider {
	p := &bindGroupProvider{
		label:           label,
		buffers:         make(map[uint32]*wgpu.Buffer),
		resourceEntries: make(map[uint32]wgpu.BindGroupEntry),
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) Group() uint32 {
	return p.group
}

func (p *bindGroupProvider) BindGroup() *wgpu.BindGroup {
	return p.bindGroup
}

func (p *bindGroupProvider) Buffer(binding uint32) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) Buffers() map[uint32]*wgpu.Buffer {
	return p.buffers
}

func (p *bindGroupProvider) ResourceEntry(binding uint32) (wgpu.BindGroupEntry, bool) {
	e, ok := p.resourceEntries[binding]
	return e, ok
}

func (p *bindGroupProvider) Entries() []wgpu.BindGroupEntry {
	entries := make([]wgpu.BindGroupEntry, 0, len(p.buffers)+len(p.resourceEntries))
	for binding, buf := range p.buffers {
		if _, shadowed := p.resourceEntries[binding]; shadowed || buf == nil {
			continue
		}
		entries = append(entries, wgpu.BindGroupEntry{
			Binding: binding,
			Buffer:  buf,
			Offset:  0,
			Size:    wgpu.WholeSize,
		})
	}
	for _, e := range p.resourceEntries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Binding < entries[j].Binding
	})
	return entries
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer {
	return p.vertexBuffer
}

func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer {
	return p.indexBuffer
}

func (p *bindGroupProvider) IndexCount() int {
	return p.indexCount
}

func (p *bindGroupProvider) SetBindGroup(bg *wgpu.BindGroup) {
	if p.bindGroup != nil && p.bindGroup != bg {
		p.bindGroup.Release()
	}
	p.bindGroup = bg
}

func (p *bindGroupProvider) SetBuffer(binding uint32, buf *wgpu.Buffer) {
	if p.buffers == nil {
		p.buffers = make(map[uint32]*wgpu.Buffer)
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) SetResourceEntry(entry wgpu.BindGroupEntry) {
	if p.resourceEntries == nil {
		p.resourceEntries = make(map[uint32]wgpu.BindGroupEntry)
	}
	p.resourceEntries[entry.Binding] = entry
}

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	for i, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, i)
	}
	// borrowed, only forget them
	clear(p.resourceEntries)

	if p.bindGroup != nil {
		p.bindGroup.Release()
		p.bindGroup = nil
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
}

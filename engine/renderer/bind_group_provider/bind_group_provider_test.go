package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBindGroupProviderOptions(t *testing.T) {
	view := &wgpu.TextureView{}
	sampler := &wgpu.Sampler{}
	p := NewBindGroupProvider("cube_group1",
		WithGroup(1),
		WithResourceEntries(
			wgpu.BindGroupEntry{Binding: 1, Sampler: sampler},
			wgpu.BindGroupEntry{Binding: 0, TextureView: view},
		),
	)

	assert.Equal(t, "cube_group1", p.Label())
	assert.Equal(t, uint32(1), p.Group())
	assert.Nil(t, p.BindGroup())

	e, ok := p.ResourceEntry(0)
	require.True(t, ok)
	assert.Same(t, view, e.TextureView)
	_, ok = p.ResourceEntry(2)
	assert.False(t, ok)
}

func TestEntriesMergesOwnedAndBorrowed(t *testing.T) {
	uniform := &wgpu.Buffer{}
	storage := &wgpu.Buffer{}
	p := NewBindGroupProvider("compute", WithBuffer(0, uniform))
	p.SetResourceEntry(wgpu.BindGroupEntry{Binding: 3, Buffer: storage, Size: 64})
	p.SetResourceEntry(wgpu.BindGroupEntry{Binding: 2, TextureView: &wgpu.TextureView{}})

	entries := p.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Same(t, uniform, entries[0].Buffer)
	assert.Equal(t, uint64(wgpu.WholeSize), entries[0].Size)
	assert.Equal(t, uint32(2), entries[1].Binding)
	assert.Equal(t, uint32(3), entries[2].Binding)
	assert.Equal(t, uint64(64), entries[2].Size)
}

func TestResourceEntryShadowsOwnedBuffer(t *testing.T) {
	owned := &wgpu.Buffer{}
	borrowed := &wgpu.Buffer{}
	p := NewBindGroupProvider("shadow")
	p.SetBuffer(0, owned)
	p.SetResourceEntry(wgpu.BindGroupEntry{Binding: 0, Buffer: borrowed, Size: wgpu.WholeSize})

	entries := p.Entries()
	require.Len(t, entries, 1)
	assert.Same(t, borrowed, entries[0].Buffer)
	assert.Same(t, owned, p.Buffer(0))
}

func TestReleaseForgetsBorrowedEntries(t *testing.T) {
	p := NewBindGroupProvider("textured")
	p.SetResourceEntry(wgpu.BindGroupEntry{Binding: 0, TextureView: &wgpu.TextureView{}})
	p.SetResourceEntry(wgpu.BindGroupEntry{Binding: 1, Sampler: &wgpu.Sampler{}})

	p.Release()

	assert.Empty(t, p.Entries())
	_, ok := p.ResourceEntry(0)
	assert.False(t, ok)
}

func TestMeshFields(t *testing.T) {
	p := NewBindGroupProvider("mesh")
	p.SetIndexCount(36)
	assert.Equal(t, 36, p.IndexCount())
	assert.Nil(t, p.VertexBuffer())
	assert.Nil(t, p.IndexBuffer())
}

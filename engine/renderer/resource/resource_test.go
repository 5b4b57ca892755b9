package resource

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pso/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cubeTable mirrors the bind points of a textured cube: a uniform transform and a texture with its sampler.
func cubeTable(t *testing.T) *shader.BindingTable {
	t.Helper()
	table, err := shader.NewBindingTable([]shader.Binding{
		{Name: "u_Transform", Group: 0, Binding: 0, Type: shader.BindingTypeUniformBuffer, MinBindingSize: 64},
		{Name: "t_Color", Group: 1, Binding: 0, Type: shader.BindingTypeSampledTexture, ViewDimension: wgpu.TextureViewDimension2D},
		{Name: "t_Color_sampler", Group: 1, Binding: 1, Type: shader.BindingTypeSampler},
	}, nil)
	require.NoError(t, err)
	return table
}

func computeTable(t *testing.T) *shader.BindingTable {
	t.Helper()
	table, err := shader.NewBindingTable([]shader.Binding{
		{Name: "params", Group: 0, Binding: 0, Type: shader.BindingTypeUniformBuffer, MinBindingSize: 8},
		{Name: "points", Group: 0, Binding: 1, Type: shader.BindingTypeReadOnlyStorageBuffer, MinBindingSize: 16},
		{Name: "output", Group: 0, Binding: 2, Type: shader.BindingTypeStorageTexture, Access: wgpu.StorageTextureAccessWriteOnly},
		{Name: "counter", Group: 0, Binding: 3, Type: shader.BindingTypeStorageBuffer, MinBindingSize: 4},
	}, nil)
	require.NoError(t, err)
	return table
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Sampler", KindSampler.String())
	assert.Equal(t, "ShaderResource", KindShaderResource.String())
	assert.Equal(t, "TextureSampler", KindTextureSampler.String())
	assert.Equal(t, "UnorderedAccess", KindUnorderedAccess.String())
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestNewComponentPanicsWithoutName(t *testing.T) {
	assert.Panics(t, func() { NewSampler("") })
}

func TestTextureSamplerLinksBySuffix(t *testing.T) {
	meta, err := NewTextureSampler("t_Color").Link(cubeTable(t))
	require.NoError(t, err)
	require.True(t, meta.Active())
	require.Len(t, meta.Slots, 2)

	v, ok := meta.Slot(RoleView)
	require.True(t, ok)
	assert.Equal(t, Slot{Group: 1, Binding: 0, Role: RoleView, Type: shader.BindingTypeSampledTexture}, v)

	s, ok := meta.Slot(RoleSampler)
	require.True(t, ok)
	assert.Equal(t, uint32(1), s.Binding)
	assert.Equal(t, shader.BindingTypeSampler, s.Type)
}

func TestTextureSamplerLinksByPair(t *testing.T) {
	table, err := shader.NewBindingTable([]shader.Binding{
		{Name: "shadowMap", Group: 2, Binding: 0, Type: shader.BindingTypeDepthTexture},
		{Name: "shadowCompare", Group: 2, Binding: 1, Type: shader.BindingTypeComparisonSampler},
	}, map[string]string{"shadowMap": "shadowCompare"})
	require.NoError(t, err)

	meta, err := NewTextureSampler("shadowMap").Link(table)
	require.NoError(t, err)
	s, ok := meta.Slot(RoleSampler)
	require.True(t, ok)
	assert.Equal(t, shader.BindingTypeComparisonSampler, s.Type)
}

func TestTextureSamplerMissingSampler(t *testing.T) {
	table, err := shader.NewBindingTable([]shader.Binding{
		{Name: "t_Color", Group: 0, Binding: 0, Type: shader.BindingTypeSampledTexture},
	}, nil)
	require.NoError(t, err)

	_, err = NewTextureSampler("t_Color").Link(table)
	assert.ErrorIs(t, err, ErrMissingSampler)
}

func TestTextureSamplerSamplerOfWrongType(t *testing.T) {
	table, err := shader.NewBindingTable([]shader.Binding{
		{Name: "t_Color", Group: 0, Binding: 0, Type: shader.BindingTypeSampledTexture},
		{Name: "t_Color_sampler", Group: 0, Binding: 1, Type: shader.BindingTypeSampledTexture},
	}, nil)
	require.NoError(t, err)

	_, err = NewTextureSampler("t_Color").Link(table)
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestLinkUndeclaredNameIsInactive(t *testing.T) {
	meta, err := NewShaderResource("t_Unused").Link(cubeTable(t))
	require.NoError(t, err)
	assert.False(t, meta.Active())
	assert.Equal(t, "t_Unused", meta.Name)
}

func TestLinkKindMismatch(t *testing.T) {
	cases := []struct {
		name      string
		component Component
	}{
		{"sampler on texture", NewSampler("t_Color")},
		{"shader resource on sampler", NewShaderResource("t_Color_sampler")},
		{"unordered access on sampled texture", NewUnorderedAccess("t_Color")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.component.Link(cubeTable(t))
			assert.ErrorIs(t, err, ErrKindMismatch)
		})
	}

	_, err := NewShaderResource("counter").Link(computeTable(t))
	assert.ErrorIs(t, err, ErrKindMismatch)
	_, err = NewShaderResource("output").Link(computeTable(t))
	assert.ErrorIs(t, err, ErrKindMismatch)
	_, err = NewUnorderedAccess("points").Link(computeTable(t))
	assert.ErrorIs(t, err, ErrKindMismatch)
}

func TestNewSetRejectsDuplicateNames(t *testing.T) {
	_, err := NewSet(NewSampler("a"), NewShaderResource("a"))
	assert.ErrorIs(t, err, ErrDuplicateName)

	s, err := NewSet(NewSampler("a"), nil, NewShaderResource("b"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
	c, ok := s.Lookup("b")
	require.True(t, ok)
	assert.Equal(t, KindShaderResource, c.Kind())
}

func TestSetLinkSlotConflict(t *testing.T) {
	s, err := NewSet(NewTextureSampler("t_Color"), NewSampler("t_Color_sampler"))
	require.NoError(t, err)

	_, err = s.Link(cubeTable(t))
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestSetLinkUnclaimedBinding(t *testing.T) {
	s, err := NewSet(NewShaderResource("points"), NewUnorderedAccess("output"))
	require.NoError(t, err)

	_, err = s.Link(computeTable(t))
	require.ErrorIs(t, err, ErrUnclaimedBinding)
	assert.ErrorContains(t, err, "counter")
}

func TestSetLinkLeavesUniformsToCaller(t *testing.T) {
	s, err := NewSet(NewTextureSampler("t_Color"))
	require.NoError(t, err)

	l, err := s.Link(cubeTable(t))
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, l.Groups())

	uniforms := l.UniformBindings(0)
	require.Len(t, uniforms, 1)
	assert.Equal(t, "u_Transform", uniforms[0].Name)
	assert.Empty(t, l.UniformBindings(1))
}

func TestResolveTextureSampler(t *testing.T) {
	s, err := NewSet(NewTextureSampler("t_Color"), NewShaderResource("t_Unused"))
	require.NoError(t, err)
	l, err := s.Link(cubeTable(t))
	require.NoError(t, err)

	view := &wgpu.TextureView{}
	sampler := &wgpu.Sampler{}
	data := DataSet{}
	data.SetTextureSampler("t_Color", view, sampler)

	groups, err := l.Resolve(data)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	entries := groups[1]
	require.Len(t, entries, 2)
	assert.Equal(t, uint32(0), entries[0].Binding)
	assert.Same(t, view, entries[0].TextureView)
	assert.Equal(t, uint32(1), entries[1].Binding)
	assert.Same(t, sampler, entries[1].Sampler)
}

func TestResolveComputeViews(t *testing.T) {
	s, err := NewSet(NewUnorderedAccess("counter"), NewShaderResource("points"), NewUnorderedAccess("output"))
	require.NoError(t, err)
	l, err := s.Link(computeTable(t))
	require.NoError(t, err)

	points := &wgpu.Buffer{}
	counter := &wgpu.Buffer{}
	output := &wgpu.TextureView{}
	data := DataSet{}
	data.SetShaderResource("points", ShaderResourceView{Buffer: points, Offset: 16, Size: 64})
	data.SetUnorderedAccess("output", UnorderedAccessView{TextureView: output})
	data.SetUnorderedAccess("counter", UnorderedAccessView{Buffer: counter})

	groups, err := l.Resolve(data)
	require.NoError(t, err)
	entries := groups[0]
	require.Len(t, entries, 3)

	assert.Equal(t, uint32(1), entries[0].Binding)
	assert.Same(t, points, entries[0].Buffer)
	assert.Equal(t, uint64(16), entries[0].Offset)
	assert.Equal(t, uint64(64), entries[0].Size)

	assert.Equal(t, uint32(2), entries[1].Binding)
	assert.Same(t, output, entries[1].TextureView)

	assert.Equal(t, uint32(3), entries[2].Binding)
	assert.Same(t, counter, entries[2].Buffer)
	assert.Equal(t, uint64(wgpu.WholeSize), entries[2].Size)
}

func TestResolveErrors(t *testing.T) {
	s, err := NewSet(NewTextureSampler("t_Color"))
	require.NoError(t, err)
	l, err := s.Link(cubeTable(t))
	require.NoError(t, err)

	_, err = l.Resolve(DataSet{})
	assert.ErrorIs(t, err, ErrMissingData)

	_, err = l.Resolve(DataSet{"t_Color": SamplerData{Sampler: &wgpu.Sampler{}}})
	assert.ErrorIs(t, err, ErrKindMismatch)

	_, err = l.Resolve(DataSet{
		"t_Color": TextureSamplerData{View: &wgpu.TextureView{}, Sampler: &wgpu.Sampler{}},
		"t_Other": SamplerData{Sampler: &wgpu.Sampler{}},
	})
	assert.ErrorIs(t, err, ErrUnknownName)

	_, err = l.Resolve(DataSet{"t_Color": TextureSamplerData{View: &wgpu.TextureView{}}})
	assert.ErrorIs(t, err, ErrInvalidView)
}

func TestResolveInvalidViews(t *testing.T) {
	s, err := NewSet(NewUnorderedAccess("counter"), NewShaderResource("points"), NewUnorderedAccess("output"))
	require.NoError(t, err)
	l, err := s.Link(computeTable(t))
	require.NoError(t, err)

	valid := func() DataSet {
		d := DataSet{}
		d.SetShaderResource("points", ShaderResourceView{Buffer: &wgpu.Buffer{}})
		d.SetUnorderedAccess("output", UnorderedAccessView{TextureView: &wgpu.TextureView{}})
		d.SetUnorderedAccess("counter", UnorderedAccessView{Buffer: &wgpu.Buffer{}})
		return d
	}

	cases := map[string]Data{
		"points": ShaderResourceView{},
		"output": UnorderedAccessView{Buffer: &wgpu.Buffer{}},
		"counter": UnorderedAccessView{
			Buffer:      &wgpu.Buffer{},
			TextureView: &wgpu.TextureView{},
		},
	}
	for name, bad := range cases {
		t.Run(name, func(t *testing.T) {
			d := valid()
			d[name] = bad
			_, err := l.Resolve(d)
			assert.ErrorIs(t, err, ErrInvalidView)
		})
	}
}

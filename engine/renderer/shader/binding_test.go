package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texture(name string, group, binding uint32, stage wgpu.ShaderStage) Binding {
	return Binding{
		Name:          name,
		Group:         group,
		Binding:       binding,
		Type:          BindingTypeSampledTexture,
		Visibility:    stage,
		ViewDimension: wgpu.TextureViewDimension2D,
		SampleType:    wgpu.TextureSampleTypeFloat,
	}
}

func TestNewBindingTableSortsAndIndexes(t *testing.T) {
	table, err := NewBindingTable([]Binding{
		texture("b", 1, 0, wgpu.ShaderStageFragment),
		{Name: "a", Group: 0, Binding: 3, Type: BindingTypeUniformBuffer, MinBindingSize: 16},
		{Name: "c", Group: 0, Binding: 1, Type: BindingTypeSampler},
	}, nil)
	require.NoError(t, err)

	names := []string{}
	for _, b := range table.Bindings() {
		names = append(names, b.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
	assert.Equal(t, []uint32{0, 1}, table.Groups())

	b, ok := table.At(0, 3)
	require.True(t, ok)
	assert.Equal(t, "a", b.Name)
	_, ok = table.At(2, 0)
	assert.False(t, ok)
	_, ok = table.Lookup("zzz")
	assert.False(t, ok)

	descs := table.LayoutDescriptors()
	require.Len(t, descs, 2)
	require.Len(t, descs[0].Entries, 2)
	assert.Equal(t, uint32(1), descs[0].Entries[0].Binding)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, descs[0].Entries[0].Sampler.Type)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, descs[0].Entries[1].Buffer.Type)
	assert.Equal(t, uint64(16), descs[0].Entries[1].Buffer.MinBindingSize)
}

func TestNewBindingTableRejectsDuplicates(t *testing.T) {
	_, err := NewBindingTable([]Binding{
		texture("a", 0, 0, wgpu.ShaderStageFragment),
		texture("a", 0, 1, wgpu.ShaderStageFragment),
	}, nil)
	assert.ErrorContains(t, err, "declared more than once")

	_, err = NewBindingTable([]Binding{
		texture("a", 0, 0, wgpu.ShaderStageFragment),
		texture("b", 0, 0, wgpu.ShaderStageFragment),
	}, nil)
	assert.ErrorContains(t, err, "declared by both")
}

func TestNilBindingTable(t *testing.T) {
	var table *BindingTable
	_, ok := table.Lookup("a")
	assert.False(t, ok)
	assert.Zero(t, table.Len())
	assert.Nil(t, table.Bindings())
	assert.Empty(t, table.LayoutDescriptors())
}

func TestMergeBindingTablesOrsVisibility(t *testing.T) {
	vs, err := NewBindingTable([]Binding{
		{Name: "globals", Type: BindingTypeUniformBuffer, Visibility: wgpu.ShaderStageVertex, MinBindingSize: 64},
	}, nil)
	require.NoError(t, err)
	fs, err := NewBindingTable([]Binding{
		{Name: "globals", Type: BindingTypeUniformBuffer, Visibility: wgpu.ShaderStageFragment, MinBindingSize: 64},
		texture("t_Color", 1, 0, wgpu.ShaderStageFragment),
		{Name: "t_Color_sampler", Group: 1, Binding: 1, Type: BindingTypeSampler, Visibility: wgpu.ShaderStageFragment},
	}, map[string]string{"t_Color": "t_Color_sampler"})
	require.NoError(t, err)

	merged, err := MergeBindingTables(vs, nil, fs)
	require.NoError(t, err)
	assert.Equal(t, 3, merged.Len())

	globals, ok := merged.Lookup("globals")
	require.True(t, ok)
	assert.Equal(t, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment, globals.Visibility)

	sampler, ok := merged.PairedSampler("t_Color")
	require.True(t, ok)
	assert.Equal(t, "t_Color_sampler", sampler)
}

func TestMergeBindingTablesConflicts(t *testing.T) {
	base, err := NewBindingTable([]Binding{texture("a", 0, 0, wgpu.ShaderStageVertex)}, map[string]string{"a": "s"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		other   []Binding
		pairs   map[string]string
		wantErr string
	}{
		{name: "moved slot", other: []Binding{texture("a", 0, 1, wgpu.ShaderStageFragment)}, wantErr: "declared at group 0 binding 0 and at group 0 binding 1"},
		{name: "changed type", other: []Binding{{Name: "a", Type: BindingTypeSampler, Visibility: wgpu.ShaderStageFragment}}, wantErr: "declared as sampled texture and as sampler"},
		{name: "shared slot", other: []Binding{texture("b", 0, 0, wgpu.ShaderStageFragment)}, wantErr: "declared by both \"a\" and \"b\""},
		{name: "repaired", pairs: map[string]string{"a": "other"}, wantErr: "paired with both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, err := NewBindingTable(tt.other, tt.pairs)
			require.NoError(t, err)
			_, err = MergeBindingTables(base, other)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestMergeParsedStages(t *testing.T) {
	vs, err := ParseShader("cube_vs", ShaderTypeVertex, cubeVertexSource)
	require.NoError(t, err)
	fs, err := ParseShader("cube_fs", ShaderTypeFragment, cubeFragmentSource)
	require.NoError(t, err)

	merged, err := MergeBindingTables(vs.Bindings(), fs.Bindings())
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1}, merged.Groups())
	assert.Equal(t, 3, merged.Len())
}

func TestBindingTypeString(t *testing.T) {
	assert.Equal(t, "storage texture", BindingTypeStorageTexture.String())
	assert.Equal(t, "BindingType(42)", BindingType(42).String())
	assert.True(t, BindingTypeReadOnlyStorageBuffer.IsBuffer())
	assert.True(t, BindingTypeComparisonSampler.IsSampler())
	assert.True(t, BindingTypeDepthTexture.IsTexture())
	assert.False(t, BindingTypeSampler.IsTexture())
}

func TestStorageTextureLayoutEntry(t *testing.T) {
	entry := Binding{
		Name:          "out",
		Binding:       2,
		Type:          BindingTypeStorageTexture,
		Visibility:    wgpu.ShaderStageCompute,
		ViewDimension: wgpu.TextureViewDimension2D,
		Access:        wgpu.StorageTextureAccessReadOnly,
		Format:        wgpu.TextureFormatR32Float,
	}.LayoutEntry()
	assert.Equal(t, uint32(2), entry.Binding)
	assert.Equal(t, wgpu.TextureFormatR32Float, entry.StorageTexture.Format)
	assert.Equal(t, wgpu.StorageTextureAccessReadOnly, entry.StorageTexture.Access)
	assert.Equal(t, wgpu.BufferBindingTypeUndefined, entry.Buffer.Type)
}

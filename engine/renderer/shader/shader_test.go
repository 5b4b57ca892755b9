package shader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseShaderVertex(t *testing.T) {
	s, err := ParseShader("cube_vs", ShaderTypeVertex, cubeVertexSource)
	require.NoError(t, err)

	assert.Equal(t, "cube_vs", s.Key())
	assert.Equal(t, "vs_main", s.EntryPoint())
	assert.Equal(t, [3]uint32{}, s.WorkgroupSize())
	require.NotNil(t, s.Module())
	assert.Equal(t, "cube_vs", s.Module().Label)

	b, ok := s.Bindings().Lookup("u_Transform")
	require.True(t, ok)
	assert.Equal(t, BindingTypeUniformBuffer, b.Type)
	assert.Equal(t, uint32(0), b.Group)
	assert.Equal(t, uint32(0), b.Binding)
	assert.Equal(t, wgpu.ShaderStageVertex, b.Visibility)
	assert.Equal(t, uint64(64), b.MinBindingSize)
	assert.Equal(t, "u_Transform", s.BindGroupVarName(0, 0))
	assert.Equal(t, "", s.BindGroupVarName(0, 1))

	layouts := s.VertexLayouts()
	require.Len(t, layouts, 1)
	layout := s.VertexLayout(0)
	require.Len(t, layout, 1)
	assert.Equal(t, uint64(24), layout[0].ArrayStride)
	require.Len(t, layout[0].Attributes, 2)
	assert.Equal(t, wgpu.VertexFormatFloat32x4, layout[0].Attributes[0].Format)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, layout[0].Attributes[1].Format)
	assert.Equal(t, uint64(16), layout[0].Attributes[1].Offset)
	assert.Equal(t, uint32(1), layout[0].Attributes[1].ShaderLocation)
}

func TestParseShaderTextureSamplerAnnotation(t *testing.T) {
	s, err := ParseShader("cube_fs", ShaderTypeFragment, cubeFragmentSource)
	require.NoError(t, err)

	assert.Equal(t, "fs_main", s.EntryPoint())
	tex, ok := s.Bindings().Lookup("t_Color")
	require.True(t, ok)
	assert.Equal(t, BindingTypeSampledTexture, tex.Type)
	assert.Equal(t, uint32(1), tex.Group)
	assert.Equal(t, uint32(0), tex.Binding)
	assert.Equal(t, wgpu.TextureViewDimension2D, tex.ViewDimension)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, tex.SampleType)
	assert.Equal(t, wgpu.ShaderStageFragment, tex.Visibility)

	smp, ok := s.Bindings().Lookup("t_Color_sampler")
	require.True(t, ok)
	assert.Equal(t, BindingTypeSampler, smp.Type)
	assert.Equal(t, uint32(1), smp.Binding)

	paired, ok := s.Bindings().PairedSampler("t_Color")
	require.True(t, ok)
	assert.Equal(t, "t_Color_sampler", paired)
	require.Len(t, s.Declarations(), 1)

	desc := s.BindGroupLayoutDescriptor(1)
	require.Len(t, desc.Entries, 2)
	assert.Equal(t, wgpu.TextureSampleTypeFloat, desc.Entries[0].Texture.SampleType)
	assert.Equal(t, wgpu.SamplerBindingTypeFiltering, desc.Entries[1].Sampler.Type)
}

func TestParseShaderCompute(t *testing.T) {
	s, err := ParseShader("fill", ShaderTypeCompute, computeSource)
	require.NoError(t, err)

	assert.Equal(t, "cs_main", s.EntryPoint())
	assert.Equal(t, [3]uint32{8, 8, 1}, s.WorkgroupSize())
	assert.Empty(t, s.VertexLayouts())

	table := s.Bindings()
	require.Equal(t, 4, table.Len())

	params, _ := table.Lookup("params")
	assert.Equal(t, BindingTypeUniformBuffer, params.Type)
	assert.Equal(t, uint64(8), params.MinBindingSize)

	points, _ := table.Lookup("points")
	assert.Equal(t, BindingTypeReadOnlyStorageBuffer, points.Type)
	assert.Equal(t, uint64(16), points.MinBindingSize)
	assert.False(t, points.Writable())

	output, _ := table.Lookup("output")
	assert.Equal(t, BindingTypeStorageTexture, output.Type)
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, output.Format)
	assert.Equal(t, wgpu.StorageTextureAccessWriteOnly, output.Access)
	assert.Equal(t, wgpu.TextureViewDimension2D, output.ViewDimension)
	assert.True(t, output.Writable())

	counter, _ := table.Lookup("counter")
	assert.Equal(t, BindingTypeStorageBuffer, counter.Type)
	assert.Equal(t, uint64(4), counter.MinBindingSize)
	assert.True(t, counter.Writable())

	for _, b := range table.Bindings() {
		assert.Equal(t, wgpu.ShaderStageCompute, b.Visibility, b.Name)
	}
}

func TestParseShaderPairAnnotation(t *testing.T) {
	s, err := ParseShader("shadow_fs", ShaderTypeFragment, shadowFragmentSource)
	require.NoError(t, err)

	depth, ok := s.Bindings().Lookup("shadowMap")
	require.True(t, ok)
	assert.Equal(t, BindingTypeDepthTexture, depth.Type)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, depth.SampleType)

	cmp, ok := s.Bindings().Lookup("shadowCompare")
	require.True(t, ok)
	assert.Equal(t, BindingTypeComparisonSampler, cmp.Type)

	paired, ok := s.Bindings().PairedSampler("shadowMap")
	require.True(t, ok)
	assert.Equal(t, "shadowCompare", paired)
}

func TestParseShaderErrors(t *testing.T) {
	tests := []struct {
		name       string
		shaderType ShaderType
		source     string
		wantErr    string
	}{
		{name: "bad annotation", shaderType: ShaderTypeFragment, source: "//@pso:bogus", wantErr: "pre-process"},
		{name: "invalid wgsl", shaderType: ShaderTypeCompute, source: "fn (", wantErr: "reflect"},
		{name: "missing stage", shaderType: ShaderTypeVertex, source: computeSource, wantErr: "no vertex entry point"},
		{
			name:       "undeclared pair",
			shaderType: ShaderTypeFragment,
			source:     "//@pso:pair missing other\n" + cubeFragmentSource,
			wantErr:    "paired texture \"missing\" is not declared",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseShader("bad", tt.shaderType, tt.source)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewShaderPanicsOnMissingFile(t *testing.T) {
	assert.Panics(t, func() { NewShader("x", ShaderTypeCompute, "") })
	assert.Panics(t, func() { NewShader("x", ShaderTypeCompute, filepath.Join(t.TempDir(), "missing.wgsl")) })
}

func TestNewShaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fill.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(computeSource), 0o644))

	s := NewShader("fill", ShaderTypeCompute, path)
	assert.Equal(t, "cs_main", s.EntryPoint())
}

func TestLoadShaders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube_fs.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(cubeFragmentSource), 0o644))

	shaders, err := LoadShaders(context.Background(),
		Source{Key: "cube_vs", Type: ShaderTypeVertex, Code: cubeVertexSource},
		Source{Key: "cube_fs", Type: ShaderTypeFragment, Path: path},
		Source{Key: "fill", Type: ShaderTypeCompute, Code: computeSource},
	)
	require.NoError(t, err)
	require.Len(t, shaders, 3)
	assert.Equal(t, "cube_vs", shaders[0].Key())
	assert.Equal(t, "cube_fs", shaders[1].Key())
	assert.Equal(t, "fill", shaders[2].Key())
}

func TestLoadShadersFirstErrorWins(t *testing.T) {
	_, err := LoadShaders(context.Background(),
		Source{Key: "ok", Type: ShaderTypeCompute, Code: computeSource},
		Source{Key: "first", Type: ShaderTypeCompute},
		Source{Key: "second", Type: ShaderTypeCompute, Code: "fn ("},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shader first: no source given")
}

func TestLoadShadersCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LoadShaders(ctx, Source{Key: "fill", Type: ShaderTypeCompute, Code: computeSource})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadShadersEmpty(t *testing.T) {
	shaders, err := LoadShaders(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, shaders)
}

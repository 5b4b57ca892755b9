package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStructSizes(t *testing.T) {
	src := `
struct Light {
    position: vec3<f32>,
    intensity: f32,
};
struct Lights {
    count: u32,
    items: array<Light, 4>,
};
struct Particles {
    time: f32,
    data: array<vec4<f32>>,
};
struct OnlyRuntime {
    data: array<vec3<f32>>,
};
`
	sizes := computeStructSizes(parseStructBlocks(stripComments(src)))
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Light"])
	assert.Equal(t, wgslTypeLayout{80, 16}, sizes["Lights"])
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["Particles"])
	assert.Equal(t, wgslTypeLayout{16, 16}, sizes["OnlyRuntime"])
}

func TestResolveTypeLayout(t *testing.T) {
	tests := []struct {
		typeName string
		want     wgslTypeLayout
		ok       bool
	}{
		{"f32", wgslTypeLayout{4, 4}, true},
		{"vec3f", wgslTypeLayout{12, 16}, true},
		{"array<vec3<f32>, 3>", wgslTypeLayout{48, 16}, true},
		{"array<u32>", wgslTypeLayout{4, 4}, true},
		{"array<Unknown, 3>", wgslTypeLayout{}, false},
		{"array<f32, N>", wgslTypeLayout{}, false},
		{"Mystery", wgslTypeLayout{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			got, ok := resolveTypeLayout(tt.typeName, nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseBindingDecls(t *testing.T) {
	src := `
// @group(9) @binding(9) var ignored: sampler;
@group(0) @binding(1) var<storage, read_write> data: array<u32>;
/* @group(8) @binding(8) var alsoIgnored: sampler; */
@group(1) @binding(0)
var img: texture_storage_2d<r32float, read>;
`
	decls := parseBindingDecls(src)
	require.Len(t, decls, 2)
	assert.Equal(t, bindingDecl{group: 0, binding: 1, addressSpace: "storage, read_write", typeName: "array<u32>"}, decls["data"])
	assert.Equal(t, bindingDecl{group: 1, binding: 0, typeName: "texture_storage_2d<r32float, read>"}, decls["img"])
}

func TestStorageTexelOf(t *testing.T) {
	format, access, err := storageTexelOf("texture_storage_2d<rgba16float, read_write>")
	require.NoError(t, err)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, format)
	assert.Equal(t, wgpu.StorageTextureAccessReadWrite, access)

	_, _, err = storageTexelOf("texture_storage_2d<rgba8unorm>")
	assert.ErrorContains(t, err, "needs a texel format and an access mode")
	_, _, err = storageTexelOf("texture_storage_2d<rgb9e5ufloat, write>")
	assert.ErrorContains(t, err, "unsupported texel format")
	_, _, err = storageTexelOf("texture_storage_2d<r32float, sometimes>")
	assert.ErrorContains(t, err, "unknown access mode")
}

func TestSampleTypeOf(t *testing.T) {
	assert.Equal(t, wgpu.TextureSampleTypeUint, sampleTypeOf("texture_2d<u32>"))
	assert.Equal(t, wgpu.TextureSampleTypeSint, sampleTypeOf("texture_2d_array<i32>"))
	assert.Equal(t, wgpu.TextureSampleTypeFloat, sampleTypeOf("texture_cube<f32>"))
	assert.Equal(t, wgpu.TextureSampleTypeFloat, sampleTypeOf("texture_2d"))
}

func TestStorageReadWrite(t *testing.T) {
	assert.True(t, storageReadWrite("storage, read_write"))
	assert.False(t, storageReadWrite("storage, read"))
	assert.False(t, storageReadWrite("storage"))
}

func TestStripComments(t *testing.T) {
	got := stripComments("a /* b /* nested */ c */ d // e\nf")
	assert.Equal(t, "a  d \nf\n", got)
}

func TestParseVertexLayoutsSkipsOutputs(t *testing.T) {
	layouts := parseVertexLayouts(cubeVertexSource)
	require.Len(t, layouts, 1)
	assert.Len(t, layouts[0][0].Attributes, 2)
}

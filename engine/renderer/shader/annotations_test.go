package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnnotation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *Annotation
		wantErr string
	}{
		{name: "plain code", line: "let x = 1;"},
		{name: "plain comment", line: "// just a comment"},
		{
			name: "texture sampler",
			line: "//@pso:texture_sampler 1 0 t_Color texture_2d<f32>",
			want: &Annotation{Type: AnnotationTypeTextureSampler, Texture: "t_Color", Sampler: "t_Color_sampler", TextureType: "texture_2d<f32>"},
		},
		{
			name: "comparison texture sampler",
			line: "  // @pso:texture_sampler 0 4 shadow texture_depth_2d comparison",
			want: &Annotation{Type: AnnotationTypeTextureSampler, Texture: "shadow", Sampler: "shadow_sampler", TextureType: "texture_depth_2d", Comparison: true},
		},
		{
			name: "pair",
			line: "//@pso:pair shadowMap shadowCompare",
			want: &Annotation{Type: AnnotationTypePair, Texture: "shadowMap", Sampler: "shadowCompare"},
		},
		{name: "empty", line: "//@pso:", wantErr: "empty @pso annotation"},
		{name: "unknown type", line: "//@pso:include foo", wantErr: "unknown @pso annotation type"},
		{name: "missing args", line: "//@pso:texture_sampler 1 0 t_Color", wantErr: "requires group, binding"},
		{name: "bad group", line: "//@pso:texture_sampler x 0 t texture_2d<f32>", wantErr: "invalid group number"},
		{name: "negative binding", line: "//@pso:texture_sampler 0 -1 t texture_2d<f32>", wantErr: "invalid binding number"},
		{name: "bad name", line: "//@pso:texture_sampler 0 0 1tex texture_2d<f32>", wantErr: "invalid texture name"},
		{name: "storage texture", line: "//@pso:texture_sampler 0 0 t texture_storage_2d<rgba8unorm,write>", wantErr: "not a sampled texture type"},
		{name: "bad sampler kind", line: "//@pso:texture_sampler 0 0 t texture_2d<f32> linear", wantErr: "unknown sampler kind"},
		{name: "pair arity", line: "//@pso:pair a", wantErr: "exactly two arguments"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseAnnotation(tt.line, 7)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, strings.HasPrefix(err.Error(), "line 7:"))
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Type, got.Type)
			assert.Equal(t, tt.want.Texture, got.Texture)
			assert.Equal(t, tt.want.Sampler, got.Sampler)
			assert.Equal(t, tt.want.TextureType, got.TextureType)
			assert.Equal(t, tt.want.Comparison, got.Comparison)
			assert.Equal(t, 7, got.Line)
		})
	}
}

func TestPreProcessorExpandsTextureSampler(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@pso:texture_sampler 1 2 t_Color texture_2d<f32>\nfn f() {}")
	require.NoError(t, err)

	assert.Contains(t, out, "@group(1) @binding(2) var t_Color: texture_2d<f32>;")
	assert.Contains(t, out, "@group(1) @binding(3) var t_Color_sampler: sampler;")
	assert.NotContains(t, out, "@pso:")
	assert.Equal(t, map[string]string{"t_Color": "t_Color_sampler"}, pp.Pairs())

	decls := pp.Declarations()
	require.Len(t, decls, 1)
	require.NotNil(t, decls[0].Group)
	assert.Equal(t, 1, *decls[0].Group)
	assert.Equal(t, 2, *decls[0].Binding)
}

func TestPreProcessorComparisonSampler(t *testing.T) {
	pp := NewPreProcessor()
	out, err := pp.Process("//@pso:texture_sampler 0 0 shadow texture_depth_2d comparison")
	require.NoError(t, err)
	assert.Contains(t, out, "var shadow_sampler: sampler_comparison;")
}

func TestPreProcessorKeepsPairLine(t *testing.T) {
	pp := NewPreProcessor()
	src := "//@pso:pair a b\n@group(0) @binding(0) var a: texture_2d<f32>;"
	out, err := pp.Process(src)
	require.NoError(t, err)
	assert.Equal(t, src, out)
	assert.Equal(t, map[string]string{"a": "b"}, pp.Pairs())
}

func TestPreProcessorRejectsDuplicatePair(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@pso:pair a b\n//@pso:pair a c")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
	assert.Contains(t, err.Error(), "already paired on line 1")
}

func TestPreProcessorResetsBetweenCalls(t *testing.T) {
	pp := NewPreProcessor()
	_, err := pp.Process("//@pso:pair a b")
	require.NoError(t, err)
	_, err = pp.Process("fn f() {}")
	require.NoError(t, err)
	assert.Empty(t, pp.Declarations())
	assert.Empty(t, pp.Pairs())
}

package shader

import (
	"testing"
	"testing/fstest"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testVertexInput = `struct VertexInput {
    @location(0) position: vec4f,
    @location(1) texcoord: vec2f,
    @location(2) normal: vec3f,
}`

const testShader = `//@oxy:include vertex

struct VertexOutput {
    @builtin(position) position: vec4f,
    @location(0) texcoord: vec2f,
}

/* a block comment /* nested */ with @vertex fn hidden() */
@group(0) @binding(1) var<uniform> transform: mat4x4f;
@group(0) @binding(0) var<uniform> material: vec4f;
@group(0) @binding(4) var baseSampler: sampler;
@group(0) @binding(2) var baseTexture: texture_2d<f32>;

@vertex
fn vs_main(input: VertexInput) -> VertexOutput {
    var output: VertexOutput;
    output.position = transform * input.position;
    output.texcoord = input.texcoord;
    return output;
}

// @fragment fn commented_out() {}
@fragment
fn fs_main(input: VertexOutput) -> @location(0) vec4f {
    return material * textureSample(baseTexture, baseSampler, input.texcoord);
}
`

func newTestCompiler() Compiler {
	fsys := fstest.MapFS{
		"shaders/object.wgsl": {Data: []byte(testShader)},
		"shaders/bad.wgsl":    {Data: []byte("//@oxy:include nope\n")},
	}
	return NewCompiler(WithFS(fsys), WithInclude("vertex", testVertexInput))
}

func TestStageFromProfile(t *testing.T) {
	tests := []struct {
		profile string
		want    Stage
		wantErr bool
	}{
		{"vs_6_0", StageVertex, false},
		{"ps_6_0", StageFragment, false},
		{"fs_1", StageFragment, false},
		{"VS_5_0", StageVertex, false},
		{"cs_6_0", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.profile, func(t *testing.T) {
			got, err := StageFromProfile(tt.profile)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownProfile)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompileVertexStage(t *testing.T) {
	c := newTestCompiler()
	blob, err := c.Compile("shaders/object.wgsl", "vs_main", "vs_6_0")
	require.NoError(t, err)

	assert.Equal(t, StageVertex, blob.Stage)
	assert.Equal(t, "shaders/object.wgsl:vs_main", blob.Key)
	assert.Contains(t, blob.Source, "@location(2) normal: vec3f")
	assert.Equal(t, []string{"vertex"}, blob.Includes)

	require.NotNil(t, blob.VertexLayout)
	assert.Equal(t, uint64(36), blob.VertexLayout.Stride)
	require.Len(t, blob.VertexLayout.Attributes, 3)
	assert.Equal(t, VertexAttribute{Name: "texcoord", Location: 1, Format: VertexFormatFloat32x2, Offset: 16}, blob.VertexLayout.Attributes[1])
	assert.Equal(t, uint64(24), blob.VertexLayout.Attributes[2].Offset)

	require.Len(t, blob.Bindings, 4)
	assert.Equal(t, Binding{Group: 0, Binding: 0, Name: "material", Kind: BindingKindUniform}, blob.Bindings[0])
	assert.Equal(t, BindingKindTexture, blob.Bindings[2].Kind)
	assert.Equal(t, BindingKindSampler, blob.Bindings[3].Kind)
}

func TestCompileFragmentStage(t *testing.T) {
	c := newTestCompiler()
	blob, err := c.Compile("shaders/object.wgsl", "fs_main", "ps_6_0")
	require.NoError(t, err)
	assert.Equal(t, StageFragment, blob.Stage)
	assert.Nil(t, blob.VertexLayout)
}

func TestCompileRejectsMissingEntryPoints(t *testing.T) {
	c := newTestCompiler()

	_, err := c.Compile("shaders/object.wgsl", "fs_main", "vs_6_0")
	assert.ErrorIs(t, err, ErrEntryPointNotFound)

	_, err = c.Compile("shaders/object.wgsl", "hidden", "vs_6_0")
	assert.ErrorIs(t, err, ErrEntryPointNotFound)

	_, err = c.Compile("shaders/object.wgsl", "commented_out", "ps_6_0")
	assert.ErrorIs(t, err, ErrEntryPointNotFound)
}

func TestCompileErrors(t *testing.T) {
	c := newTestCompiler()

	_, err := c.Compile("shaders/missing.wgsl", "vs_main", "vs_6_0")
	assert.ErrorIs(t, err, common.ErrFileNotFound)

	_, err = c.Compile("shaders/bad.wgsl", "vs_main", "vs_6_0")
	assert.ErrorContains(t, err, `unknown include "nope"`)

	_, err = c.Compile("shaders/object.wgsl", "vs_main", "gs_6_0")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

func TestCompileCaches(t *testing.T) {
	fsys := fstest.MapFS{"a.wgsl": {Data: []byte("@vertex fn main() {}")}}
	c := NewCompiler(WithFS(fsys))

	first, err := c.Compile("a.wgsl", "main", "vs_6_0")
	require.NoError(t, err)

	fsys["a.wgsl"] = &fstest.MapFile{Data: []byte("")}
	second, err := c.Compile("a.wgsl", "main", "vs_6_0")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPreProcessorMalformedInclude(t *testing.T) {
	pp := NewPreProcessor()
	_, _, err := pp.Process("//@oxy:include\n")
	assert.ErrorContains(t, err, "line 1")

	pp.Register("x", "struct X { a: f32, }")
	out, used, err := pp.Process("  //@oxy:include x\nfn f() {}")
	require.NoError(t, err)
	assert.Equal(t, "struct X { a: f32, }\nfn f() {}", out)
	assert.Equal(t, []string{"x"}, used)
}

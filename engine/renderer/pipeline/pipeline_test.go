package pipeline

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	vertexBlob = shader.Blob{
		Key:          "object3d.wgsl:vs_main",
		Stage:        shader.StageVertex,
		VertexLayout: &shader.VertexLayout{Stride: 36},
	}
	fragmentBlob = shader.Blob{Key: "object3d.wgsl:fs_main", Stage: shader.StageFragment}
)

func TestNewPipelineDefaults(t *testing.T) {
	p := NewPipeline("object3d")

	assert.Equal(t, "object3d", p.PipelineKey())
	assert.True(t, p.DepthTestEnabled())
	assert.True(t, p.DepthWriteEnabled())
	assert.Equal(t, CompareLessEqual, p.DepthCompare())
	assert.Equal(t, CullModeBack, p.CullMode())
	assert.Equal(t, FrontFaceCW, p.FrontFace())
	assert.Equal(t, TopologyTriangleList, p.Topology())
	assert.False(t, p.BlendEnabled())
	assert.Nil(t, p.Native())
}

func TestPipelineOptions(t *testing.T) {
	p := NewPipeline("overlay",
		WithVertexShader(vertexBlob),
		WithFragmentShader(fragmentBlob),
		WithDepthTestEnabled(false),
		WithDepthWriteEnabled(false),
		WithDepthCompare(CompareAlways),
		WithBlendEnabled(true),
		WithCullMode(CullModeNone),
		WithTopology(TopologyTriangleStrip),
		WithFrontFace(FrontFaceCCW),
	)

	require.NotNil(t, p.Shader(shader.StageVertex))
	assert.Equal(t, "object3d.wgsl:fs_main", p.Shader(shader.StageFragment).Key)
	assert.False(t, p.DepthTestEnabled())
	assert.Equal(t, CompareAlways, p.DepthCompare())
	assert.True(t, p.BlendEnabled())
	assert.Equal(t, CullModeNone, p.CullMode())
	assert.Equal(t, TopologyTriangleStrip, p.Topology())
	assert.Equal(t, FrontFaceCCW, p.FrontFace())
	assert.NoError(t, p.Validate())

	p.SetNative("native")
	assert.Equal(t, "native", p.Native())
}

func TestValidate(t *testing.T) {
	noLayout := vertexBlob
	noLayout.VertexLayout = nil

	tests := []struct {
		name string
		opts []PipelineBuilderOption
	}{
		{"missing vertex", []PipelineBuilderOption{WithFragmentShader(fragmentBlob)}},
		{"missing fragment", []PipelineBuilderOption{WithVertexShader(vertexBlob)}},
		{"swapped stages", []PipelineBuilderOption{WithVertexShader(fragmentBlob), WithFragmentShader(vertexBlob)}},
		{"no vertex input", []PipelineBuilderOption{WithVertexShader(noLayout), WithFragmentShader(fragmentBlob)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewPipeline("p", tt.opts...).Validate()
			assert.ErrorIs(t, err, ErrIncompletePipeline)
		})
	}
}

package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/shader"
)

// ErrIncompletePipeline is returned by Validate when a required stage is missing or mismatched.
var ErrIncompletePipeline = errors.New("incomplete pipeline")

// CullMode selects which triangle faces are discarded.
type CullMode int

const (
	CullModeNone CullMode = iota
	CullModeFront
	CullModeBack
)

// FrontFace selects the winding order of front-facing triangles.
type FrontFace int

const (
	// FrontFaceCW treats clockwise triangles as front-facing. This is the renderer default.
	FrontFaceCW FrontFace = iota
	FrontFaceCCW
)

// Topology selects how vertices are assembled into primitives.
type Topology int

const (
	TopologyTriangleList Topology = iota
	TopologyTriangleStrip
	TopologyLineList
	TopologyPointList
)

// CompareFunction is the depth test comparison.
type CompareFunction int

const (
	CompareLessEqual CompareFunction = iota
	CompareLess
	CompareAlways
)

// pipeline is the implementation of the Pipeline interface.
// It holds the shader blobs and the fixed-function state a backend builds its native
// pipeline object from.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	vertexShader, fragmentShader *shader.Blob

	// native is the backend pipeline object, set once the backend has created it
	native any

	depthTestEnabled  bool
	depthWriteEnabled bool
	depthCompare      CompareFunction
	blendEnabled      bool
	cullMode          CullMode
	topology          Topology
	frontFace         FrontFace
}

// Pipeline defines the interface for a render pipeline description: a vertex and a
// fragment shader blob plus depth, blend, cull and topology state. It carries no backend
// types; the backend stores its native object through SetNative.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the blob for stage, or nil if not set.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - *shader.Blob: the compiled stage, or nil
	Shader(stage shader.Stage) *shader.Blob

	// Native returns the backend pipeline object, nil until the backend created it.
	// Note: The caller is responsible for type asserting the returned value.
	//
	// Returns:
	//   - any: the backend pipeline object
	Native() any

	// SetNative stores the backend pipeline object.
	//
	// Parameters:
	//   - p: the backend pipeline object
	SetNative(p any)

	// DepthTestEnabled returns whether depth testing is enabled for this pipeline.
	DepthTestEnabled() bool

	// DepthWriteEnabled returns whether depth writing is enabled for this pipeline.
	DepthWriteEnabled() bool

	// DepthCompare returns the depth test comparison.
	DepthCompare() CompareFunction

	// BlendEnabled returns whether alpha blending is enabled for this pipeline.
	BlendEnabled() bool

	// CullMode returns the cull mode configured for this pipeline.
	CullMode() CullMode

	// Topology returns the primitive topology configured for this pipeline.
	Topology() Topology

	// FrontFace returns the front face winding order configured for this pipeline.
	FrontFace() FrontFace

	// Validate checks that both stages are present, have the right stage and that the
	// vertex stage declares a vertex input layout.
	//
	// Returns:
	//   - error: ErrIncompletePipeline describing the first problem, nil if valid
	Validate() error
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. Defaults: depth test and
// write on with LessEqual, back-face culling with clockwise front faces, triangle lists,
// blending off.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:       pipelineKey,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		depthCompare:      CompareLessEqual,
		cullMode:          CullModeBack,
		topology:          TopologyTriangleList,
		frontFace:         FrontFaceCW,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(stage shader.Stage) *shader.Blob {
	switch stage {
	case shader.StageVertex:
		return p.vertexShader
	case shader.StageFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Native() any {
	return p.native
}

func (p *pipeline) SetNative(native any) {
	p.native = native
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) DepthWriteEnabled() bool {
	return p.depthWriteEnabled
}

func (p *pipeline) DepthCompare() CompareFunction {
	return p.depthCompare
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullMode() CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() Topology {
	return p.topology
}

func (p *pipeline) FrontFace() FrontFace {
	return p.frontFace
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil {
		return fmt.Errorf("%s: missing vertex stage: %w", p.pipelineKey, ErrIncompletePipeline)
	}
	if p.fragmentShader == nil {
		return fmt.Errorf("%s: missing fragment stage: %w", p.pipelineKey, ErrIncompletePipeline)
	}
	if p.vertexShader.Stage != shader.StageVertex {
		return fmt.Errorf("%s: vertex blob %s is a %s shader: %w", p.pipelineKey, p.vertexShader.Key, p.vertexShader.Stage, ErrIncompletePipeline)
	}
	if p.fragmentShader.Stage != shader.StageFragment {
		return fmt.Errorf("%s: fragment blob %s is a %s shader: %w", p.pipelineKey, p.fragmentShader.Key, p.fragmentShader.Stage, ErrIncompletePipeline)
	}
	if p.vertexShader.VertexLayout == nil {
		return fmt.Errorf("%s: vertex blob %s declares no vertex input: %w", p.pipelineKey, p.vertexShader.Key, ErrIncompletePipeline)
	}
	return nil
}

package material

import (
	"github.com/Carmen-Shannon/oxy-frame/common"
)

// material is the implementation of the Material interface.
type material struct {
	name            string
	color           [4]float32
	lightingEnabled bool
	uvTransform     common.Transform
	textureKey      string
}

// Material defines the surface parameters a drawable is shaded with: a base color, a
// lighting toggle, a UV transform and the key of the texture it samples.
//
// Materials are mutated only between frames by the UI/animation layer and are read once
// per frame when their constants are written.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Color retrieves the RGBA base color.
	//
	// Returns:
	//   - [4]float32: the base color
	Color() [4]float32

	// SetColor replaces the RGBA base color.
	//
	// Parameters:
	//   - color: the new base color
	SetColor(color [4]float32)

	// LightingEnabled reports whether the directional light is applied.
	//
	// Returns:
	//   - bool: true if lit
	LightingEnabled() bool

	// SetLightingEnabled toggles the directional light.
	//
	// Parameters:
	//   - enabled: true to apply lighting
	SetLightingEnabled(enabled bool)

	// UVTransform retrieves the UV scale, rotation and translation. Only Rotate.Z is used.
	//
	// Returns:
	//   - common.Transform: the UV transform
	UVTransform() common.Transform

	// SetUVTransform replaces the UV transform.
	//
	// Parameters:
	//   - t: the new UV transform
	SetUVTransform(t common.Transform)

	// TextureKey retrieves the key of the texture this material samples.
	//
	// Returns:
	//   - string: the texture key, empty for the white placeholder
	TextureKey() string

	// GPU builds the constant block for this material.
	//
	// Returns:
	//   - GPUMaterial: the constants, with the UV matrix composed as S * Rz * T
	GPU() GPUMaterial
}

var _ Material = &material{}

// NewMaterial creates a new Material. Defaults: white, lit, identity UV transform.
//
// Parameters:
//   - options: variadic MaterialBuilderOption functions
//
// Returns:
//   - Material: the material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		color:           [4]float32{1, 1, 1, 1},
		lightingEnabled: true,
		uvTransform:     common.IdentityTransform(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Color() [4]float32 {
	return m.color
}

func (m *material) SetColor(color [4]float32) {
	m.color = color
}

func (m *material) LightingEnabled() bool {
	return m.lightingEnabled
}

func (m *material) SetLightingEnabled(enabled bool) {
	m.lightingEnabled = enabled
}

func (m *material) UVTransform() common.Transform {
	return m.uvTransform
}

func (m *material) SetUVTransform(t common.Transform) {
	m.uvTransform = t
}

func (m *material) TextureKey() string {
	return m.textureKey
}

func (m *material) GPU() GPUMaterial {
	g := GPUMaterial{Color: m.color}
	if m.lightingEnabled {
		g.EnableLighting = 1
	}
	common.UVAffine(g.UVTransform[:], m.uvTransform)
	return g
}

package material

import (
	"github.com/Carmen-Shannon/oxy-frame/common"
)

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithColor is an option builder that sets the RGBA base color of the material.
//
// Parameters:
//   - color: the base color as RGBA float32 values
//
// Returns:
//   - MaterialBuilderOption: a function that applies the color option to a material
func WithColor(color [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.color = color
	}
}

// WithLighting is an option builder that toggles directional lighting for the material.
//
// Parameters:
//   - enabled: true to apply the directional light
//
// Returns:
//   - MaterialBuilderOption: a function that applies the lighting option to a material
func WithLighting(enabled bool) MaterialBuilderOption {
	return func(m *material) {
		m.lightingEnabled = enabled
	}
}

// WithUVTransform is an option builder that sets the UV transform of the material.
//
// Parameters:
//   - t: the UV scale, rotation and translation
//
// Returns:
//   - MaterialBuilderOption: a function that applies the UV transform option to a material
func WithUVTransform(t common.Transform) MaterialBuilderOption {
	return func(m *material) {
		m.uvTransform = t
	}
}

// WithTextureKey is an option builder that sets the key of the texture the material samples.
//
// Parameters:
//   - key: the texture key
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTextureKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.textureKey = key
	}
}

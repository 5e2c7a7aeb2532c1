package game_object

import (
	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject.
type GameObjectBuilderOption func(*gameObject)

// WithName sets the object's name.
//
// Parameters:
//   - name: the object name
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithName(name string) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.name = name
	}
}

// WithEnabled sets whether the object starts enabled.
//
// Parameters:
//   - enabled: true to draw the object
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.enabled.Store(enabled)
	}
}

// WithMesh sets a loaded mesh as the object's geometry.
//
// Parameters:
//   - m: the mesh
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithMesh(m model.Mesh) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.geometry = GeometryMesh
		g.mesh = m
	}
}

// WithSprite makes the object a screen-space quad of the given pixel size.
//
// Parameters:
//   - width: quad width in pixels
//   - height: quad height in pixels
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithSprite(width, height float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.geometry = GeometrySprite
		g.mesh = model.NewSpriteQuad(width, height)
	}
}

// WithSphere makes the object a tessellated unit sphere.
//
// Parameters:
//   - subdivision: latitude and longitude bands
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithSphere(subdivision uint32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.geometry = GeometrySphere
		g.mesh = model.NewSphere(subdivision)
	}
}

// WithMaterial sets the object's material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithMaterial(m material.Material) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.mat = m
	}
}

// WithTransform sets the object's initial world transform.
//
// Parameters:
//   - t: the transform
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithTransform(t common.Transform) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.transform = t
	}
}

// WithRotationSpeed sets a constant spin in radians per second.
//
// Parameters:
//   - speed: radians per second around X, Y and Z
//
// Returns:
//   - GameObjectBuilderOption: option function to apply
func WithRotationSpeed(speed [3]float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.rotationSpeed = speed
	}
}

package game_object

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-frame/common"
	"github.com/Carmen-Shannon/oxy-frame/engine/model"
	"github.com/Carmen-Shannon/oxy-frame/engine/renderer/material"
)

// Geometry identifies where a GameObject's vertices come from and which projection it is
// drawn with.
type Geometry int

const (
	// GeometryMesh is a mesh loaded from an asset, drawn in perspective.
	GeometryMesh Geometry = iota
	// GeometrySprite is a screen-space quad, drawn with an orthographic pixel projection
	// and an identity view.
	GeometrySprite
	// GeometrySphere is a tessellated unit sphere, drawn in perspective.
	GeometrySphere
)

func (g Geometry) String() string {
	switch g {
	case GeometryMesh:
		return "mesh"
	case GeometrySprite:
		return "sprite"
	case GeometrySphere:
		return "sphere"
	default:
		return "unknown"
	}
}

type gameObject struct {
	id       uint64
	name     string
	enabled  atomic.Bool
	geometry Geometry
	mesh     model.Mesh
	mat      material.Material

	transform     common.Transform
	rotationSpeed [3]float32
}

// GameObject is one drawable entry of a scene: a geometry source, a material, a transform
// and an optional constant spin. The mesh is immutable; the material and transform are
// mutated between frames and read once per frame.
type GameObject interface {
	// ID returns the object's identifier, its index in the owning scene.
	ID() uint64

	// SetID sets the object's identifier. Called by the scene when the object is added.
	SetID(id uint64)

	// Name returns the object's name.
	Name() string

	// Enabled returns whether this object is recorded each frame.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled sets whether this object is recorded each frame.
	//
	// Parameters:
	//   - enabled: true to draw the object
	SetEnabled(enabled bool)

	// Geometry returns the kind of geometry the object draws.
	Geometry() Geometry

	// Is2D reports whether the object is drawn in screen space.
	Is2D() bool

	// Mesh returns the object's vertex source.
	//
	// Returns:
	//   - model.Mesh: the mesh
	Mesh() model.Mesh

	// Material returns the object's material.
	//
	// Returns:
	//   - material.Material: the material
	Material() material.Material

	// Transform returns the object's world transform.
	//
	// Returns:
	//   - common.Transform: the transform
	Transform() common.Transform

	// SetTransform replaces the object's world transform.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t common.Transform)

	// RotationSpeed returns the Euler spin in radians per second.
	RotationSpeed() [3]float32

	// SetRotationSpeed sets the Euler spin in radians per second.
	//
	// Parameters:
	//   - speed: radians per second around X, Y and Z
	SetRotationSpeed(speed [3]float32)

	// Advance applies dt seconds of spin to the transform.
	//
	// Parameters:
	//   - dt: elapsed time in seconds
	Advance(dt float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject with an identity transform, a default
// material and no mesh.
//
// Parameters:
//   - options: variadic GameObjectBuilderOption functions
//
// Returns:
//   - GameObject: the object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		transform: common.IdentityTransform(),
		mat:       material.NewMaterial(),
	}
	g.enabled.Store(true)
	for _, opt := range options {
		opt(g)
	}
	return g
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) SetID(id uint64) {
	g.id = id
}

func (g *gameObject) Name() string {
	return g.name
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Geometry() Geometry {
	return g.geometry
}

func (g *gameObject) Is2D() bool {
	return g.geometry == GeometrySprite
}

func (g *gameObject) Mesh() model.Mesh {
	return g.mesh
}

func (g *gameObject) Material() material.Material {
	return g.mat
}

func (g *gameObject) Transform() common.Transform {
	return g.transform
}

func (g *gameObject) SetTransform(t common.Transform) {
	g.transform = t
}

func (g *gameObject) RotationSpeed() [3]float32 {
	return g.rotationSpeed
}

func (g *gameObject) SetRotationSpeed(speed [3]float32) {
	g.rotationSpeed = speed
}

func (g *gameObject) Advance(dt float32) {
	for i := range g.rotationSpeed {
		g.transform.Rotate[i] += g.rotationSpeed[i] * dt
	}
}

package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// DefaultTransform is the camera placement used when none is configured: ten units back
// along -Z looking toward the origin.
var DefaultTransform = common.Transform{
	Scale:     [3]float32{1, 1, 1},
	Translate: [3]float32{0, 0, -10},
}

type cameraImpl struct {
	mu *sync.Mutex

	transform common.Transform
	initial   common.Transform

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32

	controller CameraController
}

// Camera holds a world Transform and perspective settings and derives the view and
// projection matrices from them. Matrices are row-major and used with row vectors.
type Camera interface {
	// Transform returns the camera's world transform.
	//
	// Returns:
	//   - common.Transform: the current transform
	Transform() common.Transform

	// SetTransform replaces the camera's world transform and recomputes matrices.
	//
	// Parameters:
	//   - t: the new transform
	SetTransform(t common.Transform)

	// Move offsets the translation by d in world space.
	//
	// Parameters:
	//   - d: the world-space offset
	Move(d [3]float32)

	// Reset restores the transform the camera was created with.
	Reset()

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// SetAspect sets the aspect ratio and recomputes matrices.
	//
	// Parameters:
	//   - aspect: the aspect ratio
	SetAspect(aspect float32)

	// ViewMatrix returns Inverse(World(transform)).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the perspective projection.
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns View * Projection.
	//
	// Returns:
	//   - [16]float32: the combined matrix
	ViewProjectionMatrix() [16]float32

	// Controller returns the attached CameraController, or nil.
	Controller() CameraController

	// SetController attaches a CameraController to the camera.
	//
	// Parameters:
	//   - ctrl: the controller to attach
	SetController(ctrl CameraController)

	// Update advances the attached controller by dt seconds and recomputes matrices.
	//
	// Parameters:
	//   - dt: elapsed time in seconds since the last update
	Update(dt float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a Camera at DefaultTransform with a 0.45 rad field of view, an
// aspect of 1 and a [0.1, 100] depth range.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:        &sync.Mutex{},
		transform: DefaultTransform,
		fov:       0.45,
		aspect:    1.0,
		near:      0.1,
		far:       100.0,
	}
	for _, option := range options {
		option(c)
	}
	c.initial = c.transform
	c.updateMatrices()
	if c.controller != nil {
		c.controller.attach(c)
	}
	return c
}

func (c *cameraImpl) Transform() common.Transform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transform
}

func (c *cameraImpl) SetTransform(t common.Transform) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform = t
	c.updateMatrices()
}

func (c *cameraImpl) Move(d [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range d {
		c.transform.Translate[i] += d[i]
	}
	c.updateMatrices()
}

func (c *cameraImpl) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.transform = c.initial
	c.updateMatrices()
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) SetAspect(aspect float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if aspect <= 0 {
		return
	}
	c.aspect = aspect
	c.updateMatrices()
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Controller() CameraController {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.controller
}

func (c *cameraImpl) SetController(ctrl CameraController) {
	c.mu.Lock()
	c.controller = ctrl
	c.mu.Unlock()
	if ctrl != nil {
		ctrl.attach(c)
	}
}

// Update must not hold the mutex while the controller runs: the controller calls back
// into Move and Reset.
func (c *cameraImpl) Update(dt float32) {
	c.mu.Lock()
	ctrl := c.controller
	c.mu.Unlock()
	if ctrl != nil {
		ctrl.Update(dt)
	}
}

// updateMatrices recalculates view, projection and view-projection. A singular world
// matrix (zero scale) leaves the previous view in place. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	var world [16]float32
	common.Affine(world[:], c.transform)
	common.Invert4(c.viewMatrix[:], world[:])

	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.viewMatrix[:], c.projectionMatrix[:])
}

package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-frame/common"
)

// keyboardController moves the camera on its world axes:
//   - W/S forward and back along Z
//   - A/D left and right along X
//   - Q/E down and up along Y
//   - R resets the camera
//   - T flips the texture toggle
type keyboardController struct {
	mu *sync.Mutex

	camera Camera
	held   map[uint32]bool

	moveSpeed float32
	textures  bool
	onToggle  func(enabled bool)
}

var _ CameraController = &keyboardController{}

// movement maps a held key to a unit world-space direction.
var movement = map[uint32][3]float32{
	common.KeyW: {0, 0, 1},
	common.KeyS: {0, 0, -1},
	common.KeyA: {-1, 0, 0},
	common.KeyD: {1, 0, 0},
	common.KeyQ: {0, -1, 0},
	common.KeyE: {0, 1, 0},
}

// NewKeyboardController creates a controller with a move speed of 5 units per second and
// textures enabled.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewKeyboardController(options ...CameraControllerOption) CameraController {
	kc := &keyboardController{
		mu:        &sync.Mutex{},
		held:      make(map[uint32]bool),
		moveSpeed: 5.0,
		textures:  true,
	}
	for _, option := range options {
		option(kc)
	}
	return kc
}

func (kc *keyboardController) attach(c Camera) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	kc.camera = c
}

func (kc *keyboardController) KeyDown(keyCode uint32) {
	kc.mu.Lock()
	if _, ok := movement[keyCode]; ok {
		kc.held[keyCode] = true
		kc.mu.Unlock()
		return
	}
	cam := kc.camera
	var toggled func(bool)
	var enabled bool
	if keyCode == common.KeyT {
		kc.textures = !kc.textures
		toggled, enabled = kc.onToggle, kc.textures
	}
	kc.mu.Unlock()

	switch keyCode {
	case common.KeyR:
		if cam != nil {
			cam.Reset()
		}
	case common.KeyT:
		if toggled != nil {
			toggled(enabled)
		}
	}
}

func (kc *keyboardController) KeyUp(keyCode uint32) {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	delete(kc.held, keyCode)
}

func (kc *keyboardController) Update(dt float32) {
	kc.mu.Lock()
	cam := kc.camera
	var d [3]float32
	for key := range kc.held {
		dir := movement[key]
		for i := range d {
			d[i] += dir[i] * kc.moveSpeed * dt
		}
	}
	kc.mu.Unlock()

	if cam == nil || d == [3]float32{} {
		return
	}
	cam.Move(d)
}

func (kc *keyboardController) MoveSpeed() float32 {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.moveSpeed
}

func (kc *keyboardController) TexturesEnabled() bool {
	kc.mu.Lock()
	defer kc.mu.Unlock()
	return kc.textures
}

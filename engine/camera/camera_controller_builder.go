package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*keyboardController)

// WithMoveSpeed sets the translation speed.
//
// Parameters:
//   - speed: world units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the move speed
func WithMoveSpeed(speed float32) CameraControllerOption {
	return func(kc *keyboardController) {
		kc.moveSpeed = speed
	}
}

// WithTextureToggle registers a callback run each time T flips the texture toggle.
//
// Parameters:
//   - fn: receives the new toggle state
//
// Returns:
//   - CameraControllerOption: functional option to set the toggle callback
func WithTextureToggle(fn func(enabled bool)) CameraControllerOption {
	return func(kc *keyboardController) {
		kc.onToggle = fn
	}
}

// WithTexturesEnabled sets the initial texture toggle state.
func WithTexturesEnabled(enabled bool) CameraControllerOption {
	return func(kc *keyboardController) {
		kc.textures = enabled
	}
}
